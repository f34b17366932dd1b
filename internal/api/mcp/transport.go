// transport.go wires the dispatcher to HTTP. The whole protocol runs
// over a single POST endpoint; a health probe sits beside it. Diagnostic
// output goes to stderr only.
package mcp

import (
	"crypto/subtle"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/civicsignal/parliament-mcp/internal/config"
)

// protocolVersionHeader carries the out-of-band protocol version hint.
const protocolVersionHeader = "MCP-Protocol-Version"

// maxRequestBody bounds inbound request frames (4 MB).
const maxRequestBody = 4 << 20

// NewRouter builds the HTTP surface: POST /api/mcp for the protocol and
// GET /api/health for liveness, wrapped in auth and rate-limit
// middleware per the server configuration.
func NewRouter(cfg *config.Config, server *Server) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/mcp", handleMCP(server))
	mux.HandleFunc("/api/health", handleHealth)

	var handler http.Handler = mux
	if cfg.Server.RateLimitPerSecond > 0 {
		limiter := newRateLimiter(float64(cfg.Server.RateLimitPerSecond), cfg.Server.RateLimitBurst)
		handler = rateLimitMiddleware(handler, limiter)
	}
	handler = requireAPIKey(handler, cfg.Security.APIKey)
	return handler
}

func handleMCP(server *Server) http.HandlerFunc {
	logger := log.New(os.Stderr, "parliament-mcp: ", log.LstdFlags)

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
		if err != nil {
			http.Error(w, `{"error":"failed to read request body"}`, http.StatusBadRequest)
			return
		}

		response, err := server.HandleRequest(r.Context(), body, r.Header.Get(protocolVersionHeader))
		if err != nil {
			logger.Printf("handler error: %v", err)
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			return
		}
		if response == nil {
			// Notification: no response frame.
			w.WriteHeader(http.StatusNoContent)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(response); err != nil {
			logger.Printf("write error: %v", err)
		}
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// requireAPIKey enforces the x-api-key header with a constant-time
// comparison. An empty configured key disables authentication.
func requireAPIKey(next http.Handler, apiKey string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if apiKey == "" {
			next.ServeHTTP(w, r)
			return
		}
		provided := r.Header.Get("x-api-key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			w.Header().Set("Content-Type", "application/json")
			http.Error(w, `{"error":"unauthorized","code":"UNAUTHORIZED"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimiter wraps a rate.Limiter for HTTP middleware.
type rateLimiter struct {
	limiter *rate.Limiter
}

// newRateLimiter builds the token bucket. Callers gate on a positive
// rate; a zero rate means the middleware is not installed at all.
func newRateLimiter(reqPerSec float64, burst int) *rateLimiter {
	if burst <= 0 {
		burst = int(reqPerSec) * 2
	}
	return &rateLimiter{
		limiter: rate.NewLimiter(rate.Every(time.Duration(1000.0/reqPerSec)*time.Millisecond), burst),
	}
}

func rateLimitMiddleware(next http.Handler, rl *rateLimiter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.limiter.Allow() {
			w.Header().Set("Content-Type", "application/json")
			http.Error(w, `{"error":"rate limit exceeded","code":"RATE_LIMITED"}`, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
