// Package fetch implements the resilient HTTP GET engine used by every
// upstream client. It layers an egress rate limiter, a circuit breaker,
// and a bounded retry loop with linear backoff over a plain http.Client.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/civicsignal/parliament-mcp/internal/apperr"
	"github.com/civicsignal/parliament-mcp/internal/config"
)

// maxBodySnippet caps how much of an error response body is kept for
// diagnostics.
const maxBodySnippet = 512

// ErrCircuitOpen is returned when the breaker rejects a request outright.
var ErrCircuitOpen = errors.New("upstream circuit breaker is open")

// Engine performs GET requests with retries, backoff, rate limiting and a
// circuit breaker. Safe for concurrent use.
type Engine struct {
	client    *http.Client
	attempts  int
	backoff   time.Duration
	userAgent string
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker

	// sleep is swappable in tests so retry timing can be observed
	// without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewEngine builds an engine from the fetch section of the configuration.
func NewEngine(cfg *config.Config) *Engine {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Fetch.BypassProxy {
		transport.Proxy = nil
	}

	var limiter *rate.Limiter
	if cfg.Fetch.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Fetch.RatePerSecond), cfg.Fetch.RatePerSecond)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "UpstreamFetch",
		MaxRequests: 2,
		Interval:    0, // don't clear counts periodically
		Timeout:     time.Duration(cfg.Fetch.BreakerCooldownS) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.Fetch.BreakerThreshold)
		},
	})

	return &Engine{
		client: &http.Client{
			Timeout:   cfg.FetchTimeout(),
			Transport: transport,
		},
		attempts:  cfg.Fetch.Attempts,
		backoff:   cfg.Backoff(),
		userAgent: cfg.Fetch.UserAgent,
		limiter:   limiter,
		breaker:   breaker,
		sleep:     sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Get fetches url and returns the response body. Failed attempts are
// retried up to the configured attempt count with a linearly growing
// pause between attempts (none after the last). Both transport failures
// and non-2xx statuses count as retry-eligible; the last error, carrying
// the status and a body snippet where one was received, is returned once
// the attempts are exhausted.
func (e *Engine) Get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= e.attempts; attempt++ {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return nil, apperr.UpstreamTransport(url, err)
			}
		}

		body, err := e.attemptOnce(ctx, url)
		if err == nil {
			return body, nil
		}

		// Only an open breaker and cancellation cut the loop short.
		if errors.Is(err, ErrCircuitOpen) || ctx.Err() != nil {
			return nil, err
		}

		lastErr = err
		if attempt < e.attempts {
			if serr := e.sleep(ctx, time.Duration(attempt)*e.backoff); serr != nil {
				return nil, apperr.UpstreamTransport(url, serr)
			}
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, apperr.Internal("fetch of %s exhausted retries without a recorded error", url)
}

func (e *Engine) attemptOnce(ctx context.Context, url string) ([]byte, error) {
	result, err := e.breaker.Execute(func() (interface{}, error) {
		return e.doRequest(ctx, url)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s", ErrCircuitOpen, url)
		}
		return nil, err
	}
	return result.([]byte), nil
}

func (e *Engine) doRequest(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.Internalf(err, "build request for %s", url)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, apperr.UpstreamTransport(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySnippet))
		return nil, apperr.Upstream(url, resp.StatusCode, string(snippet))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.UpstreamTransport(url, err)
	}
	return body, nil
}
