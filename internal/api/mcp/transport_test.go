package mcp_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicsignal/parliament-mcp/internal/api/mcp"
	"github.com/civicsignal/parliament-mcp/internal/config"
)

func newTestRouter(t *testing.T, apiKey string) http.Handler {
	t.Helper()
	server, err := mcp.NewServer(&fakeExecutor{}, &fakeResearch{})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Server.RateLimitPerSecond = 1000
	cfg.Server.RateLimitBurst = 1000
	cfg.Security.APIKey = apiKey
	return mcp.NewRouter(cfg, server)
}

func postMCP(t *testing.T, router http.Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	request := httptest.NewRequest(http.MethodPost, "/api/mcp", strings.NewReader(body))
	for key, value := range headers {
		request.Header.Set(key, value)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func TestRouterHandlesInitialize(t *testing.T) {
	router := newTestRouter(t, "")

	recorder := postMCP(t, router,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","capabilities":{},"clientInfo":{"name":"c","version":"1"}}}`,
		nil)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var response rpcResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Nil(t, response.Error)
}

func TestRouterNotificationReturnsNoContent(t *testing.T) {
	router := newTestRouter(t, "")

	init := postMCP(t, router,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"1.0","capabilities":{},"clientInfo":{"name":"c","version":"1"}}}`,
		nil)
	require.Equal(t, http.StatusOK, init.Code)

	recorder := postMCP(t, router, `{"jsonrpc":"2.0","method":"initialized"}`, nil)
	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Empty(t, recorder.Body.String())
}

func TestRouterRejectsNonPost(t *testing.T) {
	router := newTestRouter(t, "")

	request := httptest.NewRequest(http.MethodGet, "/api/mcp", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
}

func TestRouterForwardsProtocolVersionHeader(t *testing.T) {
	router := newTestRouter(t, "")

	// A header that no initialize could accept is rejected by the
	// dispatcher, proving the header reached it.
	recorder := postMCP(t, router,
		`{"jsonrpc":"2.0","id":1,"method":"ping"}`,
		map[string]string{"MCP-Protocol-Version": "1999-01-01"})
	require.Equal(t, http.StatusOK, recorder.Code)

	var response rpcResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	require.NotNil(t, response.Error)
	assert.Equal(t, mcp.ErrCodeInvalidRequest, response.Error.Code)
}

func TestRouterAPIKeyEnforcement(t *testing.T) {
	router := newTestRouter(t, "secret-key")

	missing := postMCP(t, router, `{"jsonrpc":"2.0","id":1,"method":"ping"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, missing.Code)

	wrong := postMCP(t, router, `{"jsonrpc":"2.0","id":1,"method":"ping"}`,
		map[string]string{"x-api-key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)

	right := postMCP(t, router, `{"jsonrpc":"2.0","id":1,"method":"ping"}`,
		map[string]string{"x-api-key": "secret-key"})
	assert.Equal(t, http.StatusOK, right.Code)
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, "")

	request := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"status":"ok"}`, recorder.Body.String())
}

func TestRouterRateLimiting(t *testing.T) {
	server, err := mcp.NewServer(&fakeExecutor{}, &fakeResearch{})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Server.RateLimitPerSecond = 1
	cfg.Server.RateLimitBurst = 1
	router := mcp.NewRouter(cfg, server)

	first := postMCP(t, router, `{"jsonrpc":"2.0","id":1,"method":"ping"}`, nil)
	assert.Equal(t, http.StatusOK, first.Code)

	second := postMCP(t, router, `{"jsonrpc":"2.0","id":2,"method":"ping"}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestRouterRateLimitDisabledByZeroRate(t *testing.T) {
	server, err := mcp.NewServer(&fakeExecutor{}, &fakeResearch{})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Server.RateLimitPerSecond = 0
	router := mcp.NewRouter(cfg, server)

	for i := 0; i < 50; i++ {
		recorder := postMCP(t, router, `{"jsonrpc":"2.0","id":1,"method":"ping"}`, nil)
		assert.Equal(t, http.StatusOK, recorder.Code)
	}
}
