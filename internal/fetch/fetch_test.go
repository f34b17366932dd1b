package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicsignal/parliament-mcp/internal/apperr"
	"github.com/civicsignal/parliament-mcp/internal/config"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Fetch.TimeoutSeconds = 2
	cfg.Fetch.Attempts = 3
	cfg.Fetch.BackoffMillis = 500
	cfg.Fetch.UserAgent = "parliament-mcp-test"
	cfg.Fetch.BreakerThreshold = 100 // keep the breaker out of retry tests
	cfg.Fetch.BreakerCooldownS = 1
	return cfg
}

// newTestEngine builds an engine whose sleeps are recorded, not taken.
func newTestEngine(t *testing.T) (*Engine, *[]time.Duration) {
	t.Helper()
	e := NewEngine(testConfig())
	var slept []time.Duration
	e.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return e, &slept
}

func TestGetSuccess(t *testing.T) {
	var gotUA atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.Header.Get("User-Agent"))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	e, slept := newTestEngine(t)
	body, err := e.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, "parliament-mcp-test", gotUA.Load())
	assert.Empty(t, *slept)
}

func TestGetRetriesTransportErrorsWithLinearBackoff(t *testing.T) {
	// A server that is immediately closed yields connection-refused errors.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	e, slept := newTestEngine(t)
	_, err := e.Get(context.Background(), url)
	require.Error(t, err)

	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindUpstream, ae.Kind)
	assert.Zero(t, ae.Status)

	// Two pauses between three attempts, growing linearly.
	require.Equal(t, []time.Duration{500 * time.Millisecond, 1000 * time.Millisecond}, *slept)
}

func TestGetRetriesStatusErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	e, slept := newTestEngine(t)
	body, err := e.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 1000 * time.Millisecond}, *slept)
}

func TestGetReturnsLastStatusErrorAfterExhaustingAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	e, slept := newTestEngine(t)
	_, err := e.Get(context.Background(), srv.URL)
	require.Error(t, err)

	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, ae.Status)
	assert.Equal(t, "upstream exploded", ae.Body)
	assert.False(t, ae.RateLimited)
	assert.Equal(t, int32(3), calls.Load())
	assert.Len(t, *slept, 2)
}

func TestGetRateLimitedHint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e, _ := newTestEngine(t)
	_, err := e.Get(context.Background(), srv.URL)
	require.Error(t, err)

	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.True(t, ae.RateLimited)
	assert.Equal(t, http.StatusTooManyRequests, ae.Status)
}

func TestGetBodySnippetIsCapped(t *testing.T) {
	big := make([]byte, 4096)
	for i := range big {
		big[i] = 'x'
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write(big)
	}))
	defer srv.Close()

	e, _ := newTestEngine(t)
	_, err := e.Get(context.Background(), srv.URL)
	require.Error(t, err)

	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Len(t, ae.Body, maxBodySnippet)
}

func TestGetBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	cfg := testConfig()
	cfg.Fetch.BreakerThreshold = 2
	e := NewEngine(cfg)
	e.sleep = func(context.Context, time.Duration) error { return nil }

	_, err := e.Get(context.Background(), url)
	require.Error(t, err)
	// Attempts 1 and 2 failed against the dead server; the breaker tripped
	// and short-circuited what followed.
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestJSONDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"Climate Bill","id":42}`))
	}))
	defer srv.Close()

	e, _ := newTestEngine(t)
	type bill struct {
		Name string `json:"name"`
		ID   int    `json:"id"`
	}
	got, err := JSON[bill](context.Background(), e, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, bill{Name: "Climate Bill", ID: 42}, got)
}

func TestJSONDecodeFailureIsInternal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	e, _ := newTestEngine(t)
	_, err := JSON[map[string]any](context.Background(), e, srv.URL)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}
