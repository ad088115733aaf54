package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() *RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.InitialInterval = time.Millisecond
	cfg.MaxInterval = 2 * time.Millisecond
	return cfg
}

func TestPostJSONSendsBodyAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "1000", body["amount"])

		_ = json.NewEncoder(w).Encode(map[string]string{"id": "q1"})
	}))
	defer srv.Close()

	c := NewHTTPClient(WithBaseURL(srv.URL+"/"), WithDefaultHeader("x-api-key", "secret"))

	var out map[string]string
	err := c.PostJSON(context.Background(), "quote", map[string]string{"amount": "1000"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "q1", out["id"])
}

func TestRetriesTransientStatusWithFreshBody(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "x", body["k"])

		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"ok":"yes"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(WithBaseURL(srv.URL), WithRetryConfig(fastRetry()))

	var out map[string]string
	require.NoError(t, c.PostJSON(context.Background(), "/x", map[string]string{"k": "x"}, &out))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, "yes", out["ok"])
}

func TestHTTPErrorKeepsBodyOutOfMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"private detail"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(WithBaseURL(srv.URL), WithRetryConfig(nil))

	resp, err := c.Get(context.Background(), "/q")
	require.Error(t, err)
	require.NotNil(t, resp)

	httpErr, ok := AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Contains(t, string(httpErr.Body), "private detail")
	assert.NotContains(t, err.Error(), "private detail")
}

func TestContextCancellationStopsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewHTTPClient(WithBaseURL(srv.URL), WithRetryConfig(fastRetry()))
	_, err := c.Get(ctx, "/q")
	assert.Error(t, err)
}
