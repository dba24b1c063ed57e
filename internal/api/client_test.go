package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noopSleep is a sleep function that returns immediately, for fast tests.
func noopSleep(_ context.Context, _ time.Duration) error {
	return nil
}

// staticToken is a test TokenSource that returns a fixed token.
type staticToken string

func (t staticToken) Token() string {
	return string(t)
}

// newTestClient creates a Client pointing at the given httptest server
// with instant retry sleeps for fast tests.
func newTestClient(t *testing.T, url string) *Client {
	t.Helper()

	c := NewClient(staticToken("test-token"), Options{
		BaseURL:       url,
		UploadBaseURL: url,
	})
	c.sleepFunc = noopSleep

	return c
}

func TestDo_Success(t *testing.T) {
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"value":"ok"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	resp, err := client.do(context.Background(), http.MethodGet, "/api/account", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"value":"ok"}`, string(body))
	assert.Equal(t, "Bearer test-token", gotAuth)
}

func TestDo_NoToken(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(staticToken(""), Options{BaseURL: srv.URL})

	_, err := client.do(context.Background(), http.MethodGet, "/api/fs", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	// The request must fail before anything is sent.
	assert.Equal(t, int32(0), calls.Load())
}

func TestDo_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"bad request", http.StatusBadRequest, ErrBadRequest},
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", http.StatusForbidden, ErrForbidden},
		{"not found", http.StatusNotFound, ErrNotFound},
		{"conflict", http.StatusConflict, ErrConflict},
		{"method not allowed", http.StatusMethodNotAllowed, ErrUnexpectedStatus},
		{"gone", http.StatusGone, ErrUnexpectedStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":"something"}`))
			}))
			defer srv.Close()

			client := newTestClient(t, srv.URL)
			_, err := client.do(context.Background(), http.MethodGet, "/api/fs", nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, `{"error":"something"}`, apiErr.Body)
		})
	}
}

func TestDo_RetryOn5xx(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := calls.Add(1)
		if n <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)

			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`ok`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	resp, err := client.do(context.Background(), http.MethodGet, "/api/fs", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDo_RetryOn429WithRetryAfter(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := calls.Add(1)
		if n <= 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)

			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`ok`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	resp, err := client.do(context.Background(), http.MethodGet, "/api/fs", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDo_MaxRetriesExhausted(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.do(context.Background(), http.MethodGet, "/api/fs", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServerError)
	assert.Equal(t, int32(maxRetries+1), calls.Load())
}

func TestDo_NetworkError(t *testing.T) {
	// Server is closed immediately so every attempt fails at the transport.
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.do(context.Background(), http.MethodGet, "/api/fs", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestDo_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient(t, srv.URL)
	_, err := client.do(ctx, http.MethodGet, "/api/fs", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(staticToken("t"), Options{})

	assert.Equal(t, DefaultBaseURL, client.baseURL)
	assert.Equal(t, DefaultUploadBaseURL, client.uploadURL)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.uploadClient)
	assert.NotNil(t, client.logger)
}
