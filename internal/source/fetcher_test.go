package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/painscope/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep(t *testing.T) {
	t.Helper()
	orig := fetchSleepFunc
	fetchSleepFunc = func(context.Context, time.Duration) error { return nil }
	t.Cleanup(func() { fetchSleepFunc = orig })
}

func newTestFetcher(opts FetcherOptions) *Fetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = "painscope-test/1.0"
	}
	return NewFetcher(opts, nil)
}

func TestFetcher_Get_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "painscope-test/1.0", r.Header.Get("User-Agent"))
		_, _ = fmt.Fprint(w, `{"ok":true}`)
	}))
	defer server.Close()

	body, err := newTestFetcher(FetcherOptions{}).Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(body))
}

func TestFetcher_Get_TransientThenSuccess(t *testing.T) {
	noSleep(t)

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, "OK")
	}))
	defer server.Close()

	body, err := newTestFetcher(FetcherOptions{}).Get(context.Background(), server.URL)
	require.NoError(t, err, "expected success after retries")
	assert.Equal(t, "OK", string(body))
	assert.Equal(t, int32(3), attempts.Load())
}

func TestFetcher_Get_PermanentFailure(t *testing.T) {
	noSleep(t)

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestFetcher(FetcherOptions{}).Get(context.Background(), server.URL)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Equal(t, int32(1), attempts.Load(), "404 is not retryable")
}

func TestFetcher_Get_AllRetriesExhausted(t *testing.T) {
	noSleep(t)

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestFetcher(FetcherOptions{}).Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestFetcher_Get_CachesResponses(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = fmt.Fprint(w, "cached body")
	}))
	defer server.Close()

	f := newTestFetcher(FetcherOptions{Cache: cache.NewMemoryCache(time.Minute, time.Minute), CacheTTL: time.Minute})

	for i := 0; i < 3; i++ {
		body, err := f.Get(context.Background(), server.URL+"/r/x.json")
		require.NoError(t, err, "get %d", i)
		assert.Equal(t, "cached body", string(body))
	}
	assert.Equal(t, int32(1), hits.Load(), "upstream requests")
}

func TestFetcher_Get_RespectsRobots(t *testing.T) {
	var apiHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /private\n")
			return
		}
		apiHits.Add(1)
		_, _ = fmt.Fprint(w, "{}")
	}))
	defer server.Close()

	f := newTestFetcher(FetcherOptions{RespectRobots: true})

	_, err := f.Get(context.Background(), server.URL+"/private/feed.json")
	assert.ErrorIs(t, err, ErrDisallowed)

	_, err = f.Get(context.Background(), server.URL+"/public/feed.json")
	assert.NoError(t, err)
	assert.Equal(t, int32(1), apiHits.Load(), "only the allowed request goes upstream")
}

func TestFetcher_Get_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestFetcher(FetcherOptions{}).Get(ctx, server.URL)
	assert.Error(t, err)
}

func TestIsRetryableFetchError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"503", &StatusError{Code: 503, Status: "503 Service Unavailable"}, true},
		{"500", &StatusError{Code: 500}, true},
		{"502 wrapped", fmt.Errorf("r/shopify: %w", &StatusError{Code: 502}), true},
		{"429", &StatusError{Code: 429}, true},
		{"404", &StatusError{Code: 404}, false},
		{"403", &StatusError{Code: 403}, false},
		{"connection refused", fmt.Errorf("fetch: %w", &url.Error{Op: "Get", URL: "http://x", Err: errors.New("connection refused")}), true},
		{"bad url", fmt.Errorf("create request: %w", &url.Error{Op: "parse", URL: "::", Err: errors.New("missing protocol scheme")}), false},
		{"cancelled", fmt.Errorf("fetch: %w", context.Canceled), false},
		{"read body", errors.New("read body: unexpected EOF"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, isRetryableFetchError(tt.err))
		})
	}
}
