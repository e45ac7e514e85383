package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRobotsChecker_CanFetch(t *testing.T) {
	var fetches int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(&fetches, 1)
		_, _ = w.Write([]byte("User-agent: painscope\nDisallow: /private\nCrawl-delay: 2\n\nUser-agent: *\nDisallow: /\n"))
	}))
	defer server.Close()

	checker := NewRobotsChecker(server.Client(), "painscope/0.1 (+https://example.com)")
	ctx := context.Background()

	allowed, delay, err := checker.CanFetch(ctx, server.URL+"/r/shopify/hot.json")
	require.NoError(t, err)
	assert.True(t, allowed, "public path allowed for painscope")
	assert.Equal(t, 2*time.Second, delay)

	allowed, _, _ = checker.CanFetch(ctx, server.URL+"/private/data")
	assert.False(t, allowed, "/private disallowed")

	assert.Equal(t, int32(1), atomic.LoadInt32(&fetches), "robots.txt fetched once")
}

func TestRobotsChecker_MissingRobotsAllows(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	checker := NewRobotsChecker(server.Client(), "painscope")
	allowed, _, err := checker.CanFetch(context.Background(), server.URL+"/anything")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRobotsChecker_UnreachableAllows(t *testing.T) {
	checker := NewRobotsChecker(&http.Client{Timeout: 100 * time.Millisecond}, "painscope")
	allowed, _, err := checker.CanFetch(context.Background(), "http://127.0.0.1:1/path")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestNormalizeUserAgent(t *testing.T) {
	tests := []struct{ in, want string }{
		{"painscope/0.1 (+https://github.com/ppiankov/painscope)", "painscope"},
		{"curl/8.0", "curl"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeUserAgent(tt.in), tt.in)
	}
}

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://plain:8080", "http://secure:8443", "internal.example, .corp")

	tests := []struct {
		target string
		want   string
	}{
		{"http://www.reddit.com/r/x.json", "http://plain:8080"},
		{"https://www.reddit.com/r/x.json", "http://secure:8443"},
		{"https://api.internal.example/v1", ""},
		{"http://build.corp/", ""},
	}

	for _, tt := range tests {
		u, err := url.Parse(tt.target)
		require.NoError(t, err)
		got, err := proxy(&http.Request{URL: u})
		require.NoError(t, err, tt.target)

		gotStr := ""
		if got != nil {
			gotStr = got.String()
		}
		assert.Equal(t, tt.want, gotStr, tt.target)
	}
}
