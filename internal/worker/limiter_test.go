package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_New(t *testing.T) {
	assert.Equal(t, 5, NewLimiter(10, 5).defaultBurst)
	assert.Equal(t, 1, NewLimiter(10, -1).defaultBurst, "negative burst defaults to 1")
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	assert.NoError(t, limiter.Wait(ctx, "https://www.reddit.com/r/shopify/hot.json"))

	// Different host gets its own bucket
	assert.NoError(t, limiter.Wait(ctx, "https://old.reddit.com"))
}

func TestLimiter_PacesSameHost(t *testing.T) {
	limiter := NewLimiter(20, 1)
	ctx := context.Background()
	u := "https://www.reddit.com/r/ecommerce/hot.json"

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Wait(ctx, u), "wait %d", i)
	}

	// First token is immediate, the next two are 50ms apart
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestLimiter_DisabledWhenRateNotPositive(t *testing.T) {
	limiter := NewLimiter(0, 1)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 50; i++ {
		require.NoError(t, limiter.Wait(ctx, "https://example.com"))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond, "expected no pacing")
}

func TestLimiter_WaitHonoursContext(t *testing.T) {
	limiter := NewLimiter(0.1, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	u := "https://slow.example.com"
	require.NoError(t, limiter.Wait(ctx, u), "first wait should pass on burst")
	assert.Error(t, limiter.Wait(ctx, u), "second wait should fail before the deadline")
}

func TestLimiter_SetHostRate(t *testing.T) {
	limiter := NewLimiter(0, 1)
	limiter.SetHostRate("slow.com", 0.1, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.NoError(t, limiter.Wait(ctx, "http://slow.com/a"))
	assert.Error(t, limiter.Wait(ctx, "http://slow.com/b"), "second request to slow host should be throttled")
	assert.NoError(t, limiter.Wait(context.Background(), "http://fast.com"))
}

func TestExtractHost(t *testing.T) {
	host, err := extractHost("http://example.com:8080/foo")
	require.NoError(t, err)
	assert.Equal(t, "example.com:8080", host)

	_, err = extractHost("::invalid")
	assert.Error(t, err, "invalid URL")
	_, err = extractHost("/relative/path")
	assert.Error(t, err, "URL without host")
}
