package sentiment

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/painscope/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVader_Sign(t *testing.T) {
	v := NewVader()
	ctx := context.Background()

	neg, err := v.Polarity(ctx, "This is a terrible, awful, frustrating nightmare")
	require.NoError(t, err)
	assert.Less(t, neg, -0.1)

	pos, err := v.Polarity(ctx, "This is great, I love it")
	require.NoError(t, err)
	assert.Greater(t, pos, 0.1)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, -1.0, Clamp(-3))
	assert.Equal(t, 1.0, Clamp(2))
	assert.Equal(t, 0.25, Clamp(0.25))
	assert.Equal(t, 0.0, Clamp(math.NaN()))
}

func TestNew_Providers(t *testing.T) {
	s, err := New("vader")
	require.NoError(t, err)
	assert.IsType(t, &Vader{}, s)

	s, err = New("none")
	require.NoError(t, err)
	assert.IsType(t, Neutral{}, s)

	_, err = New("openai")
	assert.ErrorIs(t, err, ErrNotLocal)
}

func TestCached_CallsBackendOnce(t *testing.T) {
	var calls int32
	backend := Func(func(context.Context, string) (float64, error) {
		atomic.AddInt32(&calls, 1)
		return -0.5, nil
	})
	c := NewCached(backend, cache.NewMemoryCache(time.Minute, time.Minute), "test", 0)

	for i := 0; i < 3; i++ {
		p, err := c.Polarity(context.Background(), "same sentence here")
		require.NoError(t, err)
		assert.Equal(t, -0.5, p)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCached_DoesNotCacheErrors(t *testing.T) {
	var calls int32
	backend := Func(func(context.Context, string) (float64, error) {
		atomic.AddInt32(&calls, 1)
		return 0, errors.New("backend down")
	})
	c := NewCached(backend, cache.NewMemoryCache(time.Minute, time.Minute), "test", 0)

	_, err := c.Polarity(context.Background(), "x")
	assert.Error(t, err)
	_, err = c.Polarity(context.Background(), "x")
	assert.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestThrottled_ClampsAndTimesOut(t *testing.T) {
	loud := Func(func(context.Context, string) (float64, error) { return -7, nil })
	p, err := NewThrottled(loud, 0, 0).Polarity(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, -1.0, p)

	slow := Func(func(ctx context.Context, _ string) (float64, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	_, err = NewThrottled(slow, 0, 10*time.Millisecond).Polarity(context.Background(), "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestThrottled_Paces(t *testing.T) {
	ok := Func(func(context.Context, string) (float64, error) { return 0, nil })
	th := NewThrottled(ok, 20, 0) // one call per 50ms after the first

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := th.Polarity(context.Background(), "x")
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestSafe_RecoversPanic(t *testing.T) {
	s := Safe(Func(func(_ context.Context, text string) (float64, error) {
		if text == "boom" {
			panic("backend crashed")
		}
		return -0.5, nil
	}))

	p, err := s.Polarity(context.Background(), "boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend crashed")
	assert.Zero(t, p)

	p, err = s.Polarity(context.Background(), "fine")
	require.NoError(t, err)
	assert.Equal(t, -0.5, p)

	assert.IsType(t, Neutral{}, Safe(nil))
}
