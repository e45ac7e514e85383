package sentiment

import (
	"context"
	"strconv"
	"time"

	"github.com/ppiankov/painscope/internal/cache"
)

// Cached memoizes polarities per text. Detection and scoring both ask for
// the polarity of the same sentence; with Cached the backend sees it once.
// Failed calls are not cached.
type Cached struct {
	next      Scorer
	store     cache.Cache
	namespace string
	ttl       time.Duration
}

// NewCached wraps next with a cache. namespace separates backends that share
// one cache (e.g. "vader", "openai:gpt-4o-mini").
func NewCached(next Scorer, store cache.Cache, namespace string, ttl time.Duration) *Cached {
	return &Cached{
		next:      next,
		store:     store,
		namespace: namespace,
		ttl:       ttl,
	}
}

// Polarity returns the cached polarity or asks the wrapped scorer
func (c *Cached) Polarity(ctx context.Context, text string) (float64, error) {
	key := cache.Key("sentiment", c.namespace, text)

	if raw, ok := c.store.Get(key); ok {
		if p, err := strconv.ParseFloat(string(raw), 64); err == nil {
			return p, nil
		}
	}

	p, err := c.next.Polarity(ctx, text)
	if err != nil {
		return 0, err
	}

	_ = c.store.Set(key, []byte(strconv.FormatFloat(p, 'g', -1, 64)), c.ttl)
	return p, nil
}
