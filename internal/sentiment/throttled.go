package sentiment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttled paces and serializes calls to a rate-limited backend such as a
// remote language model. Each call is bounded by timeout.
type Throttled struct {
	next    Scorer
	limiter *rate.Limiter
	timeout time.Duration
	mu      sync.Mutex
}

// NewThrottled wraps next. requestsPerSecond <= 0 disables pacing but calls
// are still serialized.
func NewThrottled(next Scorer, requestsPerSecond float64, timeout time.Duration) *Throttled {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &Throttled{
		next:    next,
		limiter: rate.NewLimiter(limit, 1),
		timeout: timeout,
	}
}

// Polarity waits for a rate slot, then calls the wrapped scorer
func (t *Throttled) Polarity(ctx context.Context, text string) (float64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limit wait: %w", err)
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	p, err := t.next.Polarity(ctx, text)
	if err != nil {
		return 0, err
	}
	return Clamp(p), nil
}
