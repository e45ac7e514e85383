package sentiment

import (
	"context"
	"fmt"
)

type safe struct {
	next Scorer
}

// Safe wraps next so that a panicking backend is reported as an error. The
// caller then treats the sentence as having no sentiment signal. A nil next
// yields Neutral.
func Safe(next Scorer) Scorer {
	if next == nil {
		return Neutral{}
	}
	if _, ok := next.(safe); ok {
		return next
	}
	return safe{next: next}
}

func (s safe) Polarity(ctx context.Context, text string) (p float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = 0, fmt.Errorf("sentiment backend panic: %v", r)
		}
	}()
	return s.next.Polarity(ctx, text)
}
