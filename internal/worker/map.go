package worker

import (
	"context"
	"fmt"
)

// indexedJob carries its input position so results can be merged in order
type indexedJob[T, R any] struct {
	index int
	input T
	fn    func(ctx context.Context, index int, input T) (R, error)
}

func (j *indexedJob[T, R]) Execute(ctx context.Context) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = &indexedResult[R]{index: j.index, err: fmt.Errorf("panic processing input %d: %v", j.index, r)}
		}
	}()

	out, err := j.fn(ctx, j.index, j.input)
	return &indexedResult[R]{index: j.index, value: out, err: err}
}

type indexedResult[R any] struct {
	index int
	value R
	err   error
}

func (r *indexedResult[R]) GetError() error {
	return r.err
}

// Outcome is the per-input result of Map
type Outcome[R any] struct {
	Value R
	Err   error
	// Done is false when the input was never processed because ctx ended
	Done bool
}

// Map applies fn to every input on a pool of workers and returns outcomes
// in input order. A panic in fn is recovered and reported as that input's
// error; the other inputs are unaffected.
func Map[T, R any](ctx context.Context, workers int, inputs []T, fn func(ctx context.Context, index int, input T) (R, error)) []Outcome[R] {
	outcomes := make([]Outcome[R], len(inputs))
	if len(inputs) == 0 {
		return outcomes
	}
	if workers > len(inputs) {
		workers = len(inputs)
	}

	jobs := make([]Job, len(inputs))
	for i, in := range inputs {
		jobs[i] = &indexedJob[T, R]{index: i, input: in, fn: fn}
	}

	pool := NewPool(ctx, workers)
	for _, res := range pool.Run(jobs) {
		r := res.(*indexedResult[R])
		outcomes[r.index] = Outcome[R]{Value: r.value, Err: r.err, Done: true}
	}

	return outcomes
}
