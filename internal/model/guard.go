package model

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// exclusive serializes access to a resource that must not be used by two
// callers at once. Waiting and running both honour the caller's context; a
// call abandoned mid-run keeps the resource until the work actually finishes.
type exclusive struct {
	sem *semaphore.Weighted
}

func newExclusive() *exclusive {
	return &exclusive{sem: semaphore.NewWeighted(1)}
}

// acquire blocks until no call is running, regardless of any deadline.
func (e *exclusive) acquire() {
	_ = e.sem.Acquire(context.Background(), 1)
}

func (e *exclusive) release() {
	e.sem.Release(1)
}

func (e *exclusive) do(ctx context.Context, fn func() ([]float32, error)) ([]float32, error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	type outcome struct {
		probs []float32
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		defer e.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic in guarded call: %v", r)}
			}
		}()
		probs, err := fn()
		done <- outcome{probs: probs, err: err}
	}()

	select {
	case o := <-done:
		return o.probs, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
