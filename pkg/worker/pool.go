// Package worker runs a function over a slice with bounded concurrency.
package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// ProgressFunc is called after each item is processed with (done, total).
type ProgressFunc func(done, total int)

// Result is the outcome of processing one item.
type Result[R any] struct {
	Value R
	Err   error
}

// Run applies fn to each item using at most n goroutines and returns one
// Result per item, in input order. Once ctx is cancelled no further items are
// started; their results carry ctx.Err(). A panic in fn becomes that item's error.
func Run[T any, R any](ctx context.Context, items []T, n int, fn func(context.Context, T) (R, error), progress ProgressFunc) []Result[R] {
	total := len(items)
	results := make([]Result[R], total)
	if total == 0 {
		return results
	}
	if n < 1 {
		n = 1
	}

	var done atomic.Int64
	var wg sync.WaitGroup
	sem := make(chan struct{}, n)

	cancelFrom := func(i int) []Result[R] {
		for j := i; j < total; j++ {
			results[j].Err = ctx.Err()
		}
		wg.Wait()
		return results
	}

	for i, item := range items {
		if ctx.Err() != nil {
			return cancelFrom(i)
		}
		select {
		case <-ctx.Done():
			return cancelFrom(i)
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(idx int, it T) {
			defer wg.Done()
			defer func() { <-sem }()

			results[idx] = call(ctx, it, fn)

			current := int(done.Add(1))
			if progress != nil {
				progress(current, total)
			}
		}(i, item)
	}

	wg.Wait()
	return results
}

func call[T any, R any](ctx context.Context, item T, fn func(context.Context, T) (R, error)) (res Result[R]) {
	defer func() {
		if r := recover(); r != nil {
			res = Result[R]{Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	v, err := fn(ctx, item)
	return Result[R]{Value: v, Err: err}
}
