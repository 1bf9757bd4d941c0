// Package fanout runs one unit of work per item with a fixed ceiling on how
// many run at once.
//
// The two modes are not interchangeable:
// CollectAll gathers a result per item and fails as a whole on any worker
// error; Every evaluates a boolean predicate per item and stops scheduling on
// the first false, like a logical AND.
package fanout

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// FanOutError wraps the first worker error of a CollectAll call.
type FanOutError struct {
	Err error
}

func (e *FanOutError) Error() string {
	return fmt.Sprintf("fan-out: %v", e.Err)
}

func (e *FanOutError) Unwrap() error {
	return e.Err
}

func ceiling(limit int) int {
	if limit < 1 {
		return 1
	}
	return limit
}

// CollectAll runs fn for every item with at most limit calls in flight.
// Result i belongs to items[i]. A failing worker does not cancel the others;
// once all have returned, the first error is reported as a *FanOutError and
// every result is discarded. Scheduling stops early only if ctx is done.
func CollectAll[T, R any](ctx context.Context, items []T, limit int, fn func(context.Context, T) (R, error)) ([]R, error) {
	results := make([]R, len(items))

	var g errgroup.Group
	g.SetLimit(ceiling(limit))

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			_ = g.Wait()
			return nil, &FanOutError{Err: err}
		}
		g.Go(func() error {
			r, err := fn(ctx, item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, &FanOutError{Err: err}
	}
	return results, nil
}

// Every reports whether fn holds for all items, with at most limit calls in
// flight. After the first false no new item is started; calls already in
// flight finish and their results are ignored. An empty input holds.
func Every[T any](ctx context.Context, items []T, limit int, fn func(context.Context, T) bool) bool {
	var failed atomic.Bool

	var g errgroup.Group
	g.SetLimit(ceiling(limit))

	for _, item := range items {
		if failed.Load() || ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// may have waited for a slot freed by the failing call
			if failed.Load() {
				return nil
			}
			if !fn(ctx, item) {
				failed.Store(true)
			}
			return nil
		})
	}

	_ = g.Wait()
	return !failed.Load() && ctx.Err() == nil
}
