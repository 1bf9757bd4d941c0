package fanout

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inFlight tracks the highest number of concurrent calls it observed.
type inFlight struct {
	current atomic.Int32
	peak    atomic.Int32
}

func (f *inFlight) enter() {
	n := f.current.Add(1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			return
		}
	}
}

func (f *inFlight) leave() {
	f.current.Add(-1)
}

func TestCollectAll(t *testing.T) {
	ctx := context.Background()

	t.Run("results follow input order", func(t *testing.T) {
		items := []int{5, 1, 4, 2, 3}

		got, err := CollectAll(ctx, items, 3, func(_ context.Context, n int) (int, error) {
			time.Sleep(time.Duration(n) * time.Millisecond)
			return n * 10, nil
		})

		require.NoError(t, err)
		assert.Equal(t, []int{50, 10, 40, 20, 30}, got)
	})

	t.Run("respects the ceiling", func(t *testing.T) {
		var f inFlight
		items := make([]int, 20)

		_, err := CollectAll(ctx, items, 5, func(_ context.Context, _ int) (struct{}, error) {
			f.enter()
			defer f.leave()
			time.Sleep(2 * time.Millisecond)
			return struct{}{}, nil
		})

		require.NoError(t, err)
		assert.LessOrEqual(t, f.peak.Load(), int32(5))
		assert.Greater(t, f.peak.Load(), int32(1))
	})

	t.Run("failure runs every item and discards results", func(t *testing.T) {
		boom := errors.New("boom")
		var calls atomic.Int32

		got, err := CollectAll(ctx, []int{1, 2, 3, 4}, 2, func(_ context.Context, n int) (int, error) {
			calls.Add(1)
			if n == 2 {
				return 0, boom
			}
			return n, nil
		})

		assert.Nil(t, got)
		assert.ErrorIs(t, err, boom)
		var fe *FanOutError
		assert.ErrorAs(t, err, &fe)
		assert.Equal(t, int32(4), calls.Load())
	})

	t.Run("empty input", func(t *testing.T) {
		got, err := CollectAll(ctx, []string{}, 5, func(_ context.Context, s string) (string, error) {
			return s, nil
		})

		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("cancelled context stops scheduling", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := CollectAll(cctx, []int{1, 2}, 1, func(_ context.Context, n int) (int, error) {
			return n, nil
		})

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestEvery(t *testing.T) {
	ctx := context.Background()

	t.Run("all pass", func(t *testing.T) {
		ok := Every(ctx, []int{1, 2, 3}, 2, func(_ context.Context, n int) bool {
			return n > 0
		})
		assert.True(t, ok)
	})

	t.Run("empty input passes", func(t *testing.T) {
		ok := Every(ctx, nil, 1, func(_ context.Context, _ int) bool {
			return false
		})
		assert.True(t, ok)
	})

	t.Run("serialized run stops at first false", func(t *testing.T) {
		var seen []int

		ok := Every(ctx, []int{1, 2, 3, 4}, 1, func(_ context.Context, n int) bool {
			seen = append(seen, n)
			return n != 2
		})

		assert.False(t, ok)
		assert.Equal(t, []int{1, 2}, seen)
	})

	t.Run("in-flight calls at most limit-1 extra", func(t *testing.T) {
		var calls atomic.Int32
		items := make([]int, 50)
		items[0] = 1

		ok := Every(ctx, items, 3, func(_ context.Context, n int) bool {
			calls.Add(1)
			if n == 1 {
				return false
			}
			time.Sleep(20 * time.Millisecond)
			return true
		})

		assert.False(t, ok)
		assert.LessOrEqual(t, calls.Load(), int32(3))
	})

	t.Run("respects the ceiling", func(t *testing.T) {
		var f inFlight

		ok := Every(ctx, make([]int, 12), 2, func(_ context.Context, _ int) bool {
			f.enter()
			defer f.leave()
			time.Sleep(2 * time.Millisecond)
			return true
		})

		assert.True(t, ok)
		assert.LessOrEqual(t, f.peak.Load(), int32(2))
	})

	t.Run("zero limit behaves as serialized", func(t *testing.T) {
		var f inFlight

		ok := Every(ctx, make([]int, 5), 0, func(_ context.Context, _ int) bool {
			f.enter()
			defer f.leave()
			return true
		})

		assert.True(t, ok)
		assert.Equal(t, int32(1), f.peak.Load())
	})

	t.Run("cancelled context fails", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		ok := Every(cctx, []int{1}, 1, func(_ context.Context, _ int) bool {
			return true
		})
		assert.False(t, ok)
	})
}
