package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetry_Execute(t *testing.T) {
	fast := []Option{WithDelay(time.Millisecond), WithMaxDelay(2 * time.Millisecond)}

	t.Run("successful operation", func(t *testing.T) {
		r := New(fast...)
		calls := 0

		err := r.Execute(context.Background(), func() error {
			calls++
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retry until success", func(t *testing.T) {
		var retried []uint
		r := New(append(fast, WithAttempts(3), WithOnRetry(func(n uint, _ error) {
			retried = append(retried, n)
		}))...)
		calls := 0

		err := r.Execute(context.Background(), func() error {
			calls++
			if calls < 2 {
				return errors.New("temporary error")
			}
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 2, calls)
		assert.Equal(t, []uint{0}, retried)
	})

	t.Run("retry exhausted returns the last error", func(t *testing.T) {
		r := New(append(fast, WithAttempts(3))...)
		calls := 0
		expected := errors.New("persistent error")

		err := r.Execute(context.Background(), func() error {
			calls++
			return expected
		})

		assert.ErrorIs(t, err, expected)
		assert.Equal(t, 3, calls)
	})

	t.Run("cancelled context stops retrying", func(t *testing.T) {
		r := New(WithAttempts(5), WithDelay(50*time.Millisecond))
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0

		err := r.Execute(ctx, func() error {
			calls++
			cancel()
			return errors.New("temporary error")
		})

		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}
