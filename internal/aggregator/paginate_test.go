package aggregator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindow_resolve(t *testing.T) {
	values := []int{math.MinInt, math.MinInt + 1, -1000, -50, -1, 0, 1, 50, 99, 100, 101, 499, 500, 1000, math.MaxInt - 1, math.MaxInt}
	ptrs := []*int{nil}
	for i := range values {
		ptrs = append(ptrs, &values[i])
	}

	for _, total := range []int{0, 1, 150, 500} {
		for _, from := range ptrs {
			for _, to := range ptrs {
				f, tt := Window{From: from, To: to}.resolve(total, MaxBatchSize)

				assert.GreaterOrEqual(t, f, 0)
				assert.LessOrEqual(t, f, tt)
				assert.LessOrEqual(t, tt, total)
				assert.LessOrEqual(t, tt-f, MaxBatchSize)
			}
		}
	}

	f, to := Window{From: intp(math.MinInt + 1), To: intp(1000)}.resolve(500, 100)
	assert.Equal(t, 0, f)
	assert.Equal(t, 0, to)

	f, to = Window{From: intp(-50), To: intp(80)}.resolve(500, 100)
	assert.Equal(t, 0, f)
	assert.Equal(t, 50, to)
}
