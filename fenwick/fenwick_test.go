package fenwick

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPanicsOnBadDomain(t *testing.T) {
	assert.Panics(t, func() { New(0) })
	assert.Panics(t, func() { New(-1) })
}

func TestPrefixSumMatchesNaiveSum(t *testing.T) {
	for m := 1; m <= 20; m++ {
		tr := New(m)
		naive := make([]int64, m+1)

		for i := 1; i <= m; i++ {
			tr.Increment(i, int64(i))
			naive[i] += int64(i)
		}

		var running int64
		for i := 0; i <= m; i++ {
			if i > 0 {
				running += naive[i]
			}
			assert.Equal(t, running, tr.PrefixSum(i), "m=%d i=%d", m, i)
		}
	}
}

func TestSetOverwritesAbsoluteValue(t *testing.T) {
	tr := New(5)
	tr.Set(3, 10)
	assert.Equal(t, int64(10), tr.Get(3))
	assert.Equal(t, int64(10), tr.Total())

	tr.Set(3, 4)
	assert.Equal(t, int64(4), tr.Get(3))
	assert.Equal(t, int64(4), tr.Total())
}

func TestFindRoundTripsWithNonZeroCell(t *testing.T) {
	tr := New(10)
	for i := 1; i <= 10; i++ {
		tr.Increment(i, int64(i))
	}

	for i := 1; i <= 10; i++ {
		sum := tr.PrefixSum(i)
		require.Equal(t, i, tr.Find(sum), "prefix sum at %d should map back via Find", i)
	}
}

func TestFindOfTotalReturnsLargestNonZeroIndex(t *testing.T) {
	tr := New(8)
	tr.Increment(2, 5)
	tr.Increment(6, 3)

	assert.Equal(t, 6, tr.Find(tr.Total()))
}

func TestFindOfZeroReturnsOne(t *testing.T) {
	tr := New(4)
	tr.Increment(1, 1)
	assert.Equal(t, 1, tr.Find(0))
}

func TestIncrementNegativeDelta(t *testing.T) {
	tr := New(4)
	tr.Increment(2, 5)
	tr.Increment(2, -3)
	assert.Equal(t, int64(2), tr.Get(2))
	assert.Equal(t, int64(2), tr.Total())
}

func TestCheckIndexPanicsOutOfRange(t *testing.T) {
	tr := New(3)
	assert.Panics(t, func() { tr.Increment(0, 1) })
	assert.Panics(t, func() { tr.Increment(4, 1) })
	assert.Panics(t, func() { tr.PrefixSum(-1) })
	assert.Panics(t, func() { tr.PrefixSum(4) })
}
