package avl

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/jeromekelleher/coalescent/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustInsert is the test-only Insert wrapper: the plain insert path
// never exceeds an unbounded (nil-budget) pool, so a failure here is
// always a test bug, not a budget trip.
func mustInsert[V any](t *testing.T, m *Map[V], key uint32, value V) bool {
	t.Helper()
	inserted, err := m.Insert(key, value)
	require.NoError(t, err)
	return inserted
}

func TestInsertFindBasic(t *testing.T) {
	m := New[string](16, nil)
	assert.True(t, mustInsert(t, m, 5, "five"))
	assert.True(t, mustInsert(t, m, 3, "three"))
	assert.False(t, mustInsert(t, m, 3, "THREE"))

	v, ok := m.Find(3)
	require.True(t, ok)
	assert.Equal(t, "THREE", v)

	_, ok = m.Find(100)
	assert.False(t, ok)
	assert.Equal(t, 2, m.Len())
}

func TestAscendOrdersKeys(t *testing.T) {
	m := New[int](16, nil)
	keys := []uint32{5, 1, 9, 3, 7, 2, 8, 4, 6}
	for _, k := range keys {
		mustInsert(t, m, k, int(k))
	}

	var seen []uint32
	m.Ascend(func(key uint32, value int) bool {
		seen = append(seen, key)
		return true
	})

	sorted := append([]uint32{}, keys...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	assert.Equal(t, sorted, seen)
}

func TestAscendStopsEarly(t *testing.T) {
	m := New[int](16, nil)
	for i := uint32(0); i < 10; i++ {
		mustInsert(t, m, i, int(i))
	}
	var seen []uint32
	m.Ascend(func(key uint32, value int) bool {
		seen = append(seen, key)
		return key < 3
	})
	assert.Equal(t, []uint32{0, 1, 2, 3}, seen)
}

func TestMinOnEmptyMap(t *testing.T) {
	m := New[int](16, nil)
	_, _, ok := m.Min()
	assert.False(t, ok)
}

func TestMinTracksSmallest(t *testing.T) {
	m := New[int](16, nil)
	mustInsert(t, m, 10, 10)
	mustInsert(t, m, 2, 2)
	mustInsert(t, m, 7, 7)

	k, v, ok := m.Min()
	require.True(t, ok)
	assert.Equal(t, uint32(2), k)
	assert.Equal(t, 2, v)
}

func TestDeleteRemovesAndRebalances(t *testing.T) {
	m := New[int](16, nil)
	for i := uint32(0); i < 100; i++ {
		mustInsert(t, m, i, int(i))
	}
	for i := uint32(0); i < 100; i += 2 {
		assert.True(t, m.Delete(i))
		assert.False(t, m.Delete(i), "deleting twice should report absent")
	}
	assert.Equal(t, 50, m.Len())

	var seen []uint32
	m.Ascend(func(key uint32, value int) bool {
		seen = append(seen, key)
		return true
	})
	for _, k := range seen {
		assert.Equal(t, uint32(1), k%2, "only odd keys should remain")
	}
}

func TestRandomizedAgainstNaiveMap(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	naive := make(map[uint32]int)
	m := New[int](16, nil)

	for i := 0; i < 2000; i++ {
		key := uint32(r.Intn(200))
		if r.Intn(3) == 0 {
			delete(naive, key)
			m.Delete(key)
		} else {
			naive[key] = i
			mustInsert(t, m, key, i)
		}
	}

	require.Equal(t, len(naive), m.Len())
	for k, v := range naive {
		got, ok := m.Find(k)
		require.True(t, ok)
		assert.Equal(t, v, got)
	}

	var keys []uint32
	for k := range naive {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var seen []uint32
	m.Ascend(func(key uint32, value int) bool {
		seen = append(seen, key)
		return true
	})
	assert.Equal(t, keys, seen)
}

func TestInsertFailsWhenBudgetExhausted(t *testing.T) {
	// A budget too small for even one block's worth of nodes trips on
	// the very first insert, and the map is left empty.
	budget := pool.NewBudget(1)
	m := New[int](64, budget)

	_, err := m.Insert(1, 1)
	require.Error(t, err)
	assert.Equal(t, 0, m.Len())
}
