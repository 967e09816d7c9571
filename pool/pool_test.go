package pool

import (
	"testing"

	"github.com/jeromekelleher/coalescent/simerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rec struct {
	left, right uint32
	value       uint32
}

func TestAllocFreeRoundTrip(t *testing.T) {
	p := New[rec](4, nil)

	h1, err := p.Alloc()
	require.NoError(t, err)
	p.Get(h1).left = 7

	h2, err := p.Alloc()
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)

	assert.Equal(t, uint32(7), p.Get(h1).left)

	p.Free(h1)
	stats := p.Stats()
	assert.Equal(t, 1, stats.Live)
	assert.Equal(t, 2, stats.Peak)
}

func TestAllocExpandsBlocks(t *testing.T) {
	p := New[rec](2, nil)
	var handles []Handle
	for i := 0; i < 5; i++ {
		h, err := p.Alloc()
		require.NoError(t, err)
		handles = append(handles, h)
	}
	assert.Equal(t, 3, p.Stats().Blocks)
	assert.Equal(t, 5, p.Stats().Live)
}

func TestAllocReusesFreedSlot(t *testing.T) {
	p := New[rec](2, nil)
	h1, _ := p.Alloc()
	p.Free(h1)
	h2, _ := p.Alloc()
	assert.Equal(t, h1, h2)
}

func TestMaxMemoryExceeded(t *testing.T) {
	var z rec
	recSz := uint64(8) // upper bound is irrelevant, just needs to be tight enough to trip
	_ = z

	p := New[rec](4, NewBudget(recSz)) // less than one 12-byte record's worth of budget, block holds 4
	_, err := p.Alloc()
	require.Error(t, err)

	var se *simerr.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, simerr.KindMaxMemoryExceeded, se.Kind)
}

func TestFreeAndGetPanicOnNoHandle(t *testing.T) {
	p := New[rec](2, nil)
	assert.Panics(t, func() { p.Free(NoHandle) })
	assert.Panics(t, func() { p.Get(NoHandle) })
}

func TestStatsString(t *testing.T) {
	p := New[rec](4, nil)
	h, _ := p.Alloc()
	_ = h
	assert.Contains(t, p.Stats().String(), "live=1")
}
