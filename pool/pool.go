// Package pool implements a slab allocator for fixed-size records,
// mirroring spec.md §4.2: blocks of a configurable size, a per-type free
// list, and a hard memory cap that fails the enclosing call with a
// simerr.Error of KindMaxMemoryExceeded on expansion rather than growing
// unbounded.
package pool

import (
	"fmt"
	"unsafe"
)

// Handle is a stable 1-based index into a Pool's backing storage. A
// Handle remains valid until the record is Free'd; indices are never
// reused while still reachable, and blocks are append-only so existing
// Handles are never invalidated by growth.
type Handle int32

// NoHandle is the zero value, meaning "no record".
const NoHandle Handle = 0

// Stats is a diagnostic snapshot of a Pool's allocation state.
type Stats struct {
	Live      int
	Peak      int
	Blocks    int
	BlockSize int
	UsedBytes Memory
	PeakBytes Memory
}

func (s Stats) String() string {
	return fmt.Sprintf("live=%d peak=%d blocks=%d used=%s peak_used=%s",
		s.Live, s.Peak, s.Blocks, s.UsedBytes, s.PeakBytes)
}

// Pool is a generic slab allocator for a fixed-size record type T.
type Pool[T any] struct {
	blockSize int
	budget    *Budget

	blocks [][]T
	free   []Handle

	live      int
	peak      int
	allocated uint64 // bytes reserved across all blocks
	recordSz  uint64
}

// New creates a Pool that grows in blocks of blockSize records,
// reserving each block's bytes against budget before committing to it.
// A nil budget means unbounded, same as a zero-max Budget. Passing the
// same *Budget to more than one Pool[T] makes them share one cap, which
// is how the simulator ties the segment pool and the AVL node pool to a
// single max_memory figure instead of each enforcing its own.
func New[T any](blockSize int, budget *Budget) *Pool[T] {
	if blockSize < 1 {
		panic("pool: blockSize must be >= 1")
	}
	var zero T
	return &Pool[T]{
		blockSize: blockSize,
		budget:    budget,
		recordSz:  uint64(unsafe.Sizeof(zero)),
	}
}

// Alloc returns a fresh zero-valued record's Handle, expanding the block
// list if the free list is empty. Returns a simerr.Error of
// KindMaxMemoryExceeded if expansion would exceed the configured cap.
func (p *Pool[T]) Alloc() (Handle, error) {
	if len(p.free) == 0 {
		if err := p.grow(); err != nil {
			return NoHandle, err
		}
	}

	n := len(p.free)
	h := p.free[n-1]
	p.free = p.free[:n-1]

	p.live++
	if p.live > p.peak {
		p.peak = p.live
	}

	*p.at(h) = *new(T)
	return h, nil
}

// Free returns a record to the free list. The Handle must not be used
// again until a subsequent Alloc reissues it.
func (p *Pool[T]) Free(h Handle) {
	if h == NoHandle {
		panic("pool: Free called with NoHandle")
	}
	p.free = append(p.free, h)
	p.live--
}

// Get returns a pointer to the record backing h. The pointer is stable
// for the record's lifetime (blocks are never moved or resized).
func (p *Pool[T]) Get(h Handle) *T {
	if h == NoHandle {
		panic("pool: Get called with NoHandle")
	}
	return p.at(h)
}

// Stats returns a diagnostic snapshot, formatted with thousands
// separators via golang.org/x/text the same way the teacher's
// btree.Memory does.
func (p *Pool[T]) Stats() Stats {
	return Stats{
		Live:      p.live,
		Peak:      p.peak,
		Blocks:    len(p.blocks),
		BlockSize: p.blockSize,
		UsedBytes: Memory(uint64(p.live) * p.recordSz),
		PeakBytes: Memory(uint64(p.peak) * p.recordSz),
	}
}

func (p *Pool[T]) grow() error {
	additional := uint64(p.blockSize) * p.recordSz
	if err := p.budget.reserve(additional); err != nil {
		return err
	}

	block := make([]T, p.blockSize)
	base := len(p.blocks) * p.blockSize
	p.blocks = append(p.blocks, block)
	p.allocated += additional

	// New handles are appended in reverse so Alloc pops ascending index
	// order first, which keeps early diagnostics (and tests) predictable.
	for i := p.blockSize - 1; i >= 0; i-- {
		p.free = append(p.free, Handle(base+i+1))
	}
	return nil
}

func (p *Pool[T]) at(h Handle) *T {
	idx := int(h) - 1
	block := idx / p.blockSize
	offset := idx % p.blockSize
	return &p.blocks[block][offset]
}
