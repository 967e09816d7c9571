package pool

import (
	"fmt"

	"github.com/jeromekelleher/coalescent/simerr"
)

// Budget is a shared memory cap that multiple Pool[T] instances can
// reserve against, so spec.md §4.2's single max_memory figure bounds
// everything a simulator run allocates from pools (segments, AVL nodes)
// rather than each record type getting its own independent cap. A nil
// *Budget, or one constructed with max == 0, is unbounded.
type Budget struct {
	max  uint64
	used uint64
}

// NewBudget creates a Budget capped at max bytes; max == 0 means
// unbounded.
func NewBudget(max uint64) *Budget {
	return &Budget{max: max}
}

// Used returns the budget's current cumulative reservation across every
// Pool drawing from it.
func (b *Budget) Used() uint64 {
	if b == nil {
		return 0
	}
	return b.used
}

func (b *Budget) reserve(n uint64) error {
	if b == nil || b.max == 0 {
		if b != nil {
			b.used += n
		}
		return nil
	}
	if b.used+n > b.max {
		return simerr.New(simerr.KindMaxMemoryExceeded, fmt.Sprintf(
			"pool: reserving %d bytes would exceed shared max_memory=%d (currently %d)",
			n, b.max, b.used))
	}
	b.used += n
	return nil
}
