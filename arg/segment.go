package arg

import "github.com/jeromekelleher/coalescent/pool"

// segRecord is a pool-owned ancestral material record: a half-open locus
// range [Left, Right) carried by Value (the node it currently belongs
// to), linked to the next segment of the same ancestor. Segments within
// one ancestor are sorted by Left and disjoint, per spec.md §3.
//
// Samples is how many of the original n sample lineages this segment's
// ancestry represents at its locus range. Every initial sample segment
// starts at 1; a coalescence sums the Samples of the two segments it
// merges, and a locus range reaching Samples == n has found its
// grand-MRCA and is dropped rather than carried forward — see
// mergeAncestors in arg/nodemapping.go and DESIGN.md's note on the §4.4.4 "consume vs.
// otherwise" decision.
type segRecord struct {
	Left, Right Locus
	Value       NodeID
	Samples     int32
	Next        pool.Handle
}

// segmentList is a thin view over a pool of segRecords, giving the
// simulator arena+index access without ever dereferencing a freed
// handle, per spec.md §9.
type segmentList struct {
	pool *pool.Pool[segRecord]
}

func newSegmentList(blockSize int, budget *pool.Budget) *segmentList {
	return &segmentList{pool: pool.New[segRecord](blockSize, budget)}
}

func (s *segmentList) alloc(left, right Locus, value NodeID, samples int32, next pool.Handle) (pool.Handle, error) {
	h, err := s.pool.Alloc()
	if err != nil {
		return pool.NoHandle, err
	}
	rec := s.pool.Get(h)
	rec.Left, rec.Right, rec.Value, rec.Samples, rec.Next = left, right, value, samples, next
	return h, nil
}

func (s *segmentList) get(h pool.Handle) *segRecord { return s.pool.Get(h) }

func (s *segmentList) free(h pool.Handle) { s.pool.Free(h) }

// freeChain frees every segment from head to the end of its linked list.
func (s *segmentList) freeChain(head pool.Handle) {
	for head != pool.NoHandle {
		next := s.get(head).Next
		s.free(head)
		head = next
	}
}

// linkCount sums (right-left) over every segment in the chain rooted at
// head, minus one per segment, per the Glossary's "an ancestor's link
// count is right − left summed over its segments, minus 1 per segment."
// See DESIGN.md for why this per-segment accounting (rather than a
// per-contiguous-block one) is the decision taken for the ambiguous
// §4.4.3 "between segments" sub-case.
func (s *segmentList) linkCount(head pool.Handle) int64 {
	var total int64
	for h := head; h != pool.NoHandle; h = s.get(h).Next {
		seg := s.get(h)
		total += int64(seg.Right-seg.Left) - 1
	}
	return total
}

// count returns the number of segments in the chain.
func (s *segmentList) count(head pool.Handle) int {
	n := 0
	for h := head; h != pool.NoHandle; h = s.get(h).Next {
		n++
	}
	return n
}
