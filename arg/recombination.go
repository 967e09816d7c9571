package arg

import "github.com/jeromekelleher/coalescent/pool"

// recombine executes one recombination event, per spec.md §4.4.3: draw a
// link uniformly weighted by each ancestor's own link count (via the
// Fenwick tree), locate the segment containing it, and split the
// ancestor into two there.
//
// The split always lands strictly inside a segment's own interior (see
// DESIGN.md's note on the ambiguous "split falls between segments"
// sub-case): each segment of width w contributes w-1 possible interior
// breakpoints, matching the Glossary's "minus 1 per segment" link-count
// formula exactly, with no separate between-segments case needed.
func (s *Simulator) recombine() error {
	total := s.pop.totalLinks()
	h := int64(s.src.UintN(uint32(total))) + 1

	left, head := s.pop.pickByLink(h)
	localOffset := h - s.pop.links.PrefixSum(int(left)-1)

	var cumulative int64
	segH := head
	for {
		seg := s.segs.get(segH)
		budget := int64(seg.Right-seg.Left) - 1
		if localOffset <= cumulative+budget {
			break
		}
		cumulative += budget
		segH = seg.Next
	}

	seg := s.segs.get(segH)
	withinSeg := localOffset - cumulative
	splitLocus := seg.Left + Locus(withinSeg)

	tailHandle := seg.Next
	newFirst, err := s.segs.alloc(splitLocus, seg.Right, seg.Value, seg.Samples, tailHandle)
	if err != nil {
		return err
	}
	seg.Right = splitLocus
	seg.Next = pool.NoHandle

	s.pop.remove(left)
	if err := s.pop.insert(head); err != nil {
		return err
	}
	if err := s.pop.insert(newFirst); err != nil {
		return err
	}
	return nil
}
