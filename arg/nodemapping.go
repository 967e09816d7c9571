package arg

import "github.com/jeromekelleher/coalescent/pool"

// segCursor walks one ancestor's segment chain, tracking how much of the
// current segment has already been consumed by mergeAncestors' overlap
// walk (left may sit strictly inside the underlying segment's range).
type segCursor struct {
	h    pool.Handle
	left Locus
}

func newSegCursor(segs *segmentList, head pool.Handle) segCursor {
	c := segCursor{h: head}
	if head != pool.NoHandle {
		c.left = segs.get(head).Left
	}
	return c
}

func (c segCursor) done() bool { return c.h == pool.NoHandle }

func (c segCursor) right(segs *segmentList) Locus { return segs.get(c.h).Right }
func (c segCursor) value(segs *segmentList) NodeID { return segs.get(c.h).Value }
func (c segCursor) samples(segs *segmentList) int32 { return segs.get(c.h).Samples }

// advanceTo moves the frontier to upTo, stepping to the next segment in
// the chain once upTo reaches the current segment's right edge.
func (c *segCursor) advanceTo(segs *segmentList, upTo Locus) {
	if upTo >= c.right(segs) {
		c.h = segs.get(c.h).Next
		if c.h != pool.NoHandle {
			c.left = segs.get(c.h).Left
		}
		return
	}
	c.left = upTo
}

func minLocus(a, b Locus) Locus {
	if a < b {
		return a
	}
	return b
}

func maxLocus(a, b Locus) Locus {
	if a > b {
		return a
	}
	return b
}

// mergeAncestors walks two ancestors' segment chains left-to-right,
// implementing spec.md §4.4.4's coalescence. Sub-intervals covered by
// only one side pass through unchanged, carrying their original node.
// Overlapping sub-intervals record a coalescence at newNode between the
// two segments' current owners (ascending, per spec.md's children[0] <
// children[1] invariant) and, per the node-mapping auxiliary's
// per-segment sample count, either carry the merged material forward
// (Samples < n: more coalescence needed elsewhere for that locus) or
// drop it ("consume": Samples == n means every sample's ancestry has
// reached this node at that locus, so there's nothing left to track).
// See DESIGN.md for why this per-segment sample-count bookkeeping was
// chosen over a blanket "every locus ends at num_nodes" invariant.
func mergeAncestors(segs *segmentList, xHead, yHead pool.Handle, newNode NodeID, n int, now float64) (pool.Handle, []Record, error) {
	var newHead, tail pool.Handle
	var records []Record
	var pending *Record

	appendSeg := func(left, right Locus, value NodeID, samples int32) error {
		h, err := segs.alloc(left, right, value, samples, pool.NoHandle)
		if err != nil {
			return err
		}
		if newHead == pool.NoHandle {
			newHead = h
		} else {
			segs.get(tail).Next = h
		}
		tail = h
		return nil
	}

	flush := func() {
		if pending != nil {
			records = append(records, *pending)
			pending = nil
		}
	}

	record := func(left, right Locus, c0, c1 NodeID) {
		if pending != nil && pending.Right == left && pending.Children == [2]NodeID{c0, c1} {
			pending.Right = right
			return
		}
		flush()
		pending = &Record{Left: left, Right: right, Node: newNode, Children: [2]NodeID{c0, c1}, Time: now}
	}

	x := newSegCursor(segs, xHead)
	y := newSegCursor(segs, yHead)

	for !x.done() && !y.done() {
		xr, yr := x.right(segs), y.right(segs)
		switch {
		case xr <= y.left:
			if err := appendSeg(x.left, xr, x.value(segs), x.samples(segs)); err != nil {
				return pool.NoHandle, nil, err
			}
			x.advanceTo(segs, xr)
		case yr <= x.left:
			if err := appendSeg(y.left, yr, y.value(segs), y.samples(segs)); err != nil {
				return pool.NoHandle, nil, err
			}
			y.advanceTo(segs, yr)
		default:
			left := maxLocus(x.left, y.left)
			right := minLocus(xr, yr)
			if x.left < left {
				if err := appendSeg(x.left, left, x.value(segs), x.samples(segs)); err != nil {
					return pool.NoHandle, nil, err
				}
				x.left = left
			}
			if y.left < left {
				if err := appendSeg(y.left, left, y.value(segs), y.samples(segs)); err != nil {
					return pool.NoHandle, nil, err
				}
				y.left = left
			}
			c0, c1 := x.value(segs), y.value(segs)
			if c0 > c1 {
				c0, c1 = c1, c0
			}
			record(left, right, c0, c1)

			combined := x.samples(segs) + y.samples(segs)
			if combined < int32(n) {
				if err := appendSeg(left, right, newNode, combined); err != nil {
					return pool.NoHandle, nil, err
				}
			}
			x.advanceTo(segs, right)
			y.advanceTo(segs, right)
		}
	}
	for !x.done() {
		if err := appendSeg(x.left, x.right(segs), x.value(segs), x.samples(segs)); err != nil {
			return pool.NoHandle, nil, err
		}
		x.advanceTo(segs, x.right(segs))
	}
	for !y.done() {
		if err := appendSeg(y.left, y.right(segs), y.value(segs), y.samples(segs)); err != nil {
			return pool.NoHandle, nil, err
		}
		y.advanceTo(segs, y.right(segs))
	}
	flush()

	return newHead, records, nil
}
