package arg

import (
	"github.com/jeromekelleher/coalescent/avl"
	"github.com/jeromekelleher/coalescent/fenwick"
	"github.com/jeromekelleher/coalescent/pool"
	"github.com/jeromekelleher/coalescent/rng"
)

// population is the live set of ancestors. It combines the AVL ordered
// map spec.md §4.3 mandates (keyed by each ancestor's head segment Left,
// unique by construction: the Open Question decision in DESIGN.md)
// with a Fenwick tree of per-ancestor link counts for the weighted
// random pick a recombination event needs, and a dense index for the
// uniform unweighted pick two ancestors for a coalescence event needs —
// an AVL tree alone has no order-statistic support, so the flat slice
// gives that in O(1) without disturbing the mandated map.
type population struct {
	segs  *segmentList
	heads *avl.Map[pool.Handle]
	links *fenwick.Tree

	order []Locus        // dense list of currently-live heads' Left keys
	pos   map[Locus]int  // Left -> index into order, for O(1) swap-remove
}

func newPopulation(m int, segs *segmentList, avlBlockSize int, budget *pool.Budget) *population {
	return &population{
		segs:  segs,
		heads: avl.New[pool.Handle](avlBlockSize, budget),
		links: fenwick.New(m),
		pos:   make(map[Locus]int),
	}
}

func (p *population) size() int { return p.heads.Len() }

func (p *population) totalLinks() int64 { return p.links.Total() }

// insert registers a new live ancestor by its head handle. Returns an
// error if two ancestors ever collide on head Left — structurally ruled
// out by the simulator's construction (see DESIGN.md), but checked
// defensively since a silent AVL overwrite would corrupt the Fenwick
// weighting invisibly.
func (p *population) insert(head pool.Handle) error {
	left := p.segs.get(head).Left
	if p.heads.Has(uint32(left)) {
		return errBadParameter("population: duplicate ancestor head at locus %d", left)
	}
	if _, err := p.heads.Insert(uint32(left), head); err != nil {
		return err
	}
	p.links.Set(int(left), p.segs.linkCount(head))
	p.order = append(p.order, left)
	p.pos[left] = len(p.order) - 1
	return nil
}

// remove detaches and returns the ancestor rooted at left. The caller
// owns freeing its segment chain.
func (p *population) remove(left Locus) (pool.Handle, bool) {
	head, ok := p.heads.Find(uint32(left))
	if !ok {
		return pool.NoHandle, false
	}
	p.heads.Delete(uint32(left))
	p.links.Set(int(left), 0)

	idx := p.pos[left]
	last := len(p.order) - 1
	p.order[idx] = p.order[last]
	p.pos[p.order[idx]] = idx
	p.order = p.order[:last]
	delete(p.pos, left)

	return head, true
}

// pickByLink draws the ancestor containing the h-th recombination link
// (1-based, h in [1, totalLinks()]) via the Fenwick tree's inverse
// prefix-sum query, per spec.md §4.4.3.
func (p *population) pickByLink(h int64) (left Locus, head pool.Handle) {
	idx := p.links.Find(h)
	left = Locus(idx)
	head, _ = p.heads.Find(uint32(left))
	return left, head
}

// pickTwoDistinct draws two distinct ancestors uniformly at random
// without replacement, per spec.md §4.4.4's "choose an unordered pair of
// live ancestors uniformly".
func (p *population) pickTwoDistinct(src rng.Source) (aLeft, bLeft Locus) {
	n := len(p.order)
	i := int(src.UintN(uint32(n)))
	j := int(src.UintN(uint32(n - 1)))
	if j >= i {
		j++
	}
	return p.order[i], p.order[j]
}
