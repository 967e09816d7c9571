// Package treeseq implements the columnar tree-sequence representation
// of spec.md §4.5: coalescence records stored as parallel arrays plus
// the insertion/removal permutations the diff iterator walks, and the
// two on-disk container formats (archive.go, legacyfile.go) that load
// and save it.
package treeseq

import (
	"fmt"
	"sort"

	"github.com/jeromekelleher/coalescent/arg"
	"github.com/jeromekelleher/coalescent/simerr"
)

// Order selects which permutation GetRecord indexes through.
type Order int

const (
	// Time is emission order: already time-ascending, so no permutation
	// is needed.
	Time Order = iota
	// Left walks records by left ascending, ties by time ascending.
	Left
	// Right walks records by right ascending, ties by time descending.
	Right
)

// Mutation is one infinite-sites mutation: a real-valued genomic
// Position and the Node it arose on.
type Mutation struct {
	Position float64
	Node     arg.NodeID
}

// Sequence is the columnar store of spec.md §4.5: seven record columns
// plus the insertion_order/removal_order permutations, plus the
// mutation columns.
type Sequence struct {
	sampleSize int
	numLoci    int

	left, right []arg.Locus
	node        []arg.NodeID
	children    [][2]arg.NodeID
	time        []float64

	insertionOrder []int
	removalOrder   []int

	mutPosition []float64
	mutNode     []arg.NodeID
}

// New builds a Sequence from the simulator's finalized records, already
// time-ascending per spec.md §4.5 step 1. It builds both permutations
// and validates the invariants of spec.md §8.
func New(sampleSize, numLoci int, records []arg.Record) (*Sequence, error) {
	s := &Sequence{sampleSize: sampleSize, numLoci: numLoci}
	s.left = make([]arg.Locus, len(records))
	s.right = make([]arg.Locus, len(records))
	s.node = make([]arg.NodeID, len(records))
	s.children = make([][2]arg.NodeID, len(records))
	s.time = make([]float64, len(records))

	for j, r := range records {
		if j > 0 && r.Time < s.time[j-1] {
			return nil, simerr.New(simerr.KindBadOrdering,
				fmt.Sprintf("records must be time-ascending: record %d has time %g before %g", j, r.Time, s.time[j-1]))
		}
		if r.Children[0] >= r.Children[1] {
			return nil, simerr.New(simerr.KindBadOrdering,
				fmt.Sprintf("record %d: children must satisfy children[0] < children[1], got %v", j, r.Children))
		}
		if !(r.Left < r.Right && r.Right <= arg.Locus(numLoci+1)) {
			return nil, simerr.New(simerr.KindOutOfBounds,
				fmt.Sprintf("record %d: requires left < right <= num_loci+1, got [%d, %d)", j, r.Left, r.Right))
		}
		s.left[j], s.right[j], s.node[j], s.children[j], s.time[j] = r.Left, r.Right, r.Node, r.Children, r.Time
	}

	s.buildOrders()
	return s, nil
}

func (s *Sequence) buildOrders() {
	n := len(s.left)
	s.insertionOrder = make([]int, n)
	s.removalOrder = make([]int, n)
	for i := range s.insertionOrder {
		s.insertionOrder[i] = i
		s.removalOrder[i] = i
	}
	sort.SliceStable(s.insertionOrder, func(a, b int) bool {
		i, j := s.insertionOrder[a], s.insertionOrder[b]
		if s.left[i] != s.left[j] {
			return s.left[i] < s.left[j]
		}
		return s.time[i] < s.time[j]
	})
	sort.SliceStable(s.removalOrder, func(a, b int) bool {
		i, j := s.removalOrder[a], s.removalOrder[b]
		if s.right[i] != s.right[j] {
			return s.right[i] < s.right[j]
		}
		return s.time[i] > s.time[j]
	})
}

func (s *Sequence) NumLoci() int    { return s.numLoci }
func (s *Sequence) NumSamples() int { return s.sampleSize }
func (s *Sequence) NumRecords() int { return len(s.left) }

// NumNodes is the last emitted node: the grand-MRCA root, per spec.md
// §4.5 step 4. Returns the sample size itself for a record-less
// sequence (no coalescence ever ran).
func (s *Sequence) NumNodes() arg.NodeID {
	if len(s.node) == 0 {
		return arg.NodeID(s.sampleSize)
	}
	return s.node[len(s.node)-1]
}

func (s *Sequence) NumMutations() int { return len(s.mutPosition) }

// GetRecord returns the i-th record under the requested traversal order.
func (s *Sequence) GetRecord(i int, order Order) arg.Record {
	idx := i
	switch order {
	case Left:
		idx = s.insertionOrder[i]
	case Right:
		idx = s.removalOrder[i]
	}
	return arg.Record{
		Left: s.left[idx], Right: s.right[idx],
		Node: s.node[idx], Children: s.children[idx], Time: s.time[idx],
	}
}

// InsertionOrder and RemovalOrder expose the raw permutations for the
// diff iterator.
func (s *Sequence) InsertionOrder() []int { return s.insertionOrder }
func (s *Sequence) RemovalOrder() []int   { return s.removalOrder }

// Column accessors used by the diff/sparse-tree/haplotype packages,
// which walk records by raw index rather than by Order.
func (s *Sequence) Left(i int) arg.Locus        { return s.left[i] }
func (s *Sequence) Right(i int) arg.Locus       { return s.right[i] }
func (s *Sequence) Node(i int) arg.NodeID       { return s.node[i] }
func (s *Sequence) Children(i int) [2]arg.NodeID { return s.children[i] }
func (s *Sequence) TimeAt(i int) float64        { return s.time[i] }

func (s *Sequence) MutationPosition(i int) float64  { return s.mutPosition[i] }
func (s *Sequence) MutationNode(i int) arg.NodeID   { return s.mutNode[i] }

// SetMutations validates and installs the sequence's mutation columns,
// per spec.md §4.5: every mutation must have 0 <= position <= num_loci
// and 1 <= node <= num_nodes, sorted by position afterward.
func (s *Sequence) SetMutations(muts []Mutation) error {
	numNodes := s.NumNodes()
	for _, mu := range muts {
		if mu.Position < 0 || mu.Position > float64(s.numLoci) {
			return simerr.New(simerr.KindBadMutation,
				fmt.Sprintf("mutation position %g out of [0, %d]", mu.Position, s.numLoci))
		}
		if mu.Node < 1 || mu.Node > numNodes {
			return simerr.New(simerr.KindBadMutation,
				fmt.Sprintf("mutation node %d out of [1, %d]", mu.Node, numNodes))
		}
	}

	sorted := make([]Mutation, len(muts))
	copy(sorted, muts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	s.mutPosition = make([]float64, len(sorted))
	s.mutNode = make([]arg.NodeID, len(sorted))
	for i, mu := range sorted {
		s.mutPosition[i], s.mutNode[i] = mu.Position, mu.Node
	}
	return nil
}
