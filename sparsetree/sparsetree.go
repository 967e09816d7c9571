// Package sparsetree implements the sparse-tree iterator of spec.md
// §4.7: a dense parent/children/time array representation of the
// current marginal tree, advanced incrementally from the tree diff
// iterator, with an MRCA query and optional incremental leaf-count
// maintenance.
package sparsetree

import (
	"github.com/jeromekelleher/coalescent/arg"
	"github.com/jeromekelleher/coalescent/diff"
	"github.com/jeromekelleher/coalescent/simerr"
	"github.com/jeromekelleher/coalescent/treeseq"
)

// Tree is the dense marginal-tree representation. Node 0 is reserved as
// the "null" sentinel; live node ids occupy 1..=numNodes.
type Tree struct {
	seq *treeseq.Sequence
	it  *diff.Iterator

	numNodes arg.NodeID
	parent   []arg.NodeID
	timeOf   []float64
	children [][2]arg.NodeID
	root     arg.NodeID

	left, right arg.Locus

	trackLeaves      bool
	numLeaves        []int32
	numTrackedLeaves []int32
}

// New creates a Tree positioned before the first marginal tree. If
// trackLeaves is true, tracked lists the sample nodes whose presence in
// a subtree should be counted separately via NumTrackedLeaves; nil means
// every sample is tracked.
func New(seq *treeseq.Sequence, trackLeaves bool, tracked []arg.NodeID) *Tree {
	numNodes := seq.NumNodes()
	t := &Tree{
		seq:         seq,
		it:          diff.New(seq),
		numNodes:    numNodes,
		parent:      make([]arg.NodeID, numNodes+1),
		timeOf:      make([]float64, numNodes+1),
		children:    make([][2]arg.NodeID, numNodes+1),
		trackLeaves: trackLeaves,
	}
	if trackLeaves {
		t.numLeaves = make([]int32, numNodes+1)
		t.numTrackedLeaves = make([]int32, numNodes+1)
		trackedSet := make(map[arg.NodeID]bool, len(tracked))
		for _, id := range tracked {
			trackedSet[id] = true
		}
		for i := arg.NodeID(1); i <= arg.NodeID(seq.NumSamples()); i++ {
			t.numLeaves[i] = 1
			if tracked == nil || trackedSet[i] {
				t.numTrackedLeaves[i] = 1
			}
		}
	}
	return t
}

// Left and Right return the current marginal tree's genomic interval.
func (t *Tree) Left() arg.Locus  { return t.left }
func (t *Tree) Right() arg.Locus { return t.right }
func (t *Tree) Root() arg.NodeID { return t.root }

func (t *Tree) Parent(v arg.NodeID) arg.NodeID      { return t.parent[v] }
func (t *Tree) Children(v arg.NodeID) [2]arg.NodeID { return t.children[v] }
func (t *Tree) Time(v arg.NodeID) float64           { return t.timeOf[v] }

// NumLeaves and NumTrackedLeaves return the incrementally maintained
// subtree leaf counts. Both return KindUnsupportedOperation if the Tree
// was constructed with trackLeaves false.
func (t *Tree) NumLeaves(v arg.NodeID) (int32, error) {
	if !t.trackLeaves {
		return 0, simerr.New(simerr.KindUnsupportedOperation, "sparsetree: leaf tracking not enabled")
	}
	return t.numLeaves[v], nil
}

func (t *Tree) NumTrackedLeaves(v arg.NodeID) (int32, error) {
	if !t.trackLeaves {
		return 0, simerr.New(simerr.KindUnsupportedOperation, "sparsetree: leaf tracking not enabled")
	}
	return t.numTrackedLeaves[v], nil
}

// Next advances to the next marginal tree, applying the diff iterator's
// out/in record lists per spec.md §4.7. Returns false once the sequence
// is exhausted.
func (t *Tree) Next() bool {
	length, out, in, ok := t.it.Next()
	if !ok {
		return false
	}

	for _, rec := range out {
		for _, c := range rec.Children {
			if t.trackLeaves {
				t.addUpward(rec.Node, -t.numLeaves[c], -t.numTrackedLeaves[c])
			}
			t.parent[c] = 0
		}
		t.children[rec.Node] = [2]arg.NodeID{0, 0}
		t.timeOf[rec.Node] = 0
		if rec.Node == t.root {
			t.root = maxNode(rec.Children[0], rec.Children[1])
		}
	}

	for _, rec := range in {
		t.children[rec.Node] = rec.Children
		t.timeOf[rec.Node] = rec.Time
		for _, c := range rec.Children {
			t.parent[c] = rec.Node
		}
		if t.trackLeaves {
			t.addUpward(rec.Node, t.numLeaves[rec.Children[0]]+t.numLeaves[rec.Children[1]],
				t.numTrackedLeaves[rec.Children[0]]+t.numTrackedLeaves[rec.Children[1]])
		}
		if rec.Node > t.root {
			t.root = rec.Node
		}
	}

	for t.parent[t.root] != 0 {
		t.root = t.parent[t.root]
	}

	t.left = t.right
	if t.left == 0 {
		t.left = 1
	}
	t.right = t.left + length
	return true
}

func (t *Tree) addUpward(from arg.NodeID, deltaLeaves, deltaTracked int32) {
	for cur := from; cur != 0; cur = t.parent[cur] {
		t.numLeaves[cur] += deltaLeaves
		t.numTrackedLeaves[cur] += deltaTracked
	}
}

func maxNode(a, b arg.NodeID) arg.NodeID {
	if a > b {
		return a
	}
	return b
}

// MRCA returns the most recent common ancestor of u and v in the
// current marginal tree, per spec.md §4.7: ascend both into
// root-terminated stacks, then walk down from the root while the two
// stacks agree; the last agreeing entry is the MRCA. Returns 0 if either
// node is not part of the current tree.
func (t *Tree) MRCA(u, v arg.NodeID) arg.NodeID {
	su := t.ancestorStack(u)
	sv := t.ancestorStack(v)
	if len(su) == 0 || len(sv) == 0 {
		return 0
	}

	i, j := len(su)-1, len(sv)-1
	var mrca arg.NodeID
	for i >= 0 && j >= 0 && su[i] == sv[j] {
		mrca = su[i]
		i--
		j--
	}
	return mrca
}

// ancestorStack returns [v, parent(v), parent(parent(v)), ..., root].
func (t *Tree) ancestorStack(v arg.NodeID) []arg.NodeID {
	if v == 0 || v > t.numNodes {
		return nil
	}
	var stack []arg.NodeID
	for cur := v; cur != 0; cur = t.parent[cur] {
		stack = append(stack, cur)
	}
	return stack
}
