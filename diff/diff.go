// Package diff implements the tree-diff iterator of spec.md §4.6: walking
// a tree sequence's sorted insertion/removal indexes to emit, for each
// genomic interval, the records leaving and entering the marginal tree.
package diff

import (
	"github.com/jeromekelleher/coalescent/arg"
	"github.com/jeromekelleher/coalescent/treeseq"
)

// Iterator walks a tree sequence's sorted insertion/removal order, one
// genomic interval at a time.
type Iterator struct {
	seq *treeseq.Sequence

	insertionIndex int
	removalIndex   int
	treeLeft       arg.Locus
}

// New creates an Iterator positioned before the first tree.
func New(seq *treeseq.Sequence) *Iterator {
	return &Iterator{seq: seq, treeLeft: 1}
}

// Next returns the length of the next genomic interval and the records
// leaving (out) and entering (in) the active tree at its boundaries,
// per spec.md §4.6's algorithm. ok is false once every record has been
// inserted (the sequence is exhausted).
func (it *Iterator) Next() (length arg.Locus, out, in []arg.Record, ok bool) {
	r := it.seq.NumRecords()
	if it.insertionIndex >= r {
		return 0, nil, nil, false
	}

	for it.removalIndex < r {
		rec := it.seq.GetRecord(it.removalIndex, treeseq.Right)
		if rec.Right != it.treeLeft {
			break
		}
		out = append(out, rec)
		it.removalIndex++
	}

	for it.insertionIndex < r {
		rec := it.seq.GetRecord(it.insertionIndex, treeseq.Left)
		if rec.Left != it.treeLeft {
			break
		}
		in = append(in, rec)
		it.insertionIndex++
	}

	newLeft := arg.Locus(it.seq.NumLoci() + 1)
	if it.removalIndex < r {
		newLeft = it.seq.GetRecord(it.removalIndex, treeseq.Right).Right
	}
	length = newLeft - it.treeLeft
	it.treeLeft = newLeft
	return length, out, in, true
}
