// Package haplotype implements the haplotype generator of spec.md §4.9:
// materializing the segregating-site bit matrix from a tree sequence
// plus its mutations, via a subtree DFS per mutation over the sparse
// tree iterator.
package haplotype

import (
	"github.com/jeromekelleher/coalescent/arg"
	"github.com/jeromekelleher/coalescent/sparsetree"
	"github.com/jeromekelleher/coalescent/treeseq"
)

const wordBits = 64

// Matrix is a packed n x S bitset: n samples, S segregating sites.
type Matrix struct {
	numSamples int
	numSites   int
	wordsPerRow int
	bits        []uint64
}

func newMatrix(numSamples, numSites int) *Matrix {
	wordsPerRow := (numSites + wordBits - 1) / wordBits
	if wordsPerRow == 0 {
		wordsPerRow = 1
	}
	return &Matrix{
		numSamples:  numSamples,
		numSites:    numSites,
		wordsPerRow: wordsPerRow,
		bits:        make([]uint64, numSamples*wordsPerRow),
	}
}

func (m *Matrix) set(row, col int) {
	idx := row*m.wordsPerRow + col/wordBits
	m.bits[idx] |= 1 << uint(col%wordBits)
}

// Get returns whether sample row+1 carries the derived allele at site
// col (0-based sample and site indices).
func (m *Matrix) Get(row, col int) bool {
	idx := row*m.wordsPerRow + col/wordBits
	return m.bits[idx]&(1<<uint(col%wordBits)) != 0
}

func (m *Matrix) NumSamples() int { return m.numSamples }

// NumSegregatingSites is the number of mutation positions the matrix was
// built from (scenario 5: mu=0 implies 0).
func (m *Matrix) NumSegregatingSites() int { return m.numSites }

// Generate builds the haplotype matrix: each marginal tree visited by
// the sparse tree iterator contributes, for every mutation whose
// position falls in its genomic interval, a depth-first walk from the
// mutation's node setting the bit for every sample leaf beneath it.
func Generate(seq *treeseq.Sequence, muts []treeseq.Mutation) *Matrix {
	m := newMatrix(seq.NumSamples(), len(muts))
	if len(muts) == 0 {
		return m
	}

	tr := sparsetree.New(seq, false, nil)
	numSamples := arg.NodeID(seq.NumSamples())
	site := 0

	for tr.Next() {
		for site < len(muts) && muts[site].Position < float64(tr.Left()) {
			site++ // mutations before the first tree cannot occur; defensive skip
		}
		for s := site; s < len(muts) && muts[s].Position < float64(tr.Right()); s++ {
			setSubtreeBits(tr, muts[s].Node, numSamples, m, s)
		}
	}
	return m
}

func setSubtreeBits(tr *sparsetree.Tree, node, numSamples arg.NodeID, m *Matrix, site int) {
	if node == 0 {
		return
	}
	if node <= numSamples {
		m.set(int(node)-1, site)
	}
	children := tr.Children(node)
	setSubtreeBits(tr, children[0], numSamples, m, site)
	setSubtreeBits(tr, children[1], numSamples, m, site)
}
