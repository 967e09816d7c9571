package haplotype

import (
	"testing"

	"github.com/jeromekelleher/coalescent/arg"
	"github.com/jeromekelleher/coalescent/treeseq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeSampleSequence(t *testing.T) *treeseq.Sequence {
	t.Helper()
	records := []arg.Record{
		{Left: 1, Right: 11, Node: 4, Children: [2]arg.NodeID{1, 2}, Time: 1},
		{Left: 1, Right: 11, Node: 5, Children: [2]arg.NodeID{3, 4}, Time: 2},
	}
	seq, err := treeseq.New(3, 10, records)
	require.NoError(t, err)
	return seq
}

func TestGenerateWithNoMutationsYieldsEmptyMatrix(t *testing.T) {
	seq := threeSampleSequence(t)
	m := Generate(seq, nil)

	assert.Equal(t, 0, m.NumSegregatingSites())
	assert.Equal(t, 3, m.NumSamples())
}

func TestGenerateMutationOnLeafSetsOnlyThatSample(t *testing.T) {
	seq := threeSampleSequence(t)
	muts := []treeseq.Mutation{{Position: 5, Node: 2}}
	m := Generate(seq, muts)

	require.Equal(t, 1, m.NumSegregatingSites())
	assert.False(t, m.Get(0, 0))
	assert.True(t, m.Get(1, 0))
	assert.False(t, m.Get(2, 0))
}

func TestGenerateMutationOnInternalNodeSetsAllDescendants(t *testing.T) {
	seq := threeSampleSequence(t)
	muts := []treeseq.Mutation{{Position: 5, Node: 4}}
	m := Generate(seq, muts)

	require.Equal(t, 1, m.NumSegregatingSites())
	assert.True(t, m.Get(0, 0))
	assert.True(t, m.Get(1, 0))
	assert.False(t, m.Get(2, 0))
}

func TestGenerateMultipleMutationsAreIndependentColumns(t *testing.T) {
	seq := threeSampleSequence(t)
	muts := []treeseq.Mutation{
		{Position: 2, Node: 1},
		{Position: 8, Node: 5},
	}
	m := Generate(seq, muts)

	require.Equal(t, 2, m.NumSegregatingSites())
	assert.True(t, m.Get(0, 0))
	assert.False(t, m.Get(1, 0))
	assert.False(t, m.Get(2, 0))

	assert.True(t, m.Get(0, 1))
	assert.True(t, m.Get(1, 1))
	assert.True(t, m.Get(2, 1))
}
