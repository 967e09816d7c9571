// Package mutation implements the infinite-sites mutation dropper of
// spec.md §4.8: Poisson-distributed mutation placement along the
// branches of a tree sequence.
package mutation

import (
	"sort"

	"github.com/jeromekelleher/coalescent/rng"
	"github.com/jeromekelleher/coalescent/treeseq"
	"gonum.org/v1/gonum/stat/distuv"
)

// Drop places mutations over every branch of seq's coalescence records,
// per spec.md §4.8: for each record and each of its two children, draw a
// Poisson count with mean mu*(time-time_child)*(right-left), placing
// each at a uniformly random real position in [left, right). The result
// is sorted by position; mu <= 0 returns nil without drawing anything
// (scenario 5: no mutations, not even degenerate Poisson(0) draws).
func Drop(seq *treeseq.Sequence, mu float64, src rng.Source) []treeseq.Mutation {
	if mu <= 0 {
		return nil
	}

	nodeTime := make([]float64, seq.NumNodes()+1)
	var muts []treeseq.Mutation

	for j := 0; j < seq.NumRecords(); j++ {
		rec := seq.GetRecord(j, treeseq.Time)
		nodeTime[rec.Node] = rec.Time
		length := float64(rec.Right - rec.Left)

		for _, child := range rec.Children {
			mean := mu * (rec.Time - nodeTime[child]) * length
			if mean <= 0 {
				continue
			}
			count := int(distuv.Poisson{Lambda: mean, Src: rng.AsExpSource(src)}.Rand())
			for k := 0; k < count; k++ {
				pos := float64(rec.Left) + src.Float64()*length
				muts = append(muts, treeseq.Mutation{Position: pos, Node: child})
			}
		}
	}

	sort.Slice(muts, func(i, j int) bool { return muts[i].Position < muts[j].Position })
	return muts
}
