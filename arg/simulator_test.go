package arg

import (
	"context"
	"testing"

	"github.com/jeromekelleher/coalescent/popmodel"
	"github.com/jeromekelleher/coalescent/simerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSimulatorRejectsBadParameters(t *testing.T) {
	_, err := NewSimulator(Config{SampleSize: 1, NumLoci: 1})
	require.Error(t, err)
	var se *simerr.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, simerr.KindBadParameter, se.Kind)

	_, err = NewSimulator(Config{SampleSize: 2, NumLoci: 0})
	require.Error(t, err)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, simerr.KindBadParameter, se.Kind)

	_, err = NewSimulator(Config{SampleSize: maxSampleSize + 1, NumLoci: 1})
	require.Error(t, err)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, simerr.KindPopulationOverflow, se.Kind)
}

func newTestSimulator(t *testing.T, n, m int, rho float64, seed int64) *Simulator {
	t.Helper()
	sim, err := NewSimulator(Config{
		SampleSize:        n,
		NumLoci:           m,
		RecombinationRate: rho,
		Seed:              seed,
	})
	require.NoError(t, err)
	return sim
}

func TestCoalesceTwoSamplesSingleLocus(t *testing.T) {
	sim := newTestSimulator(t, 2, 1, 0, 1)
	status, err := sim.Run(context.Background(), -1)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, status)

	recs := sim.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, Locus(1), recs[0].Left)
	assert.Equal(t, Locus(2), recs[0].Right)
	assert.Equal(t, NodeID(3), recs[0].Node)
	assert.Equal(t, [2]NodeID{1, 2}, recs[0].Children)
	assert.Equal(t, NodeID(3), sim.NumNodes())
}

func TestCoalesceTwoSamplesMultiLocus(t *testing.T) {
	sim := newTestSimulator(t, 2, 10, 0, 2)
	status, err := sim.Run(context.Background(), -1)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, status)

	recs := sim.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, Locus(1), recs[0].Left)
	assert.Equal(t, Locus(11), recs[0].Right)
	assert.Equal(t, NodeID(3), recs[0].Node)
	assert.Equal(t, [2]NodeID{1, 2}, recs[0].Children)
}

func TestCoalesceThreeSamplesSingleLocus(t *testing.T) {
	sim := newTestSimulator(t, 3, 1, 0, 3)
	status, err := sim.Run(context.Background(), -1)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, status)

	recs := sim.Records()
	require.Len(t, recs, 2)

	first, second := recs[0], recs[1]
	assert.Equal(t, Locus(1), first.Left)
	assert.Equal(t, Locus(2), first.Right)
	assert.Equal(t, NodeID(4), first.Node)
	assert.Less(t, first.Children[0], first.Children[1])

	assert.Equal(t, Locus(1), second.Left)
	assert.Equal(t, Locus(2), second.Right)
	assert.Equal(t, NodeID(5), second.Node)
	assert.Contains(t, second.Children, NodeID(4))
	assert.Less(t, first.Time, second.Time)

	// The three original samples are {1,2,3}: the first event merges two
	// of them, the second merges node 4 with whichever sample is left.
	seen := map[NodeID]bool{first.Children[0]: true, first.Children[1]: true}
	var remaining NodeID
	for _, id := range []NodeID{1, 2, 3} {
		if !seen[id] {
			remaining = id
		}
	}
	assert.Contains(t, second.Children, remaining)
}

func TestRunRespectsStepCapAndResumes(t *testing.T) {
	sim := newTestSimulator(t, 3, 1, 0, 4)

	status, err := sim.Run(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, StatusPausedStepCap, status)
	assert.Len(t, sim.Records(), 1)

	status, err = sim.Run(context.Background(), -1)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, status)
	assert.Len(t, sim.Records(), 2)
}

func TestRunRespectsCanceledContext(t *testing.T) {
	sim := newTestSimulator(t, 3, 1, 0, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	status, err := sim.Run(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, StatusPausedDeadline, status)
	assert.Empty(t, sim.Records())
}

// TestRunMultiEpochPopulationModelRespectsBoundary exercises spec.md
// §4.4.2 step 3: Run must advance to an epoch boundary and redraw there
// rather than dispatching an event time drawn under the wrong epoch's
// law. The first epoch's population size is so large that a coalescence
// time drawn under its hazard law alone would land on the order of
// 1e6; the second epoch's size is so small that, once its law is
// actually consulted, coalescence follows almost immediately. If Run
// ever failed to stop at the boundary and redraw, every record's time
// would come out enormous instead of just after the boundary.
func TestRunMultiEpochPopulationModelRespectsBoundary(t *testing.T) {
	const boundary = 0.001
	models := []popmodel.Model{
		{StartTime: 0, Kind: popmodel.Constant, Param: 1e6},
		{StartTime: boundary, Kind: popmodel.Constant, Param: 1e-6},
	}

	for seed := int64(0); seed < 10; seed++ {
		sim, err := NewSimulator(Config{
			SampleSize: 2,
			NumLoci:    1,
			PopModels:  models,
			Seed:       seed,
		})
		require.NoError(t, err)

		status, err := sim.Run(context.Background(), -1)
		require.NoError(t, err)
		require.Equal(t, StatusDone, status)

		recs := sim.Records()
		require.Len(t, recs, 1)
		assert.GreaterOrEqual(t, recs[0].Time, boundary)
		assert.Less(t, recs[0].Time, boundary+0.01)
	}
}

func TestRandomizedInvariantsWithRecombination(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		n, m := 6, 30
		sim := newTestSimulator(t, n, m, 2.0, seed)

		status, err := sim.Run(context.Background(), -1)
		require.NoError(t, err)
		require.Equal(t, StatusDone, status)

		var lastTime float64
		var maxNode NodeID
		for _, r := range sim.Records() {
			assert.GreaterOrEqual(t, r.Left, Locus(1))
			assert.Less(t, r.Left, r.Right)
			assert.LessOrEqual(t, r.Right, Locus(m+1))
			assert.Less(t, r.Children[0], r.Children[1])
			assert.GreaterOrEqual(t, r.Time, lastTime)
			lastTime = r.Time
			if r.Node > maxNode {
				maxNode = r.Node
			}
		}
		assert.Equal(t, sim.NumNodes(), maxNode)
		assert.GreaterOrEqual(t, int(sim.NumNodes()), 2*n-1)
	}
}
