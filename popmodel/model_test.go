package popmodel

import (
	"testing"

	"github.com/jeromekelleher/coalescent/rng"
	"github.com/jeromekelleher/coalescent/simerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScheduleRejectsUnsorted(t *testing.T) {
	_, err := NewSchedule([]Model{
		{StartTime: 10, Kind: Constant, Param: 2},
		{StartTime: 5, Kind: Constant, Param: 4},
	})
	require.Error(t, err)

	var se *simerr.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, simerr.KindUnsortedPopModels, se.Kind)
}

func TestNewScheduleDefaultsToConstantOne(t *testing.T) {
	s, err := NewSchedule(nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, s.SizeAt(0))
	assert.Equal(t, 1.0, s.SizeAt(1000))
}

func TestNewScheduleHonorsExplicitOverrideAtZero(t *testing.T) {
	s, err := NewSchedule([]Model{{StartTime: 0, Kind: Constant, Param: 5}})
	require.NoError(t, err)
	assert.Equal(t, 5.0, s.SizeAt(0))
}

func TestExponentialContinuityFromPreviousEpoch(t *testing.T) {
	s, err := NewSchedule([]Model{
		{StartTime: 0, Kind: Constant, Param: 10},
		{StartTime: 5, Kind: Exponential, Param: 0.1},
	})
	require.NoError(t, err)

	assert.Equal(t, 10.0, s.SizeAt(4))
	assert.InDelta(t, 10.0, s.SizeAt(5), 1e-9)
	assert.Less(t, s.SizeAt(15), s.SizeAt(5))
}

func TestNextBoundary(t *testing.T) {
	s, err := NewSchedule([]Model{
		{StartTime: 0, Kind: Constant, Param: 10},
		{StartTime: 5, Kind: Exponential, Param: 0.1},
	})
	require.NoError(t, err)

	b, ok := s.NextBoundary(2)
	require.True(t, ok)
	assert.Equal(t, 5.0, b)

	_, ok = s.NextBoundary(100)
	assert.False(t, ok)
}

func TestWaitTimeConstantIsPositiveAndAdvancesTime(t *testing.T) {
	s, err := NewSchedule([]Model{{StartTime: 0, Kind: Constant, Param: 1}})
	require.NoError(t, err)

	src := rng.New(1)
	for i := 0; i < 50; i++ {
		next := s.WaitTime(0, 6, src)
		assert.Greater(t, next, 0.0)
	}
}

func TestWaitTimeExponentialEpochAdvancesTime(t *testing.T) {
	s, err := NewSchedule([]Model{
		{StartTime: 0, Kind: Constant, Param: 1},
		{StartTime: 1, Kind: Exponential, Param: 0.5},
	})
	require.NoError(t, err)

	src := rng.New(7)
	for i := 0; i < 50; i++ {
		next := s.WaitTime(2, 2, src)
		assert.Greater(t, next, 2.0)
	}
}

func TestWaitTimeNonPositiveRateIsInfinite(t *testing.T) {
	s, err := NewSchedule(nil)
	require.NoError(t, err)
	src := rng.New(1)
	assert.True(t, s.WaitTime(0, 0, src) > 1e300)
}
