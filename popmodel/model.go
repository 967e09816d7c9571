// Package popmodel implements the time-varying population-size models of
// spec.md §3 and the closed-form hazard integration of §9 ("integrate
// the hazard analytically for constant and exponential models; no
// loop"). A Schedule is the sorted sequence of epochs the simulator
// walks through as backward time advances.
package popmodel

import (
	"fmt"
	"math"

	"github.com/jeromekelleher/coalescent/simerr"
)

// Kind tags a population model's growth law.
type Kind int

const (
	Constant Kind = iota
	Exponential
)

func (k Kind) String() string {
	if k == Exponential {
		return "exponential"
	}
	return "constant"
}

// Model is one epoch: {start_time, kind, param}. For Constant, Param is
// the effective size N. For Exponential, Param is the growth rate alpha
// and the epoch's N(start_time) is inherited from the preceding epoch's
// size law evaluated at this epoch's start_time (continuity, per
// spec.md §3).
type Model struct {
	StartTime float64
	Kind      Kind
	Param     float64
}

// resolvedEpoch carries the baseline size N0 = N(StartTime) alongside
// the raw Model, computed once when the Schedule is built.
type resolvedEpoch struct {
	Model
	n0 float64
}

// Schedule is the ordered, continuity-resolved sequence of population
// models the simulator consults.
type Schedule struct {
	epochs []resolvedEpoch
}

// NewSchedule validates and resolves models into a Schedule. Models must
// already be sorted by StartTime ascending (spec.md §3: "the simulator
// rejects unsorted sequences"); a default constant(1) epoch at
// start_time 0 is prepended unless the caller already supplies one.
func NewSchedule(models []Model) (*Schedule, error) {
	for i := 1; i < len(models); i++ {
		if models[i].StartTime < models[i-1].StartTime {
			return nil, simerr.New(simerr.KindUnsortedPopModels,
				fmt.Sprintf("population_models must be sorted by start_time: index %d (%.6f) precedes index %d (%.6f)",
					i, models[i].StartTime, i-1, models[i-1].StartTime))
		}
		if models[i].Kind != Constant && models[i].Kind != Exponential {
			return nil, simerr.New(simerr.KindBadPopModel,
				fmt.Sprintf("unknown population model kind %d at index %d", models[i].Kind, i))
		}
	}

	if len(models) == 0 || models[0].StartTime != 0 {
		models = append([]Model{{StartTime: 0, Kind: Constant, Param: 1}}, models...)
	}

	epochs := make([]resolvedEpoch, len(models))
	for i, m := range models {
		var n0 float64
		switch {
		case i == 0:
			n0 = m.Param
			if m.Kind == Exponential {
				// A leading exponential epoch has no predecessor to
				// inherit a baseline size from, and its Param is a growth
				// rate rather than a size, so the initial size is 1,
				// matching the spec's "size at time 0 is constant(1)
				// unless overridden" default.
				n0 = 1
			}
		case m.Kind == Constant:
			n0 = m.Param
		default: // Exponential: inherit from the previous epoch's law
			n0 = epochs[i-1].sizeAt(m.StartTime)
		}
		epochs[i] = resolvedEpoch{Model: m, n0: n0}
	}

	return &Schedule{epochs: epochs}, nil
}

func (e resolvedEpoch) sizeAt(t float64) float64 {
	if e.Kind == Constant {
		return e.n0
	}
	return e.n0 * math.Exp(-e.Param*(t-e.StartTime))
}

// SizeAt returns the effective population size at time t.
func (s *Schedule) SizeAt(t float64) float64 {
	e := s.epochAt(t)
	return e.sizeAt(t)
}

// epochAt returns the resolved epoch covering time t (binary search over
// StartTime).
func (s *Schedule) epochAt(t float64) resolvedEpoch {
	lo, hi := 0, len(s.epochs)-1
	idx := 0
	for lo <= hi {
		mid := (lo + hi) / 2
		if s.epochs[mid].StartTime <= t {
			idx = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return s.epochs[idx]
}

// NextBoundary returns the start_time of the epoch following the one
// covering t, and whether one exists.
func (s *Schedule) NextBoundary(t float64) (float64, bool) {
	for _, e := range s.epochs {
		if e.StartTime > t {
			return e.StartTime, true
		}
	}
	return 0, false
}
