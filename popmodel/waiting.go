package popmodel

import (
	"math"

	"github.com/jeromekelleher/coalescent/rng"
	"gonum.org/v1/gonum/stat/distuv"
)

// WaitTime draws the real-time elapsed from `now` until an event whose
// coalescent-time rate is `rateCoefficient` (e.g. k(k-1) for coalescence,
// rho*L for recombination) fires, under the epoch covering `now`.
// Returns +Inf if the epoch's law never accumulates enough hazard (only
// possible for a shrinking-forward exponential epoch whose integral
// converges) — the caller compares this against the next epoch boundary
// and advances without firing an event there, per spec.md §4.4.2 step 3.
func (s *Schedule) WaitTime(now, rateCoefficient float64, src rng.Source) float64 {
	if rateCoefficient <= 0 {
		return math.Inf(1)
	}
	e := s.epochAt(now)

	if e.Kind == Constant || e.Param == 0 {
		// dt ~ Exponential(rate = rateCoefficient / N), since the hazard
		// accumulates linearly with real time under a constant size.
		dt := distuv.Exponential{Rate: rateCoefficient / e.n0, Src: rng.AsExpSource(src)}.Rand()
		return now + dt
	}

	// Exponential epoch: draw E ~ Exponential(1) in coalescent time, then
	// invert the closed-form hazard integral for real time t'.
	draw := distuv.Exponential{Rate: 1, Src: rng.AsExpSource(src)}.Rand()

	alpha := e.Param
	expNow := math.Exp(alpha * (now - e.StartTime))
	c := draw/rateCoefficient*alpha*e.n0 + expNow
	if c <= 0 {
		return math.Inf(1)
	}
	return e.StartTime + math.Log(c)/alpha
}
