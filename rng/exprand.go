package rng

import exprand "golang.org/x/exp/rand"

// expSourceAdapter bridges Source to golang.org/x/exp/rand.Source, which
// is what gonum.org/v1/gonum/stat/distuv expects for its Src field. This
// keeps every draw in the simulator flowing through the one injected
// Source rather than a separately-seeded global generator.
type expSourceAdapter struct {
	s Source
}

func (a expSourceAdapter) Uint64() uint64 { return a.s.Uint64() }

// Seed is a no-op: reseeding mid-simulation would break reproducibility,
// and this module only ever constructs a Source once, up front.
func (a expSourceAdapter) Seed(uint64) {}

// AsExpSource adapts s for use as a gonum/stat/distuv.*.Src field.
func AsExpSource(s Source) exprand.Source {
	return expSourceAdapter{s: s}
}
