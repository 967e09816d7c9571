// Package rng defines the injectable uniform-variate source the
// simulator draws from, per spec.md §1: "random-number-generator
// implementation (a mock replaceable stream of uniform variates is
// assumed)". The default implementation wraps math/rand behind the
// interface, following the injected-*rand.Rand pattern used by
// miretskiy-rollingstone/simulator/distribution.go's Distribution
// interface.
package rng

import "math/rand"

// Source produces uniform variates. Implementations need not be safe
// for concurrent use; the simulator is single-threaded per spec.md §5.
type Source interface {
	// Float64 returns a uniform variate in [0, 1).
	Float64() float64
	// UintN returns a uniform variate in [0, n).
	UintN(n uint32) uint32
	// Uint64 returns a uniform 64-bit variate, used to bridge to
	// gonum/stat/distuv's Source requirement (see AsExpSource).
	Uint64() uint64
}

type mathRandSource struct {
	r *rand.Rand
}

// New wraps a seeded math/rand source behind the Source interface.
func New(seed int64) Source {
	return &mathRandSource{r: rand.New(rand.NewSource(seed))}
}

func (s *mathRandSource) Float64() float64 {
	return s.r.Float64()
}

func (s *mathRandSource) UintN(n uint32) uint32 {
	if n == 0 {
		panic("rng: UintN called with n=0")
	}
	return uint32(s.r.Int63n(int64(n)))
}

func (s *mathRandSource) Uint64() uint64 {
	return s.r.Uint64()
}
