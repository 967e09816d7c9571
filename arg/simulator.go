package arg

import (
	"context"
	"math"

	"github.com/jeromekelleher/coalescent/pool"
	"github.com/jeromekelleher/coalescent/popmodel"
	"github.com/jeromekelleher/coalescent/rng"
)

// maxSampleSize bounds SampleSize so that node ids (uint32) and pool
// handles (int32) can never wrap over the course of a run that
// allocates at most one new node per coalescence event.
const maxSampleSize = math.MaxInt32 / 4

// Config collects a Simulator's construction-time parameters, mirroring
// the validated-options pattern of simconfig.Config (see simconfig).
type Config struct {
	SampleSize        int
	NumLoci           int
	RecombinationRate float64 // rho, per-link, per spec.md §3
	PopModels         []popmodel.Model
	Seed              int64

	PoolBlockSize int    // growth block size of the segment pool and the AVL node pool; 0 defaults to 256
	MaxMemory     uint64 // hard cap in bytes shared by the segment pool and the AVL node pool; 0 is unbounded
}

// Simulator drives the coalescent-with-recombination event loop of
// spec.md §4.4 to completion, resumably.
type Simulator struct {
	segs *segmentList
	pop  *population
	sched *popmodel.Schedule
	src   rng.Source

	n   int
	m   int
	rho float64

	nextNode NodeID
	time     float64
	records  []Record
}

// NewSimulator validates cfg and builds the initial population: n sample
// ancestors, each a single segment spanning the whole genome [1, m+1),
// node ids 1..=n at time 0.
func NewSimulator(cfg Config) (*Simulator, error) {
	if cfg.SampleSize < 2 {
		return nil, errBadParameter("sample_size must be >= 2, got %d", cfg.SampleSize)
	}
	if cfg.SampleSize > maxSampleSize {
		return nil, errPopulationOverflow("sample_size %d exceeds the maximum of %d", cfg.SampleSize, maxSampleSize)
	}
	if cfg.NumLoci < 1 {
		return nil, errBadParameter("num_loci must be >= 1, got %d", cfg.NumLoci)
	}
	if cfg.NumLoci > math.MaxInt32-1 {
		return nil, errLinksOverflow("num_loci %d exceeds the maximum addressable locus range", cfg.NumLoci)
	}
	if cfg.RecombinationRate < 0 {
		return nil, errBadParameter("recombination_rate must be >= 0, got %f", cfg.RecombinationRate)
	}

	sched, err := popmodel.NewSchedule(cfg.PopModels)
	if err != nil {
		return nil, err
	}

	blockSize := cfg.PoolBlockSize
	if blockSize <= 0 {
		blockSize = 256
	}

	// One Budget shared by the segment pool and the AVL node pool, so
	// MaxMemory bounds everything the run allocates rather than each
	// record type enforcing an independent cap, per spec.md §4.2.
	budget := pool.NewBudget(cfg.MaxMemory)

	sim := &Simulator{
		segs:     newSegmentList(blockSize, budget),
		sched:    sched,
		src:      rng.New(cfg.Seed),
		n:        cfg.SampleSize,
		m:        cfg.NumLoci,
		rho:      cfg.RecombinationRate,
		nextNode: NodeID(cfg.SampleSize + 1),
	}
	sim.pop = newPopulation(cfg.NumLoci, sim.segs, blockSize, budget)

	for i := 1; i <= cfg.SampleSize; i++ {
		head, err := sim.segs.alloc(1, Locus(cfg.NumLoci+1), NodeID(i), 1, 0)
		if err != nil {
			return nil, err
		}
		if err := sim.pop.insert(head); err != nil {
			return nil, err
		}
	}

	return sim, nil
}

// Time returns the current coalescent time reached so far.
func (s *Simulator) Time() float64 { return s.time }

// NumNodes returns the total number of nodes assigned so far: the n
// sample nodes plus one per coalescence event executed.
func (s *Simulator) NumNodes() NodeID { return s.nextNode - 1 }

// Records returns the coalescence records emitted so far, in the order
// they were produced. The slice is owned by the Simulator; callers must
// not mutate it.
func (s *Simulator) Records() []Record { return s.records }

// Run advances the simulation, stopping when every locus has reached its
// grand-MRCA (StatusDone), the context's deadline elapses
// (StatusPausedDeadline), or maxEvents have been executed in this call
// (StatusPausedStepCap). State is always left consistent; Run may be
// called again with a fresh context/maxEvents to resume, per spec.md
// §4.4.2's resumability requirement.
func (s *Simulator) Run(ctx context.Context, maxEvents int) (Status, error) {
	executed := 0
	for s.pop.size() >= 2 {
		if err := ctx.Err(); err != nil {
			return StatusPausedDeadline, nil
		}
		if maxEvents >= 0 && executed >= maxEvents {
			return StatusPausedStepCap, nil
		}

		k := s.pop.size()
		coalRate := float64(k) * float64(k-1)
		recombRate := s.rho * float64(s.pop.totalLinks())

		coalTime := s.sched.WaitTime(s.time, coalRate, s.src)
		recombTime := s.sched.WaitTime(s.time, recombRate, s.src)
		nextEvent := coalTime
		if recombTime < nextEvent {
			nextEvent = recombTime
		}

		// spec.md §4.4.2 step 3: if the next model epoch begins before
		// the earlier of the two draws, advance to the boundary and
		// redraw there instead of firing an event past it.
		if boundary, ok := s.sched.NextBoundary(s.time); ok && boundary < nextEvent {
			s.time = boundary
			continue
		}

		var err error
		if coalTime <= recombTime {
			s.time = coalTime
			err = s.coalesce()
		} else {
			s.time = recombTime
			err = s.recombine()
		}
		if err != nil {
			return StatusPausedDeadline, err
		}
		executed++
	}
	return StatusDone, nil
}
