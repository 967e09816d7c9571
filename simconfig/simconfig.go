// Package simconfig exposes the recognized-option table of spec.md §6 as
// a validated Go struct, built with the teacher's small option-function
// constructor idiom (database/client.Option / WithDefaultOptions).
package simconfig

import (
	"github.com/jeromekelleher/coalescent/arg"
	"github.com/jeromekelleher/coalescent/popmodel"
	"github.com/jeromekelleher/coalescent/simerr"
)

// Config is the full recognized-option surface: everything needed to
// build an arg.Simulator plus the mutation rate consumed downstream by
// the mutation dropper.
type Config struct {
	SampleSize        int
	NumLoci           int
	RandomSeed        int64
	RecombinationRate float64
	MutationRate      float64
	PopulationModels  []popmodel.Model
	MaxMemory         uint64

	SegmentPoolBlockSize int
}

// Option mutates a Config under construction, mirroring
// database/client.Option.
type Option func(c *Config)

// New builds a Config from opts, falling back to WithDefaultOptions when
// none are supplied, exactly as client.NewDatabase does.
func New(opts ...Option) *Config {
	c := &Config{}
	if len(opts) == 0 {
		opts = WithDefaultOptions()
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithDefaultOptions returns the baseline option set: no recombination,
// no mutation, a single sample pair, one locus, the default pool block
// size.
func WithDefaultOptions() []Option {
	return []Option{
		WithSampleSize(2),
		WithNumLoci(1),
		WithRandomSeed(1),
		WithRecombinationRate(0),
		WithMutationRate(0),
		WithSegmentPoolBlockSize(256),
	}
}

func WithSampleSize(n int) Option {
	return func(c *Config) { c.SampleSize = n }
}

func WithNumLoci(m int) Option {
	return func(c *Config) { c.NumLoci = m }
}

func WithRandomSeed(seed int64) Option {
	return func(c *Config) { c.RandomSeed = seed }
}

func WithRecombinationRate(rho float64) Option {
	return func(c *Config) { c.RecombinationRate = rho }
}

func WithMutationRate(mu float64) Option {
	return func(c *Config) { c.MutationRate = mu }
}

func WithPopulationModels(models []popmodel.Model) Option {
	return func(c *Config) { c.PopulationModels = models }
}

func WithMaxMemory(bytes uint64) Option {
	return func(c *Config) { c.MaxMemory = bytes }
}

func WithSegmentPoolBlockSize(blockSize int) Option {
	return func(c *Config) { c.SegmentPoolBlockSize = blockSize }
}

// Validate checks the option surface beyond what arg.NewSimulator itself
// enforces: a negative mutation rate has no meaning and is rejected here
// rather than silently clamped.
func (c *Config) Validate() error {
	if c.MutationRate < 0 {
		return simerr.New(simerr.KindBadParameter, "mutation_rate must be >= 0")
	}
	return nil
}

// BuildSimulator validates c and constructs the arg.Simulator it
// describes; the mutation rate itself is consumed later by the mutation
// dropper, not by the simulator.
func (c *Config) BuildSimulator() (*arg.Simulator, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return arg.NewSimulator(arg.Config{
		SampleSize:        c.SampleSize,
		NumLoci:           c.NumLoci,
		RecombinationRate: c.RecombinationRate,
		PopModels:         c.PopulationModels,
		Seed:              c.RandomSeed,
		PoolBlockSize:     c.SegmentPoolBlockSize,
		MaxMemory:         c.MaxMemory,
	})
}
