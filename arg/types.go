// Package arg implements the coalescent-with-recombination event-loop
// simulator of spec.md §4.4: the ancestral-material bookkeeping over a
// set of evolving lineages, and the O(log n) weighted random choice over
// per-ancestor recombination link counts via a Fenwick tree.
package arg

// NodeID identifies an individual in the ancestral recombination graph.
// Sample nodes are 1..=n with time 0; internal nodes are assigned in
// strictly increasing order as coalescences occur, starting at n+1.
type NodeID uint32

// Locus is a 1-based genomic position in [1, m].
type Locus uint32

// Record is one coalescence record: over genomic interval [Left, Right),
// Node is the parent of Children at coalescence Time.
type Record struct {
	Left, Right Locus
	Node        NodeID
	Children    [2]NodeID
	Time        float64
}

// Status reports the outcome of a call to Simulator.Run.
type Status int

const (
	// StatusDone means the simulation reached full coalescence: every
	// locus is covered by exactly one ancestor and that ancestor's
	// material has been fully consumed into the record stream.
	StatusDone Status = iota
	// StatusPausedDeadline means the caller's deadline elapsed; state is
	// consistent and Run may be called again to resume.
	StatusPausedDeadline
	// StatusPausedStepCap means the caller's max event count was
	// reached; state is consistent and Run may be called again to
	// resume.
	StatusPausedStepCap
)

func (s Status) String() string {
	switch s {
	case StatusDone:
		return "done"
	case StatusPausedDeadline:
		return "paused:deadline"
	case StatusPausedStepCap:
		return "paused:step_cap"
	default:
		return "unknown"
	}
}
