package treeseq

// Provenance is the free-form metadata both container formats carry
// alongside the numeric columns, per spec.md §6 and
// original_source/lib/tree_sequence.c's encode_environment /
// encode_simulation_parameters: JSON blobs describing the run environment
// and the parameters the simulation was invoked with.
type Provenance struct {
	Environment string
	Parameters  string
}
