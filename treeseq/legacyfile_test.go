package treeseq

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jeromekelleher/coalescent/arg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecordsForRoundTrip() []arg.Record {
	return []arg.Record{
		{Left: 1, Right: 51, Node: 5, Children: [2]arg.NodeID{1, 2}, Time: 1},
		{Left: 51, Right: 101, Node: 5, Children: [2]arg.NodeID{1, 2}, Time: 1},
		{Left: 1, Right: 101, Node: 6, Children: [2]arg.NodeID{3, 5}, Time: 2},
		{Left: 1, Right: 101, Node: 7, Children: [2]arg.NodeID{4, 6}, Time: 3},
	}
}

func TestLegacyFileRoundTripWithoutCompression(t *testing.T) {
	seq, err := New(4, 100, sampleRecordsForRoundTrip())
	require.NoError(t, err)
	prov := Provenance{Environment: "go test", Parameters: `{"sample_size":4}`}

	path := filepath.Join(t.TempDir(), "sim.trees")
	lf := &LegacyFile{UseChecksum: true}

	require.NoError(t, lf.Dump(seq, prov, path))
	loaded, loadedProv, err := lf.Load(path)
	require.NoError(t, err)

	assert.Equal(t, seq.NumSamples(), loaded.NumSamples())
	assert.Equal(t, seq.NumLoci(), loaded.NumLoci())
	assert.Equal(t, seq.NumRecords(), loaded.NumRecords())
	assert.Equal(t, prov, loadedProv)

	for j := 0; j < seq.NumRecords(); j++ {
		want := seq.GetRecord(j, Time)
		got := loaded.GetRecord(j, Time)
		assert.Equal(t, want, got)
	}
}

func TestLegacyFileRoundTripWithCompressor(t *testing.T) {
	seq, err := New(4, 100, sampleRecordsForRoundTrip())
	require.NoError(t, err)
	prov := Provenance{Environment: "go test", Parameters: `{"sample_size":4}`}

	path := filepath.Join(t.TempDir(), "sim.trees")
	lf := &LegacyFile{Compress: true, UseChecksum: true}

	require.NoError(t, lf.Dump(seq, prov, path))

	// The COMPRESSED flag is read back from the header, not re-supplied
	// by the caller, so a reader that never set Compress must still
	// decode it correctly.
	reader := &LegacyFile{}
	loaded, loadedProv, err := reader.Load(path)
	require.NoError(t, err)

	assert.Equal(t, prov, loadedProv)
	assert.Equal(t, seq.NumRecords(), loaded.NumRecords())
}

func TestLegacyFileRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.trees")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, writeLegacyHeader(f, legacyHeader{
		Magic: 0xdeadbeef, Version: legacyVersion, SampleSize: 2, NumLoci: 1, Flags: flagComplete | flagSorted,
	}))
	require.NoError(t, f.Close())

	lf := &LegacyFile{}
	_, _, err = lf.Load(path)
	require.Error(t, err)
}
