// LegacyFile implements the deprecated-but-supported flat-file tree-file
// container of spec.md §6: a fixed 28-byte header, a sequence of
// 20-byte coalescence-record blobs, and a JSON metadata trailer.
package treeseq

import (
	"bytes"
	"container/heap"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"os"

	"github.com/jeromekelleher/coalescent/arg"
	"github.com/jeromekelleher/coalescent/simerr"
	"github.com/klauspost/compress/gzip"
)

const (
	legacyMagic      uint32 = 0xa52cd4a4
	legacyVersion    uint32 = 1
	legacyHeaderSize        = 28
	legacyRecordSize        = 20

	flagComplete   uint32 = 1 << 0
	flagSorted     uint32 = 1 << 1
	flagCompressed uint32 = 1 << 2
)

// LegacyFile is the flat-file Store. Compress, when set, gzips the JSON
// metadata trailer after its checksum (if UseChecksum) has been computed
// over the uncompressed fields; the choice is recorded in the header's
// COMPRESSED flag so Load never has to be told which way Dump wrote it.
type LegacyFile struct {
	Compress    bool
	UseChecksum bool
}

var _ Store = (*LegacyFile)(nil)

type legacyHeader struct {
	Magic          uint32
	Version        uint32
	SampleSize     uint32
	NumLoci        uint32
	Flags          uint32
	MetadataOffset uint64
}

// legacyRecord is the 20-byte on-disk record blob. Right is never
// stored: spec.md §6 notes it is inferred once records are re-sorted
// during Load, from sorted-left adjacency (the next record's Left, or
// NumLoci+1 for the last).
type legacyRecord struct {
	Left   uint32
	Child0 uint32
	Child1 uint32
	Parent uint32
	Time   uint32 // float32 bits
}

// Dump writes seq in COMPLETE|SORTED form (seq's records are already
// time-ascending per treeseq.New, and left-ascending emission from the
// simulator keeps them left-sorted too in the rho=0 single-tree case).
// LegacyFile has no update mode: a file is only ever written whole by
// Dump, and no method appends to or rewrites an existing file.
func (lf *LegacyFile) Dump(seq *Sequence, prov Provenance, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return simerr.New(simerr.KindIO, fmt.Sprintf("legacyfile: create %s: %v", path, err))
	}
	defer f.Close()

	records := make([]legacyRecord, seq.NumRecords())
	for j := range records {
		records[j] = legacyRecord{
			Left:   uint32(seq.Left(j)),
			Child0: uint32(seq.Children(j)[0]),
			Child1: uint32(seq.Children(j)[1]),
			Parent: uint32(seq.Node(j)),
			Time:   math.Float32bits(float32(seq.TimeAt(j))),
		}
	}

	metadata, err := lf.encodeMetadata(prov)
	if err != nil {
		return err
	}

	flags := flagComplete | flagSorted
	if lf.Compress {
		flags |= flagCompressed
	}

	hdr := legacyHeader{
		Magic:          legacyMagic,
		Version:        legacyVersion,
		SampleSize:     uint32(seq.NumSamples()),
		NumLoci:        uint32(seq.NumLoci()),
		Flags:          flags,
		MetadataOffset: legacyHeaderSize + uint64(len(records))*legacyRecordSize,
	}

	if err := writeLegacyHeader(f, hdr); err != nil {
		return err
	}
	for _, r := range records {
		if err := writeLegacyRecord(f, r); err != nil {
			return err
		}
	}
	if _, err := f.Write(metadata); err != nil {
		return simerr.New(simerr.KindIO, fmt.Sprintf("legacyfile: write metadata: %v", err))
	}
	return nil
}

// Load reads path back, re-sorting records into time order with a
// container/heap sort when the SORTED flag is clear (Dump always sets
// it, so this only applies to files written elsewhere), and inferring
// Right from sorted-left adjacency.
func (lf *LegacyFile) Load(path string) (*Sequence, Provenance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Provenance{}, simerr.New(simerr.KindIO, fmt.Sprintf("legacyfile: open %s: %v", path, err))
	}
	defer f.Close()

	hdr, err := readLegacyHeader(f)
	if err != nil {
		return nil, Provenance{}, err
	}
	if hdr.Magic != legacyMagic {
		return nil, Provenance{}, simerr.New(simerr.KindFileFormat, "legacyfile: bad magic")
	}
	if hdr.Version != legacyVersion {
		return nil, Provenance{}, simerr.New(simerr.KindUnsupportedFileVersion,
			fmt.Sprintf("legacyfile: version %d unsupported, want %d", hdr.Version, legacyVersion))
	}
	if hdr.Flags&flagComplete == 0 {
		return nil, Provenance{}, simerr.New(simerr.KindFileFormat, "legacyfile: file is not COMPLETE")
	}

	numRecords := (hdr.MetadataOffset - legacyHeaderSize) / legacyRecordSize
	records := make([]legacyRecord, numRecords)
	for j := range records {
		r, err := readLegacyRecord(f)
		if err != nil {
			return nil, Provenance{}, err
		}
		records[j] = r
	}

	if hdr.Flags&flagSorted == 0 {
		sortLegacyRecordsByTime(records)
	}

	argRecords := inferRights(records, hdr.NumLoci)

	metaRaw, err := io.ReadAll(f)
	if err != nil {
		return nil, Provenance{}, simerr.New(simerr.KindIO, fmt.Sprintf("legacyfile: read metadata: %v", err))
	}

	prov, err := lf.decodeMetadata(metaRaw, hdr.Flags&flagCompressed != 0)
	if err != nil {
		return nil, Provenance{}, err
	}

	seq, err := New(int(hdr.SampleSize), int(hdr.NumLoci), argRecords)
	if err != nil {
		return nil, Provenance{}, err
	}
	return seq, prov, nil
}

// inferRights derives each record's half-open Right from the next
// distinct Left value in the time-sorted stream (or NumLoci+1 for the
// span ending the genome), per spec.md §6's "right is not stored" note.
func inferRights(records []legacyRecord, numLoci uint32) []arg.Record {
	out := make([]arg.Record, len(records))
	for j, r := range records {
		right := numLoci + 1
		for k := j + 1; k < len(records); k++ {
			if records[k].Left > r.Left {
				right = records[k].Left
				break
			}
		}
		c0, c1 := r.Child0, r.Child1
		if c0 > c1 {
			c0, c1 = c1, c0
		}
		out[j] = arg.Record{
			Left:     arg.Locus(r.Left),
			Right:    arg.Locus(right),
			Node:     arg.NodeID(r.Parent),
			Children: [2]arg.NodeID{arg.NodeID(c0), arg.NodeID(c1)},
			Time:     float64(math.Float32frombits(r.Time)),
		}
	}
	return out
}

// legacyRecordHeap is a container/heap min-heap over legacyRecord by
// Time, used by Load to re-sort an unsorted record stream into
// time-ascending order, grounded on the event-queue pattern of
// miretskiy-rollingstone/simulator/event_queue.go.
type legacyRecordHeap []legacyRecord

func (h legacyRecordHeap) Len() int { return len(h) }
func (h legacyRecordHeap) Less(i, j int) bool {
	return math.Float32frombits(h[i].Time) < math.Float32frombits(h[j].Time)
}
func (h legacyRecordHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *legacyRecordHeap) Push(x interface{}) {
	*h = append(*h, x.(legacyRecord))
}
func (h *legacyRecordHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func sortLegacyRecordsByTime(records []legacyRecord) {
	h := make(legacyRecordHeap, len(records))
	copy(h, records)
	heap.Init(&h)
	for j := range records {
		records[j] = heap.Pop(&h).(legacyRecord)
	}
}

func writeLegacyHeader(w io.Writer, hdr legacyHeader) error {
	buf := make([]byte, legacyHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], hdr.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], hdr.Version)
	binary.LittleEndian.PutUint32(buf[8:12], hdr.SampleSize)
	binary.LittleEndian.PutUint32(buf[12:16], hdr.NumLoci)
	binary.LittleEndian.PutUint32(buf[16:20], hdr.Flags)
	binary.LittleEndian.PutUint64(buf[20:28], hdr.MetadataOffset)
	if _, err := w.Write(buf); err != nil {
		return simerr.New(simerr.KindIO, fmt.Sprintf("legacyfile: write header: %v", err))
	}
	return nil
}

func readLegacyHeader(r io.Reader) (legacyHeader, error) {
	buf := make([]byte, legacyHeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return legacyHeader{}, simerr.New(simerr.KindIO, fmt.Sprintf("legacyfile: read header: %v", err))
	}
	return legacyHeader{
		Magic:          binary.LittleEndian.Uint32(buf[0:4]),
		Version:        binary.LittleEndian.Uint32(buf[4:8]),
		SampleSize:     binary.LittleEndian.Uint32(buf[8:12]),
		NumLoci:        binary.LittleEndian.Uint32(buf[12:16]),
		Flags:          binary.LittleEndian.Uint32(buf[16:20]),
		MetadataOffset: binary.LittleEndian.Uint64(buf[20:28]),
	}, nil
}

func writeLegacyRecord(w io.Writer, r legacyRecord) error {
	buf := make([]byte, legacyRecordSize)
	binary.LittleEndian.PutUint32(buf[0:4], r.Left)
	binary.LittleEndian.PutUint32(buf[4:8], r.Child0)
	binary.LittleEndian.PutUint32(buf[8:12], r.Child1)
	binary.LittleEndian.PutUint32(buf[12:16], r.Parent)
	binary.LittleEndian.PutUint32(buf[16:20], r.Time)
	if _, err := w.Write(buf); err != nil {
		return simerr.New(simerr.KindIO, fmt.Sprintf("legacyfile: write record: %v", err))
	}
	return nil
}

func readLegacyRecord(r io.Reader) (legacyRecord, error) {
	buf := make([]byte, legacyRecordSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return legacyRecord{}, simerr.New(simerr.KindIO, fmt.Sprintf("legacyfile: read record: %v", err))
	}
	return legacyRecord{
		Left:   binary.LittleEndian.Uint32(buf[0:4]),
		Child0: binary.LittleEndian.Uint32(buf[4:8]),
		Child1: binary.LittleEndian.Uint32(buf[8:12]),
		Parent: binary.LittleEndian.Uint32(buf[12:16]),
		Time:   binary.LittleEndian.Uint32(buf[16:20]),
	}, nil
}

// legacyMetadata is the JSON trailer shape: Provenance plus a
// crc32.ChecksumIEEE of the Environment and Parameters strings,
// mirroring database/wal/log.go's ComputeChecksum. The record blobs
// themselves are not covered by any checksum.
type legacyMetadata struct {
	Environment string `json:"environment"`
	Parameters  string `json:"parameters"`
	Checksum    uint32 `json:"checksum,omitempty"`
}

// encodeMetadata serializes prov to JSON, checksumming the uncompressed
// form (the checksum exists to catch bit rot in the stored bytes, and a
// compressor's own CRC does nothing for that once the gzip wrapper is
// stripped back off on Load) and then, if lf.Compress, gzipping the
// whole trailer. Whether the trailer is gzipped is recorded in the
// header's COMPRESSED flag, not re-decided by the caller at Load time.
func (lf *LegacyFile) encodeMetadata(prov Provenance) ([]byte, error) {
	meta := legacyMetadata{Environment: prov.Environment, Parameters: prov.Parameters}
	if lf.UseChecksum {
		meta.Checksum = crc32.ChecksumIEEE([]byte(prov.Environment + prov.Parameters))
	}

	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, simerr.New(simerr.KindFileFormat, fmt.Sprintf("legacyfile: encode metadata: %v", err))
	}
	if !lf.Compress {
		return raw, nil
	}

	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, simerr.New(simerr.KindIO, fmt.Sprintf("legacyfile: compress metadata: %v", err))
	}
	if _, err := w.Write(raw); err != nil {
		return nil, simerr.New(simerr.KindIO, fmt.Sprintf("legacyfile: compress metadata: %v", err))
	}
	if err := w.Close(); err != nil {
		return nil, simerr.New(simerr.KindIO, fmt.Sprintf("legacyfile: compress metadata: %v", err))
	}
	return buf.Bytes(), nil
}

// decodeMetadata reverses encodeMetadata. compressed comes from the
// header's COMPRESSED flag rather than lf.Compress, so a file written
// with Compress=true can still be read back by a LegacyFile value that
// never set it (and vice versa): the bytes on disk are self-describing.
func (lf *LegacyFile) decodeMetadata(raw []byte, compressed bool) (Provenance, error) {
	if compressed {
		r, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return Provenance{}, simerr.New(simerr.KindIO, fmt.Sprintf("legacyfile: decompress metadata: %v", err))
		}
		defer r.Close()
		decompressed, err := io.ReadAll(r)
		if err != nil {
			return Provenance{}, simerr.New(simerr.KindIO, fmt.Sprintf("legacyfile: decompress metadata: %v", err))
		}
		raw = decompressed
	}

	var meta legacyMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return Provenance{}, simerr.New(simerr.KindFileFormat, fmt.Sprintf("legacyfile: decode metadata: %v", err))
	}
	if meta.Checksum != 0 {
		want := crc32.ChecksumIEEE([]byte(meta.Environment + meta.Parameters))
		if want != meta.Checksum {
			return Provenance{}, simerr.New(simerr.KindFileFormat, "legacyfile: metadata checksum mismatch")
		}
	}
	return Provenance{Environment: meta.Environment, Parameters: meta.Parameters}, nil
}
