// Archive implements the hierarchical HDF5-backed numeric container of
// spec.md §6: a /trees group of parallel datasets plus an optional
// /mutations group, each carrying environment/parameters JSON string
// attributes, Fletcher32 checksums always on, and optional
// shuffle+deflate-9 compression.
package treeseq

import (
	"fmt"

	"github.com/jeromekelleher/coalescent/arg"
	"github.com/jeromekelleher/coalescent/simerr"
	"gonum.org/v1/hdf5"
)

const (
	formatVersionMajor = 1
	formatVersionMinor = 0
)

// attrHost is satisfied structurally by both *hdf5.File and *hdf5.Group,
// letting the attribute helpers below work on either without needing a
// shared exported base type.
type attrHost interface {
	CreateAttribute(name string, dtype *hdf5.Datatype, space *hdf5.Dataspace) (*hdf5.Attribute, error)
	OpenAttribute(name string) (*hdf5.Attribute, error)
}

// Archive is the HDF5-backed Store. Compress enables byte-shuffle plus
// deflate-level-9 on every chunked dataset, in addition to the
// always-on Fletcher32 checksum, per spec.md §6.
type Archive struct {
	Compress bool
}

var _ Store = (*Archive)(nil)

// Dump writes seq (and prov) to path as a fresh HDF5 file, overwriting
// any existing file at that path.
func (a *Archive) Dump(seq *Sequence, prov Provenance, path string) error {
	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return simerr.New(simerr.KindIO, fmt.Sprintf("archive: create %s: %v", path, err))
	}
	defer f.Close()

	if err := writeScalarAttr(f, "sample_size", uint32(seq.NumSamples())); err != nil {
		return err
	}
	if err := writeScalarAttr(f, "num_loci", uint32(seq.NumLoci())); err != nil {
		return err
	}
	if err := writeArrayAttr(f, "format_version", []uint32{formatVersionMajor, formatVersionMinor}); err != nil {
		return err
	}

	trees, err := f.CreateGroup("trees")
	if err != nil {
		return simerr.New(simerr.KindIO, fmt.Sprintf("archive: create /trees: %v", err))
	}
	defer trees.Close()

	if err := a.writeTreeDatasets(trees, seq); err != nil {
		return err
	}
	if err := writeStringAttr(trees, "environment", prov.Environment); err != nil {
		return err
	}
	if err := writeStringAttr(trees, "parameters", prov.Parameters); err != nil {
		return err
	}

	if seq.NumMutations() > 0 {
		muts, err := f.CreateGroup("mutations")
		if err != nil {
			return simerr.New(simerr.KindIO, fmt.Sprintf("archive: create /mutations: %v", err))
		}
		defer muts.Close()

		if err := a.writeMutationDatasets(muts, seq); err != nil {
			return err
		}
		if err := writeStringAttr(muts, "environment", prov.Environment); err != nil {
			return err
		}
		if err := writeStringAttr(muts, "parameters", prov.Parameters); err != nil {
			return err
		}
	}

	return nil
}

func (a *Archive) writeTreeDatasets(g *hdf5.Group, seq *Sequence) error {
	r := seq.NumRecords()

	left := make([]uint32, r)
	right := make([]uint32, r)
	node := make([]uint32, r)
	children := make([]uint32, r*2)
	timeCol := make([]float64, r)
	for j := 0; j < r; j++ {
		left[j] = uint32(seq.Left(j))
		right[j] = uint32(seq.Right(j))
		node[j] = uint32(seq.Node(j))
		c := seq.Children(j)
		children[2*j] = uint32(c[0])
		children[2*j+1] = uint32(c[1])
		timeCol[j] = seq.TimeAt(j)
	}

	if err := a.writeDataset(g, "left", []uint{uint(r)}, left); err != nil {
		return err
	}
	if err := a.writeDataset(g, "right", []uint{uint(r)}, right); err != nil {
		return err
	}
	if err := a.writeDataset(g, "node", []uint{uint(r)}, node); err != nil {
		return err
	}
	if err := a.writeDataset(g, "children", []uint{uint(r), 2}, children); err != nil {
		return err
	}
	if err := a.writeDataset(g, "time", []uint{uint(r)}, timeCol); err != nil {
		return err
	}
	return nil
}

func (a *Archive) writeMutationDatasets(g *hdf5.Group, seq *Sequence) error {
	m := seq.NumMutations()
	node := make([]uint32, m)
	position := make([]float64, m)
	for j := 0; j < m; j++ {
		node[j] = uint32(seq.MutationNode(j))
		position[j] = seq.MutationPosition(j)
	}

	if err := a.writeDataset(g, "node", []uint{uint(m)}, node); err != nil {
		return err
	}
	if err := a.writeDataset(g, "position", []uint{uint(m)}, position); err != nil {
		return err
	}
	return nil
}

// writeDataset chunks the dataset at its full size, always enables the
// Fletcher32 checksum, and additionally enables shuffle+deflate-9 when
// a.Compress is set, per spec.md §6.
func (a *Archive) writeDataset(g *hdf5.Group, name string, dims []uint, data interface{}) error {
	dtype, err := hdf5.NewDatatypeFromValue(data)
	if err != nil {
		return simerr.New(simerr.KindIO, fmt.Sprintf("archive: datatype for %s: %v", name, err))
	}
	space, err := hdf5.NewDataspaceSimple(dims, dims)
	if err != nil {
		return simerr.New(simerr.KindIO, fmt.Sprintf("archive: dataspace for %s: %v", name, err))
	}

	pl, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return simerr.New(simerr.KindIO, fmt.Sprintf("archive: proplist for %s: %v", name, err))
	}
	if err := pl.SetChunk(dims); err != nil {
		return simerr.New(simerr.KindIO, fmt.Sprintf("archive: chunk %s: %v", name, err))
	}
	if err := pl.SetFletcher32(); err != nil {
		return simerr.New(simerr.KindIO, fmt.Sprintf("archive: fletcher32 %s: %v", name, err))
	}
	if a.Compress {
		if err := pl.SetShuffle(); err != nil {
			return simerr.New(simerr.KindIO, fmt.Sprintf("archive: shuffle %s: %v", name, err))
		}
		if err := pl.SetDeflate(9); err != nil {
			return simerr.New(simerr.KindIO, fmt.Sprintf("archive: deflate %s: %v", name, err))
		}
	}

	ds, err := g.CreateDataset(name, dtype, space, pl)
	if err != nil {
		return simerr.New(simerr.KindIO, fmt.Sprintf("archive: create dataset %s: %v", name, err))
	}
	defer ds.Close()

	if err := ds.Write(data); err != nil {
		return simerr.New(simerr.KindIO, fmt.Sprintf("archive: write dataset %s: %v", name, err))
	}
	return nil
}

// Load reads path back into a Sequence and its Provenance, rejecting a
// mismatched format_version.major per spec.md §6.
func (a *Archive) Load(path string) (*Sequence, Provenance, error) {
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, Provenance{}, simerr.New(simerr.KindIO, fmt.Sprintf("archive: open %s: %v", path, err))
	}
	defer f.Close()

	var version [2]uint32
	if err := readArrayAttr(f, "format_version", version[:]); err != nil {
		return nil, Provenance{}, err
	}
	if version[0] != formatVersionMajor {
		return nil, Provenance{}, simerr.New(simerr.KindUnsupportedFileVersion,
			fmt.Sprintf("archive: format_version.major %d unsupported, want %d", version[0], formatVersionMajor))
	}

	var sampleSize, numLoci uint32
	if err := readScalarAttr(f, "sample_size", &sampleSize); err != nil {
		return nil, Provenance{}, err
	}
	if err := readScalarAttr(f, "num_loci", &numLoci); err != nil {
		return nil, Provenance{}, err
	}

	trees, err := f.OpenGroup("trees")
	if err != nil {
		return nil, Provenance{}, simerr.New(simerr.KindFileFormat, fmt.Sprintf("archive: open /trees: %v", err))
	}
	defer trees.Close()

	records, err := readTreeDatasets(trees)
	if err != nil {
		return nil, Provenance{}, err
	}

	var prov Provenance
	if prov.Environment, err = readStringAttr(trees, "environment"); err != nil {
		return nil, Provenance{}, err
	}
	if prov.Parameters, err = readStringAttr(trees, "parameters"); err != nil {
		return nil, Provenance{}, err
	}

	seq, err := New(int(sampleSize), int(numLoci), records)
	if err != nil {
		return nil, Provenance{}, err
	}

	if muts, openErr := f.OpenGroup("mutations"); openErr == nil {
		defer muts.Close()
		mutations, err := readMutationDatasets(muts)
		if err != nil {
			return nil, Provenance{}, err
		}
		if err := seq.SetMutations(mutations); err != nil {
			return nil, Provenance{}, err
		}
	}

	return seq, prov, nil
}

func readTreeDatasets(g *hdf5.Group) ([]arg.Record, error) {
	left, err := readUint32Dataset(g, "left")
	if err != nil {
		return nil, err
	}
	right, err := readUint32Dataset(g, "right")
	if err != nil {
		return nil, err
	}
	node, err := readUint32Dataset(g, "node")
	if err != nil {
		return nil, err
	}
	children, err := readUint32Dataset(g, "children")
	if err != nil {
		return nil, err
	}
	timeCol, err := readFloat64Dataset(g, "time")
	if err != nil {
		return nil, err
	}

	records := make([]arg.Record, len(left))
	for j := range records {
		records[j] = arg.Record{
			Left:  arg.Locus(left[j]),
			Right: arg.Locus(right[j]),
			Node:  arg.NodeID(node[j]),
			Children: [2]arg.NodeID{
				arg.NodeID(children[2*j]),
				arg.NodeID(children[2*j+1]),
			},
			Time: timeCol[j],
		}
	}
	return records, nil
}

func readMutationDatasets(g *hdf5.Group) ([]Mutation, error) {
	node, err := readUint32Dataset(g, "node")
	if err != nil {
		return nil, err
	}
	position, err := readFloat64Dataset(g, "position")
	if err != nil {
		return nil, err
	}
	muts := make([]Mutation, len(node))
	for j := range muts {
		muts[j] = Mutation{Position: position[j], Node: arg.NodeID(node[j])}
	}
	return muts, nil
}

func readUint32Dataset(g *hdf5.Group, name string) ([]uint32, error) {
	ds, err := g.OpenDataset(name)
	if err != nil {
		return nil, simerr.New(simerr.KindFileFormat, fmt.Sprintf("archive: open dataset %s: %v", name, err))
	}
	defer ds.Close()

	space := ds.Space()
	dims, _, _ := space.SimpleExtentDims()
	n := uint(1)
	for _, d := range dims {
		n *= d
	}
	buf := make([]uint32, n)
	if err := ds.Read(&buf); err != nil {
		return nil, simerr.New(simerr.KindFileFormat, fmt.Sprintf("archive: read dataset %s: %v", name, err))
	}
	return buf, nil
}

func readFloat64Dataset(g *hdf5.Group, name string) ([]float64, error) {
	ds, err := g.OpenDataset(name)
	if err != nil {
		return nil, simerr.New(simerr.KindFileFormat, fmt.Sprintf("archive: open dataset %s: %v", name, err))
	}
	defer ds.Close()

	space := ds.Space()
	dims, _, _ := space.SimpleExtentDims()
	n := uint(1)
	for _, d := range dims {
		n *= d
	}
	buf := make([]float64, n)
	if err := ds.Read(&buf); err != nil {
		return nil, simerr.New(simerr.KindFileFormat, fmt.Sprintf("archive: read dataset %s: %v", name, err))
	}
	return buf, nil
}

func writeScalarAttr(loc attrHost, name string, v uint32) error {
	dtype, err := hdf5.NewDatatypeFromValue(v)
	if err != nil {
		return simerr.New(simerr.KindIO, fmt.Sprintf("archive: attr datatype %s: %v", name, err))
	}
	space, err := hdf5.NewDataspace(hdf5.ScalarSpace)
	if err != nil {
		return simerr.New(simerr.KindIO, fmt.Sprintf("archive: attr dataspace %s: %v", name, err))
	}
	attr, err := loc.CreateAttribute(name, dtype, space)
	if err != nil {
		return simerr.New(simerr.KindIO, fmt.Sprintf("archive: create attr %s: %v", name, err))
	}
	defer attr.Close()
	if err := attr.Write(&v, dtype); err != nil {
		return simerr.New(simerr.KindIO, fmt.Sprintf("archive: write attr %s: %v", name, err))
	}
	return nil
}

func writeArrayAttr(loc attrHost, name string, v []uint32) error {
	dtype, err := hdf5.NewDatatypeFromValue(v[0])
	if err != nil {
		return simerr.New(simerr.KindIO, fmt.Sprintf("archive: attr datatype %s: %v", name, err))
	}
	space, err := hdf5.NewDataspaceSimple([]uint{uint(len(v))}, []uint{uint(len(v))})
	if err != nil {
		return simerr.New(simerr.KindIO, fmt.Sprintf("archive: attr dataspace %s: %v", name, err))
	}
	attr, err := loc.CreateAttribute(name, dtype, space)
	if err != nil {
		return simerr.New(simerr.KindIO, fmt.Sprintf("archive: create attr %s: %v", name, err))
	}
	defer attr.Close()
	if err := attr.Write(&v, dtype); err != nil {
		return simerr.New(simerr.KindIO, fmt.Sprintf("archive: write attr %s: %v", name, err))
	}
	return nil
}

func writeStringAttr(loc attrHost, name, value string) error {
	dtype, err := hdf5.NewDatatypeFromValue(value)
	if err != nil {
		return simerr.New(simerr.KindIO, fmt.Sprintf("archive: attr datatype %s: %v", name, err))
	}
	space, err := hdf5.NewDataspace(hdf5.ScalarSpace)
	if err != nil {
		return simerr.New(simerr.KindIO, fmt.Sprintf("archive: attr dataspace %s: %v", name, err))
	}
	attr, err := loc.CreateAttribute(name, dtype, space)
	if err != nil {
		return simerr.New(simerr.KindIO, fmt.Sprintf("archive: create attr %s: %v", name, err))
	}
	defer attr.Close()
	if err := attr.Write(&value, dtype); err != nil {
		return simerr.New(simerr.KindIO, fmt.Sprintf("archive: write attr %s: %v", name, err))
	}
	return nil
}

func readScalarAttr(loc attrHost, name string, v *uint32) error {
	attr, err := loc.OpenAttribute(name)
	if err != nil {
		return simerr.New(simerr.KindFileFormat, fmt.Sprintf("archive: open attr %s: %v", name, err))
	}
	defer attr.Close()
	if err := attr.Read(v); err != nil {
		return simerr.New(simerr.KindFileFormat, fmt.Sprintf("archive: read attr %s: %v", name, err))
	}
	return nil
}

func readArrayAttr(loc attrHost, name string, v []uint32) error {
	attr, err := loc.OpenAttribute(name)
	if err != nil {
		return simerr.New(simerr.KindFileFormat, fmt.Sprintf("archive: open attr %s: %v", name, err))
	}
	defer attr.Close()
	if err := attr.Read(v); err != nil {
		return simerr.New(simerr.KindFileFormat, fmt.Sprintf("archive: read attr %s: %v", name, err))
	}
	return nil
}

func readStringAttr(loc attrHost, name string) (string, error) {
	attr, err := loc.OpenAttribute(name)
	if err != nil {
		return "", simerr.New(simerr.KindFileFormat, fmt.Sprintf("archive: open attr %s: %v", name, err))
	}
	defer attr.Close()
	var s string
	if err := attr.Read(&s); err != nil {
		return "", simerr.New(simerr.KindFileFormat, fmt.Sprintf("archive: read attr %s: %v", name, err))
	}
	return s, nil
}
