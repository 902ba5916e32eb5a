// Package nc4 writes NetCDF-4 files: a single-threaded, two-phase HDF5
// serializer specialized to the subset of the HDF5 object model NetCDF-4
// needs (object header v2, global heap, version-1 B-tree chunk indices,
// and the dimension-scale convention linking variables to their axes).
//
// Usage follows three strict phases: declare the schema (CreateGroup,
// CreateDimension, CreateVariable, CreateAttribute), call EndDefine to
// fix the file's metadata layout, write every variable's data
// (Variable.WriteChunk), then Close to finalize and resolve addresses.
// Calling an operation out of phase returns ErrNotDefining or
// ErrNotWriting; calling EndDefine a second time (or after Close)
// returns ErrAlreadyEnded.
package nc4

import (
	"fmt"
	"os"
	"time"

	"github.com/scigolib/nc4/internal/bytesink"
	"github.com/scigolib/nc4/internal/checksum"
	"github.com/scigolib/nc4/internal/dtype"
	"github.com/scigolib/nc4/internal/heap"
	"github.com/scigolib/nc4/internal/msg"
	"github.com/scigolib/nc4/internal/object"
)

type fileState int

const (
	stateDefining fileState = iota
	stateWriting
	stateClosed
)

// superblockSize is the fixed on-disk size of an HDF5 version-2
// superblock: signature(8) + version(1) + offset size(1) + length
// size(1) + flags(1) + base(8) + extension(8) + eof(8) + root(8) +
// checksum(4).
const superblockSize = 48

// FileWriter writes a single NetCDF-4 file. Obtained from Create.
type FileWriter struct {
	f     *os.File
	state fileState

	openTime       uint32
	allowOverwrite bool

	fileHeap *heap.GlobalHeap
	root     *Group

	extAddr uint64
	eofAddr uint64
	metaLen uint64
}

// Create opens path for writing and returns a FileWriter in the defining
// phase. By default Create refuses to overwrite an existing file; pass
// WithOverwrite to permit it.
func Create(path string, opts ...Option) (*FileWriter, error) {
	fw := &FileWriter{
		state:    stateDefining,
		fileHeap: heap.New(),
		openTime: uint32(time.Now().Unix()), //nolint:gosec // epoch seconds fit uint32 until 2106
	}
	for _, opt := range opts {
		opt(fw)
	}

	flags := os.O_RDWR | os.O_CREATE
	if fw.allowOverwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644) //nolint:gosec // G304: caller-provided path is intentional for a file-writing library
	if err != nil {
		return nil, fmt.Errorf("nc4: create %q: %w", path, err)
	}

	fw.f = f
	fw.root = newGroup(fw, "", nil)
	return fw, nil
}

// Root returns the file's root group.
func (fw *FileWriter) Root() *Group { return fw.root }

// EndDefine synthesizes the NetCDF-4 dimension-scale convention layer
// (spec.md §9: a scale dataset, CLASS/NAME attributes, and the
// DIMENSION_LIST/REFERENCE_LIST cross-reference attributes for every
// declared dimension and variable), then runs pass 1 of the metadata
// layout, fixing every object's on-disk address and the file's
// end-of-data offset. After this call the schema is frozen: Variable.
// WriteChunk becomes valid and CreateGroup/CreateDimension/
// CreateVariable/CreateAttribute are no longer.
func (fw *FileWriter) EndDefine() error {
	if fw.state != stateDefining {
		return ErrAlreadyEnded
	}

	groups := collectGroups(fw.root)
	for _, g := range groups {
		if err := synthesizeDimensionScales(g); err != nil {
			return err
		}
	}
	for _, g := range groups {
		if err := addDimensionListAttrs(g); err != nil {
			return err
		}
		if err := addReferenceListAttrs(fw, g); err != nil {
			return err
		}
	}

	sink, err := fw.layoutPass(1)
	if err != nil {
		return fmt.Errorf("nc4: laying out metadata: %w", err)
	}
	fw.metaLen = sink.Offset()
	fw.eofAddr = fw.metaLen
	fw.state = stateWriting
	return nil
}

// Close runs pass 2 of the metadata layout (now that every chunk has a
// final address), writes the superblock and metadata to the start of the
// file, and closes the underlying file handle.
func (fw *FileWriter) Close() error {
	if fw.state != stateWriting {
		return ErrNotWriting
	}

	sink, err := fw.layoutPass(2)
	if err != nil {
		return fmt.Errorf("nc4: laying out metadata: %w", err)
	}
	if sink.Offset() != fw.metaLen {
		return fmt.Errorf("nc4: internal error: metadata size changed between layout passes (%d vs %d bytes)", sink.Offset(), fw.metaLen)
	}

	buf := sink.Bytes()
	copy(buf[:superblockSize], fw.buildSuperblock())

	if _, err := fw.f.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("nc4: writing metadata: %w", err)
	}
	if err := fw.f.Close(); err != nil {
		return fmt.Errorf("nc4: closing file: %w", err)
	}
	fw.state = stateClosed
	return nil
}

// layoutPass runs one full traversal of the object tree, rebuilding the
// global heap from scratch (pass 1 and pass 2 must derive byte-identical
// heap contents, in the same order, since nothing about the schema
// changes between passes — only the addresses embedded by Addressable
// references do).
func (fw *FileWriter) layoutPass(_ int) (*bytesink.GrowSink, error) {
	fw.fileHeap.Clear()

	sink := bytesink.NewGrowSink()
	sink.PutBytes(make([]byte, superblockSize))

	if err := fw.root.obj.Format(sink, fw.openTime); err != nil {
		return nil, err
	}

	extMessages := [][]byte{wrapMessage(msg.TypeBTreeKValues, msg.BTreeKValuesBody())}
	fw.extAddr = object.FormatObjectHeaderV2(sink, fw.openTime, false, extMessages)

	if fw.fileHeap.Len() > 0 {
		fw.fileHeap.Format(sink)
	}

	return sink, nil
}

func wrapMessage(msgType uint8, body []byte) []byte {
	s := bytesink.NewGrowSink()
	msg.Wrap(s, msgType, 0, false, 0, body)
	return s.Bytes()
}

func (fw *FileWriter) buildSuperblock() []byte {
	s := bytesink.NewGrowSink()
	s.PutBytes([]byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'})
	s.PutU8(2) // version
	s.PutU8(8) // size of offsets
	s.PutU8(8) // size of lengths
	s.PutU8(0) // file consistency flags
	s.PutU64(0)
	s.PutU64(fw.extAddr)
	s.PutU64(fw.eofAddr)
	s.PutU64(fw.root.Addr())
	sum := checksum.Jenkins32(s.Bytes(), 0)
	s.PutU32(sum)
	return s.Bytes()
}

// collectGroups returns every group in the tree rooted at g. EndDefine
// runs this once, before either layout pass, so the map iteration order
// here has no effect on the deterministic bytes each pass produces.
func collectGroups(g *Group) []*Group {
	out := []*Group{g}
	for _, child := range g.groups {
		out = append(out, collectGroups(child)...)
	}
	return out
}

// dimensionPlaceholderPrefix is netCDF-4's on-disk marker for a
// dimension with no declared coordinate variable: real netCDF readers
// recognize this exact prefix to distinguish a phony dimension-scale
// dataset from an actual coordinate variable.
const dimensionPlaceholderPrefix = "This is a netCDF dimension but not a netCDF variable."

// synthesizeDimensionScales ensures every dimension declared directly in
// g has a scale dataset: the coordinate variable the caller declared, or
// a synthesized float32 placeholder of the dimension's length.
func synthesizeDimensionScales(g *Group) error {
	for _, d := range g.dims {
		if d.coordVar == nil {
			v, err := g.CreateVariable(d.Name, dtype.F32, 0, []string{d.Name}, nil, 0)
			if err != nil {
				return fmt.Errorf("synthesizing dimension scale for %q: %w", d.Name, err)
			}
			v.obj.FillDefined = true
			v.obj.FillBytes = []byte{0, 0, 0, 0}
			d.synthesized = true
		}
		d.scaleVar = d.coordVar

		nameVal := d.Name
		if d.synthesized {
			nameVal = fmt.Sprintf("%s%010d", dimensionPlaceholderPrefix, d.Length)
		}
		if err := d.scaleVar.CreateAttribute("CLASS", "DIMENSION_SCALE"); err != nil {
			return err
		}
		if err := d.scaleVar.CreateAttribute("NAME", nameVal); err != nil {
			return err
		}
	}
	return nil
}

// addDimensionListAttrs attaches a DIMENSION_LIST attribute to every
// non-scalar variable in g, except a rank-1 variable that is itself its
// own dimension's coordinate (it has nothing to reference but itself).
func addDimensionListAttrs(g *Group) error {
	for _, v := range g.vars {
		if len(v.dims) == 0 {
			continue
		}
		if len(v.dims) == 1 && v.dims[0].coordVar == v {
			continue
		}

		rows := make([][]msg.Addressable, len(v.dims))
		for i, d := range v.dims {
			rows[i] = []msg.Addressable{d.scaleVar}
		}
		av := msg.AttrValue{
			Tag:               dtype.VlenOfRef,
			Dims:              []uint64{uint64(len(v.dims))}, //nolint:gosec // variable rank is always small
			Heap:              v.group.fw.fileHeap,
			DimensionListRows: rows,
		}
		v.obj.Attrs = append(v.obj.Attrs, object.AttrEntry{Name: "DIMENSION_LIST", Value: av})
	}
	return nil
}

// addReferenceListAttrs attaches a REFERENCE_LIST attribute to every
// dimension's scale dataset in g that is referenced by at least one
// other variable; a scale referenced only by its own coordinate variable
// gets none.
func addReferenceListAttrs(fw *FileWriter, g *Group) error {
	for _, d := range g.dims {
		if len(d.refs) == 0 {
			continue
		}
		entries := make([]msg.CompoundRefEntry, len(d.refs))
		for i, r := range d.refs {
			entries[i] = msg.CompoundRefEntry{Target: r.v, Axis: r.axis}
		}
		av := msg.AttrValue{
			Tag:                 dtype.VlenOfCompound,
			Dims:                []uint64{},
			Heap:                fw.fileHeap,
			ReferenceListGroups: [][]msg.CompoundRefEntry{entries},
		}
		d.scaleVar.obj.Attrs = append(d.scaleVar.obj.Attrs, object.AttrEntry{Name: "REFERENCE_LIST", Value: av})
	}
	return nil
}
