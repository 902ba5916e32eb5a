package object

import (
	"fmt"
	"io"

	"github.com/scigolib/nc4/internal/btree"
	"github.com/scigolib/nc4/internal/bytesink"
	"github.com/scigolib/nc4/internal/dtype"
	"github.com/scigolib/nc4/internal/heap"
	"github.com/scigolib/nc4/internal/msg"
	"github.com/scigolib/nc4/internal/value"
)

// AttrEntry pairs an attribute's name with its value, in declaration
// order (the order attribute messages are emitted and the order
// attribute creation-order indices are assigned).
type AttrEntry struct {
	Name  string
	Value msg.AttrValue
}

// ChunkDescriptor records one chunk's start index within the variable and
// its resolved on-disk placement. Addr is 0 until WriteChunk places it.
type ChunkDescriptor struct {
	Start   []uint64
	Addr    uint64
	Size    uint32
	written bool
}

// Dataset is the in-memory model of one NetCDF-4 variable's HDF5 dataset
// object, spanning spec.md §4.5: its datatype, dataspace, storage layout,
// fill value, attributes, and (for chunked variables) its chunk index.
type Dataset struct {
	Name        string
	Tag         dtype.Tag
	FixedStrLen int
	Dims        []uint64 // nil: no-data; empty (non-nil): scalar; else: shaped
	ChunkDims   []uint32 // nil: contiguous storage
	Compression int      // 0: no filter; 1-9: DEFLATE level
	FillDefined bool
	FillBytes   []byte
	Attrs       []AttrEntry

	ElemSize uint32

	// BlkPosition is this dataset's object-header address, fixed during
	// pass 1 of the metadata layout.
	BlkPosition uint64

	// Contiguous storage bookkeeping. Both are 0 until the single
	// whole-dataset write happens.
	DataAddr uint64
	DataSize uint64
	written  bool

	// Chunked storage bookkeeping.
	stride []uint64
	chunks []*ChunkDescriptor
	index  *btree.ChunkIndex
}

// New validates dims/chunkDims/compression against spec.md §4.5's
// invariants and returns a Dataset ready to accept attributes and chunk
// writes.
func New(name string, tag dtype.Tag, fixedStrLen int, dims []uint64, chunkDims []uint32, compression int) (*Dataset, error) {
	elemSize, err := tag.ElementSize(fixedStrLen)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", name, err)
	}

	isScalarOrNoData := dims == nil || len(dims) == 0
	if chunkDims != nil {
		if isScalarOrNoData {
			return nil, fmt.Errorf("variable %q: scalar and no-data variables cannot be chunked", name)
		}
		if len(chunkDims) != len(dims) {
			return nil, fmt.Errorf("variable %q: chunk rank %d does not match variable rank %d", name, len(chunkDims), len(dims))
		}
		if tag == dtype.StrVar {
			return nil, fmt.Errorf("variable %q: variable-length string variables cannot be chunked", name)
		}
		for i, c := range chunkDims {
			if c == 0 || uint64(c) > dims[i] {
				return nil, fmt.Errorf("variable %q: chunk dimension %d (%d) must be in [1, %d]", name, i, c, dims[i])
			}
		}
	}
	if compression > 0 {
		if chunkDims == nil {
			return nil, fmt.Errorf("variable %q: compression requires chunked storage", name)
		}
		if !tag.Compressible() {
			return nil, fmt.Errorf("variable %q: %v cannot be compressed", name, tag)
		}
		if compression > 9 {
			return nil, fmt.Errorf("variable %q: compression level %d out of range [0,9]", name, compression)
		}
	}

	d := &Dataset{
		Name:        name,
		Tag:         tag,
		FixedStrLen: fixedStrLen,
		Dims:        dims,
		ChunkDims:   chunkDims,
		Compression: compression,
		ElemSize:    elemSize,
	}

	if chunkDims != nil {
		chunkCounts := make([]uint64, len(dims))
		for i, c := range chunkDims {
			chunkCounts[i] = ceilDiv(dims[i], uint64(c))
		}
		d.stride = make([]uint64, len(dims))
		stride := uint64(1)
		for i := len(dims) - 1; i >= 0; i-- {
			d.stride[i] = stride
			stride *= chunkCounts[i]
		}
		total := stride
		d.chunks = make([]*ChunkDescriptor, total)
		starts := make([]uint64, len(dims))
		for i := range d.chunks {
			cp := make([]uint64, len(starts))
			copy(cp, starts)
			d.chunks[i] = &ChunkDescriptor{Start: cp}
			for axis := len(dims) - 1; axis >= 0; axis-- {
				starts[axis] += uint64(chunkDims[axis])
				if starts[axis] < dims[axis] {
					break
				}
				starts[axis] = 0
			}
		}

		entries := make([]btree.Entry, len(d.chunks))
		for i, c := range d.chunks {
			offsets := make([]uint64, len(c.Start)+1)
			copy(offsets, c.Start)
			entries[i] = btree.Entry{Offsets: offsets, Size: &c.Size, Addr: &c.Addr}
		}
		d.index = btree.New(entries)
	}

	return d, nil
}

func ceilDiv(n, d uint64) uint64 {
	return (n + d - 1) / d
}

// Addr implements msg.Addressable: the dataset's own object-header
// address, read back by any link or DIMENSION_LIST/REFERENCE_LIST
// reference pointing at it.
func (d *Dataset) Addr() uint64 { return d.BlkPosition }

// chunkLinearIndex maps a chunk's start-index vector to its position in
// d.chunks, validating alignment and bounds.
func (d *Dataset) chunkLinearIndex(startIxs []uint64) (int, error) {
	if len(startIxs) != len(d.ChunkDims) {
		return 0, fmt.Errorf("variable %q: expected %d start indices, got %d", d.Name, len(d.ChunkDims), len(startIxs))
	}
	var linear uint64
	for i, s := range startIxs {
		c := uint64(d.ChunkDims[i])
		if s%c != 0 {
			return 0, fmt.Errorf("variable %q: start index %d on axis %d is not a multiple of chunk dimension %d", d.Name, s, i, c)
		}
		if s >= d.Dims[i] {
			return 0, fmt.Errorf("variable %q: start index %d on axis %d is out of bounds (dimension %d)", d.Name, s, i, d.Dims[i])
		}
		linear += (s / c) * d.stride[i]
	}
	return int(linear), nil //nolint:gosec // total chunk count bounded by dataset size
}

// clippedShape returns, for the chunk starting at startIxs, the number of
// valid (non-padding) elements on each axis: min(chunkDim, dim-start).
func (d *Dataset) clippedShape(startIxs []uint64) []int {
	out := make([]int, len(d.ChunkDims))
	for i, c := range d.ChunkDims {
		remaining := d.Dims[i] - startIxs[i]
		if uint64(c) < remaining {
			out[i] = int(c)
		} else {
			out[i] = int(remaining) //nolint:gosec // bounded by dims
		}
	}
	return out
}

func product(shape []int) int {
	p := 1
	for _, s := range shape {
		p *= s
	}
	return p
}

func shapesEqual(a []int, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if uint64(a[i]) != b[i] { //nolint:gosec // shapes are small non-negative
			return false
		}
	}
	return true
}

// WriteChunk writes one chunk of a chunked dataset, or (when the dataset
// is contiguous) the dataset's entire data in one call with startIxs ==
// nil. w is the destination file; eof tracks (and is advanced past) the
// file's current end-of-file address.
func (d *Dataset) WriteChunk(w io.WriterAt, eof *uint64, startIxs []uint64, val interface{}) error {
	if d.ChunkDims == nil {
		return d.writeContiguous(w, eof, startIxs, val)
	}
	return d.writeChunked(w, eof, startIxs, val)
}

func (d *Dataset) writeContiguous(w io.WriterAt, eof *uint64, startIxs []uint64, val interface{}) error {
	if d.Dims == nil {
		return fmt.Errorf("variable %q: no-data variable cannot be written", d.Name)
	}
	if startIxs != nil {
		return fmt.Errorf("variable %q: contiguous variables take no start index", d.Name)
	}
	if d.written {
		return fmt.Errorf("variable %q: data already written", d.Name)
	}

	*eof = align8(*eof)
	addr := *eof

	size, err := d.writeElements(w, addr, d.Dims, d.Dims, val)
	if err != nil {
		return fmt.Errorf("variable %q: %w", d.Name, err)
	}

	d.DataAddr = addr
	d.DataSize = size
	d.written = true
	*eof = addr + size
	return nil
}

func (d *Dataset) writeChunked(w io.WriterAt, eof *uint64, startIxs []uint64, val interface{}) error {
	linear, err := d.chunkLinearIndex(startIxs)
	if err != nil {
		return err
	}
	chunk := d.chunks[linear]
	if chunk.written {
		return fmt.Errorf("variable %q: chunk at %v already written", d.Name, startIxs)
	}

	clipped := d.clippedShape(startIxs)
	clippedU64 := make([]uint64, len(clipped))
	fullShape := make([]uint64, len(d.ChunkDims))
	for i, c := range d.ChunkDims {
		clippedU64[i] = uint64(clipped[i])
		fullShape[i] = uint64(c)
	}

	*eof = align8(*eof)
	addr := *eof

	size, err := d.writeElements(w, addr, fullShape, clippedU64, val)
	if err != nil {
		return fmt.Errorf("variable %q: %w", d.Name, err)
	}

	chunk.Addr = addr
	chunk.Size = uint32(size) //nolint:gosec // chunk sizes bounded by blockSize and rank
	chunk.written = true
	*eof = addr + size
	return nil
}

// writeElements validates val against the declared element kind and
// shape, then writes it: plain numeric/fixed-string payloads go directly
// in row-major order over the full rectangle described by fullShape, with
// any cell outside clipShape on any axis padded with the fill byte (a
// short trailing-edge chunk); variable-length string payloads instead go
// through writeVlenStrings. For a contiguous write, fullShape and
// clipShape are identical (there is never any padding).
func (d *Dataset) writeElements(w io.WriterAt, addr uint64, fullShape, clipShape []uint64, val interface{}) (uint64, error) {
	kind, shape, flat, err := value.Inspect(val)
	if err != nil {
		return 0, fmt.Errorf("inspecting value: %w", err)
	}
	if !kind.MatchesTag(d.Tag) {
		return 0, fmt.Errorf("value kind %v does not match declared type %v", kind, d.Tag)
	}

	wantElems := product(intShape(clipShape))
	flatVals := value.ToSlice(flat)
	if !((len(shape) == 1 && shape[0] == wantElems) || shapesEqual(shape, clipShape)) {
		return 0, fmt.Errorf("value shape %v does not match expected chunk shape %v", shape, clipShape)
	}
	if len(flatVals) != wantElems {
		return 0, fmt.Errorf("value has %d elements, expected %d", len(flatVals), wantElems)
	}

	if d.Tag == dtype.StrVar {
		return d.writeVlenStrings(w, addr, flatVals)
	}

	sink, err := bytesink.NewChannelSink(w, addr, 0, d.Compression)
	if err != nil {
		return 0, err
	}

	rank := len(fullShape)
	counters := make([]uint64, rank)
	totalVolume := product(intShape(fullShape))
	cursor := 0
	for i := 0; i < totalVolume; i++ {
		inBounds := true
		for a := 0; a < rank; a++ {
			if counters[a] >= clipShape[a] {
				inBounds = false
				break
			}
		}
		if inBounds {
			if err := d.writeElement(sink, flatVals[cursor]); err != nil {
				return 0, err
			}
			cursor++
		} else {
			for b := uint32(0); b < d.ElemSize; b++ {
				sink.PutU8(bytesink.AlignFill)
			}
		}
		for a := rank - 1; a >= 0; a-- {
			counters[a]++
			if counters[a] < fullShape[a] {
				break
			}
			counters[a] = 0
		}
	}

	return sink.Finish()
}

func intShape(u []uint64) []int {
	out := make([]int, len(u))
	for i, v := range u {
		out[i] = int(v) //nolint:gosec // dimension sizes bounded by memory already
	}
	return out
}

func (d *Dataset) writeElement(sink *bytesink.ChannelSink, v interface{}) error {
	switch d.Tag {
	case dtype.I8:
		sink.PutU8(uint8(v.(int8))) //nolint:gosec // two's-complement reinterpretation is intentional
	case dtype.U8:
		sink.PutU8(v.(uint8))
	case dtype.I16:
		sink.PutU16(uint16(v.(int16))) //nolint:gosec // two's-complement reinterpretation is intentional
	case dtype.I32:
		sink.PutU32(uint32(v.(int32))) //nolint:gosec // two's-complement reinterpretation is intentional
	case dtype.I64:
		sink.PutU64(uint64(v.(int64))) //nolint:gosec // two's-complement reinterpretation is intentional
	case dtype.F32:
		sink.PutF32(v.(float32))
	case dtype.F64:
		sink.PutF64(v.(float64))
	case dtype.StrFixed:
		s := v.(string)
		b := []byte(s)
		elemLen := int(d.ElemSize)
		if len(b) >= elemLen {
			sink.PutBytes(b[:elemLen])
		} else {
			sink.PutBytes(b)
			for i := len(b); i < elemLen; i++ {
				sink.PutU8(0)
			}
		}
	default:
		return fmt.Errorf("element type %v is not directly writable", d.Tag)
	}
	return nil
}

// writeVlenStrings implements spec.md §4.5's variable-length-string chunk
// path: a fresh, throwaway global heap holding this write's strings,
// immediately followed by one (length, heap_addr, heap_index) reference
// record per element — the whole thing forming this "chunk"'s (or, for a
// contiguous vlen-string variable, this dataset's) on-disk data.
func (d *Dataset) writeVlenStrings(w io.WriterAt, addr uint64, vals []interface{}) (uint64, error) {
	strs := make([]string, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			return 0, fmt.Errorf("expected string element, got %T", v)
		}
		strs[i] = s
	}

	gh := heap.New()
	idxs := make([]uint32, len(strs))
	for i, s := range strs {
		idxs[i] = gh.Put([]byte(s))
	}

	gcolSink := bytesink.NewGrowSink()
	gh.Format(gcolSink)
	gcolBytes := gcolSink.Bytes()
	if _, err := w.WriteAt(gcolBytes, int64(addr)); err != nil { //nolint:gosec // file offsets fit int64 on supported platforms
		return 0, fmt.Errorf("writing global heap: %w", err)
	}
	gh.BlkPosition = addr // now absolute: the GCOL's real file address

	refSink := bytesink.NewGrowSink()
	for i, s := range strs {
		refSink.PutU32(uint32(len(s))) //nolint:gosec // string lengths fit comfortably in uint32
		refSink.PutU64(gh.BlkPosition)
		refSink.PutU32(idxs[i])
	}
	refBytes := refSink.Bytes()
	refAddr := addr + uint64(len(gcolBytes))
	if _, err := w.WriteAt(refBytes, int64(refAddr)); err != nil { //nolint:gosec // file offsets fit int64 on supported platforms
		return 0, fmt.Errorf("writing vlen reference records: %w", err)
	}

	return uint64(len(gcolBytes) + len(refBytes)), nil
}

func align8(n uint64) uint64 {
	if r := n % 8; r != 0 {
		return n + (8 - r)
	}
	return n
}

// Format assembles this dataset's messages and object header into sink,
// along with its chunk index (if chunked). Called once per metadata
// layout pass; the chunk index and layout message always read back
// whatever is currently known in d.chunks / d.DataAddr / d.DataSize — 0
// during pass 1 (before any chunk has been written), the true values
// during pass 2 (after WriteChunk has run).
func (d *Dataset) Format(sink *bytesink.GrowSink, timestamp uint32) error {
	var layoutBody []byte
	if d.ChunkDims != nil {
		d.index.Format(sink)
		layoutBody = msg.ChunkedLayoutBody(d.index.BlkPosition, d.ChunkDims, d.ElemSize)
	} else {
		layoutBody = msg.ContiguousLayoutBody(d.DataAddr, d.DataSize)
	}

	dtBody, err := msg.DatatypeBody(d.Tag, d.FixedStrLen)
	if err != nil {
		return fmt.Errorf("dataset %q: %w", d.Name, err)
	}
	dsBody := msg.DataspaceBody(d.Dims)
	fillBody := msg.FillValueBody(d.FillDefined, d.FillBytes)
	modBody := msg.ModTimeBody(timestamp)
	attrInfoBody := msg.AttrInfoBody(true)

	messages := [][]byte{
		wrapMsg(msg.TypeDatatype, dtBody),
		wrapMsg(msg.TypeDataspace, dsBody),
		wrapMsg(msg.TypeDataLayout, layoutBody),
		wrapMsg(msg.TypeFillValue, fillBody),
		wrapMsg(msg.TypeModTime, modBody),
	}
	if d.Compression > 0 {
		messages = append(messages, wrapMsg(msg.TypeFilterPipeline, msg.FilterPipelineBody(d.Compression)))
	}
	messages = append(messages, wrapMsg(msg.TypeAttrInfo, attrInfoBody))

	for i, a := range d.Attrs {
		body, err := msg.AttributeBody(a.Name, a.Value)
		if err != nil {
			return fmt.Errorf("dataset %q: %w", d.Name, err)
		}
		s := bytesink.NewGrowSink()
		msg.Wrap(s, msg.TypeAttribute, 0, true, uint16(i), body) //nolint:gosec // attribute counts per object are small
		messages = append(messages, s.Bytes())
	}

	d.BlkPosition = FormatObjectHeaderV2(sink, timestamp, true, messages)
	return nil
}

func wrapMsg(msgType uint8, body []byte) []byte {
	s := bytesink.NewGrowSink()
	msg.Wrap(s, msgType, 0, false, 0, body)
	return s.Bytes()
}
