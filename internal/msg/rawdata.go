package msg

import (
	"fmt"

	"github.com/scigolib/nc4/internal/bytesink"
	"github.com/scigolib/nc4/internal/dtype"
	"github.com/scigolib/nc4/internal/heap"
)

// Addressable is anything whose on-disk object-header address can be
// embedded as an 8-byte reference. Group and Dataset objects implement
// this. During pass 1 of the metadata layout, Addr() returns 0 for any
// object not yet visited by the layout traversal (the value is
// irrelevant for sizing); during pass 2 every object has already been
// visited once during pass 1, so Addr() always returns the final address.
type Addressable interface {
	Addr() uint64
}

// CompoundRefEntry is one {dataset-ref, axis-index} pair, the element
// type of a REFERENCE_LIST heap item.
type CompoundRefEntry struct {
	Target Addressable
	Axis   uint32
}

// WriteNumeric writes flat, a []int8/[]uint8/.../[]float64 matching tag,
// element-by-element in little-endian order.
func WriteNumeric(sink bytesink.Sink, tag dtype.Tag, flat interface{}) error {
	switch tag {
	case dtype.I8:
		v, ok := flat.([]int8)
		if !ok {
			return fmt.Errorf("expected []int8 for %v, got %T", tag, flat)
		}
		for _, x := range v {
			sink.PutU8(uint8(x)) //nolint:gosec // two's-complement reinterpretation is intentional
		}
	case dtype.U8:
		v, ok := flat.([]uint8)
		if !ok {
			return fmt.Errorf("expected []uint8 for %v, got %T", tag, flat)
		}
		sink.PutBytes(v)
	case dtype.I16:
		v, ok := flat.([]int16)
		if !ok {
			return fmt.Errorf("expected []int16 for %v, got %T", tag, flat)
		}
		for _, x := range v {
			sink.PutU16(uint16(x)) //nolint:gosec // two's-complement reinterpretation is intentional
		}
	case dtype.I32:
		v, ok := flat.([]int32)
		if !ok {
			return fmt.Errorf("expected []int32 for %v, got %T", tag, flat)
		}
		for _, x := range v {
			sink.PutU32(uint32(x)) //nolint:gosec // two's-complement reinterpretation is intentional
		}
	case dtype.I64:
		v, ok := flat.([]int64)
		if !ok {
			return fmt.Errorf("expected []int64 for %v, got %T", tag, flat)
		}
		for _, x := range v {
			sink.PutU64(uint64(x)) //nolint:gosec // two's-complement reinterpretation is intentional
		}
	case dtype.F32:
		v, ok := flat.([]float32)
		if !ok {
			return fmt.Errorf("expected []float32 for %v, got %T", tag, flat)
		}
		for _, x := range v {
			sink.PutF32(x)
		}
	case dtype.F64:
		v, ok := flat.([]float64)
		if !ok {
			return fmt.Errorf("expected []float64 for %v, got %T", tag, flat)
		}
		for _, x := range v {
			sink.PutF64(x)
		}
	default:
		return fmt.Errorf("%v is not a plain numeric type", tag)
	}
	return nil
}

// WriteFixedStrings writes each string truncated or NUL-padded to
// elemLen bytes, with no guaranteed terminator when truncated.
func WriteFixedStrings(sink bytesink.Sink, strs []string, elemLen int) {
	for _, s := range strs {
		b := []byte(s)
		if len(b) >= elemLen {
			sink.PutBytes(b[:elemLen])
			continue
		}
		sink.PutBytes(b)
		for i := len(b); i < elemLen; i++ {
			sink.PutU8(0)
		}
	}
}

// WriteVlenStrings stores each string's bytes in gh and writes the
// corresponding (length, heap_addr, heap_index) reference record for
// each, in order.
func WriteVlenStrings(sink bytesink.Sink, gh *heap.GlobalHeap, strs []string) {
	for _, s := range strs {
		idx := gh.Put([]byte(s))
		sink.PutU32(uint32(len(s))) //nolint:gosec // string lengths fit comfortably in uint32
		sink.PutU64(gh.BlkPosition)
		sink.PutU32(idx)
	}
}

// WriteRefs writes each target's resolved object-header address as an
// 8-byte reference.
func WriteRefs(sink bytesink.Sink, refs []Addressable) {
	for _, r := range refs {
		sink.PutU64(r.Addr())
	}
}

// WriteVlenOfRefRows writes one vlen reference record per row: each row's
// targets are concatenated into a single heap item (row-count * 8 bytes),
// and the record's "length" is the number of targets in that row. This is
// the DIMENSION_LIST encoding: one row per variable axis.
func WriteVlenOfRefRows(sink bytesink.Sink, gh *heap.GlobalHeap, rows [][]Addressable) {
	for _, row := range rows {
		item := make([]byte, 0, 8*len(row))
		for _, r := range row {
			item = appendU64LE(item, r.Addr())
		}
		idx := gh.Put(item)
		sink.PutU32(uint32(len(row))) //nolint:gosec // axis reference counts are always small
		sink.PutU64(gh.BlkPosition)
		sink.PutU32(idx)
	}
}

// WriteVlenCompoundGroups writes one vlen reference record per group:
// each group's entries are concatenated into a single heap item
// (count * 12 bytes), and the record's "length" is the entry count. This
// is the REFERENCE_LIST encoding: exactly one group, listing every
// variable that references a given dimension scale.
func WriteVlenCompoundGroups(sink bytesink.Sink, gh *heap.GlobalHeap, groups [][]CompoundRefEntry) {
	for _, entries := range groups {
		item := make([]byte, 0, 12*len(entries))
		for _, e := range entries {
			item = appendU64LE(item, e.Target.Addr())
			item = appendU32LE(item, e.Axis)
		}
		idx := gh.Put(item)
		sink.PutU32(uint32(len(entries))) //nolint:gosec // reference counts are always small
		sink.PutU64(gh.BlkPosition)
		sink.PutU32(idx)
	}
}

func appendU64LE(b []byte, v uint64) []byte {
	return append(b,
		byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
		byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}

func appendU32LE(b []byte, v uint32) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}
