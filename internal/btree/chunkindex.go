// Package btree implements the minimal on-disk structure NetCDF-4's
// chunked datasets need to let a standard HDF5 reader locate chunk raw
// data: a version-1 B-tree (type 1, "raw data chunks") node. Per
// spec.md §1, general B-tree v1 node splitting/rebalancing is out of
// scope; this module always emits a single leaf node holding every chunk
// record for a dataset, which is sufficient for the chunk counts this
// serializer is designed for.
package btree

import "github.com/scigolib/nc4/internal/bytesink"

const undefAddr = ^uint64(0)

// Entry is one chunk's index record. Offsets has length rank+1 (the
// trailing element always 0, HDF5's pseudo-dimension for the element byte
// size). Addr points at the chunk descriptor's on-disk address field,
// read at Format time so it reflects whatever is known when called (0
// during pass 1, the final address during pass 2).
type Entry struct {
	Offsets    []uint64
	Size       *uint32
	FilterMask uint32
	Addr       *uint64
}

// ChunkIndex is a single leaf node listing every chunk of one dataset.
type ChunkIndex struct {
	Entries []Entry
	// BlkPosition is this node's on-disk address, fixed during pass 1.
	BlkPosition uint64
}

// New returns a ChunkIndex over the given entries, in the same order they
// should appear in the node (insertion order; this module never needs
// key-sorted lookup, since a write locates its chunk by index arithmetic
// over the dataset's stride table rather than by searching this node).
func New(entries []Entry) *ChunkIndex {
	return &ChunkIndex{Entries: entries}
}

// Format appends this node's bytes to sink.
func (idx *ChunkIndex) Format(sink bytesink.Sink) {
	sink.Align8()
	idx.BlkPosition = sink.Offset()

	sink.PutBytes([]byte("TREE"))
	sink.PutU8(1) // node type: raw data chunks
	sink.PutU8(0) // node level: leaf
	sink.PutU16(uint16(len(idx.Entries))) //nolint:gosec // chunk counts fit comfortably in uint16 for this module's scope
	sink.PutU64(undefAddr) // left sibling
	sink.PutU64(undefAddr) // right sibling

	for _, e := range idx.Entries {
		idx.writeKey(sink, e.Size, e.FilterMask, e.Offsets)
		sink.PutU64(*e.Addr)
	}
	// Closing sentinel key: HDF5 B-tree nodes carry one more key than
	// child pointer; raw-data chunk leaves never read it back.
	idx.writeKey(sink, nil, 0, zeroOffsets(idx.Entries))
}

func (idx *ChunkIndex) writeKey(sink bytesink.Sink, size *uint32, filterMask uint32, offsets []uint64) {
	if size != nil {
		sink.PutU32(*size)
	} else {
		sink.PutU32(0)
	}
	sink.PutU32(filterMask)
	for _, o := range offsets {
		sink.PutU64(o)
	}
}

func zeroOffsets(entries []Entry) []uint64 {
	if len(entries) == 0 {
		return nil
	}
	return make([]uint64, len(entries[0].Offsets))
}
