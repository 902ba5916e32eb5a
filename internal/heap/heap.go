// Package heap implements the HDF5 global heap collection (GCOL): a
// content-addressed store of variable-length byte items, referenced
// elsewhere in the file as (heap_addr, index).
package heap

import "github.com/scigolib/nc4/internal/bytesink"

// GlobalHeap is a single GCOL collection. There are two kinds of instance
// in this module: the file-wide heap (variable-length attribute payloads,
// string fill values) and a short-lived heap built while writing a single
// variable-length-string dataset chunk.
type GlobalHeap struct {
	items [][]byte
	// BlkPosition is the collection's on-disk address. It is fixed during
	// pass 1 of the metadata layout and reused, unresolved (0), during
	// pass 1 itself; callers read it back during pass 2 once it is known.
	BlkPosition uint64
}

// New returns an empty GlobalHeap.
func New() *GlobalHeap {
	return &GlobalHeap{}
}

// Put stores item and returns its 1-based, monotonically assigned index
// within this collection.
func (h *GlobalHeap) Put(item []byte) uint32 {
	h.items = append(h.items, item)
	return uint32(len(h.items))
}

// Clear discards all stored items, for reuse across passes where the
// caller re-derives the same items deterministically (pass 1 and pass 2
// must store byte-identical items in byte-identical order).
func (h *GlobalHeap) Clear() {
	h.items = nil
}

// Len reports the number of items currently stored.
func (h *GlobalHeap) Len() int { return len(h.items) }

const gcolHeaderSize = 16 // signature(4) + version(1) + reserved(3) + size(8)
const itemHeaderSize = 16 // index(2) + refcount(2) + reserved(4) + size(8)
const freeObjectSize = 16 // a null (index 0) object descriptor with no payload

// Size returns the total on-disk byte length this collection will occupy,
// without formatting it. Pass 1 and pass 2 always agree on this value
// because the item set is identical between passes.
func (h *GlobalHeap) Size() uint64 {
	total := uint64(gcolHeaderSize)
	for _, it := range h.items {
		total += uint64(itemHeaderSize) + align8(uint64(len(it)))
	}
	total += freeObjectSize
	return total
}

func align8(n uint64) uint64 {
	if r := n % 8; r != 0 {
		return n + (8 - r)
	}
	return n
}

// Format appends this collection's bytes to sink: the GCOL signature and
// header, each stored item padded to a multiple of 8 bytes, and a closing
// null (index 0) object whose size covers the remaining free space (here,
// always exactly the 16-byte closing descriptor — this collection is
// sized exactly to its contents plus the mandatory closing marker). Format
// is deterministic: calling it during pass 1 and again during pass 2
// produces byte-identical output.
func (h *GlobalHeap) Format(sink bytesink.Sink) {
	sink.Align8()
	h.BlkPosition = sink.Offset()

	sink.PutBytes([]byte("GCOL"))
	sink.PutU8(1) // version
	sink.PutU8(0)
	sink.PutU16(0) // 3 reserved bytes total
	sink.PutU64(h.Size())

	for i, it := range h.items {
		sink.PutU16(uint16(i + 1)) //nolint:gosec // item indices fit well within uint16 for this domain
		sink.PutU16(0)             // reference count, always 0
		sink.PutU32(0)             // reserved
		sink.PutU64(uint64(len(it)))
		sink.PutBytes(it)
		padded := align8(uint64(len(it)))
		for n := uint64(len(it)); n < padded; n++ {
			sink.PutU8(0)
		}
	}

	// Closing null object: index 0, zero usable free space beyond its own
	// header.
	sink.PutU16(0)
	sink.PutU16(0)
	sink.PutU32(0)
	sink.PutU64(freeObjectSize)
}
