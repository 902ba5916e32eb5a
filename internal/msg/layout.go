package msg

import "github.com/scigolib/nc4/internal/bytesink"

const (
	layoutClassContiguous = 1
	layoutClassChunked    = 2
)

// ContiguousLayoutBody builds a version-3 data layout message body for
// contiguous storage: a fixed data address and size.
func ContiguousLayoutBody(addr, size uint64) []byte {
	s := bytesink.NewGrowSink()
	s.PutU8(3) // version
	s.PutU8(layoutClassContiguous)
	s.PutU64(addr)
	s.PutU64(size)
	return s.Bytes()
}

// ChunkedLayoutBody builds a version-3 data layout message body for
// chunked storage: dimensionality (variable rank + 1, the trailing
// pseudo-dimension carrying the element byte size), the address of the
// chunk index (a single-leaf-node v1 B-tree, see internal/btree), and the
// per-axis chunk dimensions (the last one always equal to elemSize).
func ChunkedLayoutBody(btreeAddr uint64, chunkDims []uint32, elemSize uint32) []byte {
	s := bytesink.NewGrowSink()
	s.PutU8(3) // version
	s.PutU8(layoutClassChunked)
	dimensionality := len(chunkDims) + 1
	s.PutU8(uint8(dimensionality)) //nolint:gosec // rank is always small
	s.PutU64(btreeAddr)
	for _, d := range chunkDims {
		s.PutU32(d)
	}
	s.PutU32(elemSize)
	return s.Bytes()
}
