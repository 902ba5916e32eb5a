// Package object assembles the two kinds of HDF5 object header this
// serializer ever writes: a dataset's (spec.md §4.5) and a group's
// (spec.md §4.6). Both share the same version-2 object-header envelope,
// built here once.
package object

import (
	"github.com/scigolib/nc4/internal/bytesink"
	"github.com/scigolib/nc4/internal/checksum"
)

func chooseWidth(n uint64) (width int, code uint8) {
	switch {
	case n <= 0xFF:
		return 1, 0
	case n <= 0xFFFF:
		return 2, 1
	case n <= 0xFFFFFFFF:
		return 4, 2
	default:
		return 8, 3
	}
}

func putWidth(sink *bytesink.GrowSink, width int, v uint64) {
	switch width {
	case 1:
		sink.PutU8(uint8(v)) //nolint:gosec // bounded by chooseWidth
	case 2:
		sink.PutU16(uint16(v)) //nolint:gosec // bounded by chooseWidth
	case 4:
		sink.PutU32(uint32(v)) //nolint:gosec // bounded by chooseWidth
	default:
		sink.PutU64(v)
	}
}

// FormatObjectHeaderV2 writes a complete version-2 object header — the
// "OHDR" signature, the flag byte (chunk-0 length width, attribute
// creation-order tracking, always-on timestamps), four identical
// timestamps, the max-compact/min-dense attribute thresholds, the
// variable-width chunk-0 length, every message in order, and the closing
// Jenkins checksum — into sink, and returns the header's own start
// address (after the mandatory 8-byte alignment).
//
// Object headers are only ever built into a GrowSink: the checksum must
// read back the bytes just written, which a ChannelSink cannot do.
func FormatObjectHeaderV2(sink *bytesink.GrowSink, timestamp uint32, trackAttrOrder bool, messages [][]byte) uint64 {
	sink.Align8()
	start := sink.Offset()

	var bodySize uint64
	for _, m := range messages {
		bodySize += uint64(len(m))
	}
	width, widthCode := chooseWidth(bodySize)

	sink.PutBytes([]byte("OHDR"))
	sink.PutU8(2) // version

	flags := widthCode
	if trackAttrOrder {
		flags |= 0x4 | 0x8 // track + index attribute creation order
	}
	flags |= 0x20 // store all four timestamps
	sink.PutU8(flags)

	sink.PutU32(timestamp) // access time
	sink.PutU32(timestamp) // modification time
	sink.PutU32(timestamp) // change time
	sink.PutU32(timestamp) // birth time

	sink.PutU16(8) // max compact attributes
	sink.PutU16(6) // min dense attributes

	putWidth(sink, width, bodySize)
	for _, m := range messages {
		sink.PutBytes(m)
	}

	end := sink.Offset()
	sum := checksum.Jenkins32(sink.Slice(start, end), 0)
	sink.PutU32(sum)

	return start
}
