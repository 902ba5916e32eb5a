package msg

import "github.com/scigolib/nc4/internal/bytesink"

// undefAddr is HDF5's "undefined address" sentinel: all bits set.
const undefAddr = ^uint64(0)

// LinkInfoBody builds a version-0 link-info message body. trackOrder
// enables the header's attribute/link creation-order tracking bits; this
// module never builds dense (fractal-heap-indexed) link storage, so the
// heap and B-tree address fields are always left undefined.
func LinkInfoBody(trackOrder bool) []byte {
	s := bytesink.NewGrowSink()
	s.PutU8(0) // version
	var flags uint8
	if trackOrder {
		flags |= 0x1
	}
	s.PutU8(flags)
	if trackOrder {
		s.PutU64(0) // max creation index so far
	}
	s.PutU64(undefAddr) // fractal heap address
	s.PutU64(undefAddr) // name index B-tree address
	if trackOrder {
		s.PutU64(undefAddr) // creation order index B-tree address
	}
	return s.Bytes()
}

// GroupInfoBody builds a version-0 group-info message body with no
// optional phase-change or size-estimate fields: the defaults apply.
func GroupInfoBody() []byte {
	s := bytesink.NewGrowSink()
	s.PutU8(0) // version
	s.PutU8(0) // flags: no optional fields present
	return s.Bytes()
}

// AttrInfoBody builds a version-0 attribute-info message body, mirroring
// LinkInfoBody's creation-order tracking and compact-only storage
// assumption.
func AttrInfoBody(trackOrder bool) []byte {
	s := bytesink.NewGrowSink()
	s.PutU8(0) // version
	var flags uint8
	if trackOrder {
		flags |= 0x1
	}
	s.PutU8(flags)
	if trackOrder {
		s.PutU16(0) // max creation index so far
	}
	s.PutU64(undefAddr) // fractal heap address
	s.PutU64(undefAddr) // name index B-tree address
	if trackOrder {
		s.PutU64(undefAddr) // creation order index B-tree address
	}
	return s.Bytes()
}

// linkFlags: bits 0-1 select the width of the link-name-length field (01
// = 2 bytes, always used here); bit 2 marks creation order present; bit 4
// marks character set present. Link type is never encoded: omitting it
// means "hard link", the only kind this module emits.
const linkFlags = 0x01 | 0x04 | 0x10

// LinkBody builds a version-1 link message body for a hard link named
// name, pointing at the target object header address targetAddr, with
// creationOrder recording this child's position among its siblings.
func LinkBody(name string, targetAddr uint64, creationOrder uint64) []byte {
	s := bytesink.NewGrowSink()
	s.PutU8(1) // version
	s.PutU8(linkFlags)
	s.PutU64(creationOrder)
	s.PutU8(0) // character set: ASCII
	s.PutU16(uint16(len(name))) //nolint:gosec // link names are short
	s.PutBytes([]byte(name))
	s.PutU64(targetAddr)
	return s.Bytes()
}

// BTreeKValuesBody builds a version-0 superblock-extension K-values
// message with nominal tree-arity defaults. This module never performs
// B-tree node splitting (spec.md non-goal), so these values are
// descriptive only.
func BTreeKValuesBody() []byte {
	s := bytesink.NewGrowSink()
	s.PutU8(0) // version
	s.PutU16(32) // indexed storage internal node K
	s.PutU16(16) // group internal node K
	s.PutU16(4)  // group leaf node K
	return s.Bytes()
}
