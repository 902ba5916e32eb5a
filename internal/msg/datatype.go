// Package msg implements the typed, length-prefixed object-header message
// bodies described in spec.md §4.4: datatype, dataspace, layout, fill
// value, filter pipeline, modification time, attribute (+ info), link
// (+ info), group info, and the superblock-extension K-values message.
//
// Every XxxBody function builds a message's raw body bytes only (no
// type/size/flags prefix); Wrap adds that prefix when the body becomes a
// standalone object-header message. Some bodies (datatype, dataspace) are
// also nested, unwrapped, inside the Attribute message body, matching the
// on-disk Attribute message format.
package msg

import (
	"fmt"

	"github.com/scigolib/nc4/internal/bytesink"
	"github.com/scigolib/nc4/internal/dtype"
)

// Object-header-v2 message type codes, matching the real HDF5 format
// exactly (spec.md §4.4 tags).
const (
	TypeDataspace      = 1
	TypeLinkInfo       = 2
	TypeDatatype       = 3
	TypeFillValue      = 5
	TypeLink           = 6
	TypeDataLayout     = 8
	TypeGroupInfo      = 10
	TypeFilterPipeline = 11
	TypeAttribute      = 12
	TypeBTreeKValues   = 19
	TypeModTime        = 18
	TypeAttrInfo       = 21
)

// Wrap writes one object-header-v2 message: the 1-byte type code, a
// 2-byte little-endian body length, a 1-byte flag field, an optional
// 2-byte little-endian creation order (present only when the owning
// header tracks attribute creation order), then body verbatim.
func Wrap(sink bytesink.Sink, msgType uint8, flags uint8, trackOrder bool, creationOrder uint16, body []byte) {
	sink.PutU8(msgType)
	sink.PutU16(uint16(len(body))) //nolint:gosec // message bodies in this format are always small
	sink.PutU8(flags)
	if trackOrder {
		sink.PutU16(creationOrder)
	}
	sink.PutBytes(body)
}

func fixedPointBody(size uint32, signed bool) []byte {
	s := bytesink.NewGrowSink()
	s.PutU8(1 << 4) // version 1, class 0 (fixed point)
	var bits uint8
	if signed {
		bits |= 1 << 3
	}
	s.PutU8(bits)
	s.PutU8(0)
	s.PutU8(0)
	s.PutU32(size)
	s.PutU16(0)                  // bit offset
	s.PutU16(uint16(size) * 8)   //nolint:gosec // size is always <=8 here
	return s.Bytes()
}

func floatBody(size uint32) []byte {
	s := bytesink.NewGrowSink()
	s.PutU8(1<<4 | 1) // version 1, class 1 (floating point)
	s.PutU8(0)        // byte order LE
	s.PutU8(0)
	s.PutU8(0)
	s.PutU32(size)
	s.PutU16(0)
	s.PutU16(uint16(size) * 8) //nolint:gosec // size is 4 or 8
	var exploc, expsize, mantloc, mantsize uint8
	var bias uint32
	if size == 4 {
		exploc, expsize, mantloc, mantsize, bias = 23, 8, 0, 23, 127
	} else {
		exploc, expsize, mantloc, mantsize, bias = 52, 11, 0, 52, 1023
	}
	s.PutU8(exploc)
	s.PutU8(expsize)
	s.PutU8(mantloc)
	s.PutU8(mantsize)
	s.PutU32(bias)
	return s.Bytes()
}

func stringFixedBody(size uint32) []byte {
	s := bytesink.NewGrowSink()
	s.PutU8(1<<4 | 3) // version 1, class 3 (string)
	s.PutU8(0)        // padding = null terminate, charset = ASCII
	s.PutU8(0)
	s.PutU8(0)
	s.PutU32(size)
	return s.Bytes()
}

// charBase is the nested base datatype of a variable-length string: a
// single ASCII character.
func charBase() []byte {
	return stringFixedBody(1)
}

func refBody() []byte {
	s := bytesink.NewGrowSink()
	s.PutU8(1<<4 | 7) // version 1, class 7 (reference)
	s.PutU8(0)        // object reference
	s.PutU8(0)
	s.PutU8(0)
	s.PutU32(8)
	return s.Bytes()
}

func vlenBody(size uint32, isString bool, base []byte) []byte {
	s := bytesink.NewGrowSink()
	s.PutU8(1<<4 | 9) // version 1, class 9 (variable-length)
	if isString {
		s.PutU8(1) // type = string, padding = null terminate
	} else {
		s.PutU8(0) // type = sequence
	}
	s.PutU8(0) // character set (only meaningful for vlen strings)
	s.PutU8(0)
	s.PutU32(size)
	s.PutBytes(base)
	return s.Bytes()
}

func compoundBody(size uint32) []byte {
	s := bytesink.NewGrowSink()
	s.PutU8(3<<4 | 6) // version 3, class 6 (compound)
	s.PutU16(2)       // member count
	s.PutU8(0)
	s.PutU32(size)

	s.PutBytes([]byte("ref\x00"))
	s.PutU8(0) // byte offset 0, 1-byte width (size fits in one byte)
	s.PutBytes(refBody())

	s.PutBytes([]byte("idx\x00"))
	s.PutU8(8) // byte offset 8
	s.PutBytes(fixedPointBody(4, false))

	return s.Bytes()
}

// DatatypeBody builds the raw datatype message body for tag. fixedStrLen
// is only consulted for dtype.StrFixed.
func DatatypeBody(tag dtype.Tag, fixedStrLen int) ([]byte, error) {
	size, err := tag.ElementSize(fixedStrLen)
	if err != nil {
		return nil, err
	}

	switch tag {
	case dtype.I8, dtype.I16, dtype.I32, dtype.I64:
		return fixedPointBody(size, true), nil
	case dtype.U8:
		return fixedPointBody(size, false), nil
	case dtype.F32, dtype.F64:
		return floatBody(size), nil
	case dtype.StrFixed:
		return stringFixedBody(size), nil
	case dtype.StrVar:
		return vlenBody(size, true, charBase()), nil
	case dtype.Ref:
		return refBody(), nil
	case dtype.Compound:
		return compoundBody(size), nil
	case dtype.VlenOfRef:
		return vlenBody(size, false, refBody()), nil
	case dtype.VlenOfCompound:
		compoundSize, err := dtype.Compound.ElementSize(0)
		if err != nil {
			return nil, err
		}
		return vlenBody(size, false, compoundBody(compoundSize)), nil
	default:
		return nil, fmt.Errorf("unsupported datatype tag %v", tag)
	}
}
