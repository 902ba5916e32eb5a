// Package dtype defines the fixed set of NetCDF-4/HDF5 datatype tags this
// serializer understands and the on-disk element sizes associated with
// them.
package dtype

import "fmt"

// Tag identifies one of the datatype kinds this module can serialize.
// This is a closed set matching spec.md's data model exactly: there is no
// general-purpose HDF5 datatype support beyond what NetCDF-4 needs.
type Tag uint8

const (
	I8 Tag = iota
	U8
	I16
	I32
	I64
	F32
	F64
	StrFixed  // fixed-length ASCII string, element length is per-variable
	StrVar    // variable-length ASCII string, stored via the global heap
	Ref       // 8-byte object reference
	Compound  // fixed {reference, uint32} pair, only used for REFERENCE_LIST entries
	VlenOfRef // variable-length array of Ref, only used for DIMENSION_LIST rows

	// VlenOfCompound is a variable-length array of Compound records, the
	// datatype of the REFERENCE_LIST attribute: one heap item per
	// dimension-scale dataset, holding every {dataset-ref, axis-index}
	// pair that references it.
	VlenOfCompound
)

// String returns a short human-readable name, used in error messages.
func (t Tag) String() string {
	switch t {
	case I8:
		return "int8"
	case U8:
		return "uint8"
	case I16:
		return "int16"
	case I32:
		return "int32"
	case I64:
		return "int64"
	case F32:
		return "float32"
	case F64:
		return "float64"
	case StrFixed:
		return "string(fixed)"
	case StrVar:
		return "string(vlen)"
	case Ref:
		return "reference"
	case Compound:
		return "compound{reference,uint32}"
	case VlenOfRef:
		return "vlen(reference)"
	case VlenOfCompound:
		return "vlen(compound{reference,uint32})"
	default:
		return fmt.Sprintf("tag(%d)", uint8(t))
	}
}

// refRecordSize is the on-disk size of a single variable-length heap
// reference record: length (4 bytes) + heap collection address (8 bytes)
// + item index (4 bytes).
const refRecordSize = 16

// ElementSize returns the number of bytes a single element of this type
// occupies in contiguous or chunked raw data (and in a fixed-shape
// attribute's data). fixedStrLen is only consulted for StrFixed.
func (t Tag) ElementSize(fixedStrLen int) (uint32, error) {
	switch t {
	case I8, U8:
		return 1, nil
	case I16:
		return 2, nil
	case I32, F32:
		return 4, nil
	case I64, F64:
		return 8, nil
	case StrFixed:
		if fixedStrLen <= 0 {
			return 0, fmt.Errorf("fixed-length string type requires a positive element length, got %d", fixedStrLen)
		}
		return uint32(fixedStrLen), nil //nolint:gosec // validated positive above, caller bounds it
	case StrVar, VlenOfRef, VlenOfCompound:
		return refRecordSize, nil
	case Ref:
		return 8, nil
	case Compound:
		return 12, nil // 8-byte reference + 4-byte uint32
	default:
		return 0, fmt.Errorf("unknown datatype tag %d", uint8(t))
	}
}

// IsNumeric reports whether t is one of the plain numeric kinds.
func (t Tag) IsNumeric() bool {
	switch t {
	case I8, U8, I16, I32, I64, F32, F64:
		return true
	default:
		return false
	}
}

// Compressible reports whether chunked+DEFLATE storage is permitted for
// this type. Variable-length string payloads are never compressed (the
// string bytes live in the uncompressed global heap); only the reference
// records pointing at them may pass through a chunk filter, but since
// StrVar datasets never use chunked/filtered storage in this module (see
// spec.md Non-goals), this simply bars StrVar from compression; chunked
// StrVar storage is rejected separately when the dataset is created.
func (t Tag) Compressible() bool {
	return t != StrVar
}
