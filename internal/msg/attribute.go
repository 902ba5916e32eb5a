package msg

import (
	"fmt"

	"github.com/scigolib/nc4/internal/bytesink"
	"github.com/scigolib/nc4/internal/dtype"
	"github.com/scigolib/nc4/internal/heap"
)

// AttrValue holds everything needed to serialize one attribute: its
// declared type, its dataspace shape, and its data. Exactly one data
// field is populated, matching Tag.
type AttrValue struct {
	Tag         dtype.Tag
	Dims        []uint64 // nil only ever appears on variables, never attributes; attributes are always scalar (Dims == []uint64{}) or 1-D
	FixedStrLen int      // consulted only when Tag == dtype.StrFixed

	Heap *heap.GlobalHeap // required when Tag is StrVar, VlenOfRef, or VlenOfCompound

	Numeric             interface{} // []int8/[]uint8/.../[]float64, for plain numeric tags
	FixedStrings        []string    // for StrFixed
	VarStrings          []string    // for StrVar
	Refs                []Addressable
	DimensionListRows   [][]Addressable     // for VlenOfRef (DIMENSION_LIST): one row per variable axis
	ReferenceListGroups [][]CompoundRefEntry // for VlenOfCompound (REFERENCE_LIST): always exactly one group
}

func (av AttrValue) writeData(sink bytesink.Sink) error {
	switch av.Tag {
	case dtype.I8, dtype.U8, dtype.I16, dtype.I32, dtype.I64, dtype.F32, dtype.F64:
		return WriteNumeric(sink, av.Tag, av.Numeric)
	case dtype.StrFixed:
		WriteFixedStrings(sink, av.FixedStrings, av.FixedStrLen)
		return nil
	case dtype.StrVar:
		if av.Heap == nil {
			return fmt.Errorf("vlen string attribute requires a global heap")
		}
		WriteVlenStrings(sink, av.Heap, av.VarStrings)
		return nil
	case dtype.Ref:
		WriteRefs(sink, av.Refs)
		return nil
	case dtype.VlenOfRef:
		if av.Heap == nil {
			return fmt.Errorf("DIMENSION_LIST attribute requires a global heap")
		}
		WriteVlenOfRefRows(sink, av.Heap, av.DimensionListRows)
		return nil
	case dtype.VlenOfCompound:
		if av.Heap == nil {
			return fmt.Errorf("REFERENCE_LIST attribute requires a global heap")
		}
		WriteVlenCompoundGroups(sink, av.Heap, av.ReferenceListGroups)
		return nil
	default:
		return fmt.Errorf("attribute type %v is not supported", av.Tag)
	}
}

// AttributeBody builds the raw body of a version-3 Attribute message
// (tag 12): name size, datatype size, dataspace size, character set, then
// the name, the nested datatype message, the nested dataspace message,
// and finally the attribute's data.
func AttributeBody(name string, av AttrValue) ([]byte, error) {
	dtBody, err := DatatypeBody(av.Tag, av.FixedStrLen)
	if err != nil {
		return nil, fmt.Errorf("attribute %q datatype: %w", name, err)
	}
	dsBody := DataspaceBody(av.Dims)

	nameBytes := append([]byte(name), 0)

	data := bytesink.NewGrowSink()
	if err := av.writeData(data); err != nil {
		return nil, fmt.Errorf("attribute %q data: %w", name, err)
	}

	s := bytesink.NewGrowSink()
	s.PutU8(3) // version
	s.PutU8(0) // flags
	s.PutU16(uint16(len(nameBytes))) //nolint:gosec // attribute names are short
	s.PutU16(uint16(len(dtBody)))    //nolint:gosec // datatype messages are small
	s.PutU16(uint16(len(dsBody)))    //nolint:gosec // dataspace messages are small
	s.PutU8(0)                       // character set: ASCII
	s.PutBytes(nameBytes)
	s.PutBytes(dtBody)
	s.PutBytes(dsBody)
	s.PutBytes(data.Bytes())
	return s.Bytes(), nil
}
