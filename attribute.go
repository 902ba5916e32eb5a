package nc4

import (
	"fmt"

	"github.com/scigolib/nc4/internal/dtype"
	"github.com/scigolib/nc4/internal/heap"
	"github.com/scigolib/nc4/internal/msg"
	"github.com/scigolib/nc4/internal/value"
)

// numericTags maps a value.Kind to the dtype.Tag it's stored as;
// populated for every Kind but KindString, which needs shape-dependent
// handling (scalar -> fixed string, array -> vlen via the file heap).
var numericTags = map[value.Kind]dtype.Tag{
	value.KindI8:  dtype.I8,
	value.KindU8:  dtype.U8,
	value.KindI16: dtype.I16,
	value.KindI32: dtype.I32,
	value.KindI64: dtype.I64,
	value.KindF32: dtype.F32,
	value.KindF64: dtype.F64,
}

// buildAttrValue ingests a scalar or 1-D Go value into a msg.AttrValue,
// per spec.md §4.4's attribute model: a scalar string becomes a
// fixed-length string attribute sized to its own length; a string array
// becomes a variable-length attribute whose payload lives in gh; any
// numeric scalar or array is stored directly by kind.
func buildAttrValue(val interface{}, gh *heap.GlobalHeap) (msg.AttrValue, error) {
	kind, shape, flat, err := value.Inspect(val)
	if err != nil {
		return msg.AttrValue{}, err
	}
	if len(shape) > 1 {
		return msg.AttrValue{}, fmt.Errorf("nc4: attribute values must be scalar or 1-D, got shape %v", shape)
	}

	var dims []uint64
	if len(shape) == 1 {
		dims = []uint64{uint64(shape[0])} //nolint:gosec // attribute arrays are small
	} else {
		dims = []uint64{}
	}

	if kind == value.KindString {
		strs := flat.([]string) //nolint:forcetypeassert // Inspect guarantees this for KindString
		if len(shape) == 0 {
			return msg.AttrValue{Tag: dtype.StrFixed, Dims: dims, FixedStrLen: len(strs[0]), FixedStrings: strs}, nil
		}
		return msg.AttrValue{Tag: dtype.StrVar, Dims: dims, Heap: gh, VarStrings: strs}, nil
	}

	tag, ok := numericTags[kind]
	if !ok {
		return msg.AttrValue{}, fmt.Errorf("nc4: unsupported attribute value kind %v", kind)
	}
	return msg.AttrValue{Tag: tag, Dims: dims, Numeric: flat}, nil
}
