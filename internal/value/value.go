// Package value implements the dynamic-dispatch-on-value-type design
// called for in spec.md §9: incoming attribute and chunk data arrive as a
// Go interface{} holding a scalar, a typed slice, or a rectangular nested
// typed slice (for n-D chunk writes). Inspect walks the value once,
// determines its element kind and shape, and returns a flat, typed slice
// so the rest of the pipeline dispatches to a single monomorphic encoder
// per kind instead of re-inspecting the runtime type at every layer.
package value

import (
	"fmt"
	"reflect"

	"github.com/scigolib/nc4/internal/dtype"
)

// Kind is the element kind of an ingested Go value, as distinct from
// dtype.Tag: a Kind describes what the caller handed us; a dtype.Tag
// describes what the schema declared. MatchesTag checks the two agree.
type Kind uint8

const (
	KindI8 Kind = iota
	KindU8
	KindI16
	KindI32
	KindI64
	KindF32
	KindF64
	KindString
	kindUnset
)

// MatchesTag reports whether a value of this Kind is an acceptable
// encoding of the declared datatype tag t.
func (k Kind) MatchesTag(t dtype.Tag) bool {
	switch t {
	case dtype.I8:
		return k == KindI8
	case dtype.U8:
		return k == KindU8
	case dtype.I16:
		return k == KindI16
	case dtype.I32:
		return k == KindI32
	case dtype.I64:
		return k == KindI64
	case dtype.F32:
		return k == KindF32
	case dtype.F64:
		return k == KindF64
	case dtype.StrFixed, dtype.StrVar:
		return k == KindString
	default:
		return false
	}
}

func kindFromGoValue(v interface{}) (Kind, error) {
	switch v.(type) {
	case int8:
		return KindI8, nil
	case uint8:
		return KindU8, nil
	case int16:
		return KindI16, nil
	case int32:
		return KindI32, nil
	case int64:
		return KindI64, nil
	case float32:
		return KindF32, nil
	case float64:
		return KindF64, nil
	case string:
		return KindString, nil
	default:
		return 0, fmt.Errorf("unsupported value element type %T", v)
	}
}

// Inspect walks v — a scalar, a typed slice, or a rectangular nested typed
// slice — and returns its element Kind, its shape (nil/empty for a
// scalar), and the row-major-flattened data as a homogeneously typed
// slice ([]int32, []string, ...).
func Inspect(v interface{}) (Kind, []int, interface{}, error) {
	rv := reflect.ValueOf(v)
	var shape []int
	leafKind := kindUnset
	var flat []interface{}

	if err := flattenRec(rv, 0, &shape, &leafKind, &flat); err != nil {
		return 0, nil, nil, err
	}
	if len(flat) == 0 {
		return 0, nil, nil, fmt.Errorf("value has no elements")
	}

	return leafKind, shape, toTyped(leafKind, flat), nil
}

func flattenRec(rv reflect.Value, depth int, shape *[]int, leafKind *Kind, out *[]interface{}) error {
	if rv.Kind() == reflect.Slice {
		n := rv.Len()
		if len(*shape) <= depth {
			*shape = append(*shape, n)
		} else if (*shape)[depth] != n {
			return fmt.Errorf("ragged array: axis %d has length %d, expected %d", depth, n, (*shape)[depth])
		}
		for i := 0; i < n; i++ {
			if err := flattenRec(rv.Index(i), depth+1, shape, leafKind, out); err != nil {
				return err
			}
		}
		return nil
	}

	k, err := kindFromGoValue(rv.Interface())
	if err != nil {
		return err
	}
	if *leafKind == kindUnset {
		*leafKind = k
	} else if *leafKind != k {
		return fmt.Errorf("mixed element types in value: %v and %v", *leafKind, k)
	}
	*out = append(*out, rv.Interface())
	return nil
}

// ToSlice converts a typed slice (as returned by Inspect) into a
// []interface{} for callers that need uniform element-by-element access
// regardless of the underlying Go type (e.g. row-major chunk iteration
// with edge padding).
func ToSlice(typed interface{}) []interface{} {
	rv := reflect.ValueOf(typed)
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func toTyped(kind Kind, vals []interface{}) interface{} {
	switch kind {
	case KindI8:
		out := make([]int8, len(vals))
		for i, v := range vals {
			out[i] = v.(int8)
		}
		return out
	case KindU8:
		out := make([]uint8, len(vals))
		for i, v := range vals {
			out[i] = v.(uint8)
		}
		return out
	case KindI16:
		out := make([]int16, len(vals))
		for i, v := range vals {
			out[i] = v.(int16)
		}
		return out
	case KindI32:
		out := make([]int32, len(vals))
		for i, v := range vals {
			out[i] = v.(int32)
		}
		return out
	case KindI64:
		out := make([]int64, len(vals))
		for i, v := range vals {
			out[i] = v.(int64)
		}
		return out
	case KindF32:
		out := make([]float32, len(vals))
		for i, v := range vals {
			out[i] = v.(float32)
		}
		return out
	case KindF64:
		out := make([]float64, len(vals))
		for i, v := range vals {
			out[i] = v.(float64)
		}
		return out
	case KindString:
		out := make([]string, len(vals))
		for i, v := range vals {
			out[i] = v.(string)
		}
		return out
	default:
		return nil
	}
}
