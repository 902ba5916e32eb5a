package nc4

import "github.com/scigolib/nc4/internal/dtype"

// DType identifies the on-disk element type of a variable: one of the
// fixed set of numeric and string kinds NetCDF-4 needs (spec.md §3).
type DType = dtype.Tag

// The element types a variable or attribute may declare.
const (
	Int8        = dtype.I8
	Uint8       = dtype.U8
	Int16       = dtype.I16
	Int32       = dtype.I32
	Int64       = dtype.I64
	Float32     = dtype.F32
	Float64     = dtype.F64
	StringFixed = dtype.StrFixed // fixed-length ASCII string, sized per-variable
	StringVar   = dtype.StrVar   // variable-length ASCII string, stored via the global heap
)
