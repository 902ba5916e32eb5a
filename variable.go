package nc4

import (
	"fmt"

	"github.com/scigolib/nc4/internal/object"
)

// Variable is a NetCDF-4 variable: a named, typed, dimensioned dataset
// (spec.md §3). Obtained from Group.CreateVariable.
type Variable struct {
	name  string
	obj   *object.Dataset
	dims  []*Dimension
	group *Group
}

// Name returns the variable's name.
func (v *Variable) Name() string { return v.name }

// Addr implements msg.Addressable, so a Variable can be referenced
// directly from a DIMENSION_LIST or REFERENCE_LIST attribute.
func (v *Variable) Addr() uint64 { return v.obj.Addr() }

// CreateAttribute attaches a scalar or 1-D attribute to v. Valid only
// before EndDefine.
func (v *Variable) CreateAttribute(name string, val interface{}) error {
	if err := validateName("attribute", name); err != nil {
		return err
	}
	if v.group.fw.state != stateDefining {
		return ErrNotDefining
	}
	av, err := buildAttrValue(val, v.group.fw.fileHeap)
	if err != nil {
		return fmt.Errorf("variable %q: %w", v.name, err)
	}
	v.obj.Attrs = append(v.obj.Attrs, object.AttrEntry{Name: name, Value: av})
	return nil
}

// WriteChunk writes one chunk of a chunked variable (startIxs giving each
// axis's chunk-aligned start index), or, for a variable with contiguous
// storage, the variable's entire data in a single call with startIxs ==
// nil. Valid only after EndDefine and before Close.
func (v *Variable) WriteChunk(startIxs []uint64, val interface{}) error {
	fw := v.group.fw
	if fw.state != stateWriting {
		return ErrNotWriting
	}
	return v.obj.WriteChunk(fw.f, &fw.eofAddr, startIxs, val)
}
