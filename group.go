package nc4

import (
	"fmt"

	"github.com/scigolib/nc4/internal/dtype"
	"github.com/scigolib/nc4/internal/object"
)

// Group is a NetCDF-4 group: a named container of dimensions, variables,
// attributes, and child groups (spec.md §3). The file's root group is
// obtained from FileWriter.Root.
type Group struct {
	name   string
	fw     *FileWriter
	obj    *object.Group
	parent *Group

	dims   map[string]*Dimension
	vars   map[string]*Variable
	groups map[string]*Group
}

func newGroup(fw *FileWriter, name string, parent *Group) *Group {
	return &Group{
		name:   name,
		fw:     fw,
		obj:    &object.Group{Name: name},
		parent: parent,
		dims:   make(map[string]*Dimension),
		vars:   make(map[string]*Variable),
		groups: make(map[string]*Group),
	}
}

// Name returns the group's name.
func (g *Group) Name() string { return g.name }

// Addr implements msg.Addressable.
func (g *Group) Addr() uint64 { return g.obj.Addr() }

// CreateGroup creates a named child group. Valid only before EndDefine.
func (g *Group) CreateGroup(name string) (*Group, error) {
	if err := validateName("group", name); err != nil {
		return nil, err
	}
	if g.fw.state != stateDefining {
		return nil, ErrNotDefining
	}
	if _, exists := g.groups[name]; exists {
		return nil, fmt.Errorf("nc4: group %q already exists", name)
	}
	if _, exists := g.vars[name]; exists {
		return nil, fmt.Errorf("nc4: a variable named %q already exists in this group", name)
	}
	child := newGroup(g.fw, name, g)
	g.groups[name] = child
	g.obj.Children = append(g.obj.Children, child.obj)
	return child, nil
}

// CreateDimension declares a named axis length, visible to variables in
// this group and any descendant group. Valid only before EndDefine.
func (g *Group) CreateDimension(name string, length uint64) (*Dimension, error) {
	if err := validateName("dimension", name); err != nil {
		return nil, err
	}
	if g.fw.state != stateDefining {
		return nil, ErrNotDefining
	}
	if length == 0 {
		return nil, fmt.Errorf("nc4: dimension %q must have a positive length", name)
	}
	if _, exists := g.dims[name]; exists {
		return nil, fmt.Errorf("nc4: dimension %q already exists", name)
	}
	d := &Dimension{Name: name, Length: length}
	g.dims[name] = d
	return d, nil
}

// lookupDimension searches this group, then its ancestors, for a
// dimension named name.
func (g *Group) lookupDimension(name string) (*Dimension, bool) {
	for cur := g; cur != nil; cur = cur.parent {
		if d, ok := cur.dims[name]; ok {
			return d, true
		}
	}
	return nil, false
}

// CreateVariable declares a variable of the given type over dimNames.
// dimNames distinguishes three shapes: nil declares a "no-data" variable
// that carries attributes only and can never be written to; a non-nil but
// empty slice declares a scalar; a populated slice declares a shaped
// variable, one entry per axis. chunkDims is nil for contiguous storage,
// else one entry per axis; compression is a DEFLATE level from 1 to 9, or
// 0 for none. Scalars and no-data variables cannot be chunked or
// compressed. Valid only before EndDefine. If name matches the name of
// one of the variable's own dimensions and the variable is rank-1, the
// new variable becomes that dimension's coordinate variable.
func (g *Group) CreateVariable(name string, tag dtype.Tag, fixedStrLen int, dimNames []string, chunkDims []uint32, compression int) (*Variable, error) {
	if err := validateName("variable", name); err != nil {
		return nil, err
	}
	if g.fw.state != stateDefining {
		return nil, ErrNotDefining
	}
	if _, exists := g.vars[name]; exists {
		return nil, fmt.Errorf("nc4: variable %q already exists", name)
	}
	if _, exists := g.groups[name]; exists {
		return nil, fmt.Errorf("nc4: a group named %q already exists in this group", name)
	}

	var dims []*Dimension
	var shapeDims []uint64
	switch {
	case dimNames == nil:
		shapeDims = nil
	case len(dimNames) == 0:
		shapeDims = []uint64{}
	default:
		shapeDims = make([]uint64, len(dimNames))
		dims = make([]*Dimension, len(dimNames))
		for i, dn := range dimNames {
			d, ok := g.lookupDimension(dn)
			if !ok {
				return nil, fmt.Errorf("nc4: variable %q references undeclared dimension %q", name, dn)
			}
			dims[i] = d
			shapeDims[i] = d.Length
		}
	}

	obj, err := object.New(name, tag, fixedStrLen, shapeDims, chunkDims, compression)
	if err != nil {
		return nil, err
	}

	v := &Variable{name: name, obj: obj, dims: dims, group: g}
	g.vars[name] = v
	g.obj.Vars = append(g.obj.Vars, obj)

	if len(dims) == 1 && dims[0].Name == name {
		dims[0].coordVar = v
	} else {
		for axis, d := range dims {
			d.refs = append(d.refs, dimRef{v: v, axis: uint32(axis)}) //nolint:gosec // axis counts are small
		}
	}

	return v, nil
}

// CreateAttribute attaches a scalar or 1-D attribute to g. Valid only
// before EndDefine.
func (g *Group) CreateAttribute(name string, val interface{}) error {
	if err := validateName("attribute", name); err != nil {
		return err
	}
	if g.fw.state != stateDefining {
		return ErrNotDefining
	}
	av, err := buildAttrValue(val, g.fw.fileHeap)
	if err != nil {
		return fmt.Errorf("group %q: %w", g.name, err)
	}
	g.obj.Attrs = append(g.obj.Attrs, object.AttrEntry{Name: name, Value: av})
	return nil
}
