package nc4

// Dimension is a named axis length shared by one or more variables
// (spec.md §3). At EndDefine it is realized on disk as a "dimension
// scale" dataset: either the variable the caller declared as its
// coordinate, or (if none was declared) a synthesized placeholder
// dataset of the same length.
type Dimension struct {
	Name   string
	Length uint64

	coordVar    *Variable // the variable sharing this dimension's name, if any
	scaleVar    *Variable // the dataset realizing this dimension's scale on disk
	synthesized bool      // true if scaleVar was created by EndDefine, not the caller
	refs        []dimRef  // every variable axis that references this dimension
}

// dimRef is one {variable, axis} pair contributing to a dimension's
// REFERENCE_LIST.
type dimRef struct {
	v    *Variable
	axis uint32
}
