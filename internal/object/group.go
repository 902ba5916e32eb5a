package object

import (
	"fmt"

	"github.com/scigolib/nc4/internal/bytesink"
	"github.com/scigolib/nc4/internal/msg"
)

// Group is the in-memory model of an HDF5 group object (spec.md §4.6): a
// NetCDF-4 group or the file's root group, holding child groups,
// variables, and attributes.
type Group struct {
	Name     string
	Children []*Group
	Vars     []*Dataset
	Attrs    []AttrEntry

	// BlkPosition is this group's object-header address, fixed during
	// pass 1 of the metadata layout.
	BlkPosition uint64
}

// Addr implements msg.Addressable.
func (g *Group) Addr() uint64 { return g.BlkPosition }

// Format assembles this group's link-info/group-info/attribute-info/link
// and attribute messages into an object header in sink, then recurses
// depth-first into every child group and variable, appending each in
// turn. A child's link message embeds child.Addr(): during pass 1 this is
// 0 for any child not yet formatted (fine, since pass 1 only sizes the
// buffer); during pass 2 every child already has its final address from
// pass 1's complete traversal, so the value is always correct here
// regardless of the order children are visited in.
func (g *Group) Format(sink *bytesink.GrowSink, timestamp uint32) error {
	messages := [][]byte{
		wrapMsg(msg.TypeModTime, msg.ModTimeBody(timestamp)),
		wrapMsg(msg.TypeAttrInfo, msg.AttrInfoBody(true)),
		wrapMsg(msg.TypeGroupInfo, msg.GroupInfoBody()),
		wrapMsg(msg.TypeLinkInfo, msg.LinkInfoBody(true)),
	}

	var order uint64
	for _, child := range g.Children {
		messages = append(messages, wrapMsg(msg.TypeLink, msg.LinkBody(child.Name, child.Addr(), order)))
		order++
	}
	for _, v := range g.Vars {
		messages = append(messages, wrapMsg(msg.TypeLink, msg.LinkBody(v.Name, v.Addr(), order)))
		order++
	}

	for i, a := range g.Attrs {
		body, err := msg.AttributeBody(a.Name, a.Value)
		if err != nil {
			return fmt.Errorf("group %q: %w", g.Name, err)
		}
		s := bytesink.NewGrowSink()
		msg.Wrap(s, msg.TypeAttribute, 0, true, uint16(i), body) //nolint:gosec // attribute counts per object are small
		messages = append(messages, s.Bytes())
	}

	g.BlkPosition = FormatObjectHeaderV2(sink, timestamp, true, messages)

	for _, child := range g.Children {
		if err := child.Format(sink, timestamp); err != nil {
			return err
		}
	}
	for _, v := range g.Vars {
		if err := v.Format(sink, timestamp); err != nil {
			return fmt.Errorf("group %q: %w", g.Name, err)
		}
	}
	return nil
}
