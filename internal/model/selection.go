package model

import (
	"maps"
	"slices"
	"strings"
)

// Selection is one of *RangeSelection, *NodeSelection or *GridSelection.
type Selection interface {
	// Clone returns an independent copy.
	Clone() Selection

	// Is reports whether two selections are equal.
	Is(other Selection) bool

	// Nodes returns the selected nodes in document order.
	Nodes(r Reader) []*Node

	// TextContent returns the selected text.
	TextContent(r Reader) string
}

func selectionsEqual(a, b Selection) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Is(b)
}

// RangeSelection is a caret or a range between two points. Format and Style
// apply to text typed at a collapsed caret.
type RangeSelection struct {
	Anchor Point
	Focus  Point
	Format TextFormat
	Style  string
}

// NewRangeSelection returns a range from anchor to focus.
func NewRangeSelection(anchor, focus Point) *RangeSelection {
	return &RangeSelection{Anchor: anchor, Focus: focus}
}

// Clone implements Selection.
func (s *RangeSelection) Clone() Selection {
	c := *s
	return &c
}

// Is implements Selection.
func (s *RangeSelection) Is(other Selection) bool {
	o, ok := other.(*RangeSelection)
	return ok && *s == *o
}

// IsCollapsed reports whether anchor and focus are the same point.
func (s *RangeSelection) IsCollapsed() bool {
	return s.Anchor.Is(s.Focus)
}

// IsBackward reports whether the focus comes before the anchor.
func (s *RangeSelection) IsBackward(r Reader) bool {
	return s.Focus.IsBefore(r, s.Anchor)
}

// StartEnd returns the anchor and focus in document order.
func (s *RangeSelection) StartEnd(r Reader) (Point, Point) {
	if s.IsBackward(r) {
		return s.Focus, s.Anchor
	}
	return s.Anchor, s.Focus
}

// HasFormat reports whether text typed at the caret gets flag.
func (s *RangeSelection) HasFormat(flag TextFormat) bool {
	return s.Format.Has(flag)
}

// ToggleFormat flips flag in the typing format.
func (s *RangeSelection) ToggleFormat(flag TextFormat) {
	s.Format = s.Format.Toggle(flag)
}

// Nodes implements Selection. A collapsed selection returns the node under
// the caret.
func (s *RangeSelection) Nodes(r Reader) []*Node {
	start, end := s.StartEnd(r)
	first, _ := resolveLeaf(r, start)
	if first == nil {
		return nil
	}
	if s.IsCollapsed() {
		return []*Node{first}
	}
	last, _ := resolveLeaf(r, end)
	if last == nil {
		return nil
	}
	return first.NodesBetween(r, last)
}

// TextContent implements Selection. Text nodes at either end contribute
// only their selected part.
func (s *RangeSelection) TextContent(r Reader) string {
	if s.IsCollapsed() {
		return ""
	}
	start, end := s.StartEnd(r)
	var sb strings.Builder
	wrote := false
	for _, n := range s.Nodes(r) {
		switch n.kind {
		case KindText:
			runes := []rune(n.text)
			from, to := 0, len(runes)
			if n.key == start.Key && start.Type == PointText {
				from = min(start.Offset, to)
			}
			if n.key == end.Key && end.Type == PointText {
				to = max(from, min(end.Offset, to))
			}
			sb.WriteString(string(runes[from:to]))
			wrote = true
		case KindLineBreak:
			sb.WriteByte('\n')
			wrote = true
		case KindElement:
			if wrote && !classOf(r, n).Inline && !isContainer(r, n) {
				sb.WriteByte('\n')
			}
		}
	}
	return sb.String()
}

// NodeSelection is a set of selected nodes.
type NodeSelection struct {
	keys map[Key]struct{}
}

// NewNodeSelection returns a selection of keys.
func NewNodeSelection(keys ...Key) *NodeSelection {
	s := &NodeSelection{keys: make(map[Key]struct{}, len(keys))}
	for _, k := range keys {
		s.keys[k] = struct{}{}
	}
	return s
}

// Add selects key.
func (s *NodeSelection) Add(key Key) {
	if s.keys == nil {
		s.keys = make(map[Key]struct{})
	}
	s.keys[key] = struct{}{}
}

// Delete deselects key.
func (s *NodeSelection) Delete(key Key) {
	delete(s.keys, key)
}

// Has reports whether key is selected.
func (s *NodeSelection) Has(key Key) bool {
	_, ok := s.keys[key]
	return ok
}

// Clear deselects everything.
func (s *NodeSelection) Clear() {
	clear(s.keys)
}

// Keys returns the selected keys in sorted order.
func (s *NodeSelection) Keys() []Key {
	return slices.Sorted(maps.Keys(s.keys))
}

// Len returns the number of selected nodes.
func (s *NodeSelection) Len() int {
	return len(s.keys)
}

// Clone implements Selection.
func (s *NodeSelection) Clone() Selection {
	return &NodeSelection{keys: maps.Clone(s.keys)}
}

// Is implements Selection.
func (s *NodeSelection) Is(other Selection) bool {
	o, ok := other.(*NodeSelection)
	if !ok || len(o.keys) != len(s.keys) {
		return false
	}
	for k := range s.keys {
		if !o.Has(k) {
			return false
		}
	}
	return true
}

// Nodes implements Selection.
func (s *NodeSelection) Nodes(r Reader) []*Node {
	var out []*Node
	for k := range s.keys {
		if n := r.NodeByKey(k); n != nil {
			out = append(out, n)
		}
	}
	sortDocumentOrder(r, out)
	return out
}

// TextContent implements Selection.
func (s *NodeSelection) TextContent(r Reader) string {
	var sb strings.Builder
	for _, n := range s.Nodes(r) {
		sb.WriteString(n.TextContent(r))
	}
	return sb.String()
}

func sortDocumentOrder(r Reader, nodes []*Node) {
	paths := make(map[Key][]int, len(nodes))
	for _, n := range nodes {
		paths[n.key] = n.path(r)
	}
	slices.SortStableFunc(nodes, func(a, b *Node) int {
		return comparePaths(paths[a.key], paths[b.key])
	})
}

// GridSelection selects a rectangle of cells in a grid. Anchor and Focus
// are the keys of the cells where the selection started and ended.
type GridSelection struct {
	GridKey Key
	Anchor  Key
	Focus   Key
}

// GridShape is a normalized cell rectangle. X counts cells within a row and
// Y counts rows.
type GridShape struct {
	FromX, FromY int
	ToX, ToY     int
}

// NewGridSelection returns a selection spanning two cells of a grid.
func NewGridSelection(grid, anchor, focus Key) *GridSelection {
	return &GridSelection{GridKey: grid, Anchor: anchor, Focus: focus}
}

// Clone implements Selection.
func (s *GridSelection) Clone() Selection {
	c := *s
	return &c
}

// Is implements Selection.
func (s *GridSelection) Is(other Selection) bool {
	o, ok := other.(*GridSelection)
	return ok && *s == *o
}

// cellCoords returns the x and y of a cell within s's grid.
func (s *GridSelection) cellCoords(r Reader, key Key) (int, int, bool) {
	cell := r.NodeByKey(key)
	if cell == nil {
		return 0, 0, false
	}
	row := cell.Parent(r)
	if row == nil {
		return 0, 0, false
	}
	grid := row.Parent(r)
	if grid == nil || grid.key != s.GridKey {
		return 0, 0, false
	}
	return cell.IndexWithinParent(r), row.IndexWithinParent(r), true
}

// Shape returns the selected rectangle with From before To on both axes,
// whichever direction the selection was made in.
func (s *GridSelection) Shape(r Reader) (GridShape, bool) {
	ax, ay, ok := s.cellCoords(r, s.Anchor)
	if !ok {
		return GridShape{}, false
	}
	fx, fy, ok := s.cellCoords(r, s.Focus)
	if !ok {
		return GridShape{}, false
	}
	return GridShape{
		FromX: min(ax, fx), FromY: min(ay, fy),
		ToX: max(ax, fx), ToY: max(ay, fy),
	}, true
}

// IsBackward reports whether the focus cell comes before the anchor cell.
func (s *GridSelection) IsBackward(r Reader) bool {
	a, f := r.NodeByKey(s.Anchor), r.NodeByKey(s.Focus)
	if a == nil || f == nil {
		return false
	}
	return f.IsBefore(r, a)
}

// Nodes implements Selection. It returns the cells inside the shape and
// their descendants, in document order.
func (s *GridSelection) Nodes(r Reader) []*Node {
	shape, ok := s.Shape(r)
	if !ok {
		return nil
	}
	grid := r.NodeByKey(s.GridKey)
	var out []*Node
	for y, row := range grid.Children(r) {
		if y < shape.FromY || y > shape.ToY {
			continue
		}
		for x, cell := range row.Children(r) {
			if x < shape.FromX || x > shape.ToX {
				continue
			}
			Walk(r, cell, func(n *Node) bool {
				out = append(out, n)
				return true
			})
		}
	}
	return out
}

// TextContent implements Selection. Cells are separated by tabs and rows by
// newlines.
func (s *GridSelection) TextContent(r Reader) string {
	shape, ok := s.Shape(r)
	if !ok {
		return ""
	}
	grid := r.NodeByKey(s.GridKey)
	var rows []string
	for y, row := range grid.Children(r) {
		if y < shape.FromY || y > shape.ToY {
			continue
		}
		var cells []string
		for x, cell := range row.Children(r) {
			if x >= shape.FromX && x <= shape.ToX {
				cells = append(cells, cell.TextContent(r))
			}
		}
		rows = append(rows, strings.Join(cells, "\t"))
	}
	return strings.Join(rows, "\n")
}

// repairSelection clamps stale points or clears a selection that no longer
// addresses the tree.
func (tx *Tx) repairSelection() {
	cache := make(map[Key]bool)
	switch sel := tx.selection.(type) {
	case *RangeSelection:
		if sel == nil {
			tx.selection = nil
			return
		}
		for _, p := range []*Point{&sel.Anchor, &sel.Focus} {
			n := tx.nodes.Get(p.Key)
			if n == nil || !tx.attached(p.Key, cache) ||
				(p.Type == PointText) != (n.kind == KindText) || (p.Type == PointElement) != (n.kind == KindElement) {
				tx.selection = nil
				return
			}
			p.Offset = max(0, min(p.Offset, n.size()))
		}
	case *NodeSelection:
		for _, k := range sel.Keys() {
			if !tx.nodes.Has(k) || !tx.attached(k, cache) {
				sel.Delete(k)
			}
		}
		if sel.Len() == 0 {
			tx.selection = nil
		}
	case *GridSelection:
		if _, ok := sel.Shape(tx); !ok {
			tx.selection = nil
		}
	}
}
