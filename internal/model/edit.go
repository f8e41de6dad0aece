package model

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// Alter says whether Modify moves the caret or extends the selection.
type Alter uint8

const (
	AlterMove Alter = iota
	AlterExtend
)

// Granularity is the unit Modify and the delete operations step by.
type Granularity uint8

const (
	GranularityCharacter Granularity = iota
	GranularityWord
	GranularityLineBoundary
)

// String returns the granularity name.
func (g Granularity) String() string {
	switch g {
	case GranularityWord:
		return "word"
	case GranularityLineBoundary:
		return "lineboundary"
	default:
		return "character"
	}
}

// collapse places the caret at p and adopts the text format under it.
func (s *RangeSelection) collapse(tx *Tx, p Point) {
	s.Anchor, s.Focus = p, p
	if n := tx.NodeByKey(p.Key); n != nil && n.kind == KindText {
		s.Format = n.format
		s.Style = n.style
	}
	tx.selection = s
}

// leafSize is the addressable size of a resolved leaf. Empty elements stand
// in for leaves of size zero.
func leafSize(n *Node) int {
	switch n.kind {
	case KindText:
		return n.size()
	case KindElement:
		return 0
	default:
		return 1
	}
}

func firstLeaf(r Reader, n *Node) *Node {
	for n.kind == KindElement {
		c := n.FirstChild(r)
		if c == nil {
			return n
		}
		n = c
	}
	return n
}

func lastLeaf(r Reader, n *Node) *Node {
	for n.kind == KindElement {
		c := n.LastChild(r)
		if c == nil {
			return n
		}
		n = c
	}
	return n
}

// resolveLeaf maps a point to the leaf it touches and an offset within it.
func resolveLeaf(r Reader, p Point) (*Node, int) {
	n := r.NodeByKey(p.Key)
	if n == nil {
		return nil, 0
	}
	if p.Type == PointText || n.kind != KindElement {
		return n, p.Offset
	}
	if len(n.children) == 0 {
		return n, 0
	}
	if p.Offset < len(n.children) {
		return firstLeaf(r, n.ChildAt(r, max(0, p.Offset))), 0
	}
	l := lastLeaf(r, n.LastChild(r))
	return l, leafSize(l)
}

// leafPoint converts a leaf position back into a point.
func leafPoint(r Reader, leaf *Node, off int) Point {
	switch leaf.kind {
	case KindText:
		return TextPoint(leaf.key, off)
	case KindElement:
		return ElementPoint(leaf.key, 0)
	default:
		return ElementPoint(leaf.parent, leaf.IndexWithinParent(r)+min(off, 1))
	}
}

// blockLeaves returns the leaves of unit in order. Empty descendant
// elements count as leaves, and an empty unit is its own only leaf.
func blockLeaves(r Reader, unit *Node) []*Node {
	if unit.kind != KindElement {
		return []*Node{unit}
	}
	var out []*Node
	Walk(r, unit, func(n *Node) bool {
		if n.kind != KindElement || (n.key != unit.key && len(n.children) == 0) {
			out = append(out, n)
		}
		return true
	})
	if len(out) == 0 {
		out = append(out, unit)
	}
	return out
}

// adjacentPoint returns the point one granularity step from p. Steps cross
// into the previous or next sibling block but never leave a container. It
// reports false at a boundary.
func adjacentPoint(tx *Tx, p Point, backward bool, gran Granularity) (Point, bool) {
	n := tx.NodeByKey(p.Key)
	if n == nil {
		return Point{}, false
	}
	if p.Type == PointElement && isContainer(tx, n) {
		return containerStep(tx, n, p.Offset, backward)
	}
	leaf, off := resolveLeaf(tx, p)
	unit := block(tx, leaf)
	if unit == nil {
		unit = leaf
	}
	leaves := blockLeaves(tx, unit)
	i := max(0, slices.IndexFunc(leaves, func(l *Node) bool { return l.key == leaf.key }))
	off = max(0, min(off, leafSize(leaves[i])))

	if gran == GranularityLineBoundary {
		if backward {
			if i == 0 && off == 0 {
				return Point{}, false
			}
			return tx.pointAtStart(unit), true
		}
		last := len(leaves) - 1
		if i == last && off == leafSize(leaves[last]) {
			return Point{}, false
		}
		return tx.pointAfter(unit), true
	}

	seg := tx.segmenter
	for {
		l := leaves[i]
		if backward {
			if off > 0 {
				if l.kind != KindText {
					return leafPoint(tx, l, 0), true
				}
				var no int
				switch {
				case l.IsToken() || l.IsInert():
					no = 0
				case gran == GranularityWord:
					no = seg.PreviousWord(l.text, off)
					if no >= off {
						no = seg.PreviousCharacter(l.text, off)
					}
				default:
					no = seg.PreviousCharacter(l.text, off)
				}
				return TextPoint(l.key, no), true
			}
			if i == 0 {
				return crossBlock(tx, unit, true)
			}
			i--
			off = leafSize(leaves[i])
			continue
		}

		size := leafSize(l)
		if off < size {
			if l.kind != KindText {
				return leafPoint(tx, l, 1), true
			}
			var no int
			switch {
			case l.IsToken() || l.IsInert():
				no = size
			case gran == GranularityWord:
				no = seg.NextWord(l.text, off)
				if no <= off {
					no = seg.NextCharacter(l.text, off)
				}
			default:
				no = seg.NextCharacter(l.text, off)
			}
			return TextPoint(l.key, no), true
		}
		if i == len(leaves)-1 {
			return crossBlock(tx, unit, false)
		}
		i++
		off = 0
	}
}

// crossBlock returns the point at the near edge of the sibling block, or
// reports false when unit has no sibling in that direction.
func crossBlock(tx *Tx, unit *Node, backward bool) (Point, bool) {
	var sib *Node
	if backward {
		sib = unit.PreviousSibling(tx)
	} else {
		sib = unit.NextSibling(tx)
	}
	if sib == nil {
		return Point{}, false
	}
	if sib.kind == KindElement {
		if backward {
			return tx.pointAfter(sib), true
		}
		return tx.pointAtStart(sib), true
	}
	idx := sib.IndexWithinParent(tx)
	if backward {
		return ElementPoint(sib.parent, idx), true
	}
	return ElementPoint(sib.parent, idx+1), true
}

// containerStep moves an element point that sits between blocks.
func containerStep(tx *Tx, c *Node, off int, backward bool) (Point, bool) {
	if backward {
		if off <= 0 {
			return Point{}, false
		}
		child := c.ChildAt(tx, off-1)
		if child.kind == KindElement {
			return tx.pointAfter(child), true
		}
		return ElementPoint(c.key, off-1), true
	}
	if off >= len(c.children) {
		return Point{}, false
	}
	child := c.ChildAt(tx, off)
	if child.kind == KindElement {
		return tx.pointAtStart(child), true
	}
	return ElementPoint(c.key, off+1), true
}

// deleteRange removes the content between start and end, which must be in
// document order, joins the blocks at either end and collapses the
// selection where the range began.
func (s *RangeSelection) deleteRange(tx *Tx, start, end Point) {
	l1, o1 := resolveLeaf(tx, start)
	l2, o2 := resolveLeaf(tx, end)
	if l1 == nil || l2 == nil {
		return
	}
	if l1.key == l2.key {
		s.collapse(tx, deleteWithinLeaf(tx, l1, o1, o2))
		return
	}

	b1, b2 := block(tx, l1), block(tx, l2)
	keep := make(map[Key]bool)
	for _, n := range append(l1.Parents(tx), l2.Parents(tx)...) {
		keep[n.key] = true
	}
	between := l1.NodesBetween(tx, l2)
	for _, n := range between[1 : len(between)-1] {
		if keep[n.key] || !n.IsAttached(tx) {
			continue
		}
		n.Remove(tx, true)
	}

	l2Text := false
	switch {
	case l2.kind == KindText && (l2.IsToken() || l2.IsInert()) && o2 > 0:
		l2.Remove(tx, true)
	case l2.kind == KindText:
		l2.SpliceText(tx, 0, o2, "", false)
		l2Text = true
	case l2.kind != KindElement && o2 > 0:
		l2.Remove(tx, true)
	}

	var collapse Point
	l1Removed := false
	switch {
	case l1.kind == KindText && (l1.IsToken() || l1.IsInert()) && o1 < l1.size():
		collapse = tx.pointBefore(l1)
		l1.Remove(tx, true)
		l1Removed = true
	case l1.kind == KindText:
		l1.SpliceText(tx, o1, l1.size()-o1, "", false)
		collapse = TextPoint(l1.key, o1)
	case l1.kind == KindElement:
		collapse = ElementPoint(l1.key, 0)
	case o1 == 0:
		collapse = tx.pointBefore(l1)
		l1.Remove(tx, true)
		l1Removed = true
	default:
		collapse = ElementPoint(l1.Latest(tx).parent, l1.IndexWithinParent(tx)+1)
	}
	if l1Removed && b1 == nil && l2Text {
		collapse = TextPoint(l2.key, 0)
	}

	if b1 != nil && b2 != nil && b1.key != b2.key {
		b1, b2 = b1.Latest(tx), b2.Latest(tx)
		if b1.IsAttached(tx) && b2.IsAttached(tx) && !b1.IsParentOf(tx, b2) && !b2.IsParentOf(tx, b1) {
			if kids := b2.Children(tx); len(kids) > 0 {
				b1.Append(tx, kids...)
			}
			b2.Remove(tx, false)
		}
	}
	s.collapse(tx, collapse)
}

// deleteWithinLeaf removes [o1, o2) of a single leaf and returns where the
// caret lands.
func deleteWithinLeaf(tx *Tx, l *Node, o1, o2 int) Point {
	switch l.kind {
	case KindText:
		if (l.IsToken() || l.IsInert()) && o1 < o2 {
			p := tx.pointBefore(l)
			l.Remove(tx, true)
			return p
		}
		l.SpliceText(tx, o1, o2-o1, "", false)
		return TextPoint(l.key, o1)
	case KindElement:
		return ElementPoint(l.key, 0)
	default:
		if o1 == 0 && o2 >= 1 {
			p := tx.pointBefore(l)
			l.Remove(tx, true)
			return p
		}
		return leafPoint(tx, l, o1)
	}
}

// splitAtPoint splits text at p when p is inside it and returns the element
// and child index the point now denotes.
func splitAtPoint(tx *Tx, p Point) (*Node, int) {
	n := tx.NodeByKey(p.Key)
	if n == nil {
		invariant("split at point", p.Key, ErrNodeNotFound)
	}
	if p.Type == PointElement {
		if n.kind != KindElement {
			invariant("split at point", p.Key, ErrWrongKind)
		}
		return n, max(0, min(p.Offset, len(n.children)))
	}
	n.requireKind("split at point", KindText)
	parent := n.Parent(tx)
	if parent == nil {
		invariant("split at point", n.key, ErrDetached)
	}
	idx := n.IndexWithinParent(tx)
	switch {
	case p.Offset <= 0:
		return parent, idx
	case p.Offset >= n.size() || n.IsToken() || n.IsInert():
		return parent, idx + 1
	}
	n.SplitText(tx, p.Offset)
	return parent.Latest(tx), idx + 1
}

// climbTo lifts a child position inside inline descendants of b to a
// position among b's own children.
func climbTo(tx *Tx, parent *Node, idx int, b *Node) int {
	for parent != nil && parent.key != b.key {
		pidx := parent.IndexWithinParent(tx)
		if idx > 0 {
			pidx++
		}
		idx = pidx
		parent = parent.Parent(tx)
	}
	return idx
}

func isBlockNode(r Reader, n *Node) bool {
	c := classOf(r, n)
	switch n.kind {
	case KindElement:
		return !c.Inline
	case KindDecorator:
		return c.TopLevel
	}
	return false
}

// wrapInline groups runs of inline nodes into new paragraphs so they can
// sit in a container.
func wrapInline(tx *Tx, nodes []*Node) []*Node {
	var out []*Node
	var para *Node
	for _, n := range nodes {
		if isBlockNode(tx, n) {
			para = nil
			out = append(out, n)
			continue
		}
		if para == nil {
			para = NewParagraph(tx)
			out = append(out, para)
		}
		para.Append(tx, n)
	}
	return out
}

// RemoveText deletes the selected content.
func (s *RangeSelection) RemoveText(tx *Tx) {
	tx.SetSelection(s)
	if s.IsCollapsed() {
		return
	}
	start, end := s.StartEnd(tx)
	s.deleteRange(tx, start, end)
}

// InsertText replaces the selection with text. Text typed into a plain text
// node of the same format and style extends that node; otherwise a new text
// node carrying the selection format is inserted.
func (s *RangeSelection) InsertText(tx *Tx, text string) {
	tx.SetSelection(s)
	if !s.IsCollapsed() {
		s.RemoveText(tx)
	}
	if text == "" {
		return
	}
	p := s.Anchor
	n := tx.NodeByKey(p.Key)
	if n == nil {
		invariant("insert text", p.Key, ErrNodeNotFound)
	}
	if p.Type == PointText && n.kind == KindText && n.mode == TextModeNormal &&
		n.format == s.Format && n.style == s.Style {
		n.SpliceText(tx, p.Offset, 0, text, true)
		return
	}

	t := NewText(tx, text)
	t.format = s.Format
	t.style = s.Style
	if p.Type == PointElement && isContainer(tx, n) {
		para := NewParagraph(tx)
		para.Append(tx, t)
		n.Splice(tx, p.Offset, 0, []*Node{para})
	} else {
		parent, idx := splitAtPoint(tx, p)
		parent.Splice(tx, idx, 0, []*Node{t})
	}
	s.collapse(tx, TextPoint(t.key, utf8.RuneCountInString(text)))
}

// InsertRawText inserts text, turning each newline into a line break.
func (s *RangeSelection) InsertRawText(tx *Tx, text string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for i, part := range strings.Split(text, "\n") {
		if i > 0 {
			s.InsertLineBreak(tx, false)
		}
		if part != "" {
			s.InsertText(tx, part)
		}
	}
}

// InsertNodes replaces the selection with nodes. Text under the caret is
// split; block nodes split the enclosing block, replacing it when it is
// empty. The caret ends after the last node, or at the start of the first
// when selectStart is set.
func (s *RangeSelection) InsertNodes(tx *Tx, nodes []*Node, selectStart bool) {
	tx.SetSelection(s)
	if !s.IsCollapsed() {
		s.RemoveText(tx)
	}
	if len(nodes) == 0 {
		return
	}
	blockLevel := slices.ContainsFunc(nodes, func(n *Node) bool { return isBlockNode(tx, n) })
	parent, idx := splitAtPoint(tx, s.Anchor)

	switch {
	case blockLevel && !isContainer(tx, parent):
		b := block(tx, parent)
		if b == nil {
			b = parent
		}
		idx = climbTo(tx, parent, idx, b)
		container := b.Parent(tx)
		if container == nil {
			invariant("insert nodes", b.key, ErrDetached)
		}
		bidx := b.IndexWithinParent(tx)
		items := wrapInline(tx, nodes)
		size := len(b.Latest(tx).children)
		switch {
		case size == 0:
			container.Splice(tx, bidx, 0, items)
			b.Remove(tx, true)
		case idx == 0:
			container.Splice(tx, bidx, 0, items)
		case idx >= size:
			container.Splice(tx, bidx+1, 0, items)
		default:
			tail := copyOf(tx, b)
			tail.Append(tx, b.Children(tx)[idx:]...)
			container.Splice(tx, bidx+1, 0, append(items, tail))
		}
	case isContainer(tx, parent):
		parent.Splice(tx, idx, 0, wrapInline(tx, nodes))
	default:
		parent.Splice(tx, idx, 0, nodes)
	}

	if selectStart {
		s.collapse(tx, tx.pointAtStart(nodes[0]))
	} else {
		s.collapse(tx, tx.pointAfter(nodes[len(nodes)-1]))
	}
}

// InsertParagraph splits the block under the caret. The content after the
// caret moves to a new block and the caret moves to its start. At the start
// of a block an empty paragraph is inserted before it instead. Blocks that
// cannot be split receive a line break.
func (s *RangeSelection) InsertParagraph(tx *Tx) {
	tx.SetSelection(s)
	if !s.IsCollapsed() {
		s.RemoveText(tx)
	}
	parent, idx := splitAtPoint(tx, s.Anchor)
	b := block(tx, parent)
	if isContainer(tx, parent) || b == nil {
		p := NewParagraph(tx)
		parent.Splice(tx, idx, 0, []*Node{p})
		s.collapse(tx, ElementPoint(p.key, 0))
		return
	}
	if !classOf(tx, b).Splittable {
		s.InsertLineBreak(tx, false)
		return
	}
	idx = climbTo(tx, parent, idx, b)
	b = b.Latest(tx)
	size := len(b.children)

	if idx == 0 && size > 0 {
		p := NewParagraph(tx)
		p.dir = b.dir
		b.InsertBefore(tx, p)
		s.collapse(tx, tx.pointAtStart(b))
		return
	}

	var nb *Node
	if idx < size {
		nb = copyOf(tx, b)
	} else {
		nb = NewParagraph(tx)
		nb.dir = b.dir
		nb.elemFormat = b.elemFormat
		nb.indent = b.indent
	}
	moved := b.Children(tx)[idx:]
	b.InsertAfter(tx, nb)
	if len(moved) > 0 {
		nb.Append(tx, moved...)
	}
	s.collapse(tx, tx.pointAtStart(nb))
}

// InsertLineBreak inserts a line break at the caret. With selectStart the
// caret stays before the break.
func (s *RangeSelection) InsertLineBreak(tx *Tx, selectStart bool) {
	lb := NewLineBreak(tx)
	s.InsertNodes(tx, []*Node{lb}, false)
	if selectStart {
		s.collapse(tx, tx.pointBefore(lb))
	}
}

// applyFormat sets or clears flag, keeping subscript and superscript
// exclusive.
func applyFormat(f, flag TextFormat, on bool) TextFormat {
	if !on {
		return f &^ flag
	}
	if !f.Has(flag) {
		f = f.Toggle(flag)
	}
	return f
}

// FormatText toggles flag over the selected text. The first selected text
// node decides whether the flag is set or cleared for all of them. Partly
// selected nodes are split so only the selected part changes. A collapsed
// selection toggles the typing format instead.
func (s *RangeSelection) FormatText(tx *Tx, flag TextFormat) {
	tx.SetSelection(s)
	if s.IsCollapsed() {
		s.ToggleFormat(flag)
		return
	}
	var texts []*Node
	for _, n := range s.Nodes(tx) {
		if n.kind == KindText {
			texts = append(texts, n)
		}
	}
	if len(texts) == 0 {
		s.ToggleFormat(flag)
		return
	}

	backward := s.IsBackward(tx)
	start, end := s.StartEnd(tx)
	on := !texts[0].HasFormat(flag)
	var first, last *Node
	for _, n := range texts {
		n = n.Latest(tx)
		from, to := 0, n.size()
		if start.Type == PointText && start.Key == n.key {
			from = min(start.Offset, to)
		}
		if end.Type == PointText && end.Key == n.key {
			to = max(from, min(end.Offset, to))
		}
		if from == to && n.size() > 0 {
			continue
		}
		part := n
		if from > 0 || to < n.size() {
			parts := n.SplitText(tx, from, to)
			if from > 0 {
				part = parts[1]
			} else {
				part = parts[0]
			}
		}
		part = part.SetFormat(tx, applyFormat(part.format, flag, on))
		if first == nil {
			first = part
		}
		last = part
	}
	if first == nil {
		s.ToggleFormat(flag)
		return
	}

	a, f := TextPoint(first.key, 0), TextPoint(last.key, last.Latest(tx).size())
	if backward {
		a, f = f, a
	}
	s.Anchor, s.Focus = a, f
	s.Format = first.Latest(tx).format
}

// Modify moves the caret or extends the focus by one step of granularity.
// Moving a ranged selection collapses it to its start or end. It reports
// false when there is nowhere to go.
func (s *RangeSelection) Modify(tx *Tx, alter Alter, backward bool, gran Granularity) bool {
	tx.SetSelection(s)
	if alter == AlterMove && !s.IsCollapsed() && gran == GranularityCharacter {
		start, end := s.StartEnd(tx)
		if backward {
			s.collapse(tx, start)
		} else {
			s.collapse(tx, end)
		}
		return true
	}
	np, ok := adjacentPoint(tx, s.Focus, backward, gran)
	if !ok {
		return false
	}
	s.Focus = np
	if alter == AlterMove {
		s.collapse(tx, np)
	}
	return true
}

func (s *RangeSelection) deleteBy(tx *Tx, backward bool, gran Granularity) bool {
	np, ok := adjacentPoint(tx, s.Focus, backward, gran)
	if !ok {
		return false
	}
	start, end := np, s.Anchor
	if !backward {
		start, end = s.Anchor, np
	}
	s.deleteRange(tx, start, end)
	return true
}

// DeleteCharacter deletes the selection, or one grapheme cluster before or
// after the caret. At the edge of a block the block is joined with its
// neighbour; at the edge of a container nothing happens.
func (s *RangeSelection) DeleteCharacter(tx *Tx, backward bool) {
	tx.SetSelection(s)
	if !s.IsCollapsed() {
		s.RemoveText(tx)
		return
	}
	s.deleteBy(tx, backward, GranularityCharacter)
}

// DeleteWord deletes the selection, or up to the previous or next word
// boundary.
func (s *RangeSelection) DeleteWord(tx *Tx, backward bool) {
	tx.SetSelection(s)
	if !s.IsCollapsed() {
		s.RemoveText(tx)
		return
	}
	s.deleteBy(tx, backward, GranularityWord)
}

// DeleteLine deletes the selection, or up to the start or end of the block.
// At the block boundary it deletes one character instead.
func (s *RangeSelection) DeleteLine(tx *Tx, backward bool) {
	tx.SetSelection(s)
	if !s.IsCollapsed() {
		s.RemoveText(tx)
		return
	}
	if !s.deleteBy(tx, backward, GranularityLineBoundary) {
		s.deleteBy(tx, backward, GranularityCharacter)
	}
}

// Extract returns the selected nodes, splitting text at the selection edges
// so that the returned text nodes hold only selected text.
func (s *RangeSelection) Extract(tx *Tx) []*Node {
	tx.SetSelection(s)
	nodes := s.Nodes(tx)
	if s.IsCollapsed() || len(nodes) == 0 {
		return nodes
	}
	start, end := s.StartEnd(tx)
	first, last := nodes[0], nodes[len(nodes)-1]

	if first.key == last.key && first.kind == KindText {
		from, to := 0, first.size()
		if start.Type == PointText {
			from = start.Offset
		}
		if end.Type == PointText {
			to = end.Offset
		}
		parts := first.SplitText(tx, from, to)
		if from > 0 && len(parts) > 1 {
			return []*Node{parts[1]}
		}
		return []*Node{parts[0]}
	}
	if first.kind == KindText && start.Type == PointText && start.Key == first.key {
		if parts := first.SplitText(tx, start.Offset); len(parts) > 1 {
			nodes[0] = parts[1]
		}
	}
	if last.kind == KindText && end.Type == PointText && end.Key == last.key {
		nodes[len(nodes)-1] = last.SplitText(tx, end.Offset)[0]
	}
	for i, n := range nodes {
		nodes[i] = n.Latest(tx)
	}
	return nodes
}

// String formats the selection for debugging.
func (s *RangeSelection) String() string {
	return fmt.Sprintf("range{anchor:%s focus:%s format:%d}", s.Anchor, s.Focus, s.Format)
}
