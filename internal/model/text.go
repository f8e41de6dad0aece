package model

import (
	"fmt"
	"slices"
	"unicode/utf8"
)

func (n *Node) writableText(tx *Tx, op string) *Node {
	cur := n.Latest(tx)
	cur.requireKind(op, KindText)
	return tx.writable(cur.key)
}

// SetText replaces the text content.
func (n *Node) SetText(tx *Tx, text string) *Node {
	w := n.writableText(tx, "set text")
	w.text = text
	return w
}

// SetFormat replaces the text format bits.
func (n *Node) SetFormat(tx *Tx, format TextFormat) *Node {
	w := n.writableText(tx, "set format")
	w.format = format
	return w
}

// ToggleFormat flips one format attribute.
func (n *Node) ToggleFormat(tx *Tx, flag TextFormat) *Node {
	w := n.writableText(tx, "toggle format")
	w.format = w.format.Toggle(flag)
	return w
}

// SetStyle replaces the inline style string.
func (n *Node) SetStyle(tx *Tx, style string) *Node {
	w := n.writableText(tx, "set style")
	w.style = style
	return w
}

// SetMode sets the text mode.
func (n *Node) SetMode(tx *Tx, mode TextMode) *Node {
	w := n.writableText(tx, "set mode")
	w.mode = mode
	return w
}

// SetDetail replaces the text detail bits.
func (n *Node) SetDetail(tx *Tx, detail TextDetail) *Node {
	w := n.writableText(tx, "set detail")
	w.detail = detail
	return w
}

// ToggleDirectionless flips the directionless detail bit.
func (n *Node) ToggleDirectionless(tx *Tx) *Node {
	w := n.writableText(tx, "toggle directionless")
	w.detail ^= DetailDirectionless
	return w
}

// ToggleUnmergeable flips the unmergeable detail bit.
func (n *Node) ToggleUnmergeable(tx *Tx) *Node {
	w := n.writableText(tx, "toggle unmergeable")
	w.detail ^= DetailUnmergeable
	return w
}

// runeOffset converts a code point offset into a byte offset of s.
func runeOffset(s string, offset int) int {
	if offset <= 0 {
		return 0
	}
	i := 0
	for b := range s {
		if i == offset {
			return b
		}
		i++
	}
	return len(s)
}

// SpliceText deletes delCount code points at offset and inserts text there.
// A negative delCount deletes backwards from offset. Range points on the
// node follow the edit; with moveSelection the selection collapses after
// the inserted text.
func (n *Node) SpliceText(tx *Tx, offset, delCount int, text string, moveSelection bool) *Node {
	w := n.writableText(tx, "splice text")
	size := w.size()
	if delCount < 0 {
		offset += delCount
		delCount = -delCount
	}
	offset = max(0, min(offset, size))
	delCount = max(0, min(delCount, size-offset))

	from, to := runeOffset(w.text, offset), runeOffset(w.text, offset+delCount)
	w.text = w.text[:from] + text + w.text[to:]
	inserted := utf8.RuneCountInString(text)

	if moveSelection {
		rs, ok := tx.selection.(*RangeSelection)
		if !ok || rs == nil {
			rs = &RangeSelection{}
			tx.selection = rs
		}
		rs.Anchor = TextPoint(w.key, offset+inserted)
		rs.Focus = rs.Anchor
		return w
	}
	for _, p := range tx.rangePoints() {
		if p.Key != w.key || p.Type != PointText || p.Offset <= offset {
			continue
		}
		if p.Offset >= offset+delCount {
			p.Offset += inserted - delCount
		} else {
			p.Offset = offset
		}
	}
	return w
}

// SplitText splits a text node at the given code point offsets and returns
// the parts in order. The first part keeps n's key. Offsets at or beyond the
// ends of the text are ignored, so splitting at a boundary returns n alone.
// Range points move into the part that contains them; a point exactly on a
// boundary stays at the end of the earlier part.
func (n *Node) SplitText(tx *Tx, offsets ...int) []*Node {
	cur := n.Latest(tx)
	cur.requireKind("split text", KindText)
	size := cur.size()

	var cuts []int
	for _, o := range offsets {
		if o > 0 && o < size {
			cuts = append(cuts, o)
		}
	}
	slices.Sort(cuts)
	cuts = slices.Compact(cuts)
	if len(cuts) == 0 {
		return []*Node{cur}
	}
	if cur.parent == "" {
		invariant("split text", cur.key, ErrDetached)
	}

	bounds := append(append([]int{0}, cuts...), size)
	runes := []rune(cur.text)
	w := tx.writable(cur.key)
	parts := []*Node{w}
	for i := 1; i < len(bounds)-1; i++ {
		p := NewNode(tx, w.typ)
		p.text = string(runes[bounds[i]:bounds[i+1]])
		p.format = w.format
		p.style = w.style
		p.mode = w.mode
		p.detail = w.detail
		parts = append(parts, p)
	}
	w.text = string(runes[:bounds[1]])

	for _, p := range tx.rangePoints() {
		if p.Key != w.key || p.Type != PointText {
			continue
		}
		i := 0
		for i < len(cuts) && p.Offset > cuts[i] {
			i++
		}
		p.Key = parts[i].key
		p.Offset -= bounds[i]
	}

	idx := slices.Index(tx.NodeByKey(w.parent).children, w.key)
	for i, p := range parts[1:] {
		attach(tx, w.parent, idx+1+i, p)
	}
	for i, p := range parts {
		parts[i] = tx.NodeByKey(p.key)
	}
	return parts
}

// MergeWithSibling joins the adjacent text sibling into n and removes the
// sibling. Range points on either node keep their position in the merged
// text. It returns the writable merged node.
func (n *Node) MergeWithSibling(tx *Tx, sibling *Node) *Node {
	cur := n.Latest(tx)
	cur.requireKind("merge", KindText)
	sib := sibling.Latest(tx)
	sib.requireKind("merge", KindText)

	before := false
	switch sib.key {
	case keyOf(cur.PreviousSibling(tx)):
		before = true
	case keyOf(cur.NextSibling(tx)):
	default:
		invariant("merge", sib.key, fmt.Errorf("not an adjacent sibling of %s: %w", cur.key, ErrWrongKind))
	}

	w := tx.writable(cur.key)
	curSize, sibSize := w.size(), sib.size()
	for _, p := range tx.rangePoints() {
		if p.Type != PointText {
			continue
		}
		switch {
		case p.Key == sib.key && before:
			p.Key = w.key
		case p.Key == sib.key:
			p.Key = w.key
			p.Offset += curSize
		case p.Key == w.key && before:
			p.Offset += sibSize
		}
	}
	if before {
		w.text = sib.text + w.text
	} else {
		w.text += sib.text
	}
	sib.Remove(tx, true)
	return tx.writable(w.key)
}

func keyOf(n *Node) Key {
	if n == nil {
		return ""
	}
	return n.key
}

func (n *Node) writableElement(tx *Tx, op string) *Node {
	cur := n.Latest(tx)
	cur.requireKind(op, KindElement)
	return tx.writable(cur.key)
}

// SetElementFormat sets the block alignment of an element.
func (n *Node) SetElementFormat(tx *Tx, format ElementFormat) *Node {
	w := n.writableElement(tx, "set element format")
	w.elemFormat = format
	return w
}

// SetIndent sets the indent level of an element. Negative levels clamp to
// zero.
func (n *Node) SetIndent(tx *Tx, indent int) *Node {
	w := n.writableElement(tx, "set indent")
	w.indent = max(0, indent)
	return w
}

// SetDirection sets the text direction of an element.
func (n *Node) SetDirection(tx *Tx, dir Direction) *Node {
	w := n.writableElement(tx, "set direction")
	w.dir = dir
	return w
}

// SetColSpan sets the column span of a grid cell.
func (n *Node) SetColSpan(tx *Tx, span int) *Node {
	cur := n.Latest(tx)
	if cur.typ != TypeGridCell {
		invariant("set col span", cur.key, fmt.Errorf("%s node: %w", cur.typ, ErrWrongKind))
	}
	w := tx.writable(cur.key)
	w.colSpan = max(1, span)
	return w
}

// SetProp sets an extension field.
func (n *Node) SetProp(tx *Tx, name string, v any) *Node {
	w := tx.writable(n.key)
	w.setProp(name, v)
	return w
}
