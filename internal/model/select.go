package model

// selectPoints makes a range from anchor to focus the transaction's
// selection, reusing the current range selection when there is one.
func (tx *Tx) selectPoints(anchor, focus Point) *RangeSelection {
	tx.mustOpen("select")
	rs, ok := tx.selection.(*RangeSelection)
	if !ok || rs == nil {
		rs = &RangeSelection{}
	}
	rs.Anchor, rs.Focus = anchor, focus
	if n := tx.NodeByKey(anchor.Key); n != nil && n.kind == KindText {
		rs.Format = n.format
		rs.Style = n.style
	}
	tx.selection = rs
	return rs
}

// Select selects a range inside n. Text offsets count code points and
// element offsets count children; offsets are clamped. Other leaves are
// selected through their parent.
func (n *Node) Select(tx *Tx, anchorOffset, focusOffset int) *RangeSelection {
	cur := n.Latest(tx)
	clampTo := func(o, size int) int { return max(0, min(o, size)) }
	switch cur.kind {
	case KindText:
		size := cur.size()
		return tx.selectPoints(TextPoint(cur.key, clampTo(anchorOffset, size)), TextPoint(cur.key, clampTo(focusOffset, size)))
	case KindElement:
		size := len(cur.children)
		return tx.selectPoints(ElementPoint(cur.key, clampTo(anchorOffset, size)), ElementPoint(cur.key, clampTo(focusOffset, size)))
	default:
		cur = n.requireParent(tx, "select")
		idx := cur.IndexWithinParent(tx)
		return tx.selectPoints(ElementPoint(cur.parent, idx+clampTo(anchorOffset, 1)), ElementPoint(cur.parent, idx+clampTo(focusOffset, 1)))
	}
}

// SelectStart places the caret at the start of n.
func (n *Node) SelectStart(tx *Tx) *RangeSelection {
	p := tx.pointAtStart(n)
	return tx.selectPoints(p, p)
}

// SelectEnd places the caret at the end of n.
func (n *Node) SelectEnd(tx *Tx) *RangeSelection {
	p := tx.pointAfter(n)
	return tx.selectPoints(p, p)
}

// SelectNext places the caret at the start of the next sibling, or after n
// in its parent when there is none.
func (n *Node) SelectNext(tx *Tx) *RangeSelection {
	cur := n.requireParent(tx, "select next")
	if next := cur.NextSibling(tx); next != nil {
		return next.SelectStart(tx)
	}
	p := ElementPoint(cur.parent, cur.IndexWithinParent(tx)+1)
	return tx.selectPoints(p, p)
}

// SelectPrevious places the caret at the end of the previous sibling, or
// before n in its parent when there is none.
func (n *Node) SelectPrevious(tx *Tx) *RangeSelection {
	cur := n.requireParent(tx, "select previous")
	if prev := cur.PreviousSibling(tx); prev != nil {
		return prev.SelectEnd(tx)
	}
	p := ElementPoint(cur.parent, cur.IndexWithinParent(tx))
	return tx.selectPoints(p, p)
}
