package model

import (
	"fmt"
	"slices"
)

// Writable returns the version of n that is safe to mutate in tx. The first
// call clones the node into the pending state and marks it dirty; later
// calls in the same transaction return the same clone.
func (n *Node) Writable(tx *Tx) *Node {
	return tx.writable(n.key)
}

func (n *Node) requireKind(op string, kind Kind) {
	if n.kind != kind {
		invariant(op, n.key, fmt.Errorf("%s node: %w", n.kind, ErrWrongKind))
	}
}

func (n *Node) requireParent(tx *Tx, op string) *Node {
	cur := n.Latest(tx)
	if cur.IsRoot() {
		invariant(op, RootKey, ErrRootImmutable)
	}
	if cur.parent == "" {
		invariant(op, cur.key, ErrDetached)
	}
	return cur
}

// checkInsertable panics when n cannot be placed under parent.
func checkInsertable(tx *Tx, op string, parent Key, n *Node) {
	if n == nil {
		invariant(op, parent, ErrNodeNotFound)
	}
	if n.key == RootKey {
		invariant(op, RootKey, ErrRootImmutable)
	}
	p := tx.NodeByKey(parent)
	if p == nil {
		invariant(op, parent, ErrNodeNotFound)
	}
	if p.kind != KindElement {
		invariant(op, parent, fmt.Errorf("insert into %s: %w", p.kind, ErrWrongKind))
	}
	for cur := p; cur != nil; cur = cur.Parent(tx) {
		if cur.key == n.key {
			invariant(op, n.key, ErrCycle)
		}
	}
}

// rangePoints returns the points of a range selection for adjustment.
func (tx *Tx) rangePoints() []*Point {
	if rs, ok := tx.selection.(*RangeSelection); ok && rs != nil {
		return []*Point{&rs.Anchor, &rs.Focus}
	}
	return nil
}

// inSubtree reports whether key is root or one of its descendants.
func (tx *Tx) inSubtree(key, root Key) bool {
	for steps := 0; key != "" && steps <= tx.nodes.Len(); steps++ {
		if key == root {
			return true
		}
		n := tx.nodes.Get(key)
		if n == nil {
			return false
		}
		key = n.parent
	}
	return false
}

// detach unlinks n from its parent and shifts element points past it.
func detach(tx *Tx, n *Node) (Key, int) {
	cur := n.Latest(tx)
	if cur.parent == "" {
		return "", -1
	}
	pw := tx.writable(cur.parent)
	idx := slices.Index(pw.children, cur.key)
	if idx >= 0 {
		pw.children = slices.Delete(pw.children, idx, idx+1)
		for _, p := range tx.rangePoints() {
			if p.Type == PointElement && p.Key == pw.key && p.Offset > idx {
				p.Offset--
			}
		}
	}
	tx.writable(cur.key).parent = ""
	return pw.key, idx
}

// attach links a detached n under parent at idx.
func attach(tx *Tx, parent Key, idx int, n *Node) {
	pw := tx.writable(parent)
	idx = max(0, min(idx, len(pw.children)))
	pw.children = slices.Insert(pw.children, idx, n.key)
	tx.writable(n.key).parent = parent
	for _, p := range tx.rangePoints() {
		if p.Type == PointElement && p.Key == parent && p.Offset > idx {
			p.Offset++
		}
	}
}

// moveSelectionOff moves range points that sit inside n to the position n
// occupies, and drops n from a node selection.
func (tx *Tx) moveSelectionOff(n *Node) {
	switch sel := tx.selection.(type) {
	case *RangeSelection:
		var target *Point
		for _, p := range []*Point{&sel.Anchor, &sel.Focus} {
			if !tx.inSubtree(p.Key, n.key) {
				continue
			}
			if target == nil {
				t := tx.pointBefore(n)
				target = &t
			}
			*p = *target
		}
	case *NodeSelection:
		sel.Delete(n.key)
	}
}

// pointBefore returns the caret position just before an attached n.
func (tx *Tx) pointBefore(n *Node) Point {
	if prev := n.PreviousSibling(tx); prev != nil && prev.kind == KindText {
		return TextPoint(prev.key, prev.size())
	}
	return ElementPoint(n.Latest(tx).parent, max(0, n.IndexWithinParent(tx)))
}

// pointAfter returns the caret position at the end of n.
func (tx *Tx) pointAfter(n *Node) Point {
	cur := n.Latest(tx)
	switch cur.kind {
	case KindText:
		return TextPoint(cur.key, cur.size())
	case KindElement:
		if last := cur.LastDescendant(tx); last != nil {
			switch {
			case last.kind == KindText:
				return TextPoint(last.key, last.size())
			case last.kind == KindElement:
				return ElementPoint(last.key, 0)
			default:
				return ElementPoint(last.parent, last.IndexWithinParent(tx)+1)
			}
		}
		return ElementPoint(cur.key, 0)
	default:
		return ElementPoint(cur.parent, cur.IndexWithinParent(tx)+1)
	}
}

// pointAtStart returns the caret position at the start of n.
func (tx *Tx) pointAtStart(n *Node) Point {
	cur := n.Latest(tx)
	switch cur.kind {
	case KindText:
		return TextPoint(cur.key, 0)
	case KindElement:
		if first := cur.FirstDescendant(tx); first != nil {
			switch first.kind {
			case KindText:
				return TextPoint(first.key, 0)
			case KindElement:
				return ElementPoint(first.key, 0)
			default:
				return ElementPoint(first.parent, first.IndexWithinParent(tx))
			}
		}
		return ElementPoint(cur.key, 0)
	default:
		return ElementPoint(cur.parent, max(0, cur.IndexWithinParent(tx)))
	}
}

// Remove detaches n from the tree. When the parent is left empty, cannot be
// empty, and preserveEmptyParent is false, the parent is removed too. The
// cascade stops at the root, which is never removed.
//
// Range points inside n move to the position n occupied. The node and its
// subtree are deleted from the node map at commit.
func (n *Node) Remove(tx *Tx, preserveEmptyParent bool) {
	cur := n.requireParent(tx, "remove")
	tx.moveSelectionOff(cur)
	parentKey, _ := detach(tx, cur)

	parent := tx.NodeByKey(parentKey)
	if preserveEmptyParent || parent == nil || parent.IsRoot() || parent.parent == "" {
		return
	}
	if len(parent.children) == 0 && !classOf(tx, parent).CanBeEmpty {
		parent.Remove(tx, false)
	}
}

// Replace puts with in n's place and detaches n. When includeChildren is
// set and both are elements, n's children move to the end of with.
// It returns the writable replacement.
func (n *Node) Replace(tx *Tx, with *Node, includeChildren bool) *Node {
	cur := n.requireParent(tx, "replace")
	if with.key == cur.key {
		return cur.Writable(tx)
	}
	checkInsertable(tx, "replace", cur.parent, with)
	if with.Latest(tx).parent != "" {
		detach(tx, with)
	}
	cur = cur.Latest(tx)

	parentKey := cur.parent
	pw := tx.writable(parentKey)
	idx := slices.Index(pw.children, cur.key)
	pw.children[idx] = with.key
	ww := tx.writable(with.key)
	ww.parent = parentKey
	cw := tx.writable(cur.key)
	cw.parent = ""

	moved := includeChildren && cw.kind == KindElement && ww.kind == KindElement
	base := len(ww.children)
	if moved {
		for _, ck := range slices.Clone(cw.children) {
			c := tx.NodeByKey(ck)
			detach(tx, c)
			attach(tx, ww.key, len(ww.children), c)
		}
	}

	for _, p := range tx.rangePoints() {
		switch {
		case p.Key == cur.key && moved && p.Type == PointElement:
			*p = ElementPoint(ww.key, base+p.Offset)
		case p.Key == cur.key, !moved && tx.inSubtree(p.Key, cur.key):
			*p = tx.pointAfter(ww)
		}
	}
	if ns, ok := tx.selection.(*NodeSelection); ok && ns.Has(cur.key) {
		ns.Delete(cur.key)
		ns.Add(ww.key)
	}
	return tx.writable(ww.key)
}

// InsertAfter places node right after n, moving it from its old position
// if it is attached. It returns the writable inserted node.
func (n *Node) InsertAfter(tx *Tx, node *Node) *Node {
	return n.insertBeside(tx, node, 1, "insert after")
}

// InsertBefore places node right before n, moving it from its old position
// if it is attached. It returns the writable inserted node.
func (n *Node) InsertBefore(tx *Tx, node *Node) *Node {
	return n.insertBeside(tx, node, 0, "insert before")
}

func (n *Node) insertBeside(tx *Tx, node *Node, shift int, op string) *Node {
	cur := n.requireParent(tx, op)
	if node.key == cur.key {
		return cur.Writable(tx)
	}
	checkInsertable(tx, op, cur.parent, node)
	if node.Latest(tx).parent != "" {
		detach(tx, node)
	}
	cur = cur.Latest(tx)
	idx := slices.Index(tx.NodeByKey(cur.parent).children, cur.key)
	attach(tx, cur.parent, idx+shift, node)
	return tx.writable(node.key)
}

// Append adds nodes to the end of an element and returns the writable
// element.
func (n *Node) Append(tx *Tx, nodes ...*Node) *Node {
	return n.Splice(tx, len(n.Latest(tx).children), 0, nodes)
}

// Splice removes deleteCount children starting at start and inserts nodes
// in their place. Inserted nodes that are attached elsewhere are moved.
// Children outside the spliced range are left untouched. An element that
// cannot be empty is removed when the splice empties it.
func (n *Node) Splice(tx *Tx, start, deleteCount int, nodes []*Node) *Node {
	cur := n.Latest(tx)
	cur.requireKind("splice", KindElement)
	for _, c := range nodes {
		checkInsertable(tx, "splice", cur.key, c)
	}

	size := len(cur.children)
	start = max(0, min(start, size))
	deleteCount = max(0, min(deleteCount, size-start))

	inserting := make(map[Key]bool, len(nodes))
	for _, c := range nodes {
		inserting[c.key] = true
	}
	var anchor Key
	for _, k := range cur.children[start+deleteCount:] {
		if !inserting[k] {
			anchor = k
			break
		}
	}

	w := tx.writable(cur.key)
	for _, k := range slices.Clone(w.children[start : start+deleteCount]) {
		if inserting[k] {
			continue
		}
		c := tx.NodeByKey(k)
		tx.moveSelectionOff(c)
		detach(tx, c)
	}
	for _, c := range nodes {
		if c.Latest(tx).parent != "" {
			detach(tx, c)
		}
	}

	w = tx.writable(cur.key)
	idx := len(w.children)
	if anchor != "" {
		idx = slices.Index(w.children, anchor)
	}
	for i, c := range nodes {
		attach(tx, w.key, idx+i, c)
	}

	w = tx.writable(cur.key)
	if len(nodes) == 0 && len(w.children) == 0 && !w.IsRoot() && w.parent != "" &&
		!classOf(tx, w).CanBeEmpty {
		w.Remove(tx, false)
	}
	return w
}

// Clear removes every child of an element and returns the writable element.
func (n *Node) Clear(tx *Tx) *Node {
	cur := n.Latest(tx)
	cur.requireKind("clear", KindElement)
	w := tx.writable(cur.key)
	for _, k := range slices.Clone(w.children) {
		c := tx.NodeByKey(k)
		tx.moveSelectionOff(c)
		detach(tx, c)
	}
	return tx.writable(cur.key)
}
