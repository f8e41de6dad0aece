package model

import (
	"slices"
	"strings"
)

// classOf returns the class of n, or a permissive stand-in when the type is
// unknown to r's registry.
func classOf(r Reader, n *Node) *Class {
	reg := r.Registry()
	if reg == nil {
		reg = defaultRegistry
	}
	if c, ok := reg.Class(n.typ); ok {
		return c
	}
	return &Class{Type: n.typ, Kind: n.kind, CanBeEmpty: true}
}

// Latest returns the current version of n in r, or n itself when r does not
// hold the key.
func (n *Node) Latest(r Reader) *Node {
	if l := r.NodeByKey(n.key); l != nil {
		return l
	}
	return n
}

// Parent returns the parent node, or nil.
func (n *Node) Parent(r Reader) *Node {
	p := n.Latest(r).parent
	if p == "" {
		return nil
	}
	return r.NodeByKey(p)
}

// Parents returns the ancestors of n from the parent up to the root.
func (n *Node) Parents(r Reader) []*Node {
	var out []*Node
	for p := n.Parent(r); p != nil; p = p.Parent(r) {
		out = append(out, p)
	}
	return out
}

// Children returns the child nodes of an element.
func (n *Node) Children(r Reader) []*Node {
	keys := n.Latest(r).children
	out := make([]*Node, 0, len(keys))
	for _, k := range keys {
		if c := r.NodeByKey(k); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// ChildAt returns the child at index i, or nil.
func (n *Node) ChildAt(r Reader, i int) *Node {
	keys := n.Latest(r).children
	if i < 0 || i >= len(keys) {
		return nil
	}
	return r.NodeByKey(keys[i])
}

// FirstChild returns the first child, or nil.
func (n *Node) FirstChild(r Reader) *Node {
	return n.ChildAt(r, 0)
}

// LastChild returns the last child, or nil.
func (n *Node) LastChild(r Reader) *Node {
	return n.ChildAt(r, len(n.Latest(r).children)-1)
}

// IndexWithinParent returns the position of n among its siblings, or -1.
func (n *Node) IndexWithinParent(r Reader) int {
	p := n.Parent(r)
	if p == nil {
		return -1
	}
	return slices.Index(p.children, n.key)
}

// NextSibling returns the following sibling, or nil.
func (n *Node) NextSibling(r Reader) *Node {
	p := n.Parent(r)
	if p == nil {
		return nil
	}
	return p.ChildAt(r, slices.Index(p.children, n.key)+1)
}

// PreviousSibling returns the preceding sibling, or nil.
func (n *Node) PreviousSibling(r Reader) *Node {
	p := n.Parent(r)
	if p == nil {
		return nil
	}
	i := slices.Index(p.children, n.key)
	if i <= 0 {
		return nil
	}
	return p.ChildAt(r, i-1)
}

// NextSiblings returns every following sibling.
func (n *Node) NextSiblings(r Reader) []*Node {
	p := n.Parent(r)
	if p == nil {
		return nil
	}
	sibs := p.Children(r)
	return sibs[slices.Index(p.children, n.key)+1:]
}

// PreviousSiblings returns every preceding sibling in document order.
func (n *Node) PreviousSiblings(r Reader) []*Node {
	p := n.Parent(r)
	if p == nil {
		return nil
	}
	sibs := p.Children(r)
	i := slices.Index(p.children, n.key)
	if i < 0 {
		return nil
	}
	return sibs[:i]
}

// IsAttached reports whether n is reachable from the root.
func (n *Node) IsAttached(r Reader) bool {
	cur := n.Latest(r)
	for steps := 0; cur != nil; steps++ {
		if cur.key == RootKey {
			return true
		}
		if cur.parent == "" || steps > 1<<20 {
			return false
		}
		cur = r.NodeByKey(cur.parent)
	}
	return false
}

// IsParentOf reports whether n is a strict ancestor of other.
func (n *Node) IsParentOf(r Reader, other *Node) bool {
	if other == nil || other.key == n.key {
		return false
	}
	for p := other.Parent(r); p != nil; p = p.Parent(r) {
		if p.key == n.key {
			return true
		}
	}
	return false
}

// TopLevelElement returns the ancestor-or-self of n whose parent is the
// root, or nil for the root and detached nodes.
func (n *Node) TopLevelElement(r Reader) *Node {
	cur := n.Latest(r)
	for cur != nil {
		p := cur.Parent(r)
		if p == nil {
			return nil
		}
		if p.IsRoot() {
			return cur
		}
		cur = p
	}
	return nil
}

// path returns the child indexes leading from the root to n, or nil when n
// is detached.
func (n *Node) path(r Reader) []int {
	var rev []int
	cur := n.Latest(r)
	for cur.key != RootKey {
		p := cur.Parent(r)
		if p == nil {
			return nil
		}
		rev = append(rev, slices.Index(p.children, cur.key))
		cur = p
	}
	slices.Reverse(rev)
	return rev
}

// comparePaths orders two index paths in document order. A prefix sorts
// before the paths it starts.
func comparePaths(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// IsBefore reports whether n comes before other in document order. An
// ancestor comes before its descendants.
func (n *Node) IsBefore(r Reader, other *Node) bool {
	a, b := n.path(r), other.path(r)
	if a == nil && n.key != RootKey || b == nil && other.key != RootKey {
		return false
	}
	return comparePaths(a, b) < 0
}

// CommonAncestor returns the nearest element containing both n and other,
// or nil when they share none.
func (n *Node) CommonAncestor(r Reader, other *Node) *Node {
	seen := make(map[Key]bool)
	for p := n.Latest(r); p != nil; p = p.Parent(r) {
		seen[p.key] = true
	}
	for p := other.Latest(r); p != nil; p = p.Parent(r) {
		if seen[p.key] && p.kind == KindElement {
			return p
		}
	}
	return nil
}

// FirstDescendant returns the first leaf-most descendant of an element, or
// nil when it has no children.
func (n *Node) FirstDescendant(r Reader) *Node {
	cur := n.FirstChild(r)
	for cur != nil && cur.kind == KindElement {
		c := cur.FirstChild(r)
		if c == nil {
			return cur
		}
		cur = c
	}
	return cur
}

// LastDescendant returns the last leaf-most descendant of an element, or nil
// when it has no children.
func (n *Node) LastDescendant(r Reader) *Node {
	cur := n.LastChild(r)
	for cur != nil && cur.kind == KindElement {
		c := cur.LastChild(r)
		if c == nil {
			return cur
		}
		cur = c
	}
	return cur
}

// nextInOrder returns the node after n in a pre-order walk, or nil.
func (n *Node) nextInOrder(r Reader) *Node {
	if c := n.FirstChild(r); c != nil {
		return c
	}
	for cur := n.Latest(r); cur != nil; cur = cur.Parent(r) {
		if s := cur.NextSibling(r); s != nil {
			return s
		}
	}
	return nil
}

// NodesBetween returns the nodes from n to other inclusive, in pre-order.
// Elements entered on the way are included. The order of the arguments does
// not matter.
func (n *Node) NodesBetween(r Reader, other *Node) []*Node {
	a, b := n.Latest(r), other.Latest(r)
	if a.key == b.key {
		return []*Node{a}
	}
	if b.IsBefore(r, a) {
		a, b = b, a
	}
	var out []*Node
	for cur := a; cur != nil; cur = cur.nextInOrder(r) {
		out = append(out, cur)
		if cur.key == b.key {
			return out
		}
	}
	return out
}

// TextContent returns the text of n. Block children of an element are
// separated by a blank line.
func (n *Node) TextContent(r Reader) string {
	var sb strings.Builder
	n.writeText(r, &sb)
	return sb.String()
}

func (n *Node) writeText(r Reader, sb *strings.Builder) {
	cur := n.Latest(r)
	switch cur.kind {
	case KindText:
		sb.WriteString(cur.text)
	case KindLineBreak:
		sb.WriteByte('\n')
	case KindElement:
		children := cur.Children(r)
		for i, c := range children {
			c.writeText(r, sb)
			if c.kind == KindElement && i < len(children)-1 && !classOf(r, c).Inline {
				sb.WriteString("\n\n")
			}
		}
	}
}

// TextContentSize returns the number of code points in TextContent.
func (n *Node) TextContentSize(r Reader) int {
	return len([]rune(n.TextContent(r)))
}

// AllTextNodes returns the text descendants of an element in order.
func (n *Node) AllTextNodes(r Reader) []*Node {
	var out []*Node
	Walk(r, n, func(c *Node) bool {
		if c.kind == KindText {
			out = append(out, c)
		}
		return true
	})
	return out
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the node's children.
func Walk(r Reader, n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	cur := n.Latest(r)
	if !fn(cur) {
		return
	}
	for _, c := range cur.Children(r) {
		Walk(r, c, fn)
	}
}

// Block returns the nearest block containing n, or nil.
func (n *Node) Block(r Reader) *Node {
	return block(r, n)
}

// block returns the nearest ancestor-or-self of n that is a block: a
// non-inline element that is neither the root nor a shadow root. It
// returns nil when n sits directly in a container.
func block(r Reader, n *Node) *Node {
	for cur := n.Latest(r); cur != nil; cur = cur.Parent(r) {
		if cur.kind != KindElement {
			continue
		}
		c := classOf(r, cur)
		if cur.IsRoot() || c.ShadowRoot {
			return nil
		}
		if !c.Inline {
			return cur
		}
	}
	return nil
}

// isContainer reports whether n holds blocks: the root or a shadow root.
func isContainer(r Reader, n *Node) bool {
	return n.kind == KindElement && (n.IsRoot() || classOf(r, n).ShadowRoot)
}
