package model

import (
	"maps"
	"slices"
	"unicode/utf8"
)

// Node is a document tree node. Kind selects which fields are meaningful.
//
// Nodes stored in a sealed State are never modified. Inside a Tx, Writable
// returns the transaction's private clone; all mutating methods go through it.
type Node struct {
	key    Key
	typ    string
	kind   Kind
	parent Key

	// Text fields.
	text   string
	format TextFormat
	style  string
	mode   TextMode
	detail TextDetail

	// Element fields.
	children   []Key
	elemFormat ElementFormat
	indent     int
	dir        Direction
	colSpan    int

	props map[string]any
}

func (n *Node) clone() *Node {
	c := *n
	c.children = slices.Clone(n.children)
	c.props = maps.Clone(n.props)
	return &c
}

// Key returns the node key.
func (n *Node) Key() Key { return n.key }

// Type returns the registered type tag.
func (n *Node) Type() string { return n.typ }

// Kind returns the node shape.
func (n *Node) Kind() Kind { return n.kind }

// ParentKey returns the parent key, or "" for the root and detached nodes.
func (n *Node) ParentKey() Key { return n.parent }

// IsRoot reports whether n is the root.
func (n *Node) IsRoot() bool { return n.key == RootKey }

// IsText reports whether n is a text node.
func (n *Node) IsText() bool { return n.kind == KindText }

// IsElement reports whether n is an element.
func (n *Node) IsElement() bool { return n.kind == KindElement }

// IsLineBreak reports whether n is a line break.
func (n *Node) IsLineBreak() bool { return n.kind == KindLineBreak }

// IsDecorator reports whether n is a decorator.
func (n *Node) IsDecorator() bool { return n.kind == KindDecorator }

// IsLeaf reports whether n can never have children.
func (n *Node) IsLeaf() bool { return n.kind != KindElement }

// Text returns the raw text of a text node.
func (n *Node) Text() string { return n.text }

// Format returns the text format bits.
func (n *Node) Format() TextFormat { return n.format }

// HasFormat reports whether the text format contains flag.
func (n *Node) HasFormat(flag TextFormat) bool { return n.format.Has(flag) }

// Style returns the inline style string of a text node.
func (n *Node) Style() string { return n.style }

// Mode returns the text mode.
func (n *Node) Mode() TextMode { return n.mode }

// Detail returns the text detail bits.
func (n *Node) Detail() TextDetail { return n.detail }

// IsToken reports whether the text is in token mode.
func (n *Node) IsToken() bool { return n.kind == KindText && n.mode == TextModeToken }

// IsSegmented reports whether the text is in segmented mode.
func (n *Node) IsSegmented() bool { return n.kind == KindText && n.mode == TextModeSegmented }

// IsInert reports whether the text is in inert mode.
func (n *Node) IsInert() bool { return n.kind == KindText && n.mode == TextModeInert }

// IsDirectionless reports whether the text is ignored for direction detection.
func (n *Node) IsDirectionless() bool { return n.detail.Has(DetailDirectionless) }

// IsUnmergeable reports whether the text never merges with neighbours.
func (n *Node) IsUnmergeable() bool { return n.detail.Has(DetailUnmergeable) }

// IsSimpleText reports whether n is a plain "text" node in normal mode.
func (n *Node) IsSimpleText() bool {
	return n.kind == KindText && n.typ == TypeText && n.mode == TextModeNormal
}

// ChildKeys returns a copy of the child keys.
func (n *Node) ChildKeys() []Key { return slices.Clone(n.children) }

// ChildrenSize returns the number of children.
func (n *Node) ChildrenSize() int { return len(n.children) }

// IsEmpty reports whether an element has no children.
func (n *Node) IsEmpty() bool { return len(n.children) == 0 }

// ElementFormat returns the block alignment.
func (n *Node) ElementFormat() ElementFormat { return n.elemFormat }

// Indent returns the indent level.
func (n *Node) Indent() int { return n.indent }

// Direction returns the text direction.
func (n *Node) Direction() Direction { return n.dir }

// ColSpan returns the column span of a grid cell.
func (n *Node) ColSpan() int { return n.colSpan }

// Prop returns an extension field.
func (n *Node) Prop(name string) (any, bool) {
	v, ok := n.props[name]
	return v, ok
}

// PropString returns an extension field as a string, or "".
func (n *Node) PropString(name string) string {
	s, _ := n.props[name].(string)
	return s
}

// Props returns a copy of the extension fields.
func (n *Node) Props() map[string]any { return maps.Clone(n.props) }

// size returns the addressable length of a leaf: code points for text and
// one for other leaves. Elements report their child count.
func (n *Node) size() int {
	switch n.kind {
	case KindText:
		return utf8.RuneCountInString(n.text)
	case KindElement:
		return len(n.children)
	default:
		return 1
	}
}

// SameRender reports whether two versions of a node carry identical
// rendered fields. The reconciler uses it as a fast path before rebuilding
// render specs.
func (n *Node) SameRender(o *Node) bool {
	if n == o {
		return true
	}
	if n == nil || o == nil {
		return false
	}
	return n.typ == o.typ &&
		n.text == o.text &&
		n.format == o.format &&
		n.style == o.style &&
		n.mode == o.mode &&
		n.detail == o.detail &&
		n.elemFormat == o.elemFormat &&
		n.indent == o.indent &&
		n.dir == o.dir &&
		n.colSpan == o.colSpan &&
		maps.Equal(stringProps(n.props), stringProps(o.props)) &&
		len(n.props) == len(o.props)
}

// stringProps projects props to comparable strings for SameRender.
func stringProps(p map[string]any) map[string]string {
	if len(p) == 0 {
		return nil
	}
	out := make(map[string]string, len(p))
	for k, v := range p {
		out[k] = propString(v)
	}
	return out
}
