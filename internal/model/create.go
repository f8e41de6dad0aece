package model

import "fmt"

// NewNode creates a detached node of a registered type.
func NewNode(tx *Tx, typ string) *Node {
	c := tx.registry.mustClass(typ)
	n := &Node{key: NewKey(), typ: typ, kind: c.Kind}
	if typ == TypeRoot {
		invariant("create", "", fmt.Errorf("second root: %w", ErrRootImmutable))
	}
	if typ == TypeGridCell {
		n.colSpan = 1
	}
	return tx.register(n)
}

// NewText creates a detached plain text node.
func NewText(tx *Tx, text string) *Node {
	n := NewNode(tx, TypeText)
	n.text = text
	return n
}

// NewParagraph creates an empty paragraph.
func NewParagraph(tx *Tx) *Node {
	return NewNode(tx, TypeParagraph)
}

// NewLineBreak creates a line break.
func NewLineBreak(tx *Tx) *Node {
	return NewNode(tx, TypeLineBreak)
}

// NewHeading creates an empty heading. The tag must be h1 through h6.
func NewHeading(tx *Tx, tag string) *Node {
	n := NewNode(tx, TypeHeading)
	if tag == "" {
		tag = "h1"
	}
	n.setProp("tag", tag)
	return n
}

// NewQuote creates an empty quote block.
func NewQuote(tx *Tx) *Node {
	return NewNode(tx, TypeQuote)
}

// NewGrid creates an empty grid.
func NewGrid(tx *Tx) *Node {
	return NewNode(tx, TypeGrid)
}

// NewGridRow creates an empty grid row.
func NewGridRow(tx *Tx) *Node {
	return NewNode(tx, TypeGridRow)
}

// NewGridCell creates an empty grid cell spanning colSpan columns.
func NewGridCell(tx *Tx, colSpan int) *Node {
	n := NewNode(tx, TypeGridCell)
	if colSpan > 1 {
		n.colSpan = colSpan
	}
	return n
}

// NewHorizontalRule creates a horizontal rule decorator.
func NewHorizontalRule(tx *Tx) *Node {
	return NewNode(tx, TypeHorizontalRule)
}

// BuildGrid creates a detached grid of rows by cols cells, each holding an
// empty paragraph.
func BuildGrid(tx *Tx, rows, cols int) *Node {
	grid := NewGrid(tx)
	for range rows {
		row := NewGridRow(tx)
		for range cols {
			cell := NewGridCell(tx, 1)
			cell.Append(tx, NewParagraph(tx))
			row.Append(tx, cell)
		}
		grid.Append(tx, row)
	}
	return grid
}

// copyOf creates a detached empty node of n's type carrying n's block
// fields. Paragraph splits use it to continue a block.
func copyOf(tx *Tx, n *Node) *Node {
	c := NewNode(tx, n.typ)
	c.elemFormat = n.elemFormat
	c.indent = n.indent
	c.dir = n.dir
	for k, v := range n.props {
		c.setProp(k, v)
	}
	return c
}

func (n *Node) setProp(name string, v any) {
	if n.props == nil {
		n.props = make(map[string]any)
	}
	n.props[name] = v
}
