package model

import "fmt"

// PointType says what a point's offset counts.
type PointType uint8

const (
	// PointText offsets count code points of a text node.
	PointText PointType = iota

	// PointElement offsets count children of an element.
	PointElement
)

// String returns "text" or "element".
func (t PointType) String() string {
	if t == PointElement {
		return "element"
	}
	return "text"
}

// Point addresses a caret position inside a node.
type Point struct {
	Key    Key
	Offset int
	Type   PointType
}

// TextPoint returns a point at a code point offset of a text node.
func TextPoint(key Key, offset int) Point {
	return Point{Key: key, Offset: offset, Type: PointText}
}

// ElementPoint returns a point before the child at offset of an element.
func ElementPoint(key Key, offset int) Point {
	return Point{Key: key, Offset: offset, Type: PointElement}
}

// String formats the point for debugging.
func (p Point) String() string {
	return fmt.Sprintf("%s(%s,%d)", p.Type, p.Key, p.Offset)
}

// Is reports whether two points are equal in key, offset and type.
func (p Point) Is(o Point) bool {
	return p == o
}

// Node returns the addressed node, or nil.
func (p Point) Node(r Reader) *Node {
	return r.NodeByKey(p.Key)
}

// path returns the document-order position of the point: the index path of
// its node followed by its offset.
func (p Point) path(r Reader) ([]int, bool) {
	n := r.NodeByKey(p.Key)
	if n == nil {
		return nil, false
	}
	np := n.path(r)
	if np == nil && n.key != RootKey {
		return nil, false
	}
	return append(np, p.Offset), true
}

// IsBefore reports whether p comes strictly before o in document order.
// Points in unreachable nodes are never before anything.
func (p Point) IsBefore(r Reader, o Point) bool {
	a, ok := p.path(r)
	if !ok {
		return false
	}
	b, ok := o.path(r)
	if !ok {
		return false
	}
	return comparePaths(a, b) < 0
}

// valid reports whether the point addresses an existing node of the right
// kind with an offset inside it.
func (p Point) valid(r Reader) bool {
	n := r.NodeByKey(p.Key)
	if n == nil {
		return false
	}
	switch p.Type {
	case PointText:
		if n.kind != KindText {
			return false
		}
	case PointElement:
		if n.kind != KindElement {
			return false
		}
	default:
		return false
	}
	return p.Offset >= 0 && p.Offset <= n.size()
}
