package model

import (
	"maps"
	"slices"

	"golang.org/x/text/unicode/bidi"
)

// canMerge reports whether two adjacent text nodes may be joined.
func (tx *Tx) canMerge(a, b *Node) bool {
	return a.IsSimpleText() && b.IsSimpleText() &&
		!a.IsUnmergeable() && !b.IsUnmergeable() &&
		a.key != tx.composition && b.key != tx.composition &&
		a.format == b.format && a.style == b.style
}

// normalizeText drops empty plain text and merges plain text with adjacent
// siblings of the same format and style. Only written text is visited.
func (tx *Tx) normalizeText() {
	keys := slices.Sorted(maps.Keys(tx.dirtyLeaves))
	for _, k := range keys {
		n := tx.nodes.Get(k)
		if n == nil || !n.IsSimpleText() || n.IsUnmergeable() || !n.IsAttached(tx) {
			continue
		}
		if n.text == "" {
			if k != tx.composition {
				n.Remove(tx, false)
				tx.normalized[k] = struct{}{}
			}
			continue
		}
		if prev := n.PreviousSibling(tx); prev != nil && tx.canMerge(prev, n) {
			prev.MergeWithSibling(tx, n)
			tx.normalized[n.key] = struct{}{}
			n = prev.Latest(tx)
		}
		if next := n.NextSibling(tx); next != nil && tx.canMerge(n, next) {
			n.MergeWithSibling(tx, next)
			tx.normalized[next.key] = struct{}{}
		}
	}
}

// DetectDirection returns the direction of the first strong character of
// text, or DirNone when it has none.
func DetectDirection(text string) Direction {
	for _, r := range text {
		props, _ := bidi.LookupRune(r)
		switch props.Class() {
		case bidi.L:
			return DirLTR
		case bidi.R, bidi.AL:
			return DirRTL
		}
	}
	return DirNone
}

// blockDirection detects the direction of a block from its text, skipping
// directionless text.
func blockDirection(r Reader, n *Node) Direction {
	for _, t := range n.AllTextNodes(r) {
		if t.IsDirectionless() {
			continue
		}
		if d := DetectDirection(t.text); d != DirNone {
			return d
		}
	}
	return DirNone
}

// updateDirections sets the direction of every written block from its
// text.
func (tx *Tx) updateDirections() {
	keys := slices.Sorted(maps.Keys(tx.dirtyElements))
	for _, k := range keys {
		n := tx.nodes.Get(k)
		if n == nil || isContainer(tx, n) || !isBlockNode(tx, n) || !n.IsAttached(tx) {
			continue
		}
		if d := blockDirection(tx, n); d != n.dir {
			n.SetDirection(tx, d)
		}
	}
}
