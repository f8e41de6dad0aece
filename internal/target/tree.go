package target

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// OpKind identifies a Target primitive.
type OpKind uint8

const (
	OpCreate OpKind = iota
	OpUpdate
	OpRemove
	OpInsert
)

// String returns the primitive name.
func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpRemove:
		return "remove"
	case OpInsert:
		return "insert"
	default:
		return "unknown"
	}
}

// Op records one primitive applied to a Tree.
type Op struct {
	Kind   OpKind
	Key    string
	Parent string
	Before string
}

// String formats the op for diagnostics.
func (o Op) String() string {
	if o.Kind == OpInsert {
		return fmt.Sprintf("%s %s into %s before %q", o.Kind, o.Key, o.Parent, o.Before)
	}
	return fmt.Sprintf("%s %s", o.Kind, o.Key)
}

// Element is a rendered element in a Tree.
type Element struct {
	Key      string
	Spec     Spec
	Parent   *Element
	Children []*Element
}

// TextContent returns the concatenated text of the element's subtree.
func (e *Element) TextContent() string {
	var sb strings.Builder
	e.writeText(&sb)
	return sb.String()
}

func (e *Element) writeText(sb *strings.Builder) {
	sb.WriteString(e.Spec.Text)
	for _, c := range e.Children {
		c.writeText(sb)
	}
}

// Tree is an in-memory Target. It is safe for concurrent use.
type Tree struct {
	mu       sync.RWMutex
	elements map[string]*Element
	ops      []Op
}

// NewTree creates an empty tree.
func NewTree() *Tree {
	return &Tree{elements: make(map[string]*Element)}
}

// Create implements Target.
func (t *Tree) Create(key string, spec Spec) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.elements[key]; ok {
		return fmt.Errorf("create %s: %w", key, ErrElementExists)
	}
	t.elements[key] = &Element{Key: key, Spec: spec}
	t.ops = append(t.ops, Op{Kind: OpCreate, Key: key})
	return nil
}

// Update implements Target.
func (t *Tree) Update(key string, spec Spec) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	el, ok := t.elements[key]
	if !ok {
		return fmt.Errorf("update %s: %w", key, ErrElementNotFound)
	}
	el.Spec = spec
	t.ops = append(t.ops, Op{Kind: OpUpdate, Key: key})
	return nil
}

// Remove implements Target.
func (t *Tree) Remove(key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	el, ok := t.elements[key]
	if !ok {
		return fmt.Errorf("remove %s: %w", key, ErrElementNotFound)
	}
	detach(el)
	t.forget(el)
	t.ops = append(t.ops, Op{Kind: OpRemove, Key: key})
	return nil
}

// forget drops el and its subtree from the index.
func (t *Tree) forget(el *Element) {
	delete(t.elements, el.Key)
	for _, c := range el.Children {
		t.forget(c)
	}
}

// Insert implements Target.
func (t *Tree) Insert(parentKey, key, beforeKey string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	parent, ok := t.elements[parentKey]
	if !ok {
		return fmt.Errorf("insert into %s: %w", parentKey, ErrElementNotFound)
	}
	el, ok := t.elements[key]
	if !ok {
		return fmt.Errorf("insert %s: %w", key, ErrElementNotFound)
	}
	for p := parent; p != nil; p = p.Parent {
		if p == el {
			return fmt.Errorf("insert %s under %s: %w", key, parentKey, ErrInvalidInsert)
		}
	}

	detach(el)
	idx := len(parent.Children)
	if beforeKey != "" {
		idx = slices.IndexFunc(parent.Children, func(c *Element) bool { return c.Key == beforeKey })
		if idx < 0 {
			return fmt.Errorf("insert %s before %s: %w", key, beforeKey, ErrInvalidInsert)
		}
	}
	parent.Children = slices.Insert(parent.Children, idx, el)
	el.Parent = parent
	t.ops = append(t.ops, Op{Kind: OpInsert, Key: key, Parent: parentKey, Before: beforeKey})
	return nil
}

func detach(el *Element) {
	if el.Parent == nil {
		return
	}
	p := el.Parent
	p.Children = slices.DeleteFunc(p.Children, func(c *Element) bool { return c == el })
	el.Parent = nil
}

// Lookup implements Target. The returned value is an *Element.
func (t *Tree) Lookup(key string) (any, bool) {
	el, ok := t.Element(key)
	return el, ok
}

// Element returns the element rendered for key.
func (t *Tree) Element(key string) (*Element, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	el, ok := t.elements[key]
	return el, ok
}

// Len returns the number of elements in the tree.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.elements)
}

// Ops returns a copy of the recorded primitives.
func (t *Tree) Ops() []Op {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.ops)
}

// ResetOps clears the recorded primitives.
func (t *Tree) ResetOps() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ops = nil
}

// Walk visits the subtree rooted at key in document order with its depth.
// The tree must not be mutated during the walk.
func (t *Tree) Walk(key string, fn func(el *Element, depth int)) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	el, ok := t.elements[key]
	if !ok {
		return
	}
	walk(el, 0, fn)
}

func walk(el *Element, depth int, fn func(*Element, int)) {
	fn(el, depth)
	for _, c := range el.Children {
		walk(c, depth+1, fn)
	}
}

// Dump renders the subtree rooted at key as an indented outline.
func (t *Tree) Dump(key string) string {
	var sb strings.Builder
	t.Walk(key, func(el *Element, depth int) {
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString("<")
		sb.WriteString(el.Spec.Tag)
		sb.WriteString(">")
		if el.Spec.Text != "" {
			fmt.Fprintf(&sb, " %q", el.Spec.Text)
		}
		sb.WriteString("\n")
	})
	return sb.String()
}
