package model

import (
	"fmt"
	"slices"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/dshills/folio/internal/target"
)

// Built-in type tags.
const (
	TypeRoot           = "root"
	TypeParagraph      = "paragraph"
	TypeText           = "text"
	TypeLineBreak      = "linebreak"
	TypeGrid           = "grid"
	TypeGridRow        = "gridrow"
	TypeGridCell       = "gridcell"
	TypeHeading        = "heading"
	TypeQuote          = "quote"
	TypeHorizontalRule = "horizontalrule"
)

// Class is the capability record of a node type.
type Class struct {
	// Type is the type tag stored on nodes and in serialized output.
	Type string

	// Kind is the node shape the type produces.
	Kind Kind

	// Version is written to serialized output.
	Version int

	// CanBeEmpty reports whether an element survives losing its last child.
	// Elements that cannot be empty are removed when emptied.
	CanBeEmpty bool

	// Inline marks elements that flow inside a block.
	Inline bool

	// Splittable marks blocks that split into a new paragraph when a
	// paragraph break is inserted inside them.
	Splittable bool

	// Isolated marks decorators that cannot be entered by the caret.
	Isolated bool

	// TopLevel marks decorators that sit directly under the root.
	TopLevel bool

	// ShadowRoot marks elements that hold blocks the way the root does.
	// Line and paragraph edits never cross their boundary.
	ShadowRoot bool

	// Render describes the rendered element. Nil uses the kind default.
	Render func(n *Node) target.Spec

	// Export returns extra serialized fields. Extension props are exported
	// automatically.
	Export func(n *Node) map[string]any

	// Import validates a node after its fields were read. Unknown fields
	// have already been copied into props.
	Import func(n *Node, fields gjson.Result) error
}

// Registry maps type tags to classes. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]*Class
}

// NewRegistry returns a registry holding the built-in types.
func NewRegistry() *Registry {
	r := &Registry{classes: make(map[string]*Class)}
	for _, c := range builtinClasses() {
		r.classes[c.Type] = &c
	}
	return r
}

var defaultRegistry = NewRegistry()

// Register adds a class. Registering a type twice fails.
func (r *Registry) Register(c Class) error {
	if c.Type == "" {
		return fmt.Errorf("register: empty type: %w", ErrUnknownType)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.classes[c.Type]; ok {
		return fmt.Errorf("register %q: %w", c.Type, ErrDuplicateType)
	}
	r.classes[c.Type] = &c
	return nil
}

// Class returns the class for a type tag.
func (r *Registry) Class(typ string) (*Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.classes[typ]
	return c, ok
}

// Has reports whether typ is registered.
func (r *Registry) Has(typ string) bool {
	_, ok := r.Class(typ)
	return ok
}

// Types returns the registered type tags in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.classes))
	for t := range r.classes {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

func (r *Registry) mustClass(typ string) *Class {
	c, ok := r.Class(typ)
	if !ok {
		invariant("class", "", fmt.Errorf("%q: %w", typ, ErrUnknownType))
	}
	return c
}

func builtinClasses() []Class {
	return []Class{
		{Type: TypeRoot, Kind: KindElement, Version: 1, Render: renderRoot},
		{Type: TypeParagraph, Kind: KindElement, Version: 1, CanBeEmpty: true, Splittable: true, Render: renderTagged("p")},
		{Type: TypeHeading, Kind: KindElement, Version: 1, CanBeEmpty: true, Splittable: true, Render: renderHeading, Import: importHeading},
		{Type: TypeQuote, Kind: KindElement, Version: 1, CanBeEmpty: true, Splittable: true, Render: renderTagged("blockquote")},
		{Type: TypeGrid, Kind: KindElement, Version: 1, Render: renderTagged("table")},
		{Type: TypeGridRow, Kind: KindElement, Version: 1, Render: renderTagged("tr")},
		{Type: TypeGridCell, Kind: KindElement, Version: 1, CanBeEmpty: true, ShadowRoot: true, Render: renderGridCell},
		{Type: TypeText, Kind: KindText, Version: 1, Render: renderText},
		{Type: TypeLineBreak, Kind: KindLineBreak, Version: 1, Render: renderLineBreak},
		{Type: TypeHorizontalRule, Kind: KindDecorator, Version: 1, TopLevel: true, Isolated: true, Render: renderTagged("hr")},
	}
}

var headingTags = []string{"h1", "h2", "h3", "h4", "h5", "h6"}

func importHeading(n *Node, _ gjson.Result) error {
	tag := n.PropString("tag")
	if tag == "" {
		n.setProp("tag", "h1")
		return nil
	}
	if !slices.Contains(headingTags, tag) {
		return fmt.Errorf("heading tag %q: %w", tag, ErrInvalidState)
	}
	return nil
}
