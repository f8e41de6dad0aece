package model

// Reader is the read access shared by sealed states and open transactions.
// Navigation methods on Node take a Reader so the same code walks either.
type Reader interface {
	// NodeByKey returns the current version of a node, or nil.
	NodeByKey(key Key) *Node

	// Selection returns the selection, or nil.
	Selection() Selection

	// Registry returns the node class table.
	Registry() *Registry
}

// State is an immutable snapshot of a document: the node map plus the
// selection. States are safe for concurrent reads.
type State struct {
	nodes     *NodeMap
	selection Selection
	registry  *Registry
}

// NewState returns a state holding an empty root and no selection.
func NewState(reg *Registry) *State {
	if reg == nil {
		reg = defaultRegistry
	}
	m := NewNodeMap()
	m.set(RootKey, &Node{key: RootKey, typ: TypeRoot, kind: KindElement})
	return &State{nodes: m, registry: reg}
}

// NodeByKey returns the node stored under key, or nil.
func (s *State) NodeByKey(key Key) *Node {
	return s.nodes.Get(key)
}

// Root returns the root node.
func (s *State) Root() *Node {
	return s.nodes.Get(RootKey)
}

// Selection returns a copy of the selection, or nil.
func (s *State) Selection() Selection {
	if s.selection == nil {
		return nil
	}
	return s.selection.Clone()
}

// Registry returns the class table the state was built with.
func (s *State) Registry() *Registry {
	return s.registry
}

// Nodes returns the node map. Callers must not modify the nodes.
func (s *State) Nodes() *NodeMap {
	return s.nodes
}

// Len returns the number of nodes, root included.
func (s *State) Len() int {
	return s.nodes.Len()
}

// IsEmpty reports whether the root has no children and nothing is selected.
func (s *State) IsEmpty() bool {
	return s.Root().IsEmpty() && s.selection == nil
}

// TextContent returns the text of the whole document.
func (s *State) TextContent() string {
	return s.Root().TextContent(s)
}

// Read runs fn in a read scope over the state.
func (s *State) Read(fn func(r Reader) error) error {
	return fn(s)
}

// WithSelection returns a state sharing s's nodes with a different selection.
func (s *State) WithSelection(sel Selection) *State {
	if sel != nil {
		sel = sel.Clone()
	}
	return &State{nodes: s.nodes, selection: sel, registry: s.registry}
}

// Walk visits the attached nodes of s in document order.
func (s *State) Walk(fn func(n *Node) bool) {
	Walk(s, s.Root(), fn)
}
