package model

// maxLayerDepth bounds the layer chain before a sealed map is flattened.
const maxLayerDepth = 16

// NodeMap is a layered persistent map from key to node.
//
// Each transaction writes into a new layer over the previous sealed map, so
// a state shares every node it did not write with its predecessor. Lookups
// walk the chain from the top layer down; a nil entry marks a deletion.
// Sealed maps are never written again.
type NodeMap struct {
	base    *NodeMap
	entries map[Key]*Node
	depth   int
	size    int
}

// NewNodeMap returns an empty map.
func NewNodeMap() *NodeMap {
	return &NodeMap{entries: make(map[Key]*Node)}
}

// Get returns the node for key, or nil.
func (m *NodeMap) Get(key Key) *Node {
	for l := m; l != nil; l = l.base {
		if n, ok := l.entries[key]; ok {
			return n
		}
	}
	return nil
}

// Has reports whether key is present.
func (m *NodeMap) Has(key Key) bool {
	return m.Get(key) != nil
}

// Len returns the number of nodes.
func (m *NodeMap) Len() int {
	return m.size
}

// Range calls fn for each node until fn returns false. Order is unspecified.
func (m *NodeMap) Range(fn func(Key, *Node) bool) {
	if m.base == nil {
		for k, n := range m.entries {
			if n != nil && !fn(k, n) {
				return
			}
		}
		return
	}
	seen := make(map[Key]struct{}, m.size)
	for l := m; l != nil; l = l.base {
		for k, n := range l.entries {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			if n == nil {
				continue
			}
			if !fn(k, n) {
				return
			}
		}
	}
}

// derive returns a writable layer over m.
func (m *NodeMap) derive() *NodeMap {
	return &NodeMap{
		base:    m,
		entries: make(map[Key]*Node),
		depth:   m.depth + 1,
		size:    m.size,
	}
}

func (m *NodeMap) set(key Key, n *Node) {
	if !m.Has(key) {
		m.size++
	}
	m.entries[key] = n
}

func (m *NodeMap) remove(key Key) {
	if !m.Has(key) {
		return
	}
	m.size--
	if m.base != nil && m.base.Has(key) {
		m.entries[key] = nil
		return
	}
	delete(m.entries, key)
}

// seal finishes a writable layer. Empty layers collapse into their base and
// deep chains are flattened.
func (m *NodeMap) seal() *NodeMap {
	if len(m.entries) == 0 && m.base != nil {
		return m.base
	}
	if m.depth <= maxLayerDepth {
		return m
	}
	flat := &NodeMap{entries: make(map[Key]*Node, m.size), size: m.size}
	m.Range(func(k Key, n *Node) bool {
		flat.entries[k] = n
		return true
	})
	return flat
}
