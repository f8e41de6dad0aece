package model

import (
	"slices"

	"github.com/dshills/folio/internal/segment"
)

// Dirty describes what a transaction touched. The reconciler walks dirty
// elements top-down and skips every subtree that is absent from both sets.
type Dirty struct {
	// Leaves holds the keys of written text, line break and decorator nodes.
	Leaves map[Key]struct{}

	// Elements holds the keys of written elements and their ancestors. The
	// value is true when the element itself was written and false when it
	// was only marked because a descendant changed.
	Elements map[Key]bool

	// Normalized holds the keys of text nodes merged away or dropped by
	// normalization.
	Normalized map[Key]struct{}

	// Full requests a full reconcile of the whole tree.
	Full bool
}

// NewDirty returns empty dirty sets.
func NewDirty() *Dirty {
	return &Dirty{
		Leaves:     make(map[Key]struct{}),
		Elements:   make(map[Key]bool),
		Normalized: make(map[Key]struct{}),
	}
}

// FullDirty returns a dirty description requesting a full reconcile.
func FullDirty() *Dirty {
	d := NewDirty()
	d.Full = true
	return d
}

// IsDirty reports whether key was touched.
func (d *Dirty) IsDirty(key Key) bool {
	if d.Full {
		return true
	}
	if _, ok := d.Leaves[key]; ok {
		return true
	}
	_, ok := d.Elements[key]
	return ok
}

// Empty reports whether nothing was touched.
func (d *Dirty) Empty() bool {
	return !d.Full && len(d.Leaves) == 0 && len(d.Elements) == 0
}

// TxOption configures a transaction.
type TxOption func(*Tx)

// WithRegistry sets the class table used by node constructors.
func WithRegistry(reg *Registry) TxOption {
	return func(tx *Tx) {
		if reg != nil {
			tx.registry = reg
		}
	}
}

// WithSegmenter sets the text segmenter used by selection edits.
func WithSegmenter(seg segment.Segmenter) TxOption {
	return func(tx *Tx) {
		if seg != nil {
			tx.segmenter = seg
		}
	}
}

// WithAutoDirection enables direction detection for written blocks.
func WithAutoDirection(enabled bool) TxOption {
	return func(tx *Tx) {
		tx.autoDirection = enabled
	}
}

// WithComposition marks a text node as being composed. The composing node
// is never merged or dropped by normalization.
func WithComposition(key Key) TxOption {
	return func(tx *Tx) {
		tx.composition = key
	}
}

// WithoutNormalization skips text normalization and direction detection at
// commit. Importers use it to keep parsed trees as written.
func WithoutNormalization() TxOption {
	return func(tx *Tx) {
		tx.skipNormalize = true
	}
}

// Tx is a write transaction over a sealed State.
//
// A Tx is not safe for concurrent use. It must be closed by exactly one call
// to Commit or Discard; any write afterwards panics with ErrTxClosed.
type Tx struct {
	prev      *State
	nodes     *NodeMap
	selection Selection
	registry  *Registry
	segmenter segment.Segmenter

	cloned        map[Key]struct{}
	dirtyLeaves   map[Key]struct{}
	dirtyElements map[Key]bool
	normalized    map[Key]struct{}
	tags          map[string]struct{}
	touched       map[Key]struct{}

	composition   Key
	autoDirection bool
	skipNormalize bool
	closed        bool
}

// Begin opens a transaction over prev.
func Begin(prev *State, opts ...TxOption) *Tx {
	if prev == nil {
		prev = NewState(nil)
	}
	tx := &Tx{
		prev:          prev,
		nodes:         prev.nodes.derive(),
		selection:     prev.Selection(),
		registry:      prev.registry,
		segmenter:     segment.Default(),
		cloned:        make(map[Key]struct{}),
		dirtyLeaves:   make(map[Key]struct{}),
		dirtyElements: make(map[Key]bool),
		normalized:    make(map[Key]struct{}),
		tags:          make(map[string]struct{}),
		touched:       make(map[Key]struct{}),
	}
	if tx.registry == nil {
		tx.registry = defaultRegistry
	}
	for _, opt := range opts {
		opt(tx)
	}
	return tx
}

// NodeByKey returns the current version of a node, or nil.
func (tx *Tx) NodeByKey(key Key) *Node {
	return tx.nodes.Get(key)
}

// Root returns the current root.
func (tx *Tx) Root() *Node {
	return tx.nodes.Get(RootKey)
}

// Selection returns the live selection of the transaction. Edits made
// through it apply to the pending state.
func (tx *Tx) Selection() Selection {
	return tx.selection
}

// RangeSelection returns the selection when it is a range, or nil.
func (tx *Tx) RangeSelection() *RangeSelection {
	rs, _ := tx.selection.(*RangeSelection)
	return rs
}

// SetSelection replaces the selection. A nil selection clears it.
func (tx *Tx) SetSelection(sel Selection) {
	tx.mustOpen("set selection")
	if rs, ok := sel.(*RangeSelection); ok && rs == nil {
		sel = nil
	}
	tx.selection = sel
}

// Registry returns the class table.
func (tx *Tx) Registry() *Registry {
	return tx.registry
}

// Segmenter returns the text segmenter.
func (tx *Tx) Segmenter() segment.Segmenter {
	return tx.segmenter
}

// Prev returns the state the transaction started from.
func (tx *Tx) Prev() *State {
	return tx.prev
}

// CompositionKey returns the key of the node being composed, or "".
func (tx *Tx) CompositionKey() Key {
	return tx.composition
}

// Tag attaches a tag to the transaction. Tags are reported to update
// listeners.
func (tx *Tx) Tag(tag string) {
	tx.tags[tag] = struct{}{}
}

// HasTag reports whether tag was attached.
func (tx *Tx) HasTag(tag string) bool {
	_, ok := tx.tags[tag]
	return ok
}

// Tags returns the attached tags in sorted order.
func (tx *Tx) Tags() []string {
	tags := make([]string, 0, len(tx.tags))
	for t := range tx.tags {
		tags = append(tags, t)
	}
	slices.Sort(tags)
	return tags
}

// Changed reports whether any node was created or made writable.
func (tx *Tx) Changed() bool {
	return len(tx.cloned) > 0
}

// Closed reports whether the transaction was committed or discarded.
func (tx *Tx) Closed() bool {
	return tx.closed
}

// IsCloned reports whether the node under key was written in this
// transaction.
func (tx *Tx) IsCloned(key Key) bool {
	_, ok := tx.cloned[key]
	return ok
}

func (tx *Tx) mustOpen(op string) {
	if tx.closed {
		invariant(op, "", ErrTxClosed)
	}
}

// writable returns the transaction's private version of the node under key,
// cloning it on first use.
func (tx *Tx) writable(key Key) *Node {
	tx.mustOpen("writable")
	cur := tx.nodes.Get(key)
	if cur == nil {
		invariant("writable", key, ErrNodeNotFound)
	}
	tx.touched[key] = struct{}{}
	if _, ok := tx.cloned[key]; ok {
		return cur
	}
	c := cur.clone()
	tx.nodes.set(key, c)
	tx.cloned[key] = struct{}{}
	tx.markDirty(c)
	return c
}

// register stores a freshly constructed node.
func (tx *Tx) register(n *Node) *Node {
	tx.mustOpen("create")
	tx.nodes.set(n.key, n)
	tx.cloned[n.key] = struct{}{}
	tx.touched[n.key] = struct{}{}
	tx.markDirty(n)
	return n
}

// markDirty records n and marks its ancestors as dirty elements.
func (tx *Tx) markDirty(n *Node) {
	if n.kind == KindElement {
		tx.dirtyElements[n.key] = true
	} else {
		tx.dirtyLeaves[n.key] = struct{}{}
	}
	tx.markAncestors(n.parent)
}

func (tx *Tx) markAncestors(key Key) {
	for key != "" {
		if _, ok := tx.dirtyElements[key]; ok {
			return
		}
		tx.dirtyElements[key] = false
		p := tx.nodes.Get(key)
		if p == nil {
			return
		}
		key = p.parent
	}
}

// TakeTouched returns the keys written since the previous call, in key
// order, and resets the set. Node transforms use it to find work.
func (tx *Tx) TakeTouched() []Key {
	keys := make([]Key, 0, len(tx.touched))
	for k := range tx.touched {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	tx.touched = make(map[Key]struct{})
	return keys
}

// Discard closes the transaction without producing a state.
func (tx *Tx) Discard() {
	tx.closed = true
}

// Commit finishes the transaction and seals the next state.
//
// Commit normalizes written text, detects block direction when enabled,
// deletes nodes that ended up detached, repairs the selection, and returns
// the sealed state with the dirty sets the reconciler needs. When nothing
// was written and the selection is unchanged the previous state is returned.
func (tx *Tx) Commit() (*State, *Dirty) {
	tx.mustOpen("commit")

	if !tx.skipNormalize {
		tx.normalizeText()
		if tx.autoDirection {
			tx.updateDirections()
		}
	}
	tx.collectGarbage()
	tx.repairSelection()
	tx.propagateDirty()
	tx.closed = true

	dirty := &Dirty{
		Leaves:     tx.dirtyLeaves,
		Elements:   tx.dirtyElements,
		Normalized: tx.normalized,
	}
	if !tx.Changed() && selectionsEqual(tx.prev.selection, tx.selection) {
		return tx.prev, dirty
	}
	return &State{
		nodes:     tx.nodes.seal(),
		selection: tx.selection,
		registry:  tx.registry,
	}, dirty
}

// propagateDirty makes sure every ancestor of a surviving dirty node is
// itself marked, so a top-down walk reaches it.
func (tx *Tx) propagateDirty() {
	for key := range tx.dirtyLeaves {
		if n := tx.nodes.Get(key); n != nil {
			tx.markAncestors(n.parent)
		}
	}
	for key := range tx.dirtyElements {
		if n := tx.nodes.Get(key); n != nil {
			tx.markAncestors(n.parent)
		}
	}
}

// attached reports whether key reaches the root through parent links.
// Results are memoized in cache.
func (tx *Tx) attached(key Key, cache map[Key]bool) bool {
	var path []Key
	result := false
	for steps := 0; steps <= tx.nodes.Len(); steps++ {
		if v, ok := cache[key]; ok {
			result = v
			break
		}
		if key == RootKey {
			result = tx.nodes.Has(RootKey)
			break
		}
		n := tx.nodes.Get(key)
		if n == nil || n.parent == "" {
			break
		}
		path = append(path, key)
		key = n.parent
	}
	for _, k := range path {
		cache[k] = result
	}
	return result
}

// collectGarbage deletes written nodes that are no longer attached, along
// with their subtrees.
func (tx *Tx) collectGarbage() {
	cache := make(map[Key]bool)
	var candidates []Key
	for key := range tx.cloned {
		candidates = append(candidates, key)
	}
	slices.Sort(candidates)

	for _, key := range candidates {
		n := tx.nodes.Get(key)
		if n == nil || tx.attached(key, cache) {
			continue
		}
		tx.deleteSubtree(n)
	}
}

func (tx *Tx) deleteSubtree(n *Node) {
	for _, ck := range n.children {
		if c := tx.nodes.Get(ck); c != nil && c.parent == n.key {
			tx.deleteSubtree(c)
		}
	}
	tx.nodes.remove(n.key)
	delete(tx.dirtyLeaves, n.key)
	delete(tx.dirtyElements, n.key)
}
