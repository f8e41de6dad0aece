// Package reconciler applies the difference between two editor states to
// a render target.
//
// Reconcile walks the next state from the root, guided by the dirty sets
// the transaction produced. Subtrees that are neither dirty nor new are
// skipped. A node whose rendered fields did not change is not re-rendered
// even when it was cloned. Children are matched by key, and only the
// children outside a longest increasing subsequence of their old positions
// are moved, so reordering n siblings costs at most n-1 inserts and usually
// far fewer.
//
// Nodes that disappeared are removed from the target after every surviving
// node has been placed, so a node moved out of a removed parent is never
// lost with it. Every created, updated and destroyed node is reported in
// the Result, and decorator changes are reported separately so the editor
// can re-render decorator values.
//
// The target must mirror prev when Reconcile is called. A nil prev renders
// next from scratch.
package reconciler
