// Package target defines the render-target contract driven by the reconciler
// and provides Tree, an in-memory implementation.
//
// A render target is any tree-shaped surface whose elements are addressed by
// node key. The reconciler only ever calls the five Target primitives, so a
// terminal screen, an HTML document or a test double can sit behind the same
// interface. Tree records every primitive it receives, which makes it useful
// both as the backing store of other targets and for asserting that a
// reconcile pass emitted the minimal set of mutations.
package target
