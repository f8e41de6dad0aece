// Package model implements the rich-text document model: a keyed tree of
// typed nodes, immutable editor states, selections, and the write
// transactions that turn one state into the next.
//
// # Nodes
//
// A Node is a tagged variant. Its Kind (text, element, line break or
// decorator) decides which fields are meaningful, and its type tag selects a
// Class from a Registry. The class table carries the per-type traits the rest
// of the system consults: whether an element may be empty or is inline,
// whether a decorator is top-level, how the node renders, and how extra
// fields are exported and imported.
//
// Nodes live in an arena keyed by Key. Children are ordered key slices and
// the parent is a single back-reference key, so the structure is a tree by
// construction: inserting a node under one of its own descendants panics.
//
// # States and transactions
//
// A State is an immutable snapshot of the node map plus the selection. Begin
// opens a Tx over a state. The Tx writes into a fresh layer of the layered
// NodeMap, cloning a node the first time it is made writable; nodes that are
// never written stay shared with the previous state by reference. Commit runs
// deferred normalization (merging adjacent plain text, dropping empty text),
// collects detached nodes, repairs the selection and seals a new State.
//
// Every operation that needs transaction state takes the Tx (or a Reader for
// read-only work) explicitly:
//
//	tx := model.Begin(prev)
//	p := model.NewParagraph(tx)
//	p.Append(tx, model.NewText(tx, "Hello"))
//	tx.Root().Append(tx, p)
//	next, dirty := tx.Commit()
//
// Node field accessors such as Text or Format read the snapshot they are
// called on. Use Latest (or look the key up again) after writes to see the
// current version.
//
// # Errors
//
// Misuse of the API, such as writing through a closed transaction, removing
// the root, or operating on a node that is not attached to the tree, panics
// with an *InvariantError. The editor recovers these panics and aborts the
// transaction. Malformed serialized input is returned as a *ParseError or
// *UnknownTypeError. Navigation past the edges of the tree returns nil.
package model
