// Package editor runs updates against a folio document.
//
// An Editor owns the current sealed model.State. Every change goes through
// Update, which opens a model.Tx over the current state, runs the update
// function, applies registered node transforms, commits, reconciles the
// result into the render target and finally notifies listeners.
//
// # Update Lifecycle
//
// The editor moves through three phases:
//
//	idle ──Update──▶ writing ──Commit──▶ reconciling ──listeners──▶ idle
//
// Calls to Update made while another update is writing (from inside an
// update function or a command handler) join the in-flight batch and run
// immediately against the same transaction. Calls made while listeners run
// are queued and processed, first in first out, as the next batch. Each
// batch produces exactly one commit and one reconcile.
//
// A batch fails when an update function returns an error or a model
// invariant panics. The pending transaction is discarded, the error handler
// is called and the previous state stays current.
//
// # Commands
//
// Commands are dispatched through a command.Bus. RegisterCommand and
// DispatchCommand wrap handlers so they always run inside an update and
// receive the pending transaction:
//
//	editor.RegisterCommand(e, editor.InsertText, func(tx *model.Tx, s string) bool {
//		sel := tx.RangeSelection()
//		if sel == nil {
//			return false
//		}
//		sel.InsertText(tx, s)
//		return true
//	}, command.PriorityEditor)
//
//	editor.DispatchCommand(e, editor.InsertText, "hello")
//
// RegisterRichText installs the default handlers for the built-in editing
// commands.
//
// # Thread Safety
//
// EditorState, Read and the accessors are safe to call from any goroutine.
// Updates are meant to come from a single writer; sealed states handed to
// listeners are immutable and may be retained.
package editor
