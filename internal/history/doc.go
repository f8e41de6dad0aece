// Package history provides undo/redo for a folio editor.
//
// History records document snapshots rather than inverse operations. Every
// committed update pushes the state it replaced onto the undo stack; undoing
// swaps the current state with the top of that stack. Sealed states are
// immutable and share unchanged nodes, so a snapshot costs only the nodes
// the update wrote.
//
// # Merging
//
// Consecutive updates that only change the text of the same text node within
// the merge window collapse into one entry, so typing a word undoes as a
// unit. Update tags override the heuristic:
//
//   - editor.TagHistoric: not recorded (undo and redo themselves)
//   - editor.TagHistoryMerge: folded into the current entry
//   - editor.TagHistoryPush: always starts a new entry
//
// # Grouping
//
// Updates between BeginGroup and EndGroup form one entry:
//
//	defer h.GroupScope("Paste").End()
//
// # Editor Binding
//
// Register wires a History to an editor: it records committed updates and
// handles the UNDO, REDO and CLEAR_HISTORY commands, dispatching CAN_UNDO and
// CAN_REDO whenever availability may have changed.
package history
