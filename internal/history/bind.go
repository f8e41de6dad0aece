package history

import (
	"github.com/dshills/folio/internal/command"
	"github.com/dshills/folio/internal/editor"
	"github.com/dshills/folio/internal/model"
)

// Register connects h to e. It records every committed update and installs
// handlers for UNDO, REDO and CLEAR_HISTORY at editor priority. The returned
// function disconnects everything.
func Register(e *editor.Editor, h *History) func() {
	log := e.Logger().WithComponent("history")

	announce := func() {
		editor.DispatchCommand(e, editor.CanUndo, h.CanUndo())
		editor.DispatchCommand(e, editor.CanRedo, h.CanRedo())
	}

	// restore applies the entry peek returns and only then lets step pop
	// it, so a rejected state keeps its entry.
	restore := func(peek func() *Entry, step func(*model.State) (*model.State, error), what string) bool {
		entry := peek()
		if entry == nil {
			return false
		}
		current := e.EditorState()
		if err := e.SetEditorState(entry.State, editor.WithTag(editor.TagHistoric)); err != nil {
			log.Warn("restore failed", "op", what, "error", err)
			return false
		}
		if _, err := step(current); err != nil {
			return false
		}
		announce()
		return true
	}

	unregister := []func(){
		e.RegisterUpdateListener(func(ev editor.UpdateEvent) {
			act := h.Record(Change{
				Prev:          ev.PrevState,
				Next:          ev.State,
				DirtyLeaves:   ev.DirtyLeaves,
				DirtyElements: ev.DirtyElements,
				Tags:          ev.Tags,
			})
			if act == ActionPush {
				log.Debug("recorded", "undo", h.UndoCount())
				announce()
			}
		}),
		editor.RegisterCommand(e, editor.Undo, func(*model.Tx, struct{}) bool {
			return restore(h.PeekUndo, h.Undo, "undo")
		}, command.PriorityEditor),
		editor.RegisterCommand(e, editor.Redo, func(*model.Tx, struct{}) bool {
			return restore(h.PeekRedo, h.Redo, "redo")
		}, command.PriorityEditor),
		editor.RegisterCommand(e, editor.ClearHistory, func(*model.Tx, struct{}) bool {
			h.Clear()
			announce()
			return true
		}, command.PriorityEditor),
	}

	return func() {
		for _, fn := range unregister {
			fn()
		}
	}
}
