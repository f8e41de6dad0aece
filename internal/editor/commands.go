package editor

import (
	"github.com/dshills/folio/internal/command"
	"github.com/dshills/folio/internal/model"
)

// TableSize is the payload of InsertTable.
type TableSize struct {
	Rows    int
	Columns int
}

// Built-in commands. Boolean payloads of the delete commands select the
// direction: true deletes backward.
var (
	SelectionChange = command.New[struct{}]("SELECTION_CHANGE")
	DeleteCharacter = command.New[bool]("DELETE_CHARACTER")
	DeleteWord      = command.New[bool]("DELETE_WORD")
	DeleteLine      = command.New[bool]("DELETE_LINE")
	InsertText      = command.New[string]("INSERT_TEXT")
	InsertLineBreak = command.New[bool]("INSERT_LINE_BREAK")
	InsertParagraph = command.New[struct{}]("INSERT_PARAGRAPH")
	RemoveText      = command.New[struct{}]("REMOVE_TEXT")
	FormatText      = command.New[model.TextFormat]("FORMAT_TEXT")
	FormatElement   = command.New[model.ElementFormat]("FORMAT_ELEMENT")
	IndentContent   = command.New[struct{}]("INDENT_CONTENT")
	OutdentContent  = command.New[struct{}]("OUTDENT_CONTENT")
	Undo            = command.New[struct{}]("UNDO")
	Redo            = command.New[struct{}]("REDO")
	CanUndo         = command.New[bool]("CAN_UNDO")
	CanRedo         = command.New[bool]("CAN_REDO")
	ClearEditor     = command.New[struct{}]("CLEAR_EDITOR")
	ClearHistory    = command.New[struct{}]("CLEAR_HISTORY")
	InsertTable     = command.New[TableSize]("INSERT_TABLE")
)

// CommandHandler handles a command inside the pending transaction.
type CommandHandler[P any] func(tx *model.Tx, payload P) bool

// RegisterCommand adds fn as a handler of cmd on the editor's bus. The
// handler only runs inside an update; dispatches made outside one through
// the bus directly are ignored by it.
func RegisterCommand[P any](e *Editor, cmd command.Command[P], fn CommandHandler[P], prio command.Priority) func() {
	if fn == nil {
		return func() {}
	}
	return command.Register(e.bus, cmd, func(p P) bool {
		tx := e.pendingTx()
		if tx == nil {
			return false
		}
		return fn(tx, p)
	}, prio)
}

// DispatchCommand dispatches cmd inside an update and reports whether a
// handler took it. Dispatched from within an update it joins that update.
// Dispatched while another batch is still running, from a listener or from
// another goroutine, the dispatch is queued behind that batch and reports
// false; handlers still see it once the queue drains.
func DispatchCommand[P any](e *Editor, cmd command.Command[P], payload P) bool {
	return e.DispatchName(cmd.Name(), payload)
}

// DispatchName dispatches a command by name with an untyped payload. It
// queues like DispatchCommand, so false means either unhandled or queued.
func (e *Editor) DispatchName(name string, payload any) bool {
	if e.pendingTx() != nil {
		return e.bus.DispatchName(name, payload)
	}
	var handled bool
	if _, err := e.Update(func(*model.Tx) error {
		handled = e.bus.DispatchName(name, payload)
		return nil
	}); err != nil {
		return false
	}
	return handled
}

func (e *Editor) pendingTx() *model.Tx {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.phase != PhaseWriting {
		return nil
	}
	return e.pending
}
