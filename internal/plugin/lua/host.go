package lua

import (
	"errors"
	"slices"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/folio/internal/command"
	"github.com/dshills/folio/internal/editor"
	"github.com/dshills/folio/internal/logging"
	"github.com/dshills/folio/internal/model"
)

// Host runs scripts against an editor.
type Host struct {
	editor *editor.Editor
	state  *State
	log    *logging.Logger

	// tx is the pending transaction while a script handler runs.
	tx *model.Tx

	mu         sync.Mutex
	unregister []func()
	commands   []string
}

// NewHost creates a host for e with a fresh sandboxed state.
func NewHost(e *editor.Editor, opts ...Option) *Host {
	opts = append([]Option{WithLogger(e.Logger())}, opts...)
	h := &Host{editor: e, state: NewState(opts...)}
	h.log = h.state.log
	h.state.RegisterModule("folio", h.api())
	return h
}

// State returns the underlying Lua state.
func (h *Host) State() *State {
	return h.state
}

// Run executes a script. An invariant violation raised by an edit inside
// a pending update panics again here so that the editor aborts the update.
func (h *Host) Run(code string) error {
	return raiseInvariant(h.state.DoString(code))
}

// RunFile executes a script file.
func (h *Host) RunFile(path string) error {
	return raiseInvariant(h.state.DoFile(path))
}

// Commands returns the names of the commands scripts registered handlers
// for, sorted and without duplicates.
func (h *Host) Commands() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := slices.Clone(h.commands)
	slices.Sort(names)
	return slices.Compact(names)
}

// Close removes every handler and listener the scripts registered and
// closes the state.
func (h *Host) Close() error {
	h.mu.Lock()
	unregister := h.unregister
	h.unregister, h.commands = nil, nil
	h.mu.Unlock()

	for _, fn := range unregister {
		fn()
	}
	return h.state.Close()
}

func (h *Host) track(fn func()) {
	h.mu.Lock()
	h.unregister = append(h.unregister, fn)
	h.mu.Unlock()
}

// handler adapts a script function to a command handler. Script errors
// are logged and leave the command unhandled; invariant violations abort
// the transaction.
func (h *Host) handler(name string, fn *lua.LFunction) editor.CommandHandler[any] {
	return func(tx *model.Tx, payload any) bool {
		prev := h.tx
		h.tx = tx
		defer func() { h.tx = prev }()

		ret, err := h.state.Call(fn, ToLuaValue(h.state.L, payload))
		if err := raiseInvariant(err); err != nil {
			h.log.Warn("script command failed", "command", name, "error", err)
			return false
		}
		return lua.LVAsBool(ret)
	}
}

// edit runs fn in the pending transaction of a script handler, or in a new
// update otherwise. It reports what fn reported.
func (h *Host) edit(fn func(tx *model.Tx) bool) bool {
	defer passInvariant()
	if h.tx != nil {
		return fn(h.tx)
	}
	var ok bool
	if _, err := h.editor.Update(func(tx *model.Tx) error {
		prev := h.tx
		h.tx = tx
		defer func() { h.tx = prev }()
		ok = fn(tx)
		return nil
	}); err != nil {
		h.log.Warn("script edit failed", "error", err)
		return false
	}
	return ok
}

// passInvariant carries a model invariant panic across the Lua frames
// above it as a Lua error with the violation as its cause. gopher-lua
// turns any other panic value into a plain string.
func passInvariant() {
	r := recover()
	if r == nil {
		return
	}
	if ie, ok := r.(*model.InvariantError); ok {
		panic(&lua.ApiError{Type: lua.ApiErrorRun, Object: lua.LString(ie.Error()), Cause: ie})
	}
	panic(r)
}

// raiseInvariant panics with the invariant violation behind err, if any, so
// that the editor aborts the pending update. Other errors are returned.
func raiseInvariant(err error) error {
	var ae *lua.ApiError
	if errors.As(err, &ae) {
		if ie, ok := ae.Cause.(*model.InvariantError); ok {
			panic(ie)
		}
	}
	return err
}

// reader returns the pending transaction or the current state.
func (h *Host) reader() model.Reader {
	if h.tx != nil {
		return h.tx
	}
	return h.editor.EditorState()
}

func (h *Host) api() map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"register":         h.luaRegister,
		"dispatch":         h.luaDispatch,
		"insert_text":      h.luaInsertText,
		"insert_paragraph": h.luaInsertParagraph,
		"text":             h.luaText,
		"selection":        h.luaSelection,
		"read_only":        h.luaReadOnly,
		"on_update":        h.luaOnUpdate,
		"log":              h.luaLog,
	}
}

// folio.register(name, fn [, priority])
func (h *Host) luaRegister(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)
	prio := command.PriorityNormal
	if L.GetTop() >= 3 {
		p, ok := command.ParsePriority(L.CheckString(3))
		if !ok {
			L.ArgError(3, "unknown priority "+L.CheckString(3))
			return 0
		}
		prio = p
	}
	unregister := editor.RegisterCommand(h.editor, command.New[any](name), h.handler(name, fn), prio)
	h.track(unregister)
	h.mu.Lock()
	h.commands = append(h.commands, name)
	h.mu.Unlock()
	return 0
}

// folio.dispatch(name [, payload]) -> handled
func (h *Host) luaDispatch(L *lua.LState) int {
	name := L.CheckString(1)
	defer passInvariant()
	handled := h.editor.DispatchName(name, payloadFor(name, L.Get(2)))
	L.Push(lua.LBool(handled))
	return 1
}

// folio.insert_text(text) -> ok
func (h *Host) luaInsertText(L *lua.LState) int {
	text := L.CheckString(1)
	ok := h.edit(func(tx *model.Tx) bool {
		sel := tx.RangeSelection()
		if sel == nil {
			return false
		}
		sel.InsertText(tx, text)
		return true
	})
	L.Push(lua.LBool(ok))
	return 1
}

// folio.insert_paragraph() -> ok
func (h *Host) luaInsertParagraph(L *lua.LState) int {
	ok := h.edit(func(tx *model.Tx) bool {
		sel := tx.RangeSelection()
		if sel == nil {
			return false
		}
		sel.InsertParagraph(tx)
		return true
	})
	L.Push(lua.LBool(ok))
	return 1
}

// folio.text() -> string
func (h *Host) luaText(L *lua.LState) int {
	r := h.reader()
	root := r.NodeByKey(model.RootKey)
	L.Push(lua.LString(root.TextContent(r)))
	return 1
}

// folio.selection() -> string or nil
func (h *Host) luaSelection(L *lua.LState) int {
	r := h.reader()
	sel := r.Selection()
	if sel == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(sel.TextContent(r)))
	return 1
}

// folio.read_only() -> bool
func (h *Host) luaReadOnly(L *lua.LState) int {
	L.Push(lua.LBool(h.editor.IsReadOnly()))
	return 1
}

// folio.on_update(fn)
func (h *Host) luaOnUpdate(L *lua.LState) int {
	fn := L.CheckFunction(1)
	unregister := h.editor.RegisterUpdateListener(func(ev editor.UpdateEvent) {
		if h.state.IsClosed() {
			return
		}
		if _, err := h.state.Call(fn, ToLuaValue(h.state.L, ev.Tags)); err != nil {
			h.log.Warn("script update listener failed", "error", err)
		}
	})
	h.track(unregister)
	return 0
}

// folio.log(level, message)
func (h *Host) luaLog(L *lua.LState) int {
	level := logging.ParseLogLevel(L.CheckString(1))
	msg := L.CheckString(2)
	switch level {
	case logging.LogLevelDebug:
		h.log.Debug(msg)
	case logging.LogLevelWarn:
		h.log.Warn(msg)
	case logging.LogLevelError:
		h.log.Error(msg)
	default:
		h.log.Info(msg)
	}
	return 0
}
