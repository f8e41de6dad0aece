package lua

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/folio/internal/logging"
	"github.com/dshills/folio/internal/model"
)

// DefaultExecutionTimeout bounds one top-level script execution.
const DefaultExecutionTimeout = 5 * time.Second

// Option configures a State.
type Option func(*State)

// WithExecutionTimeout sets the timeout of each top-level execution. Zero
// disables it.
func WithExecutionTimeout(d time.Duration) Option {
	return func(s *State) {
		s.timeout = d
	}
}

// WithLogger sets the logger receiving script output.
func WithLogger(l *logging.Logger) Option {
	return func(s *State) {
		if l != nil {
			s.log = l
		}
	}
}

// State wraps a sandboxed gopher-lua state.
//
// gopher-lua states are not goroutine-safe, and neither is State. Calls may
// nest: a Go function called from Lua can call back into Lua, and only the
// outermost call starts the execution timeout.
type State struct {
	L *lua.LState

	timeout time.Duration
	log     *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	depth  int
	closed bool
}

// NewState creates a sandboxed Lua state.
func NewState(opts ...Option) *State {
	s := &State{
		timeout: DefaultExecutionTimeout,
		log:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithComponent("lua")

	s.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(s.L)
	s.sandbox()
	return s
}

// openSafeLibraries opens only safe Lua standard libraries.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes globals that reach the file system or load code, and
// routes print to the logger.
func (s *State) sandbox() {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		s.L.SetGlobal(name, lua.LNil)
	}
	s.L.SetGlobal("print", s.L.NewFunction(func(L *lua.LState) int {
		parts := make([]string, L.GetTop())
		for i := range parts {
			parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
		}
		s.log.Info("print", "message", strings.Join(parts, "\t"))
		return 0
	}))
}

// enter marks the start of a call. The outermost call installs the
// timeout context; the returned function undoes enter.
func (s *State) enter() func() {
	if s.depth == 0 && s.timeout > 0 {
		s.ctx, s.cancel = context.WithTimeout(context.Background(), s.timeout)
		s.L.SetContext(s.ctx)
	}
	s.depth++
	return func() {
		s.depth--
		if s.depth == 0 && s.cancel != nil {
			s.cancel()
			s.L.RemoveContext()
			s.ctx, s.cancel = nil, nil
		}
	}
}

// wrap classifies an execution error.
func (s *State) wrap(err error) error {
	if err == nil {
		return nil
	}
	if s.ctx != nil && errors.Is(s.ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrExecutionTimeout, err)
	}
	return err
}

// protect runs fn, turning a panic into an error. Model invariant
// violations keep panicking.
func (s *State) protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(*model.InvariantError); ok {
				panic(r)
			}
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// DoString executes a Lua chunk.
func (s *State) DoString(code string) error {
	if s.closed {
		return ErrStateClosed
	}
	done := s.enter()
	defer done()
	return s.wrap(s.protect(func() error {
		return s.L.DoString(code)
	}))
}

// DoFile executes a Lua file.
func (s *State) DoFile(path string) error {
	if s.closed {
		return ErrStateClosed
	}
	done := s.enter()
	defer done()
	return s.wrap(s.protect(func() error {
		return s.L.DoFile(path)
	}))
}

// Call calls fn with args and returns its first result.
func (s *State) Call(fn *lua.LFunction, args ...lua.LValue) (lua.LValue, error) {
	if s.closed {
		return lua.LNil, ErrStateClosed
	}
	done := s.enter()
	defer done()

	err := s.protect(func() error {
		return s.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...)
	})
	if err != nil {
		return lua.LNil, s.wrap(err)
	}
	ret := s.L.Get(-1)
	s.L.Pop(1)
	return ret, nil
}

// CallGlobal calls the global function name.
func (s *State) CallGlobal(name string, args ...lua.LValue) (lua.LValue, error) {
	if s.closed {
		return lua.LNil, ErrStateClosed
	}
	fn, ok := s.L.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return lua.LNil, fmt.Errorf("%q: %w", name, ErrNotFunction)
	}
	return s.Call(fn, args...)
}

// GetGlobal returns a global variable value.
func (s *State) GetGlobal(name string) lua.LValue {
	if s.closed {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

// SetGlobal sets a global variable.
func (s *State) SetGlobal(name string, value lua.LValue) {
	if s.closed {
		return
	}
	s.L.SetGlobal(name, value)
}

// RegisterModule registers a global table of functions.
func (s *State) RegisterModule(name string, funcs map[string]lua.LGFunction) *lua.LTable {
	mod := s.L.SetFuncs(s.L.NewTable(), funcs)
	s.L.SetGlobal(name, mod)
	return mod
}

// IsClosed returns true if the state has been closed.
func (s *State) IsClosed() bool {
	return s.closed
}

// Close releases the Lua state. Later calls return ErrStateClosed.
func (s *State) Close() error {
	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}
