package history

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/dshills/folio/internal/config"
	"github.com/dshills/folio/internal/editor"
	"github.com/dshills/folio/internal/model"
)

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Entry is a recorded document snapshot.
type Entry struct {
	State *model.State
	// Name is the group name, or "".
	Name string
	Time time.Time
}

// Change is one committed update as seen by Record.
type Change struct {
	Prev          *model.State
	Next          *model.State
	DirtyLeaves   map[model.Key]struct{}
	DirtyElements map[model.Key]bool
	// Tags are sorted.
	Tags []string
}

func (c Change) hasTag(tag string) bool {
	_, ok := slices.BinarySearch(c.Tags, tag)
	return ok
}

// Action is what Record did with a change.
type Action uint8

const (
	// ActionSkip means the change was not recorded.
	ActionSkip Action = iota
	// ActionMerge means the change joined the current entry.
	ActionMerge
	// ActionPush means the previous state became a new undo entry.
	ActionPush
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionSkip:
		return "skip"
	case ActionMerge:
		return "merge"
	case ActionPush:
		return "push"
	default:
		return "unknown"
	}
}

// History manages undo/redo stacks of document snapshots.
type History struct {
	mu sync.Mutex

	undoStack []*Entry
	redoStack []*Entry

	// Typing merge state
	lastKey  model.Key
	lastTime time.Time

	// Grouping state
	grouping    bool
	groupName   string
	groupPushed bool

	// Configuration
	maxEntries  int
	mergeWindow time.Duration
	now         func() time.Time
}

// Option configures a History.
type Option func(*History)

// WithMergeWindow sets how close together text edits must be to merge.
// Zero disables merging.
func WithMergeWindow(d time.Duration) Option {
	return func(h *History) {
		if d >= 0 {
			h.mergeWindow = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(h *History) {
		if now != nil {
			h.now = now
		}
	}
}

// New creates a history keeping at most maxEntries undo entries.
func New(maxEntries int, opts ...Option) *History {
	if maxEntries <= 0 {
		maxEntries = 1000 // Default
	}
	h := &History{
		maxEntries:  maxEntries,
		mergeWindow: time.Second,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// FromConfig creates a history from the history section of a config.
func FromConfig(cfg config.HistoryConfig) *History {
	return New(cfg.MaxEntries, WithMergeWindow(cfg.MergeWindow()))
}

// Record decides how a committed change enters the history.
func (h *History) Record(c Change) Action {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.hasTag(editor.TagHistoric) || c.Prev == nil || c.Prev == c.Next {
		return ActionSkip
	}
	now := h.now()
	key := textOnlyChange(c)
	lastKey, lastTime := h.lastKey, h.lastTime
	h.lastKey, h.lastTime = key, now

	if len(c.DirtyLeaves) == 0 && len(c.DirtyElements) == 0 {
		// Selection moves are not undoable, but they end a typing run.
		h.lastKey = ""
		return ActionSkip
	}
	if c.Prev.Root().IsEmpty() {
		// An empty document cannot be restored and is never an undo target.
		return ActionSkip
	}

	switch {
	case c.hasTag(editor.TagHistoryPush):
	case c.hasTag(editor.TagHistoryMerge) && len(h.undoStack) > 0:
		return ActionMerge
	case h.grouping && h.groupPushed:
		return ActionMerge
	case !h.grouping && key != "" && key == lastKey &&
		len(h.undoStack) > 0 && now.Sub(lastTime) < h.mergeWindow:
		return ActionMerge
	}

	h.pushLocked(&Entry{State: c.Prev, Name: h.groupName, Time: now})
	if h.grouping {
		h.groupPushed = true
	}
	return ActionPush
}

// textOnlyChange returns the key of the single text node a change rewrote
// in place, or "" when the change did anything else.
func textOnlyChange(c Change) model.Key {
	if len(c.DirtyLeaves) != 1 {
		return ""
	}
	for _, written := range c.DirtyElements {
		if written {
			return ""
		}
	}
	var key model.Key
	for k := range c.DirtyLeaves {
		key = k
	}
	prev, next := c.Prev.NodeByKey(key), c.Next.NodeByKey(key)
	if prev == nil || next == nil || !prev.IsText() || !next.IsText() {
		return ""
	}
	if prev.ParentKey() != next.ParentKey() || prev.Format() != next.Format() {
		return ""
	}
	return key
}

// pushLocked adds an entry to the undo stack, clearing redo.
func (h *History) pushLocked(e *Entry) {
	h.undoStack = append(h.undoStack, e)
	h.redoStack = nil

	if len(h.undoStack) > h.maxEntries {
		excess := len(h.undoStack) - h.maxEntries
		h.undoStack = slices.Delete(h.undoStack, 0, excess)
	}
}

// Push records prev as a new undo entry unconditionally.
func (h *History) Push(prev *model.State) {
	if prev == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pushLocked(&Entry{State: prev, Name: h.groupName, Time: h.now()})
	h.lastKey = ""
}

// Undo pops the most recent entry and returns the state to restore. current
// moves onto the redo stack.
func (h *History) Undo(current *model.State) (*model.State, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.undoStack) == 0 {
		return nil, ErrNothingToUndo
	}
	e := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.redoStack = append(h.redoStack, &Entry{State: current, Name: e.Name, Time: h.now()})
	h.lastKey = ""
	return e.State, nil
}

// Redo pops the most recently undone entry and returns the state to
// restore. current moves back onto the undo stack.
func (h *History) Redo(current *model.State) (*model.State, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.redoStack) == 0 {
		return nil, ErrNothingToRedo
	}
	e := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.undoStack = append(h.undoStack, &Entry{State: current, Name: e.Name, Time: h.now()})
	h.lastKey = ""
	return e.State, nil
}

// CanUndo returns true if there are entries to undo.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack) > 0
}

// CanRedo returns true if there are entries to redo.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack) > 0
}

// UndoCount returns the number of entries in the undo stack.
func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack)
}

// RedoCount returns the number of entries in the redo stack.
func (h *History) RedoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack)
}

// PeekUndo returns the entry Undo would restore, or nil.
func (h *History) PeekUndo() *Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.undoStack) == 0 {
		return nil
	}
	return h.undoStack[len(h.undoStack)-1]
}

// PeekRedo returns the entry Redo would restore, or nil.
func (h *History) PeekRedo() *Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.redoStack) == 0 {
		return nil
	}
	return h.redoStack[len(h.redoStack)-1]
}

// Clear removes all history.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.undoStack = nil
	h.redoStack = nil
	h.lastKey = ""
	h.grouping = false
	h.groupName = ""
	h.groupPushed = false
}

// BeginGroup starts grouping changes into one entry. Nested calls are
// ignored.
func (h *History) BeginGroup(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.grouping {
		return
	}
	h.grouping = true
	h.groupName = name
	h.groupPushed = false
}

// EndGroup ends the current group.
func (h *History) EndGroup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.grouping = false
	h.groupName = ""
	h.groupPushed = false
	h.lastKey = ""
}

// CancelGroup ends the current group and drops the entry it recorded. It
// returns the state from before the group so the caller can restore it,
// or nil when the group recorded nothing.
func (h *History) CancelGroup() *model.State {
	h.mu.Lock()
	defer h.mu.Unlock()

	var start *model.State
	if h.grouping && h.groupPushed && len(h.undoStack) > 0 {
		start = h.undoStack[len(h.undoStack)-1].State
		h.undoStack = h.undoStack[:len(h.undoStack)-1]
	}
	h.grouping = false
	h.groupName = ""
	h.groupPushed = false
	h.lastKey = ""
	return start
}

// IsGrouping returns true if currently grouping changes.
func (h *History) IsGrouping() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.grouping
}

// SetMaxEntries sets the maximum number of undo entries, trimming the
// oldest when the stack is larger.
func (h *History) SetMaxEntries(max int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if max <= 0 {
		max = 1000
	}
	h.maxEntries = max
	if len(h.undoStack) > max {
		excess := len(h.undoStack) - max
		h.undoStack = slices.Delete(h.undoStack, 0, excess)
	}
}

// MaxEntries returns the maximum number of undo entries.
func (h *History) MaxEntries() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxEntries
}
