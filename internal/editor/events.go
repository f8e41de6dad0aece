package editor

import (
	"slices"
	"sync"

	"github.com/dshills/folio/internal/model"
	"github.com/dshills/folio/internal/reconciler"
)

// Well-known update tags.
const (
	// TagHistoric marks updates that restore a recorded state. History
	// does not record them.
	TagHistoric = "historic"

	// TagHistoryMerge folds the update into the current undo entry.
	TagHistoryMerge = "history-merge"

	// TagHistoryPush forces a new undo entry.
	TagHistoryPush = "history-push"
)

// Mutation is the kind of change a rendered node went through.
type Mutation = reconciler.Mutation

// Mutation kinds.
const (
	MutationCreated   = reconciler.MutationCreated
	MutationUpdated   = reconciler.MutationUpdated
	MutationDestroyed = reconciler.MutationDestroyed
)

// UpdateEvent describes a committed batch.
type UpdateEvent struct {
	// Tags are the tags of every update in the batch, sorted.
	Tags []string

	PrevState *model.State
	State     *model.State

	// DirtyLeaves and DirtyElements are the dirty sets of the commit. For a
	// SetEditorState commit both are empty and Full is set.
	DirtyLeaves   map[model.Key]struct{}
	DirtyElements map[model.Key]bool

	// NormalizedNodes are text nodes merged away at commit.
	NormalizedNodes map[model.Key]struct{}

	// Full is set when the whole tree was reconciled.
	Full bool
}

// HasTag reports whether the batch carried tag.
func (ev UpdateEvent) HasTag(tag string) bool {
	_, found := slices.BinarySearch(ev.Tags, tag)
	return found
}

// UpdateListener is called after every committed batch.
type UpdateListener func(ev UpdateEvent)

// MutationListener receives the mutations of one node type.
type MutationListener func(mutations map[model.Key]Mutation, ev UpdateEvent)

// DecoratorListener receives the rendered decorators whenever they change.
type DecoratorListener func(decorators map[model.Key]any)

// TextContentListener receives the document text whenever it changes.
type TextContentListener func(text string)

// ReadOnlyListener is called when the read-only flag flips.
type ReadOnlyListener func(readOnly bool)

// listenerSet keeps listeners in registration order.
type listenerSet[F any] struct {
	mu      sync.Mutex
	seq     uint64
	entries []listenerEntry[F]
}

type listenerEntry[F any] struct {
	id uint64
	fn F
}

func (s *listenerSet[F]) add(fn F) func() {
	s.mu.Lock()
	s.seq++
	id := s.seq
	s.entries = append(s.entries, listenerEntry[F]{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.entries = slices.DeleteFunc(slices.Clone(s.entries), func(e listenerEntry[F]) bool {
				return e.id == id
			})
		})
	}
}

func (s *listenerSet[F]) snapshot() []F {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]F, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.fn
	}
	return out
}

func (s *listenerSet[F]) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
