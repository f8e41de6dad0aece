package editor

import (
	"fmt"
	"maps"
	"sync"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/dshills/folio/internal/command"
	"github.com/dshills/folio/internal/logging"
	"github.com/dshills/folio/internal/model"
	"github.com/dshills/folio/internal/reconciler"
	"github.com/dshills/folio/internal/segment"
	"github.com/dshills/folio/internal/target"
)

// Phase is the update lifecycle phase.
type Phase uint8

const (
	// PhaseIdle means no batch is running.
	PhaseIdle Phase = iota
	// PhaseWriting means update functions are running against a transaction.
	PhaseWriting
	// PhaseReconciling means a committed state is being rendered and
	// listeners are being notified.
	PhaseReconciling
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseWriting:
		return "writing"
	case PhaseReconciling:
		return "reconciling"
	default:
		return "unknown"
	}
}

// TransformFunc adjusts a written node of one type before commit.
type TransformFunc func(tx *model.Tx, n *model.Node)

// Editor owns a document and serializes updates to it.
type Editor struct {
	mu sync.RWMutex

	key       string
	namespace string
	state     *model.State
	registry  *model.Registry
	segmenter segment.Segmenter
	target    target.Target
	recon     *reconciler.Reconciler
	bus       *command.Bus
	log       *logging.Logger
	onError   ErrorHandler
	decorate  DecoratorRenderer
	theme     Theme

	readOnly      bool
	autoDirection bool
	maxPasses     int
	composition   model.Key

	// Rendered decorators by node key.
	decorators map[model.Key]any

	// Update machinery.
	phase     Phase
	pending   *model.Tx
	batch     *batch
	queue     []*queued
	running   bool
	needsFull bool

	transforms map[string]*listenerSet[TransformFunc]

	updateListeners      listenerSet[UpdateListener]
	decoratorListeners   listenerSet[DecoratorListener]
	textContentListeners listenerSet[TextContentListener]
	readOnlyListeners    listenerSet[ReadOnlyListener]
	mutationListeners    map[string]*listenerSet[MutationListener]
}

// New creates an editor.
func New(opts ...Option) *Editor {
	e := &Editor{
		key:               uuid.NewString(),
		namespace:         "folio",
		bus:               command.NewBus(),
		log:               logging.Nop(),
		maxPasses:         100,
		decorators:        make(map[model.Key]any),
		transforms:        make(map[string]*listenerSet[TransformFunc]),
		mutationListeners: make(map[string]*listenerSet[MutationListener]),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		if e.state != nil {
			e.registry = e.state.Registry()
		} else {
			e.registry = model.NewRegistry()
		}
	}
	if e.state == nil {
		e.state = model.NewState(e.registry)
	}
	if e.segmenter == nil {
		e.segmenter = segment.Default()
	}
	if e.target == nil {
		e.target = target.NewTree()
	}
	e.log = e.log.WithComponent("editor").WithField("editor", e.key)
	if e.onError == nil {
		e.onError = func(err error) {
			e.log.Error("update failed", "error", err)
		}
	}
	e.recon = reconciler.New(e.target, e.registry, reconciler.WithLogger(e.log))
	res, err := e.recon.Reconcile(nil, e.state, nil)
	e.applyDecorators(e.state, res)
	if err != nil {
		e.needsFull = true
		e.onError(fmt.Errorf("initial render: %w", err))
	}
	return e
}

// Key returns the editor's unique instance key.
func (e *Editor) Key() string {
	return e.key
}

// Namespace returns the configured namespace.
func (e *Editor) Namespace() string {
	return e.namespace
}

// Registry returns the node class table.
func (e *Editor) Registry() *model.Registry {
	return e.registry
}

// Target returns the render target.
func (e *Editor) Target() target.Target {
	return e.target
}

// Commands returns the command bus.
func (e *Editor) Commands() *command.Bus {
	return e.bus
}

// Logger returns the editor logger.
func (e *Editor) Logger() *logging.Logger {
	return e.log
}

// Theme returns the presentation theme.
func (e *Editor) Theme() Theme {
	return e.theme
}

// Phase returns the current lifecycle phase.
func (e *Editor) Phase() Phase {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.phase
}

// EditorState returns the current sealed state. States being written are
// never visible here.
func (e *Editor) EditorState() *model.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Read runs fn against the current state.
func (e *Editor) Read(fn func(r model.Reader) error) error {
	return e.EditorState().Read(fn)
}

// SetEditorState replaces the document wholesale and re-renders it from
// scratch. Called during an update it replaces that update's result.
func (e *Editor) SetEditorState(s *model.State, opts ...UpdateOption) error {
	if s == nil {
		return ErrNilState
	}
	if s.Root().IsEmpty() {
		return ErrEmptyState
	}
	_, err := e.Update(func(*model.Tx) error {
		e.mu.Lock()
		if e.batch != nil {
			e.batch.replacement = s
		}
		e.mu.Unlock()
		return nil
	}, opts...)
	return err
}

// ParseEditorState parses a serialized document. Both the node-map form
// produced by State.MarshalJSON and the tree form produced by
// model.ExportJSON are accepted.
func (e *Editor) ParseEditorState(data []byte) (*model.State, error) {
	if gjson.GetBytes(data, "_nodeMap").Exists() {
		return model.ParseState(data, e.registry)
	}
	return model.ImportJSON(data, e.registry)
}

// ElementByKey returns the rendered element of the node under key.
func (e *Editor) ElementByKey(key model.Key) (any, bool) {
	return e.target.Lookup(string(key))
}

// Decorators returns a copy of the rendered decorators.
func (e *Editor) Decorators() map[model.Key]any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return maps.Clone(e.decorators)
}

// SetReadOnly sets the read-only flag. Read-only editors ignore the
// built-in editing commands but still accept programmatic updates.
func (e *Editor) SetReadOnly(readOnly bool) {
	e.mu.Lock()
	changed := e.readOnly != readOnly
	e.readOnly = readOnly
	e.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range e.readOnlyListeners.snapshot() {
		fn(readOnly)
	}
}

// IsReadOnly reports the read-only flag.
func (e *Editor) IsReadOnly() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.readOnly
}

// SetComposition marks the text node being composed by an input method.
// An empty key ends composition.
func (e *Editor) SetComposition(key model.Key) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.composition = key
}

// RegisterNodeTransform runs fn on every written node of type typ before
// commit. Transforms repeat until no node is written again.
func (e *Editor) RegisterNodeTransform(typ string, fn TransformFunc) (func(), error) {
	if !e.registry.Has(typ) {
		return nil, fmt.Errorf("register transform %q: %w", typ, model.ErrUnknownType)
	}
	e.mu.Lock()
	set, ok := e.transforms[typ]
	if !ok {
		set = &listenerSet[TransformFunc]{}
		e.transforms[typ] = set
	}
	e.mu.Unlock()
	return set.add(fn), nil
}

// RegisterUpdateListener adds fn to the update listeners.
func (e *Editor) RegisterUpdateListener(fn UpdateListener) func() {
	return e.updateListeners.add(fn)
}

// RegisterDecoratorListener adds fn to the decorator listeners.
func (e *Editor) RegisterDecoratorListener(fn DecoratorListener) func() {
	return e.decoratorListeners.add(fn)
}

// RegisterTextContentListener adds fn to the text content listeners.
func (e *Editor) RegisterTextContentListener(fn TextContentListener) func() {
	return e.textContentListeners.add(fn)
}

// RegisterReadOnlyListener adds fn to the read-only listeners.
func (e *Editor) RegisterReadOnlyListener(fn ReadOnlyListener) func() {
	return e.readOnlyListeners.add(fn)
}

// RegisterMutationListener adds fn to the listeners for nodes of type typ.
func (e *Editor) RegisterMutationListener(typ string, fn MutationListener) (func(), error) {
	if !e.registry.Has(typ) {
		return nil, fmt.Errorf("register mutation listener %q: %w", typ, model.ErrUnknownType)
	}
	e.mu.Lock()
	set, ok := e.mutationListeners[typ]
	if !ok {
		set = &listenerSet[MutationListener]{}
		e.mutationListeners[typ] = set
	}
	e.mu.Unlock()
	return set.add(fn), nil
}
