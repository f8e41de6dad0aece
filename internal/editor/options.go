package editor

import (
	"github.com/dshills/folio/internal/config"
	"github.com/dshills/folio/internal/logging"
	"github.com/dshills/folio/internal/model"
	"github.com/dshills/folio/internal/segment"
	"github.com/dshills/folio/internal/target"
)

// ErrorHandler receives failed updates and reconcile errors.
type ErrorHandler func(err error)

// DecoratorRenderer produces the value shown for a decorator node.
type DecoratorRenderer func(n *model.Node) any

// Theme maps style classes, usually node types or format names, to
// presentation values such as colors.
type Theme map[string]string

// Class returns the value for name, or "".
func (t Theme) Class(name string) string {
	return t[name]
}

// Option configures an Editor.
type Option func(*Editor)

// WithRegistry sets the node class table.
func WithRegistry(reg *model.Registry) Option {
	return func(e *Editor) {
		if reg != nil {
			e.registry = reg
		}
	}
}

// WithTarget sets the render target. Without one the editor renders into
// an in-memory target.Tree.
func WithTarget(t target.Target) Option {
	return func(e *Editor) {
		if t != nil {
			e.target = t
		}
	}
}

// WithErrorHandler replaces the default handler, which logs the error.
func WithErrorHandler(fn ErrorHandler) Option {
	return func(e *Editor) {
		e.onError = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.log = l
		}
	}
}

// WithDecoratorRenderer sets the function that renders decorator nodes.
func WithDecoratorRenderer(fn DecoratorRenderer) Option {
	return func(e *Editor) {
		e.decorate = fn
	}
}

// WithSegmenter sets the text segmenter used by selection edits.
func WithSegmenter(seg segment.Segmenter) Option {
	return func(e *Editor) {
		if seg != nil {
			e.segmenter = seg
		}
	}
}

// WithTheme sets the presentation theme.
func WithTheme(t Theme) Option {
	return func(e *Editor) {
		e.theme = t
	}
}

// WithState sets the initial state.
func WithState(s *model.State) Option {
	return func(e *Editor) {
		if s != nil {
			e.state = s
		}
	}
}

// WithReadOnly starts the editor read-only.
func WithReadOnly(readOnly bool) Option {
	return func(e *Editor) {
		e.readOnly = readOnly
	}
}

// WithAutoDirection enables block direction detection on commit.
func WithAutoDirection(enabled bool) Option {
	return func(e *Editor) {
		e.autoDirection = enabled
	}
}

// WithConfig applies the editor and theme sections of cfg. Options listed
// after it override the values it sets.
func WithConfig(cfg *config.Config) Option {
	return func(e *Editor) {
		if cfg == nil {
			return
		}
		e.namespace = cfg.Namespace
		e.readOnly = cfg.Editor.ReadOnly
		e.autoDirection = cfg.Editor.AutoDirection
		if cfg.Editor.MaxTransformPasses > 0 {
			e.maxPasses = cfg.Editor.MaxTransformPasses
		}
		if len(cfg.Theme.Colors) > 0 {
			e.theme = make(Theme, len(cfg.Theme.Colors))
			for k, v := range cfg.Theme.Colors {
				e.theme[k] = v
			}
		}
	}
}

// UpdateOption configures a single update.
type UpdateOption func(*updateOptions)

type updateOptions struct {
	tags           []string
	onUpdate       []func()
	skipTransforms bool
}

func newUpdateOptions(opts []UpdateOption) updateOptions {
	var o updateOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithTag tags the batch the update runs in. Tags reach update listeners
// through UpdateEvent.Tags.
func WithTag(tags ...string) UpdateOption {
	return func(o *updateOptions) {
		o.tags = append(o.tags, tags...)
	}
}

// WithOnUpdate registers fn to run after the batch has been committed and
// all listeners have been notified.
func WithOnUpdate(fn func()) UpdateOption {
	return func(o *updateOptions) {
		if fn != nil {
			o.onUpdate = append(o.onUpdate, fn)
		}
	}
}

// WithSkipTransforms disables node transforms for the batch.
func WithSkipTransforms() UpdateOption {
	return func(o *updateOptions) {
		o.skipTransforms = true
	}
}
