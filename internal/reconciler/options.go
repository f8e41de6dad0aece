package reconciler

import "github.com/dshills/folio/internal/logging"

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger. Each reconcile logs a debug summary.
func WithLogger(l *logging.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.log = l.WithComponent("reconciler")
		}
	}
}
