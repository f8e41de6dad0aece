package reconciler

import "errors"

var (
	// ErrNilState is returned when the next state is missing.
	ErrNilState = errors.New("reconcile: nil state")

	// ErrNilTarget is returned when no target is configured.
	ErrNilTarget = errors.New("reconcile: nil target")
)
