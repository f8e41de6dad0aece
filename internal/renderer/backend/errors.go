package backend

import "errors"

var (
	// ErrNotInitialized is returned when drawing before Init.
	ErrNotInitialized = errors.New("backend: screen not initialized")

	// ErrNoRoot is returned when the target holds no root element.
	ErrNoRoot = errors.New("backend: no root element")
)
