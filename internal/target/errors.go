package target

import "errors"

// Errors returned by Tree.
var (
	// ErrElementNotFound indicates no element exists for a key.
	ErrElementNotFound = errors.New("element not found")

	// ErrElementExists indicates an element was created twice for one key.
	ErrElementExists = errors.New("element already exists")

	// ErrInvalidInsert indicates an element was inserted under itself,
	// one of its descendants, or before a non-child.
	ErrInvalidInsert = errors.New("invalid insert")
)
