package editor

import "errors"

// Errors returned by editor operations.
var (
	// ErrUpdateAborted wraps an invariant panic raised inside an update.
	ErrUpdateAborted = errors.New("update aborted")

	// ErrTransformLoop indicates node transforms kept writing nodes past
	// the configured number of passes.
	ErrTransformLoop = errors.New("node transforms did not settle")

	// ErrNilState indicates a nil state was passed to SetEditorState.
	ErrNilState = errors.New("nil editor state")

	// ErrEmptyState indicates a state whose root has no children.
	ErrEmptyState = errors.New("editor state is empty")
)
