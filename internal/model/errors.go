package model

import (
	"errors"
	"fmt"
)

// Errors reported by the document model.
var (
	// ErrNodeNotFound indicates a key does not resolve to a node.
	ErrNodeNotFound = errors.New("node not found")

	// ErrDetached indicates an operation needs an attached node.
	ErrDetached = errors.New("node is not attached to the tree")

	// ErrTxClosed indicates a write through a committed or discarded transaction.
	ErrTxClosed = errors.New("transaction is closed")

	// ErrRootImmutable indicates an attempt to remove, replace or move the root.
	ErrRootImmutable = errors.New("root node cannot be removed, replaced or moved")

	// ErrCycle indicates a node was inserted under itself or a descendant.
	ErrCycle = errors.New("node cannot be inserted under its own descendant")

	// ErrWrongKind indicates an operation was applied to the wrong node kind.
	ErrWrongKind = errors.New("operation not supported by node kind")

	// ErrInvalidOffset indicates a point offset outside its node.
	ErrInvalidOffset = errors.New("point offset out of range")

	// ErrUnknownType indicates a node type that is not registered.
	ErrUnknownType = errors.New("unknown node type")

	// ErrDuplicateType indicates a type tag registered twice.
	ErrDuplicateType = errors.New("node type already registered")

	// ErrInvalidState indicates serialized input that does not describe a tree.
	ErrInvalidState = errors.New("invalid serialized state")
)

// InvariantError reports a programming error detected by the model.
// Operations panic with an *InvariantError; the editor recovers it and
// aborts the transaction.
type InvariantError struct {
	Op  string
	Key Key
	Err error
}

// Error implements error.
func (e *InvariantError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

// Unwrap returns the underlying error.
func (e *InvariantError) Unwrap() error {
	return e.Err
}

func invariant(op string, key Key, err error) {
	panic(&InvariantError{Op: op, Key: key, Err: err})
}

// ParseError reports malformed serialized input.
type ParseError struct {
	Path    string
	Message string
	Err     error
}

// Error implements error.
func (e *ParseError) Error() string {
	if e.Path == "" {
		return "parse: " + e.Message
	}
	return fmt.Sprintf("parse %s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	if e.Err == nil {
		return ErrInvalidState
	}
	return e.Err
}

// UnknownTypeError reports a serialized node whose type is not registered.
type UnknownTypeError struct {
	Type string
	Path string
}

// Error implements error.
func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("parse %s: unknown node type %q", e.Path, e.Type)
}

// Unwrap returns ErrUnknownType.
func (e *UnknownTypeError) Unwrap() error {
	return ErrUnknownType
}
