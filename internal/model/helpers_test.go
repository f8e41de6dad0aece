package model

import (
	"errors"
	"testing"
)

// paragraphDoc returns a state with one paragraph per text and the keys of
// the text nodes.
func paragraphDoc(t *testing.T, texts ...string) (*State, []Key) {
	t.Helper()
	tx := Begin(NewState(nil))
	keys := make([]Key, 0, len(texts))
	for _, s := range texts {
		p := NewParagraph(tx)
		tn := NewText(tx, s)
		p.Append(tx, tn)
		tx.Root().Append(tx, p)
		keys = append(keys, tn.Key())
	}
	st, _ := tx.Commit()
	if err := Validate(st); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	return st, keys
}

// apply runs fn in a transaction over s and returns the validated result.
func apply(t *testing.T, s *State, fn func(tx *Tx)) *State {
	t.Helper()
	tx := Begin(s)
	fn(tx)
	next, _ := tx.Commit()
	if err := Validate(next); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	return next
}

// blockTexts returns the text of each child of the root.
func blockTexts(s *State) []string {
	var out []string
	for _, c := range s.Root().Children(s) {
		out = append(out, c.TextContent(s))
	}
	return out
}

func childTypes(r Reader, n *Node) []string {
	var out []string
	for _, c := range n.Children(r) {
		out = append(out, c.Type())
	}
	return out
}

// mustPanic runs fn and checks it panics with an *InvariantError wrapping
// want.
func mustPanic(t *testing.T, want error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		ie, ok := r.(*InvariantError)
		if !ok {
			t.Fatalf("recover() = %v, want *InvariantError", r)
		}
		if !errors.Is(ie, want) {
			t.Fatalf("panic error = %v, want %v", ie, want)
		}
	}()
	fn()
}
