package model

import (
	"slices"
	"testing"
)

func TestWritableIsIdempotent(t *testing.T) {
	st, keys := paragraphDoc(t, "Hello")
	orig := st.NodeByKey(keys[0])

	tx := Begin(st)
	w1 := orig.Writable(tx)
	w2 := orig.Writable(tx)
	if w1 != w2 {
		t.Fatal("Writable() returned different clones within one transaction")
	}
	if w1 == orig {
		t.Fatal("Writable() returned the sealed node")
	}
	if w1.Key() != orig.Key() || w1.Text() != orig.Text() {
		t.Errorf("clone = (%s, %q), want (%s, %q)", w1.Key(), w1.Text(), orig.Key(), orig.Text())
	}
	w1.SetText(tx, "changed")
	if orig.Text() != "Hello" {
		t.Errorf("sealed node text = %q after write, want Hello", orig.Text())
	}
	if !tx.Changed() {
		t.Error("Changed() = false after Writable")
	}
}

func TestCommitSharesUntouchedNodes(t *testing.T) {
	st, keys := paragraphDoc(t, "one", "two")
	next := apply(t, st, func(tx *Tx) {
		tx.NodeByKey(keys[0]).SetText(tx, "ONE")
	})

	if next.NodeByKey(keys[1]) != st.NodeByKey(keys[1]) {
		t.Error("untouched text node was copied")
	}
	p2 := st.NodeByKey(keys[1]).ParentKey()
	if next.NodeByKey(p2) != st.NodeByKey(p2) {
		t.Error("untouched paragraph was copied")
	}
	if next.NodeByKey(keys[0]) == st.NodeByKey(keys[0]) {
		t.Error("written node is shared with the previous state")
	}
	if got := st.NodeByKey(keys[0]).Text(); got != "one" {
		t.Errorf("previous state text = %q, want one", got)
	}
	if got := blockTexts(next); !slices.Equal(got, []string{"ONE", "two"}) {
		t.Errorf("blockTexts() = %q", got)
	}
}

func TestCommitDirtySets(t *testing.T) {
	st, keys := paragraphDoc(t, "one", "two")
	tx := Begin(st)
	tx.NodeByKey(keys[0]).SetText(tx, "ONE")
	_, dirty := tx.Commit()

	if _, ok := dirty.Leaves[keys[0]]; !ok {
		t.Error("written text missing from dirty leaves")
	}
	p1 := st.NodeByKey(keys[0]).ParentKey()
	if intentional, ok := dirty.Elements[p1]; !ok || intentional {
		t.Errorf("parent dirty = (%v, %v), want (false, true)", intentional, ok)
	}
	if _, ok := dirty.Elements[RootKey]; !ok {
		t.Error("root missing from dirty elements")
	}
	if dirty.IsDirty(keys[1]) {
		t.Error("untouched text reported dirty")
	}
}

func TestCommitWithoutChanges(t *testing.T) {
	st, _ := paragraphDoc(t, "Hello")
	tx := Begin(st)
	next, dirty := tx.Commit()
	if next != st {
		t.Error("Commit() without writes returned a new state")
	}
	if !dirty.Empty() {
		t.Error("dirty sets not empty")
	}
}

func TestClosedTransactionPanics(t *testing.T) {
	st, keys := paragraphDoc(t, "Hello")
	tx := Begin(st)
	tx.Commit()

	mustPanic(t, ErrTxClosed, func() { NewText(tx, "x") })
	mustPanic(t, ErrTxClosed, func() { tx.NodeByKey(keys[0]).SetText(tx, "x") })

	tx = Begin(st)
	tx.Discard()
	mustPanic(t, ErrTxClosed, func() { tx.Commit() })
}

func TestCommitCollectsDetachedNodes(t *testing.T) {
	st, keys := paragraphDoc(t, "one", "two")
	var orphan Key
	next := apply(t, st, func(tx *Tx) {
		orphan = NewParagraph(tx).Key()
		tx.NodeByKey(keys[1]).Parent(tx).Remove(tx, false)
	})
	if next.NodeByKey(orphan) != nil {
		t.Error("never-attached node survived commit")
	}
	if next.NodeByKey(keys[1]) != nil {
		t.Error("descendant of removed paragraph survived commit")
	}
	if got := next.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
}

func TestTransactionTags(t *testing.T) {
	tx := Begin(nil)
	tx.Tag("history-merge")
	tx.Tag("collaboration")
	if !tx.HasTag("collaboration") {
		t.Error("HasTag(collaboration) = false")
	}
	if got := tx.Tags(); !slices.Equal(got, []string{"collaboration", "history-merge"}) {
		t.Errorf("Tags() = %q", got)
	}
}
