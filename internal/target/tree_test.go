package target

import (
	"errors"
	"testing"
)

func buildTree(t *testing.T) *Tree {
	t.Helper()
	tr := NewTree()
	for _, k := range []string{"root", "p1", "p2", "t1"} {
		if err := tr.Create(k, Spec{Tag: k}); err != nil {
			t.Fatalf("Create(%s): %v", k, err)
		}
	}
	mustInsert(t, tr, "root", "p1", "")
	mustInsert(t, tr, "root", "p2", "")
	mustInsert(t, tr, "p1", "t1", "")
	return tr
}

func mustInsert(t *testing.T, tr *Tree, parent, key, before string) {
	t.Helper()
	if err := tr.Insert(parent, key, before); err != nil {
		t.Fatalf("Insert(%s, %s, %s): %v", parent, key, before, err)
	}
}

func childKeys(el *Element) []string {
	keys := make([]string, len(el.Children))
	for i, c := range el.Children {
		keys[i] = c.Key
	}
	return keys
}

func TestTreeInsertMoves(t *testing.T) {
	tr := buildTree(t)
	mustInsert(t, tr, "root", "p2", "p1")

	root, _ := tr.Element("root")
	got := childKeys(root)
	if len(got) != 2 || got[0] != "p2" || got[1] != "p1" {
		t.Fatalf("children = %v, want [p2 p1]", got)
	}
}

func TestTreeRemoveSubtree(t *testing.T) {
	tr := buildTree(t)
	if err := tr.Remove("p1"); err != nil {
		t.Fatal(err)
	}
	if _, ok := tr.Element("t1"); ok {
		t.Error("descendant still indexed after remove")
	}
	if tr.Len() != 2 {
		t.Errorf("Len() = %d, want 2", tr.Len())
	}
}

func TestTreeErrors(t *testing.T) {
	tr := buildTree(t)

	if err := tr.Create("p1", Spec{}); !errors.Is(err, ErrElementExists) {
		t.Errorf("duplicate create err = %v", err)
	}
	if err := tr.Update("missing", Spec{}); !errors.Is(err, ErrElementNotFound) {
		t.Errorf("update missing err = %v", err)
	}
	if err := tr.Insert("t1", "p1", ""); !errors.Is(err, ErrInvalidInsert) {
		t.Errorf("cyclic insert err = %v", err)
	}
	if err := tr.Insert("root", "p2", "t1"); !errors.Is(err, ErrInvalidInsert) {
		t.Errorf("insert before non-child err = %v", err)
	}
}

func TestTreeOpsAndText(t *testing.T) {
	tr := NewTree()
	_ = tr.Create("a", Spec{Tag: "p"})
	_ = tr.Create("b", Spec{Tag: "span", Text: "hi"})
	mustInsert(t, tr, "a", "b", "")

	if n := len(tr.Ops()); n != 3 {
		t.Errorf("ops = %d, want 3", n)
	}
	el, _ := tr.Element("a")
	if el.TextContent() != "hi" {
		t.Errorf("TextContent() = %q", el.TextContent())
	}
	tr.ResetOps()
	if len(tr.Ops()) != 0 {
		t.Error("ResetOps did not clear")
	}
	if want := "<p>\n  <span> \"hi\"\n"; tr.Dump("a") != want {
		t.Errorf("Dump() = %q, want %q", tr.Dump("a"), want)
	}
}

func TestSpecEqual(t *testing.T) {
	a := Spec{Tag: "p", Attrs: map[string]string{"dir": "ltr"}}
	b := Spec{Tag: "p", Attrs: map[string]string{"dir": "ltr"}}
	if !a.Equal(b) {
		t.Error("equal specs reported different")
	}
	b.Attrs["dir"] = "rtl"
	if a.Equal(b) {
		t.Error("different specs reported equal")
	}
}
