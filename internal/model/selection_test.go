package model

import "testing"

func TestRangeSelectionIsBackward(t *testing.T) {
	st, keys := paragraphDoc(t, "Hello", "World")
	tests := []struct {
		name   string
		anchor Point
		focus  Point
		want   bool
	}{
		{"same node forward", TextPoint(keys[0], 1), TextPoint(keys[0], 4), false},
		{"same node backward", TextPoint(keys[0], 4), TextPoint(keys[0], 1), true},
		{"across blocks forward", TextPoint(keys[0], 4), TextPoint(keys[1], 0), false},
		{"across blocks backward", TextPoint(keys[1], 0), TextPoint(keys[0], 4), true},
		{"collapsed", TextPoint(keys[0], 2), TextPoint(keys[0], 2), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := NewRangeSelection(tt.anchor, tt.focus)
			if got := sel.IsBackward(st); got != tt.want {
				t.Errorf("IsBackward() = %v, want %v", got, tt.want)
			}
			swapped := NewRangeSelection(tt.focus, tt.anchor)
			if !tt.anchor.Is(tt.focus) && swapped.IsBackward(st) == tt.want {
				t.Error("swapping anchor and focus did not flip IsBackward()")
			}
		})
	}
}

func TestPointIsBefore(t *testing.T) {
	st, keys := paragraphDoc(t, "Hello", "World")
	p1 := st.NodeByKey(keys[0]).ParentKey()

	tests := []struct {
		name string
		a, b Point
		want bool
	}{
		{"ancestor before descendant", ElementPoint(p1, 0), TextPoint(keys[0], 0), true},
		{"element point after earlier child", ElementPoint(RootKey, 1), TextPoint(keys[0], 3), false},
		{"sibling order", TextPoint(keys[0], 5), TextPoint(keys[1], 0), true},
		{"offset order", TextPoint(keys[0], 1), TextPoint(keys[0], 2), true},
		{"equal", TextPoint(keys[0], 2), TextPoint(keys[0], 2), false},
		{"missing node", TextPoint("missing", 0), TextPoint(keys[0], 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.IsBefore(st, tt.b); got != tt.want {
				t.Errorf("IsBefore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRangeSelectionTextContent(t *testing.T) {
	st, keys := paragraphDoc(t, "Hello", "World")
	sel := NewRangeSelection(TextPoint(keys[1], 3), TextPoint(keys[0], 1))
	if got := sel.TextContent(st); got != "ello\nWor" {
		t.Errorf("TextContent() = %q", got)
	}
	nodes := sel.Nodes(st)
	if len(nodes) != 3 || nodes[0].Key() != keys[0] || nodes[2].Key() != keys[1] {
		t.Errorf("Nodes() returned %d nodes", len(nodes))
	}
}

func TestNodeSelection(t *testing.T) {
	st, keys := paragraphDoc(t, "a", "b")
	sel := NewNodeSelection(keys[1], keys[0])
	if !sel.Has(keys[0]) || sel.Len() != 2 {
		t.Fatal("NewNodeSelection() lost keys")
	}
	nodes := sel.Nodes(st)
	if nodes[0].Key() != keys[0] {
		t.Error("Nodes() not in document order")
	}
	if got := sel.TextContent(st); got != "ab" {
		t.Errorf("TextContent() = %q", got)
	}
	c := sel.Clone().(*NodeSelection)
	c.Delete(keys[0])
	if !sel.Has(keys[0]) {
		t.Error("Clone() shares the key set")
	}
	if sel.Is(c) {
		t.Error("Is() = true for different sets")
	}

	// Removing a selected node drops it from the selection at commit.
	next := apply(t, st, func(tx *Tx) {
		tx.SetSelection(NewNodeSelection(keys[0], keys[1]))
		tx.NodeByKey(keys[0]).Parent(tx).Remove(tx, false)
	})
	ns := next.Selection().(*NodeSelection)
	if ns.Has(keys[0]) || !ns.Has(keys[1]) {
		t.Errorf("node selection after remove = %v", ns.Keys())
	}

	// Pruning every key clears the selection.
	next = apply(t, next, func(tx *Tx) {
		tx.SetSelection(NewNodeSelection(keys[1]))
		tx.NodeByKey(keys[1]).Parent(tx).Remove(tx, false)
	})
	if sel := next.Selection(); sel != nil {
		t.Errorf("selection after removing every selected node = %v, want nil", sel)
	}
}

func TestGridSelectionShape(t *testing.T) {
	var grid *Node
	st := apply(t, NewState(nil), func(tx *Tx) {
		grid = BuildGrid(tx, 3, 3)
		tx.Root().Append(tx, grid)
	})
	grid = grid.Latest(st)
	cell := func(x, y int) Key {
		return grid.ChildAt(st, y).ChildAt(st, x).Key()
	}

	tests := []struct {
		name          string
		anchor, focus Key
		want          GridShape
	}{
		{"forward", cell(0, 1), cell(2, 2), GridShape{FromX: 0, FromY: 1, ToX: 2, ToY: 2}},
		{"backward", cell(2, 2), cell(0, 1), GridShape{FromX: 0, FromY: 1, ToX: 2, ToY: 2}},
		{"anti-diagonal", cell(2, 0), cell(0, 2), GridShape{FromX: 0, FromY: 0, ToX: 2, ToY: 2}},
		{"single cell", cell(1, 1), cell(1, 1), GridShape{FromX: 1, FromY: 1, ToX: 1, ToY: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := NewGridSelection(grid.Key(), tt.anchor, tt.focus)
			got, ok := sel.Shape(st)
			if !ok || got != tt.want {
				t.Errorf("Shape() = %+v, %v; want %+v", got, ok, tt.want)
			}
		})
	}

	sel := NewGridSelection(grid.Key(), cell(1, 1), cell(0, 0))
	if !sel.IsBackward(st) {
		t.Error("IsBackward() = false for focus before anchor")
	}
	// Four cells, each holding one paragraph.
	if got := len(sel.Nodes(st)); got != 8 {
		t.Errorf("len(Nodes()) = %d, want 8", got)
	}
	if _, ok := NewGridSelection("missing", cell(0, 0), cell(1, 1)).Shape(st); ok {
		t.Error("Shape() ok for a cell outside the grid")
	}
}

func TestSelectionRepairOnCommit(t *testing.T) {
	st, keys := paragraphDoc(t, "Hello")
	next := apply(t, st, func(tx *Tx) {
		tx.SetSelection(NewRangeSelection(TextPoint(keys[0], 3), TextPoint(keys[0], 42)))
	})
	sel := next.Selection().(*RangeSelection)
	if sel.Focus.Offset != 5 {
		t.Errorf("focus offset = %d, want clamped to 5", sel.Focus.Offset)
	}

	next = apply(t, st, func(tx *Tx) {
		tx.SetSelection(NewRangeSelection(TextPoint("missing", 0), TextPoint(keys[0], 0)))
	})
	if next.Selection() != nil {
		t.Error("selection on a missing node was not cleared")
	}
}
