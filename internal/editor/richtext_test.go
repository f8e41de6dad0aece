package editor

import (
	"testing"

	"github.com/dshills/folio/internal/command"
	"github.com/dshills/folio/internal/model"
)

func richEditor(t *testing.T, texts ...string) (*Editor, []model.Key) {
	t.Helper()
	e := New()
	RegisterRichText(e)
	return e, seed(t, e, texts...)
}

func paragraphOf(e *Editor, text model.Key) *model.Node {
	s := e.EditorState()
	return s.NodeByKey(s.NodeByKey(text).ParentKey())
}

func TestRichText_TextCommands(t *testing.T) {
	tests := []struct {
		name     string
		dispatch func(e *Editor) bool
		want     string
	}{
		{
			name:     "insert text",
			dispatch: func(e *Editor) bool { return DispatchCommand(e, InsertText, " world") },
			want:     "hello world",
		},
		{
			name:     "delete character backward",
			dispatch: func(e *Editor) bool { return DispatchCommand(e, DeleteCharacter, true) },
			want:     "hell",
		},
		{
			name:     "delete word backward",
			dispatch: func(e *Editor) bool { return DispatchCommand(e, DeleteWord, true) },
			want:     "",
		},
		{
			name:     "insert paragraph",
			dispatch: func(e *Editor) bool { return DispatchCommand(e, InsertParagraph, struct{}{}) },
			want:     "hello\n\n",
		},
		{
			name:     "insert line break",
			dispatch: func(e *Editor) bool { return DispatchCommand(e, InsertLineBreak, false) },
			want:     "hello\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := richEditor(t, "hello")
			if !tt.dispatch(e) {
				t.Fatal("command not handled")
			}
			if got := e.EditorState().TextContent(); got != tt.want {
				t.Errorf("TextContent() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRichText_ReadOnlyDeclines(t *testing.T) {
	e, _ := richEditor(t, "hello")
	e.SetReadOnly(true)
	if DispatchCommand(e, InsertText, "!") {
		t.Error("read-only editor handled INSERT_TEXT")
	}
	if DispatchCommand(e, ClearEditor, struct{}{}) {
		t.Error("read-only editor handled CLEAR_EDITOR")
	}
	if got := e.EditorState().TextContent(); got != "hello" {
		t.Errorf("TextContent() = %q, want hello", got)
	}
}

func TestRichText_NoSelectionDeclines(t *testing.T) {
	e, _ := richEditor(t, "hello")
	_, _ = e.Update(func(tx *model.Tx) error {
		tx.SetSelection(nil)
		return nil
	})
	if DispatchCommand(e, InsertText, "!") {
		t.Error("INSERT_TEXT handled without a selection")
	}
}

func TestRichText_HigherPriorityWins(t *testing.T) {
	e, _ := richEditor(t, "hello")
	var intercepted string
	RegisterCommand(e, InsertText, func(_ *model.Tx, s string) bool {
		intercepted = s
		return true
	}, command.PriorityHigh)

	if !DispatchCommand(e, InsertText, "!") {
		t.Fatal("command not handled")
	}
	if intercepted != "!" {
		t.Errorf("intercepted = %q", intercepted)
	}
	if got := e.EditorState().TextContent(); got != "hello" {
		t.Errorf("TextContent() = %q, default handler should not have run", got)
	}
}

func TestRichText_FormatText(t *testing.T) {
	e, keys := richEditor(t, "hello")
	_, _ = e.Update(func(tx *model.Tx) error {
		tx.NodeByKey(keys[0]).Select(tx, 0, 5)
		return nil
	})
	if !DispatchCommand(e, FormatText, model.FormatBold) {
		t.Fatal("FORMAT_TEXT not handled")
	}
	s := e.EditorState()
	for _, n := range s.Root().AllTextNodes(s) {
		if !n.HasFormat(model.FormatBold) {
			t.Errorf("text %q is not bold", n.Text())
		}
	}
}

func TestRichText_BlockCommands(t *testing.T) {
	e, keys := richEditor(t, "hello")

	DispatchCommand(e, IndentContent, struct{}{})
	DispatchCommand(e, IndentContent, struct{}{})
	if got := paragraphOf(e, keys[0]).Indent(); got != 2 {
		t.Errorf("Indent() = %d after two indents, want 2", got)
	}
	DispatchCommand(e, OutdentContent, struct{}{})
	if got := paragraphOf(e, keys[0]).Indent(); got != 1 {
		t.Errorf("Indent() = %d after outdent, want 1", got)
	}
	DispatchCommand(e, OutdentContent, struct{}{})
	DispatchCommand(e, OutdentContent, struct{}{})
	if got := paragraphOf(e, keys[0]).Indent(); got != 0 {
		t.Errorf("Indent() = %d, want 0", got)
	}

	DispatchCommand(e, FormatElement, model.AlignCenter)
	if got := paragraphOf(e, keys[0]).ElementFormat(); got != model.AlignCenter {
		t.Errorf("ElementFormat() = %v, want center", got)
	}
}

func TestRichText_ClearEditor(t *testing.T) {
	e, _ := richEditor(t, "one", "two")
	if !DispatchCommand(e, ClearEditor, struct{}{}) {
		t.Fatal("CLEAR_EDITOR not handled")
	}
	s := e.EditorState()
	if got := s.Root().ChildrenSize(); got != 1 {
		t.Errorf("root children = %d, want 1", got)
	}
	if s.TextContent() != "" {
		t.Errorf("TextContent() = %q, want empty", s.TextContent())
	}
	if _, ok := s.Selection().(*model.RangeSelection); !ok {
		t.Error("caret should be placed in the new paragraph")
	}
}

func TestRichText_InsertTable(t *testing.T) {
	e, _ := richEditor(t, "hello")
	if DispatchCommand(e, InsertTable, TableSize{}) {
		t.Error("empty table size was handled")
	}
	if !DispatchCommand(e, InsertTable, TableSize{Rows: 2, Columns: 3}) {
		t.Fatal("INSERT_TABLE not handled")
	}

	s := e.EditorState()
	var grid *model.Node
	s.Walk(func(n *model.Node) bool {
		if n.Type() == model.TypeGrid {
			grid = n
		}
		return true
	})
	if grid == nil {
		t.Fatal("no grid inserted")
	}
	if grid.ChildrenSize() != 2 {
		t.Errorf("rows = %d, want 2", grid.ChildrenSize())
	}
	if row := grid.FirstChild(s); row == nil || row.ChildrenSize() != 3 {
		t.Error("first row should have 3 cells")
	}
}

func TestRichText_Unregister(t *testing.T) {
	e := New()
	unregister := RegisterRichText(e)
	seed(t, e, "hello")
	unregister()
	if DispatchCommand(e, InsertText, "!") {
		t.Error("INSERT_TEXT handled after unregister")
	}
	if n := e.Commands().Count(InsertText.Name()); n != 0 {
		t.Errorf("%d INSERT_TEXT handlers left", n)
	}
}

func TestSelectionChangeDispatched(t *testing.T) {
	e, keys := richEditor(t, "hello")
	fired := 0
	RegisterCommand(e, SelectionChange, func(*model.Tx, struct{}) bool {
		fired++
		return false
	}, command.PriorityEditor)

	_, _ = e.Update(func(tx *model.Tx) error {
		tx.NodeByKey(keys[0]).Select(tx, 1, 1)
		return nil
	})
	_, _ = e.Update(func(tx *model.Tx) error {
		tx.NodeByKey(keys[0]).ToggleFormat(tx, model.FormatItalic)
		return nil
	})
	if fired != 1 {
		t.Errorf("SELECTION_CHANGE fired %d times, want 1", fired)
	}
}

func TestDispatchInsideUpdateJoinsBatch(t *testing.T) {
	e, _ := richEditor(t, "hello")
	batches := 0
	e.RegisterUpdateListener(func(UpdateEvent) { batches++ })

	_, err := e.Update(func(tx *model.Tx) error {
		DispatchCommand(e, InsertText, " big")
		DispatchCommand(e, InsertText, " world")
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if batches != 1 {
		t.Errorf("batches = %d, want 1", batches)
	}
	if got := e.EditorState().TextContent(); got != "hello big world" {
		t.Errorf("TextContent() = %q", got)
	}
}

func TestDispatchName(t *testing.T) {
	e, _ := richEditor(t, "hello")
	if !e.DispatchName("INSERT_TEXT", "!") {
		t.Fatal("DispatchName not handled")
	}
	if e.DispatchName("INSERT_TEXT", 42) {
		t.Error("payload of the wrong type should be skipped")
	}
	if got := e.EditorState().TextContent(); got != "hello!" {
		t.Errorf("TextContent() = %q, want hello!", got)
	}
}
