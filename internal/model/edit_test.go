package model

import (
	"slices"
	"testing"
)

// caret runs fn with a collapsed range selection at offset of the text node
// key and returns the committed state.
func caret(t *testing.T, s *State, key Key, offset int, fn func(tx *Tx, sel *RangeSelection)) *State {
	t.Helper()
	return apply(t, s, func(tx *Tx) {
		fn(tx, tx.NodeByKey(key).Select(tx, offset, offset))
	})
}

func anchorOf(t *testing.T, s *State) Point {
	t.Helper()
	sel, ok := s.Selection().(*RangeSelection)
	if !ok {
		t.Fatalf("Selection() = %T, want *RangeSelection", s.Selection())
	}
	return sel.Anchor
}

func TestInsertText(t *testing.T) {
	st, keys := paragraphDoc(t, "Hello")
	next := caret(t, st, keys[0], 5, func(tx *Tx, sel *RangeSelection) {
		sel.InsertText(tx, "!")
	})
	if got := next.TextContent(); got != "Hello!" {
		t.Errorf("TextContent() = %q", got)
	}
	if got := anchorOf(t, next); !got.Is(TextPoint(keys[0], 6)) {
		t.Errorf("caret = %s", got)
	}

	// A different typing format starts a new text node.
	next = caret(t, st, keys[0], 5, func(tx *Tx, sel *RangeSelection) {
		sel.ToggleFormat(FormatBold)
		sel.InsertText(tx, "!")
	})
	p := next.Root().FirstChild(next)
	if got := p.ChildrenSize(); got != 2 {
		t.Fatalf("ChildrenSize() = %d, want 2", got)
	}
	if !p.LastChild(next).HasFormat(FormatBold) {
		t.Error("inserted text is not bold")
	}
	if got := next.TextContent(); got != "Hello!" {
		t.Errorf("TextContent() = %q", got)
	}
}

func TestInsertTextReplacesRange(t *testing.T) {
	st, keys := paragraphDoc(t, "Hello", "World")
	next := apply(t, st, func(tx *Tx) {
		sel := NewRangeSelection(TextPoint(keys[0], 2), TextPoint(keys[1], 3))
		sel.InsertText(tx, "y")
	})
	if got := blockTexts(next); !slices.Equal(got, []string{"Heyld"}) {
		t.Errorf("blocks = %q", got)
	}
}

func TestDeleteCharacter(t *testing.T) {
	hello, hk := paragraphDoc(t, "Hello")
	two, tk := paragraphDoc(t, "Hello", "World")

	tests := []struct {
		name     string
		state    *State
		key      Key
		offset   int
		backward bool
		want     []string
		caret    Point
	}{
		{"backspace in text", hello, hk[0], 5, true, []string{"Hell"}, TextPoint(hk[0], 4)},
		{"delete in text", hello, hk[0], 0, false, []string{"ello"}, TextPoint(hk[0], 0)},
		{"backspace joins blocks", two, tk[1], 0, true, []string{"HelloWorld"}, TextPoint(tk[0], 5)},
		{"delete joins blocks", two, tk[0], 5, false, []string{"HelloWorld"}, TextPoint(tk[0], 5)},
		{"backspace at document start", two, tk[0], 0, true, []string{"Hello", "World"}, TextPoint(tk[0], 0)},
		{"delete at document end", two, tk[1], 5, false, []string{"Hello", "World"}, TextPoint(tk[1], 5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := caret(t, tt.state, tt.key, tt.offset, func(tx *Tx, sel *RangeSelection) {
				sel.DeleteCharacter(tx, tt.backward)
			})
			if got := blockTexts(next); !slices.Equal(got, tt.want) {
				t.Errorf("blocks = %q, want %q", got, tt.want)
			}
			if got := anchorOf(t, next); !got.Is(tt.caret) {
				t.Errorf("caret = %s, want %s", got, tt.caret)
			}
		})
	}
}

func TestDeleteCharacterOverDecorator(t *testing.T) {
	var a, b *Node
	st := apply(t, NewState(nil), func(tx *Tx) {
		a, b = NewText(tx, "A"), NewText(tx, "B")
		p1, p2 := NewParagraph(tx), NewParagraph(tx)
		p1.Append(tx, a)
		p2.Append(tx, b)
		tx.Root().Append(tx, p1, NewHorizontalRule(tx), p2)
	})
	next := caret(t, st, b.Key(), 0, func(tx *Tx, sel *RangeSelection) {
		sel.DeleteCharacter(tx, true)
	})
	if got := childTypes(next, next.Root()); !slices.Equal(got, []string{TypeParagraph, TypeParagraph}) {
		t.Errorf("root children = %v", got)
	}
	if got := blockTexts(next); !slices.Equal(got, []string{"A", "B"}) {
		t.Errorf("blocks = %q", got)
	}
	if got := anchorOf(t, next); !got.Is(TextPoint(b.Key(), 0)) {
		t.Errorf("caret = %s", got)
	}
}

func TestDeleteWordAndLine(t *testing.T) {
	words, wk := paragraphDoc(t, "Hello big world")
	line, lk := paragraphDoc(t, "Hello world")
	two, tk := paragraphDoc(t, "Hello", "World")

	tests := []struct {
		name string
		st   *State
		key  Key
		off  int
		fn   func(tx *Tx, sel *RangeSelection)
		want []string
	}{
		{"word backward", words, wk[0], 15, func(tx *Tx, s *RangeSelection) { s.DeleteWord(tx, true) }, []string{"Hello big "}},
		{"word forward", words, wk[0], 0, func(tx *Tx, s *RangeSelection) { s.DeleteWord(tx, false) }, []string{" big world"}},
		{"line backward", line, lk[0], 5, func(tx *Tx, s *RangeSelection) { s.DeleteLine(tx, true) }, []string{" world"}},
		{"line forward", line, lk[0], 5, func(tx *Tx, s *RangeSelection) { s.DeleteLine(tx, false) }, []string{"Hello"}},
		{"line at block start", two, tk[1], 0, func(tx *Tx, s *RangeSelection) { s.DeleteLine(tx, true) }, []string{"HelloWorld"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := caret(t, tt.st, tt.key, tt.off, tt.fn)
			if got := blockTexts(next); !slices.Equal(got, tt.want) {
				t.Errorf("blocks = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInsertParagraph(t *testing.T) {
	st, keys := paragraphDoc(t, "Hello")
	tests := []struct {
		name      string
		offset    int
		want      []string
		caretText string
	}{
		{"middle", 2, []string{"He", "llo"}, "llo"},
		{"end", 5, []string{"Hello", ""}, ""},
		{"start", 0, []string{"", "Hello"}, "Hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := caret(t, st, keys[0], tt.offset, func(tx *Tx, sel *RangeSelection) {
				sel.InsertParagraph(tx)
			})
			if got := blockTexts(next); !slices.Equal(got, tt.want) {
				t.Fatalf("blocks = %q, want %q", got, tt.want)
			}
			at := anchorOf(t, next)
			if at.Offset != 0 {
				t.Errorf("caret offset = %d, want 0", at.Offset)
			}
			if got := next.NodeByKey(at.Key).TextContent(next); got != tt.caretText {
				t.Errorf("caret node text = %q, want %q", got, tt.caretText)
			}
		})
	}
}

func TestInsertNodesBlock(t *testing.T) {
	st, keys := paragraphDoc(t, "Hello")
	next := caret(t, st, keys[0], 2, func(tx *Tx, sel *RangeSelection) {
		sel.InsertNodes(tx, []*Node{NewHorizontalRule(tx)}, false)
	})
	want := []string{TypeParagraph, TypeHorizontalRule, TypeParagraph}
	if got := childTypes(next, next.Root()); !slices.Equal(got, want) {
		t.Fatalf("root children = %v, want %v", got, want)
	}
	if got := blockTexts(next); !slices.Equal(got, []string{"He", "", "llo"}) {
		t.Errorf("blocks = %q", got)
	}
	if got := anchorOf(t, next); !got.Is(ElementPoint(RootKey, 2)) {
		t.Errorf("caret = %s", got)
	}
}

func TestInsertRawText(t *testing.T) {
	st, keys := paragraphDoc(t, "Hello")
	next := caret(t, st, keys[0], 5, func(tx *Tx, sel *RangeSelection) {
		sel.InsertRawText(tx, "a\r\nb")
	})
	p := next.Root().FirstChild(next)
	want := []string{TypeText, TypeLineBreak, TypeText}
	if got := childTypes(next, p); !slices.Equal(got, want) {
		t.Errorf("paragraph children = %v, want %v", got, want)
	}
	if got := next.TextContent(); got != "Helloa\nb" {
		t.Errorf("TextContent() = %q", got)
	}
}

func TestFormatText(t *testing.T) {
	st, keys := paragraphDoc(t, "Hello")
	next := apply(t, st, func(tx *Tx) {
		tx.NodeByKey(keys[0]).Select(tx, 1, 4).FormatText(tx, FormatBold)
	})
	p := next.Root().FirstChild(next)
	var texts []string
	var bold []bool
	for _, c := range p.Children(next) {
		texts = append(texts, c.Text())
		bold = append(bold, c.HasFormat(FormatBold))
	}
	if !slices.Equal(texts, []string{"H", "ell", "o"}) || bold[0] || !bold[1] || bold[2] {
		t.Fatalf("children = %q bold = %v", texts, bold)
	}
	sel := next.Selection().(*RangeSelection)
	if got := sel.TextContent(next); got != "ell" {
		t.Errorf("selected text = %q", got)
	}
	if !sel.HasFormat(FormatBold) {
		t.Error("selection format not bold")
	}

	// Toggling again clears the flag and normalization merges the parts.
	next = apply(t, next, func(tx *Tx) {
		tx.RangeSelection().FormatText(tx, FormatBold)
	})
	p = next.Root().FirstChild(next)
	if p.ChildrenSize() != 1 || p.FirstChild(next).Text() != "Hello" {
		t.Errorf("children after toggle = %v", childTypes(next, p))
	}
	sel = next.Selection().(*RangeSelection)
	if got := sel.TextContent(next); got != "ell" {
		t.Errorf("selected text after merge = %q", got)
	}
}

func TestFormatTextCollapsed(t *testing.T) {
	st, keys := paragraphDoc(t, "Hello")
	next := caret(t, st, keys[0], 2, func(tx *Tx, sel *RangeSelection) {
		sel.FormatText(tx, FormatItalic)
	})
	if next.Root().FirstChild(next).ChildrenSize() != 1 {
		t.Error("collapsed FormatText split text")
	}
	if !next.Selection().(*RangeSelection).HasFormat(FormatItalic) {
		t.Error("typing format not toggled")
	}
}

func TestModify(t *testing.T) {
	st, keys := paragraphDoc(t, "Hello")
	k := keys[0]
	apply(t, st, func(tx *Tx) {
		sel := tx.NodeByKey(k).Select(tx, 0, 0)
		if !sel.Modify(tx, AlterMove, false, GranularityCharacter) || !sel.Anchor.Is(TextPoint(k, 1)) {
			t.Fatalf("move = %s", sel)
		}
		if !sel.Modify(tx, AlterExtend, false, GranularityWord) {
			t.Fatal("extend by word failed")
		}
		if !sel.Anchor.Is(TextPoint(k, 1)) || !sel.Focus.Is(TextPoint(k, 5)) {
			t.Fatalf("extend = %s", sel)
		}
		if sel.Modify(tx, AlterExtend, false, GranularityCharacter) {
			t.Error("extend past document end reported true")
		}
		sel.Modify(tx, AlterMove, true, GranularityCharacter)
		if !sel.IsCollapsed() || !sel.Anchor.Is(TextPoint(k, 1)) {
			t.Errorf("move back over range = %s", sel)
		}
	})
}

func TestExtract(t *testing.T) {
	st, keys := paragraphDoc(t, "Hello", "World")
	apply(t, st, func(tx *Tx) {
		sel := NewRangeSelection(TextPoint(keys[0], 3), TextPoint(keys[1], 2))
		nodes := sel.Extract(tx)
		first, last := nodes[0], nodes[len(nodes)-1]
		if first.Text() != "lo" || last.Text() != "Wo" {
			t.Errorf("Extract() edges = %q, %q", first.Text(), last.Text())
		}
	})
}
