package ansi

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/muesli/termenv"

	"github.com/dshills/folio/internal/editor"
	"github.com/dshills/folio/internal/model"
)

func build(t *testing.T, reg *model.Registry, fn func(tx *model.Tx)) *model.State {
	t.Helper()
	tx := model.Begin(model.NewState(reg), model.WithRegistry(reg))
	fn(tx)
	s, _ := tx.Commit()
	return s
}

func para(tx *model.Tx, nodes ...*model.Node) *model.Node {
	p := model.NewParagraph(tx)
	p.Append(tx, nodes...)
	return p
}

// lines splits rendered output and drops the padding lipgloss adds to
// even out line widths.
func lines(s string) []string {
	out := strings.Split(s, "\n")
	for i, l := range out {
		out[i] = strings.TrimRight(l, " ")
	}
	return out
}

func plain(opts ...Option) *Printer {
	return New(&bytes.Buffer{}, append([]Option{WithColorProfile(termenv.Ascii)}, opts...)...)
}

func TestPrintPlain(t *testing.T) {
	tests := []struct {
		name  string
		opts  []Option
		build func(tx *model.Tx)
		want  []string
	}{
		{
			name: "blocks",
			build: func(tx *model.Tx) {
				h := model.NewHeading(tx, "h2")
				h.Append(tx, model.NewText(tx, "Title"))
				q := model.NewQuote(tx)
				q.Append(tx, model.NewText(tx, "said"))
				tx.Root().Append(tx, h, para(tx, model.NewText(tx, "Hello")), q)
			},
			want: []string{"## Title", "", "Hello", "", "│ said"},
		},
		{
			name: "line break",
			build: func(tx *model.Tx) {
				tx.Root().Append(tx, para(tx, model.NewText(tx, "one"), model.NewLineBreak(tx), model.NewText(tx, "two")))
			},
			want: []string{"one", "two"},
		},
		{
			name: "indent",
			build: func(tx *model.Tx) {
				p := para(tx, model.NewText(tx, "x"))
				p.SetIndent(tx, 1)
				tx.Root().Append(tx, p)
			},
			want: []string{"  x"},
		},
		{
			name: "center within width",
			opts: []Option{WithWidth(10)},
			build: func(tx *model.Tx) {
				p := para(tx, model.NewText(tx, "abcd"))
				p.SetElementFormat(tx, model.AlignCenter)
				tx.Root().Append(tx, p)
			},
			want: []string{"   abcd"},
		},
		{
			name: "horizontal rule",
			opts: []Option{WithWidth(5)},
			build: func(tx *model.Tx) {
				tx.Root().Append(tx, model.NewHorizontalRule(tx))
			},
			want: []string{"─────"},
		},
		{
			name:  "empty document",
			build: func(tx *model.Tx) {},
			want:  []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := build(t, nil, tt.build)
			got := lines(plain(tt.opts...).Print(s))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Print mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPrintGrid(t *testing.T) {
	s := build(t, nil, func(tx *model.Tx) {
		grid := model.NewGrid(tx)
		for _, r := range [][]string{{"a1", "b1"}, {"a2", "b2"}} {
			row := model.NewGridRow(tx)
			for _, text := range r {
				cell := model.NewGridCell(tx, 1)
				cell.Append(tx, para(tx, model.NewText(tx, text)))
				row.Append(tx, cell)
			}
			grid.Append(tx, row)
		}
		tx.Root().Append(tx, grid)
	})

	out := plain().Print(s)
	if !strings.Contains(out, "┌") {
		t.Errorf("grid should have a border:\n%s", out)
	}
	for _, pair := range [][2]string{{"a1", "b1"}, {"a2", "b2"}} {
		found := false
		for _, l := range lines(out) {
			i, j := strings.Index(l, pair[0]), strings.Index(l, pair[1])
			if i >= 0 && j > i && strings.Contains(l[i:j], "│") {
				found = true
			}
		}
		if !found {
			t.Errorf("no row with %s │ %s in:\n%s", pair[0], pair[1], out)
		}
	}
}

func TestPrintThemeColors(t *testing.T) {
	s := build(t, nil, func(tx *model.Tx) {
		h := model.NewHeading(tx, "h1")
		h.Append(tx, model.NewText(tx, "Title"))
		code := model.NewText(tx, "x := 1").SetFormat(tx, model.FormatCode)
		tx.Root().Append(tx, h, para(tx, code))
	})

	p := New(&bytes.Buffer{},
		WithColorProfile(termenv.ANSI256),
		WithTheme(editor.Theme{"heading": "212", "code": "39"}))
	out := p.Print(s)

	for _, want := range []string{"38;5;212", "38;5;39", "Title", "x := 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
}

func TestPrintDecorators(t *testing.T) {
	reg := model.NewRegistry()
	if err := reg.Register(model.Class{Type: "mention", Kind: model.KindDecorator, Version: 1}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	var key model.Key
	s := build(t, reg, func(tx *model.Tx) {
		m := model.NewNode(tx, "mention")
		key = m.Key()
		tx.Root().Append(tx, para(tx, model.NewText(tx, "hi "), m))
	})

	if got := lines(plain().Print(s)); got[0] != "hi [mention]" {
		t.Errorf("without value = %q, want %q", got[0], "hi [mention]")
	}
	got := lines(plain(WithDecorators(map[model.Key]any{key: "@bob"})).Print(s))
	if got[0] != "hi @bob" {
		t.Errorf("with value = %q, want %q", got[0], "hi @bob")
	}
}

func TestFprint(t *testing.T) {
	s := build(t, nil, func(tx *model.Tx) {
		tx.Root().Append(tx, para(tx, model.NewText(tx, "text")))
	})
	var buf bytes.Buffer
	if err := plain().Fprint(&buf, s); err != nil {
		t.Fatalf("Fprint: %v", err)
	}
	if buf.String() != "text\n" {
		t.Errorf("Fprint wrote %q", buf.String())
	}
}
