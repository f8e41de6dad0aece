package backend

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"
)

// Cell is one grapheme cluster placed on a line. Wide clusters occupy two
// columns.
type Cell struct {
	Text  string
	Width int
	Style tcell.Style
}

// Line is a row of cells.
type Line []Cell

// String returns the text of the line.
func (l Line) String() string {
	var sb strings.Builder
	for _, c := range l {
		sb.WriteString(c.Text)
	}
	return sb.String()
}

// Width returns the number of columns the line occupies.
func (l Line) Width() int {
	w := 0
	for _, c := range l {
		w += c.Width
	}
	return w
}

func spaces(n int, style tcell.Style) Line {
	l := make(Line, n)
	for i := range l {
		l[i] = Cell{Text: " ", Width: 1, Style: style}
	}
	return l
}

// lineWriter accumulates wrapped lines. A width of zero or less disables
// wrapping.
type lineWriter struct {
	width  int
	lines  []Line
	cur    Line
	col    int
	prefix Line
	open   bool
}

func newLineWriter(width int) *lineWriter {
	return &lineWriter{width: width}
}

// begin opens a block whose lines all start with prefix.
func (w *lineWriter) begin(prefix Line) {
	if w.open {
		w.flush()
	}
	w.prefix = prefix
	w.startLine()
}

func (w *lineWriter) startLine() {
	w.cur = append(Line(nil), w.prefix...)
	w.col = w.prefix.Width()
	w.open = true
}

func (w *lineWriter) flush() {
	w.lines = append(w.lines, w.cur)
	w.cur = nil
	w.open = false
}

// newline ends the current line and starts another inside the block.
func (w *lineWriter) newline() {
	if !w.open {
		w.startLine()
	}
	w.flush()
	w.startLine()
}

// end closes the block.
func (w *lineWriter) end() {
	if w.open {
		w.flush()
	}
	w.prefix = nil
}

// breakLine closes the current line unless nothing was written on it.
func (w *lineWriter) breakLine() {
	if w.open && len(w.cur) == len(w.prefix) {
		w.cur = nil
		w.open = false
		return
	}
	w.end()
}

// blank adds an empty separator line.
func (w *lineWriter) blank() {
	w.end()
	w.lines = append(w.lines, nil)
}

// write appends s, wrapping at grapheme cluster boundaries.
func (w *lineWriter) write(s string, style tcell.Style) {
	if !w.open {
		w.startLine()
	}
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		cluster := g.Str()
		switch cluster {
		case "\n", "\r\n", "\r":
			w.newline()
			continue
		case "\t":
			cluster = " "
		}
		cw := uniseg.StringWidth(cluster)
		if cw == 0 {
			continue
		}
		if w.width > 0 && w.col+cw > w.width && w.col > w.prefix.Width() {
			w.newline()
		}
		w.cur = append(w.cur, Cell{Text: cluster, Width: cw, Style: style})
		w.col += cw
	}
}

// rule fills a whole line with a horizontal bar.
func (w *lineWriter) rule(style tcell.Style, fallback int) {
	if !w.open {
		w.startLine()
	}
	n := w.width - w.col
	if w.width <= 0 {
		n = fallback
	}
	w.write(strings.Repeat("─", max(0, n)), style)
	w.end()
}

// align shifts the lines from index from onward for center or right
// alignment.
func (w *lineWriter) align(from int, mode string) {
	if w.width <= 0 || (mode != "center" && mode != "right") {
		return
	}
	for i := from; i < len(w.lines); i++ {
		l := w.lines[i]
		pad := w.width - l.Width()
		if mode == "center" {
			pad /= 2
		}
		if pad > 0 {
			w.lines[i] = append(spaces(pad, tcell.StyleDefault), l...)
		}
	}
}

func (w *lineWriter) finish() []Line {
	w.end()
	return w.lines
}
