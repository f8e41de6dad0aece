package backend

import (
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/folio/internal/model"
	"github.com/dshills/folio/internal/target"
)

const (
	indentWidth = 2
	ruleWidth   = 40
	quoteBar    = "│ "
	cellSep     = " │ "
)

var blockTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "table": true, "hr": true,
}

// layout converts the element tree into lines. Top-level blocks are
// separated by a blank line. The caller holds s.mu.
func (s *Screen) layout(width int) []Line {
	w := newLineWriter(width)
	root, ok := s.tree.Element(string(model.RootKey))
	if !ok {
		return nil
	}
	for i, c := range root.Children {
		if i > 0 {
			w.blank()
		}
		s.block(w, c, nil, tcell.StyleDefault)
	}
	return w.finish()
}

// block lays out a block element starting on a fresh line.
func (s *Screen) block(w *lineWriter, el *target.Element, prefix Line, style tcell.Style) {
	if n, err := strconv.Atoi(el.Spec.Attr("indent")); err == nil && n > 0 {
		prefix = append(append(Line(nil), prefix...), spaces(n*indentWidth, tcell.StyleDefault)...)
	}

	switch tag := el.Spec.Tag; {
	case tag == "hr":
		w.begin(prefix)
		w.rule(style.Dim(true), ruleWidth)
		return
	case tag == "table":
		s.table(w, el, prefix, style)
		return
	case tag == "blockquote":
		style = s.styleFor("quote", style.Italic(true))
		prefix = append(append(Line(nil), prefix...), barCells(style)...)
	case len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6':
		style = s.styleFor("heading", style.Bold(true))
	case tag == "decorator":
		w.begin(prefix)
		w.write("["+el.Spec.Attr("data-type")+"]", style.Dim(true))
		w.end()
		return
	}

	from := len(w.lines)
	w.begin(prefix)
	s.inline(w, el, prefix, style)
	w.end()
	w.align(from, el.Spec.Attr("align"))
}

func barCells(style tcell.Style) Line {
	var l Line
	for _, r := range quoteBar {
		l = append(l, Cell{Text: string(r), Width: 1, Style: style})
	}
	return l
}

// inline writes the children of el into the open line.
func (s *Screen) inline(w *lineWriter, el *target.Element, prefix Line, style tcell.Style) {
	for _, c := range el.Children {
		switch tag := c.Spec.Tag; {
		case tag == "span":
			w.write(c.Spec.Text, s.spanStyle(c, style))
		case tag == "br":
			w.newline()
		case tag == "decorator":
			w.write("["+c.Spec.Attr("data-type")+"]", style.Dim(true))
		case blockTags[tag]:
			w.breakLine()
			s.block(w, c, prefix, style)
			w.prefix = prefix
		case tag == "a":
			s.inline(w, c, prefix, s.styleFor("link", style.Underline(true)))
		default:
			s.inline(w, c, prefix, s.styleFor(tag, style))
		}
	}
}

// spanStyle applies the format attribute of a text span.
func (s *Screen) spanStyle(el *target.Element, style tcell.Style) tcell.Style {
	for _, name := range strings.Fields(el.Spec.Attr("format")) {
		switch name {
		case "bold":
			style = style.Bold(true)
		case "italic":
			style = style.Italic(true)
		case "underline":
			style = style.Underline(true)
		case "strikethrough":
			style = style.StrikeThrough(true)
		case "code":
			style = s.styleFor("code", style)
		}
	}
	return style
}

// table writes one line per row with cells separated by a bar.
func (s *Screen) table(w *lineWriter, el *target.Element, prefix Line, style tcell.Style) {
	for _, row := range el.Children {
		w.begin(prefix)
		for i, cell := range row.Children {
			if i > 0 {
				w.write(cellSep, style.Dim(true))
			}
			w.write(cellText(cell), style)
		}
		w.end()
	}
}

// cellText joins the blocks of a cell with spaces.
func cellText(cell *target.Element) string {
	parts := make([]string, 0, len(cell.Children))
	for _, c := range cell.Children {
		parts = append(parts, strings.ReplaceAll(c.TextContent(), "\n", " "))
	}
	return strings.Join(parts, " ")
}
