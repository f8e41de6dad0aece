// Package ansi prints a document state as styled terminal text.
//
// Blocks are separated by a blank line. Headings carry a markdown style
// level marker, quotes a left bar, and grids are drawn as bordered tables.
// Colors come from the editor theme classes "heading", "quote", "code" and
// "link". When the output is not a terminal the text is printed plain.
package ansi

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"

	"github.com/dshills/folio/internal/editor"
	"github.com/dshills/folio/internal/model"
)

const (
	indentWidth      = 2
	defaultRuleWidth = 40
)

// Option configures a Printer.
type Option func(*Printer)

// WithTheme sets the theme colors.
func WithTheme(theme editor.Theme) Option {
	return func(p *Printer) {
		p.theme = theme
	}
}

// WithWidth sets the line width. Blocks wrap and align within it. Zero
// disables wrapping.
func WithWidth(width int) Option {
	return func(p *Printer) {
		p.width = max(0, width)
	}
}

// WithColorProfile forces a color profile instead of detecting one from
// the output.
func WithColorProfile(profile termenv.Profile) Option {
	return func(p *Printer) {
		p.renderer.SetColorProfile(profile)
	}
}

// WithDecorators sets rendered decorator values by node key, usually
// the result of Editor.Decorators.
func WithDecorators(values map[model.Key]any) Option {
	return func(p *Printer) {
		p.decorators = values
	}
}

// Printer renders states. It is safe for concurrent use once built.
type Printer struct {
	renderer   *lipgloss.Renderer
	theme      editor.Theme
	width      int
	decorators map[model.Key]any
}

// New creates a printer whose color profile is detected from out.
func New(out io.Writer, opts ...Option) *Printer {
	p := &Printer{renderer: lipgloss.NewRenderer(out)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Fprint writes the rendered state followed by a newline.
func (p *Printer) Fprint(w io.Writer, s *model.State) error {
	_, err := io.WriteString(w, p.Print(s)+"\n")
	return err
}

// Print renders the whole document.
func (p *Printer) Print(s *model.State) string {
	root := s.Root()
	blocks := make([]string, 0, root.ChildrenSize())
	for _, n := range root.Children(s) {
		blocks = append(blocks, p.block(s, n))
	}
	return strings.Join(blocks, "\n\n")
}

func (p *Printer) style() lipgloss.Style {
	return p.renderer.NewStyle()
}

func (p *Printer) colored(class string, base lipgloss.Style) lipgloss.Style {
	if v := p.theme.Class(class); v != "" {
		return base.Foreground(lipgloss.Color(v))
	}
	return base
}

// block renders a top-level node or a block nested inside one.
func (p *Printer) block(r model.Reader, n *model.Node) string {
	switch {
	case n.Type() == model.TypeHorizontalRule:
		return p.rule()
	case n.Type() == model.TypeGrid:
		return p.grid(r, n)
	case n.IsDecorator():
		return p.decorator(n)
	case !n.IsElement():
		return p.leaf(n, p.style())
	}

	text := p.style()
	var body string
	switch n.Type() {
	case model.TypeHeading:
		text = p.colored("heading", text.Bold(true))
		body = text.Render(headingMarker(n.PropString("tag"))) + p.inline(r, n, text)
	case model.TypeQuote:
		text = p.colored("quote", text.Italic(true))
		body = p.colored("quote", p.style()).
			Border(lipgloss.Border{Left: "│"}, false, false, false, true).
			PaddingLeft(1).
			Render(p.inline(r, n, text))
	default:
		body = p.inline(r, n, text)
	}

	layout := p.style().PaddingLeft(n.Indent() * indentWidth)
	if p.width > 0 {
		layout = layout.Width(p.width)
	}
	switch n.ElementFormat() {
	case model.AlignCenter:
		layout = layout.Align(lipgloss.Center)
	case model.AlignRight:
		layout = layout.Align(lipgloss.Right)
	}
	return layout.Render(body)
}

func headingMarker(tag string) string {
	level := 1
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		level = int(tag[1] - '0')
	}
	return strings.Repeat("#", level) + " "
}

// inline renders the children of an element.
func (p *Printer) inline(r model.Reader, n *model.Node, style lipgloss.Style) string {
	var sb strings.Builder
	for _, c := range n.Children(r) {
		switch {
		case c.IsElement() && c.Type() == model.TypeParagraph,
			c.IsElement() && c.Type() == model.TypeHeading,
			c.IsElement() && c.Type() == model.TypeQuote,
			c.Type() == model.TypeGrid, c.Type() == model.TypeHorizontalRule:
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(p.block(r, c))
			sb.WriteByte('\n')
		case c.IsElement():
			sb.WriteString(p.inline(r, c, p.colored(c.Type(), style)))
		default:
			sb.WriteString(p.leaf(c, style))
		}
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// leaf renders a text, line break or decorator node.
func (p *Printer) leaf(n *model.Node, style lipgloss.Style) string {
	switch n.Kind() {
	case model.KindLineBreak:
		return "\n"
	case model.KindDecorator:
		return p.decorator(n)
	}
	f := n.Format()
	if f.Has(model.FormatBold) {
		style = style.Bold(true)
	}
	if f.Has(model.FormatItalic) {
		style = style.Italic(true)
	}
	if f.Has(model.FormatUnderline) {
		style = style.Underline(true)
	}
	if f.Has(model.FormatStrikethrough) {
		style = style.Strikethrough(true)
	}
	if f.Has(model.FormatCode) {
		style = p.colored("code", style)
	}
	return style.Render(n.Text())
}

func (p *Printer) decorator(n *model.Node) string {
	if v, ok := p.decorators[n.Key()]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return p.style().Faint(true).Render("[" + n.Type() + "]")
}

func (p *Printer) rule() string {
	w := p.width
	if w == 0 {
		w = defaultRuleWidth
	}
	return p.style().Faint(true).Render(strings.Repeat("─", w))
}

// grid renders a grid as a bordered table, one table row per grid row.
func (p *Printer) grid(r model.Reader, n *model.Node) string {
	var rows [][]string
	for _, row := range n.Children(r) {
		var cells []string
		for _, cell := range row.Children(r) {
			var parts []string
			for _, b := range cell.Children(r) {
				parts = append(parts, strings.ReplaceAll(p.inline(r, b, p.style()), "\n", " "))
			}
			cells = append(cells, strings.Join(parts, " "))
		}
		rows = append(rows, cells)
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.style().Faint(true)).
		StyleFunc(func(row, col int) lipgloss.Style {
			return p.style().Padding(0, 1)
		}).
		Rows(rows...)
	return t.Render()
}
