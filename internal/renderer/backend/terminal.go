package backend

import (
	"strconv"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/folio/internal/editor"
	"github.com/dshills/folio/internal/logging"
	"github.com/dshills/folio/internal/model"
	"github.com/dshills/folio/internal/target"
)

// Option configures a Screen.
type Option func(*Screen)

// WithTheme sets the colors used for headings, quotes, code and links.
func WithTheme(theme editor.Theme) Option {
	return func(s *Screen) {
		s.theme = theme
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Screen) {
		if l != nil {
			s.log = l.WithComponent("backend")
		}
	}
}

// Screen is a target.Target that paints the element tree on a tcell
// screen. Target writes only mark the screen dirty; painting happens in
// Draw.
type Screen struct {
	mu     sync.Mutex
	screen tcell.Screen
	tree   *target.Tree
	theme  editor.Theme
	log    *logging.Logger

	initialized bool
	dirty       bool
	scroll      int
	lines       []Line
}

var _ target.Target = (*Screen)(nil)

// New wraps screen. Init must be called before Draw.
func New(screen tcell.Screen, opts ...Option) *Screen {
	s := &Screen{
		screen: screen,
		tree:   target.NewTree(),
		log:    logging.Nop(),
		dirty:  true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewTerminal creates a Screen on the controlling terminal.
func NewTerminal(opts ...Option) (*Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return New(screen, opts...), nil
}

// Init initializes the underlying screen.
func (s *Screen) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.screen.Init(); err != nil {
		return err
	}
	s.initialized = true
	s.dirty = true
	return nil
}

// Shutdown releases the terminal.
func (s *Screen) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		s.screen.Fini()
		s.initialized = false
	}
}

// Size returns the screen dimensions.
func (s *Screen) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen.Size()
}

// Create implements target.Target.
func (s *Screen) Create(key string, spec target.Spec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = true
	return s.tree.Create(key, spec)
}

// Update implements target.Target.
func (s *Screen) Update(key string, spec target.Spec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = true
	return s.tree.Update(key, spec)
}

// Remove implements target.Target.
func (s *Screen) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = true
	return s.tree.Remove(key)
}

// Insert implements target.Target.
func (s *Screen) Insert(parentKey, key, beforeKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = true
	return s.tree.Insert(parentKey, key, beforeKey)
}

// Lookup implements target.Target.
func (s *Screen) Lookup(key string) (any, bool) {
	return s.tree.Lookup(key)
}

// SetTheme replaces the theme and marks the screen dirty.
func (s *Screen) SetTheme(theme editor.Theme) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = theme
	s.dirty = true
}

// Interrupt wakes a goroutine blocked in PollEvent, which then returns an
// EventNone.
func (s *Screen) Interrupt() {
	_ = s.screen.PostEvent(tcell.NewEventInterrupt(nil))
}

// Tree returns the element tree behind the screen.
func (s *Screen) Tree() *target.Tree {
	return s.tree
}

// IsDirty reports whether the tree changed since the last Draw.
func (s *Screen) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Render lays the document out at width columns and returns the plain text
// of each line.
func (s *Screen) Render(width int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.layout(width)
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.String()
	}
	return out
}

// Draw lays the document out at the screen width and paints the visible
// lines.
func (s *Screen) Draw() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	if _, ok := s.tree.Element(string(model.RootKey)); !ok {
		return ErrNoRoot
	}
	width, height := s.screen.Size()
	s.lines = s.layout(width)
	s.scroll = clampScroll(s.scroll, len(s.lines), height)

	s.screen.Clear()
	for y := 0; y < height && s.scroll+y < len(s.lines); y++ {
		x := 0
		for _, c := range s.lines[s.scroll+y] {
			r := []rune(c.Text)
			s.screen.SetContent(x, y, r[0], r[1:], c.Style)
			x += c.Width
		}
	}
	s.screen.Show()
	s.dirty = false
	s.log.Debug("drew", "lines", len(s.lines), "scroll", s.scroll)
	return nil
}

// Scroll moves the view by delta lines. The next Draw applies it.
func (s *Screen) Scroll(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, height := s.screen.Size()
	s.scroll = clampScroll(s.scroll+delta, len(s.lines), height)
	s.dirty = true
}

// ScrollTo moves the first visible line to line.
func (s *Screen) ScrollTo(line int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, height := s.screen.Size()
	s.scroll = clampScroll(line, len(s.lines), height)
	s.dirty = true
}

// ScrollOffset returns the first visible line.
func (s *Screen) ScrollOffset() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scroll
}

func clampScroll(scroll, lines, height int) int {
	return max(0, min(scroll, lines-height))
}

// Attach redraws the screen after every update of e that changed the tree.
// It returns a function that detaches the screen.
func (s *Screen) Attach(e *editor.Editor) func() {
	return e.RegisterUpdateListener(func(editor.UpdateEvent) {
		if !s.IsDirty() {
			return
		}
		if err := s.Draw(); err != nil {
			s.log.Warn("draw failed", "error", err)
		}
	})
}

// PollEvent waits for the next terminal event. A resize marks the screen
// dirty.
func (s *Screen) PollEvent() Event {
	ev := s.screen.PollEvent()
	if ev == nil {
		return Event{Type: EventClosed}
	}
	out := convertEvent(ev)
	if out.Type == EventResize {
		s.mu.Lock()
		s.screen.Sync()
		s.dirty = true
		s.mu.Unlock()
	}
	return out
}

// styleFor returns the style of a theme class layered on base.
func (s *Screen) styleFor(class string, base tcell.Style) tcell.Style {
	v := s.theme.Class(class)
	if v == "" {
		return base
	}
	return base.Foreground(parseColor(v))
}

// parseColor accepts a palette index, a hex color or a color name.
func parseColor(v string) tcell.Color {
	if n, err := strconv.Atoi(v); err == nil && n >= 0 && n < 256 {
		return tcell.PaletteColor(n)
	}
	return tcell.GetColor(v)
}

// convertEvent converts tcell events to our Event type.
func convertEvent(ev tcell.Event) Event {
	switch e := ev.(type) {
	case *tcell.EventKey:
		return Event{
			Type: EventKey,
			Key:  convertKey(e.Key()),
			Rune: e.Rune(),
			Mod:  convertMod(e.Modifiers()),
		}
	case *tcell.EventResize:
		w, h := e.Size()
		return Event{Type: EventResize, Width: w, Height: h}
	default:
		return Event{Type: EventNone}
	}
}

// convertKey converts tcell key to our Key type.
func convertKey(k tcell.Key) Key {
	switch k {
	case tcell.KeyRune:
		return KeyRune
	case tcell.KeyEscape:
		return KeyEscape
	case tcell.KeyEnter:
		return KeyEnter
	case tcell.KeyUp:
		return KeyUp
	case tcell.KeyDown:
		return KeyDown
	case tcell.KeyPgUp:
		return KeyPageUp
	case tcell.KeyPgDn:
		return KeyPageDown
	case tcell.KeyHome:
		return KeyHome
	case tcell.KeyEnd:
		return KeyEnd
	case tcell.KeyCtrlC:
		return KeyCtrlC
	default:
		return KeyOther
	}
}

// convertMod converts tcell modifiers to our ModMask.
func convertMod(m tcell.ModMask) ModMask {
	var mod ModMask
	if m&tcell.ModShift != 0 {
		mod |= ModShift
	}
	if m&tcell.ModCtrl != 0 {
		mod |= ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		mod |= ModAlt
	}
	if m&tcell.ModMeta != 0 {
		mod |= ModMeta
	}
	return mod
}
