// Package backend paints a reconciled document onto a terminal.
//
// Screen is a render target: the reconciler writes elements into it by key,
// and Draw lays the element tree out into terminal lines and paints them on
// a tcell screen.
package backend

// EventType identifies the type of terminal event.
type EventType int

const (
	EventNone EventType = iota
	EventKey
	EventResize
	EventClosed
)

// Event represents a terminal event.
type Event struct {
	Type EventType

	// Key event fields
	Key  Key
	Rune rune
	Mod  ModMask

	// Resize event fields
	Width, Height int
}

// Key represents a keyboard key.
type Key int

// Key constants for the keys the viewer reacts to.
const (
	KeyNone Key = iota
	KeyRune     // Regular character (use Rune field)
	KeyEscape
	KeyEnter
	KeyUp
	KeyDown
	KeyPageUp
	KeyPageDown
	KeyHome
	KeyEnd
	KeyCtrlC
	KeyOther
)

// ModMask represents modifier key state.
type ModMask int

const (
	ModNone  ModMask = 0
	ModShift ModMask = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// Has returns true if the mask contains the given modifier.
func (m ModMask) Has(mod ModMask) bool {
	return m&mod != 0
}

// IsQuit reports whether ev asks the viewer to exit.
func (ev Event) IsQuit() bool {
	switch ev.Type {
	case EventClosed:
		return true
	case EventKey:
		return ev.Key == KeyEscape || ev.Key == KeyCtrlC || (ev.Key == KeyRune && ev.Rune == 'q')
	}
	return false
}
