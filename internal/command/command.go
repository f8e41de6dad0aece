package command

// Priority orders handlers of the same command. Higher priorities run
// first.
type Priority int

const (
	// PriorityEditor is used by the editor's built-in handlers so that any
	// other handler can override them.
	PriorityEditor Priority = iota

	// PriorityLow runs after normal handlers.
	PriorityLow

	// PriorityNormal is the default for plugins and integrations.
	PriorityNormal

	// PriorityHigh runs before normal handlers.
	PriorityHigh

	// PriorityCritical runs before everything else.
	PriorityCritical
)

// String returns a human-readable priority name.
func (p Priority) String() string {
	switch p {
	case PriorityEditor:
		return "editor"
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParsePriority returns the priority for a name, defaulting to normal.
func ParsePriority(name string) (Priority, bool) {
	for p := PriorityEditor; p <= PriorityCritical; p++ {
		if p.String() == name {
			return p, true
		}
	}
	return PriorityNormal, false
}

// Command identifies a command and the payload type its handlers receive.
// Two commands with the same name share handlers.
type Command[P any] struct {
	name string
}

// New returns a command named name.
func New[P any](name string) Command[P] {
	return Command[P]{name: name}
}

// Name returns the command name.
func (c Command[P]) Name() string {
	return c.name
}

// String implements fmt.Stringer.
func (c Command[P]) String() string {
	return c.name
}

// Handler handles a command payload and reports whether it was handled.
// A handled command is not passed to lower handlers.
type Handler[P any] func(payload P) bool
