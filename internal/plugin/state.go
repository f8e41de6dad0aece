package plugin

// State is the lifecycle state of a plugin.
type State int

// Plugin states.
const (
	// StateUnloaded - discovered, not running.
	StateUnloaded State = iota

	// StateLoaded - entry script ran and its handlers are registered.
	StateLoaded

	// StateError - discovery or loading failed.
	StateError
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
