package plugin

import "errors"

// Plugin system errors.
var (
	// ErrPluginNotFound is returned when a plugin cannot be located.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrNoEntryPoint is returned when a plugin directory has neither a
	// manifest nor an init.lua or plugin.lua.
	ErrNoEntryPoint = errors.New("plugin has no entry point (init.lua or plugin.lua)")

	// ErrAlreadyLoaded is returned when loading a plugin twice.
	ErrAlreadyLoaded = errors.New("plugin is already loaded")

	// ErrPluginDisabled is returned when loading a disabled plugin.
	ErrPluginDisabled = errors.New("plugin is disabled")

	// ErrDependencyNotFound is returned when a required dependency is missing.
	ErrDependencyNotFound = errors.New("plugin dependency not found")

	// ErrCyclicDependency is returned when plugins depend on each other.
	ErrCyclicDependency = errors.New("cyclic plugin dependency detected")
)
