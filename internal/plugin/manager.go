package plugin

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dshills/folio/internal/config"
	"github.com/dshills/folio/internal/editor"
	"github.com/dshills/folio/internal/logging"
	"github.com/dshills/folio/internal/plugin/lua"
)

// Plugin is a loaded plugin.
type Plugin struct {
	Manifest *Manifest
	Host     *lua.Host
}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return p.Manifest.Name
}

// EventHandler receives manager events. Handlers run synchronously and
// must not call back into the Manager.
type EventHandler func(event ManagerEvent)

// ManagerEvent reports a plugin lifecycle change.
type ManagerEvent struct {
	Type   ManagerEventType
	Plugin string
	Error  error
}

// ManagerEventType is the type of manager event.
type ManagerEventType int

const (
	// EventPluginLoaded is emitted after a plugin's entry script ran.
	EventPluginLoaded ManagerEventType = iota
	// EventPluginUnloaded is emitted after a plugin's handlers were removed.
	EventPluginUnloaded
	// EventPluginError is emitted when a plugin fails to load.
	EventPluginError
)

// String returns a string representation of the event type.
func (t ManagerEventType) String() string {
	switch t {
	case EventPluginLoaded:
		return "loaded"
	case EventPluginUnloaded:
		return "unloaded"
	case EventPluginError:
		return "error"
	default:
		return "unknown"
	}
}

// Option configures a Manager.
type Option func(*Manager)

// WithPaths sets the plugin search paths.
func WithPaths(paths ...string) Option {
	return func(m *Manager) {
		m.loader = NewLoader(paths...)
	}
}

// WithDisabled names plugins that must not be loaded.
func WithDisabled(names ...string) Option {
	return func(m *Manager) {
		for _, n := range names {
			m.disabled[n] = true
		}
	}
}

// WithExecutionTimeout bounds each top-level script call.
func WithExecutionTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l.WithComponent("plugin")
		}
	}
}

// WithConfig applies the plugins section of a configuration.
func WithConfig(cfg config.PluginConfig) Option {
	return func(m *Manager) {
		WithPaths(cfg.Paths...)(m)
		WithDisabled(cfg.Disabled...)(m)
		WithExecutionTimeout(cfg.Timeout())(m)
	}
}

// Manager loads plugins into script hosts bound to one editor.
type Manager struct {
	editor *editor.Editor
	log    *logging.Logger

	timeout  time.Duration
	disabled map[string]bool

	mu        sync.Mutex
	loader    *Loader
	plugins   map[string]*Plugin
	loadOrder []string
	handlers  []EventHandler
}

// NewManager creates a manager for e.
func NewManager(e *editor.Editor, opts ...Option) *Manager {
	m := &Manager{
		editor:   e,
		log:      e.Logger().WithComponent("plugin"),
		timeout:  lua.DefaultExecutionTimeout,
		disabled: make(map[string]bool),
		loader:   NewLoader(),
		plugins:  make(map[string]*Plugin),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnEvent registers a lifecycle event handler.
func (m *Manager) OnEvent(fn EventHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, fn)
}

func (m *Manager) emit(ev ManagerEvent) {
	m.mu.Lock()
	handlers := slices.Clone(m.handlers)
	m.mu.Unlock()
	for _, fn := range handlers {
		fn(ev)
	}
}

// Discover scans the search paths.
func (m *Manager) Discover() ([]*PluginInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loader.Discover()
}

// IsDisabled reports whether name is disabled by configuration.
func (m *Manager) IsDisabled(name string) bool {
	return m.disabled[name]
}

// Load loads a plugin and, first, its dependencies.
func (m *Manager) Load(name string) (*Plugin, error) {
	m.mu.Lock()
	_, exists := m.plugins[name]
	m.mu.Unlock()
	if exists {
		return nil, fmt.Errorf("plugin %q: %w", name, ErrAlreadyLoaded)
	}
	p, err := m.load(name, nil)
	if err != nil {
		m.log.Warn("plugin failed to load", "plugin", name, "error", err)
		m.emit(ManagerEvent{Type: EventPluginError, Plugin: name, Error: err})
	}
	return p, err
}

// load loads name after its dependencies. chain holds the plugins whose
// dependencies are being loaded.
func (m *Manager) load(name string, chain []string) (*Plugin, error) {
	if slices.Contains(chain, name) {
		return nil, fmt.Errorf("%w: %v", ErrCyclicDependency, append(chain, name))
	}
	if m.disabled[name] {
		return nil, fmt.Errorf("plugin %q: %w", name, ErrPluginDisabled)
	}

	m.mu.Lock()
	if p, ok := m.plugins[name]; ok {
		m.mu.Unlock()
		return p, nil
	}
	info, err := m.loader.FindPlugin(name)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if info.Error != nil {
		return nil, fmt.Errorf("plugin %q: %w", name, info.Error)
	}
	manifest := info.Manifest

	for _, dep := range manifest.Dependencies {
		if _, err := m.load(dep, append(chain, name)); err != nil {
			if errors.Is(err, ErrPluginNotFound) {
				return nil, fmt.Errorf("plugin %q requires %q: %w", name, dep, ErrDependencyNotFound)
			}
			return nil, err
		}
	}

	host := lua.NewHost(m.editor,
		lua.WithLogger(m.log.WithField("plugin", name)),
		lua.WithExecutionTimeout(m.timeout),
	)
	if err := host.RunFile(manifest.MainPath()); err != nil {
		_ = host.Close()
		return nil, fmt.Errorf("failed to load plugin %q: %w", name, err)
	}
	registered := host.Commands()
	for _, id := range manifest.CommandIDs() {
		if _, found := slices.BinarySearch(registered, id); !found {
			m.log.Warn("declared command not registered", "plugin", name, "command", id)
		}
	}

	p := &Plugin{Manifest: manifest, Host: host}
	m.mu.Lock()
	m.plugins[name] = p
	m.loadOrder = append(m.loadOrder, name)
	info.State = StateLoaded
	m.mu.Unlock()

	m.log.Info("plugin loaded", "plugin", manifest.String(), "commands", len(registered))
	m.emit(ManagerEvent{Type: EventPluginLoaded, Plugin: name})
	return p, nil
}

// LoadAll loads every discovered plugin that is not disabled. A plugin
// that fails does not stop the others; the failures are joined.
func (m *Manager) LoadAll() error {
	infos, err := m.Discover()
	if err != nil {
		return err
	}

	var loadErrors []error
	for _, info := range infos {
		if m.disabled[info.Name] || m.isLoaded(info.Name) {
			continue
		}
		if _, err := m.Load(info.Name); err != nil {
			loadErrors = append(loadErrors, err)
		}
	}
	if len(loadErrors) > 0 {
		return fmt.Errorf("failed to load %d plugins: %w", len(loadErrors), errors.Join(loadErrors...))
	}
	return nil
}

func (m *Manager) isLoaded(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.plugins[name]
	return ok
}

// Unload removes a plugin's command handlers and listeners and closes its
// script state.
func (m *Manager) Unload(name string) error {
	m.mu.Lock()
	p, exists := m.plugins[name]
	if !exists {
		m.mu.Unlock()
		return fmt.Errorf("plugin %q: %w", name, ErrPluginNotFound)
	}
	delete(m.plugins, name)
	m.loadOrder = slices.DeleteFunc(m.loadOrder, func(n string) bool { return n == name })
	if info, ok := m.loader.Get(name); ok {
		info.State = StateUnloaded
	}
	m.mu.Unlock()

	if err := p.Host.Close(); err != nil {
		return fmt.Errorf("failed to unload plugin %q: %w", name, err)
	}
	m.emit(ManagerEvent{Type: EventPluginUnloaded, Plugin: name})
	return nil
}

// UnloadAll unloads every plugin in reverse load order.
func (m *Manager) UnloadAll() error {
	names := m.Loaded()
	slices.Reverse(names)

	var unloadErrors []error
	for _, name := range names {
		if err := m.Unload(name); err != nil {
			unloadErrors = append(unloadErrors, err)
		}
	}
	return errors.Join(unloadErrors...)
}

// Get returns a loaded plugin.
func (m *Manager) Get(name string) (*Plugin, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plugins[name]
	return p, ok
}

// Loaded returns the names of the loaded plugins in load order.
func (m *Manager) Loaded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.loadOrder)
}
