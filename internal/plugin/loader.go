package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Loader discovers plugins on the filesystem.
type Loader struct {
	// Search paths, checked in order.
	paths []string

	discovered map[string]*PluginInfo
}

// PluginInfo is what discovery learned about a plugin.
type PluginInfo struct {
	Name     string
	Path     string
	Manifest *Manifest
	State    State
	Error    error
}

// NewLoader creates a loader over paths.
func NewLoader(paths ...string) *Loader {
	return &Loader{
		paths:      paths,
		discovered: make(map[string]*PluginInfo),
	}
}

// Paths returns the search paths.
func (l *Loader) Paths() []string {
	return l.paths
}

// Discover scans every search path and returns the plugins found, sorted
// by name. A missing search path is not an error. When two paths hold a
// plugin of the same name the earlier path wins.
func (l *Loader) Discover() ([]*PluginInfo, error) {
	l.discovered = make(map[string]*PluginInfo)

	for _, base := range l.paths {
		if err := l.discoverInPath(base); err != nil {
			return nil, err
		}
	}

	plugins := make([]*PluginInfo, 0, len(l.discovered))
	for _, info := range l.discovered {
		plugins = append(plugins, info)
	}
	slices.SortFunc(plugins, func(a, b *PluginInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
	return plugins, nil
}

func (l *Loader) discoverInPath(base string) error {
	entries, err := os.ReadDir(base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		var info *PluginInfo
		switch {
		case entry.IsDir():
			info = inspectPlugin(entry.Name(), filepath.Join(base, entry.Name()))
		case filepath.Ext(entry.Name()) == ".lua":
			info = singleFilePlugin(base, entry.Name())
		default:
			continue
		}
		if _, exists := l.discovered[info.Name]; !exists {
			l.discovered[info.Name] = info
		}
	}
	return nil
}

// singleFilePlugin describes base/<name>.lua.
func singleFilePlugin(base, file string) *PluginInfo {
	name := strings.TrimSuffix(file, ".lua")
	return &PluginInfo{
		Name:     name,
		Path:     base,
		Manifest: newMinimalManifest(name, base, file),
		State:    StateUnloaded,
	}
}

// inspectPlugin examines a plugin directory. Without a manifest, init.lua
// and then plugin.lua are tried as the entry script.
func inspectPlugin(name, dir string) *PluginInfo {
	info := &PluginInfo{Name: name, Path: dir, State: StateUnloaded}

	manifestPath := filepath.Join(dir, ManifestFile)
	if _, err := os.Stat(manifestPath); err == nil {
		m, err := LoadManifest(manifestPath)
		if err != nil {
			info.Error = fmt.Errorf("invalid manifest: %w", err)
			info.State = StateError
			return info
		}
		info.Manifest = m
		info.Name = m.Name
		return info
	}

	for _, main := range []string{"init.lua", "plugin.lua"} {
		if _, err := os.Stat(filepath.Join(dir, main)); err == nil {
			info.Manifest = newMinimalManifest(name, dir, main)
			return info
		}
	}

	info.Error = ErrNoEntryPoint
	info.State = StateError
	return info
}

// Get returns a discovered plugin.
func (l *Loader) Get(name string) (*PluginInfo, bool) {
	info, ok := l.discovered[name]
	return info, ok
}

// FindPlugin returns a discovered plugin, or searches the paths for a
// directory or single-file plugin called name.
func (l *Loader) FindPlugin(name string) (*PluginInfo, error) {
	if info, ok := l.discovered[name]; ok {
		return info, nil
	}

	for _, base := range l.paths {
		dir := filepath.Join(base, name)
		if stat, err := os.Stat(dir); err == nil && stat.IsDir() {
			info := inspectPlugin(name, dir)
			if info.Error == nil {
				l.discovered[info.Name] = info
				return info, nil
			}
		}
		if _, err := os.Stat(filepath.Join(base, name+".lua")); err == nil {
			info := singleFilePlugin(base, name+".lua")
			l.discovered[name] = info
			return info, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
}

// ListNames returns the names of the discovered plugins, sorted.
func (l *Loader) ListNames() []string {
	names := make([]string, 0, len(l.discovered))
	for name := range l.discovered {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Errors returns the discovered plugins that failed inspection.
func (l *Loader) Errors() []*PluginInfo {
	var errored []*PluginInfo
	for _, name := range l.ListNames() {
		if info := l.discovered[name]; info.Error != nil {
			errored = append(errored, info)
		}
	}
	return errored
}
