package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
)

// ManifestFile is the manifest name inside a plugin directory.
const ManifestFile = "plugin.json"

// Manifest describes a plugin.
type Manifest struct {
	Name        string `json:"name"`        // Unique identifier (e.g., "smart-quotes")
	Version     string `json:"version"`     // Semver (e.g., "1.2.0")
	DisplayName string `json:"displayName"` // Human-readable name
	Description string `json:"description"`
	Author      string `json:"author"`

	// Main is the entry script relative to the plugin directory.
	Main string `json:"main"`

	// Dependencies are loaded before the plugin.
	Dependencies []string `json:"dependencies"`

	// Commands the entry script is expected to register.
	Commands []CommandContribution `json:"commands"`

	path string
}

// CommandContribution declares a command a plugin handles.
type CommandContribution struct {
	ID          string `json:"id"` // Command name (e.g., "SMART_QUOTES")
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Validation errors.
var (
	ErrMissingName      = errors.New("manifest: name is required")
	ErrInvalidName      = errors.New("manifest: name must be lowercase alphanumeric with hyphens")
	ErrInvalidVersion   = errors.New("manifest: version must be valid semver")
	ErrInvalidMain      = errors.New("manifest: main must be a .lua file")
	ErrMissingCommandID = errors.New("manifest: command id is required")
)

var (
	namePattern   = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$|^[a-z]$`)
	semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(-[a-zA-Z0-9.-]+)?(\+[a-zA-Z0-9.-]+)?$`)
)

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	m.path = filepath.Dir(path)
	m.applyDefaults()

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// newMinimalManifest describes a plugin without a manifest file.
func newMinimalManifest(name, dir, main string) *Manifest {
	return &Manifest{Name: name, Version: "0.0.0", Main: main, path: dir}
}

func (m *Manifest) applyDefaults() {
	if m.Main == "" {
		m.Main = "init.lua"
	}
	if m.Version == "" {
		m.Version = "0.0.0"
	}
}

// Validate checks the manifest fields.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return ErrMissingName
	}
	if !namePattern.MatchString(m.Name) {
		return fmt.Errorf("%w: %s", ErrInvalidName, m.Name)
	}
	if !semverPattern.MatchString(m.Version) {
		return fmt.Errorf("%w: %s", ErrInvalidVersion, m.Version)
	}
	if filepath.Ext(m.Main) != ".lua" || filepath.IsAbs(m.Main) {
		return fmt.Errorf("%w: %s", ErrInvalidMain, m.Main)
	}
	for i, cmd := range m.Commands {
		if cmd.ID == "" {
			return fmt.Errorf("%w at index %d", ErrMissingCommandID, i)
		}
	}
	return nil
}

// Path returns the plugin directory.
func (m *Manifest) Path() string {
	return m.path
}

// MainPath returns the full path of the entry script.
func (m *Manifest) MainPath() string {
	return filepath.Join(m.path, m.Main)
}

// CommandIDs returns the declared command names.
func (m *Manifest) CommandIDs() []string {
	ids := make([]string, len(m.Commands))
	for i, c := range m.Commands {
		ids[i] = c.ID
	}
	return ids
}

// String returns "<display name> v<version>".
func (m *Manifest) String() string {
	display := m.DisplayName
	if display == "" {
		display = m.Name
	}
	return fmt.Sprintf("%s v%s", display, m.Version)
}

// Clone returns a deep copy.
func (m *Manifest) Clone() *Manifest {
	clone := *m
	clone.Dependencies = slices.Clone(m.Dependencies)
	clone.Commands = slices.Clone(m.Commands)
	return &clone
}
