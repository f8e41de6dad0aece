package config

import (
	"slices"
	"strings"
	"time"

	"github.com/dshills/folio/internal/logging"
)

// Config is the complete folio configuration.
type Config struct {
	// Namespace identifies the editor instance in logs and serialized output.
	Namespace string `toml:"namespace" yaml:"namespace"`

	Log     LogConfig     `toml:"log" yaml:"log"`
	Editor  EditorConfig  `toml:"editor" yaml:"editor"`
	History HistoryConfig `toml:"history" yaml:"history"`
	Theme   ThemeConfig   `toml:"theme" yaml:"theme"`
	Plugins PluginConfig  `toml:"plugins" yaml:"plugins"`
}

// LogConfig configures the logger.
type LogConfig struct {
	// Level is one of "debug", "info", "warn" or "error".
	Level string `toml:"level" yaml:"level"`
	// Format is "console" or "json".
	Format string `toml:"format" yaml:"format"`
}

// EditorConfig configures the update engine.
type EditorConfig struct {
	// ReadOnly starts the editor in read-only mode.
	ReadOnly bool `toml:"read_only" yaml:"read_only"`

	// AutoDirection recomputes block direction from text content on commit.
	AutoDirection bool `toml:"auto_direction" yaml:"auto_direction"`

	// MaxTransformPasses bounds node transform re-runs within one batch.
	MaxTransformPasses int `toml:"max_transform_passes" yaml:"max_transform_passes"`
}

// HistoryConfig configures undo/redo.
type HistoryConfig struct {
	// MaxEntries caps the undo stack. Zero selects the default of 1000.
	MaxEntries int `toml:"max_entries" yaml:"max_entries"`

	// MergeWindowMS is the window, in milliseconds, within which consecutive
	// mergeable updates collapse into one undo entry.
	MergeWindowMS int `toml:"merge_window_ms" yaml:"merge_window_ms"`
}

// MergeWindow returns the merge window as a duration.
func (h HistoryConfig) MergeWindow() time.Duration {
	return time.Duration(h.MergeWindowMS) * time.Millisecond
}

// ThemeConfig maps style classes to terminal colors.
type ThemeConfig struct {
	// Name is informational.
	Name string `toml:"name" yaml:"name"`

	// Colors maps a class (node type such as "heading" or a format such as
	// "code") to a lipgloss color: an ANSI index ("212") or hex ("#ff00aa").
	Colors map[string]string `toml:"colors" yaml:"colors"`
}

// PluginConfig configures script plugins.
type PluginConfig struct {
	// Paths are searched in order for plugin directories and single-file
	// plugins. The first plugin found under a name wins.
	Paths []string `toml:"paths" yaml:"paths"`

	// Disabled names plugins that are discovered but never loaded.
	Disabled []string `toml:"disabled" yaml:"disabled"`

	// TimeoutMS bounds each top-level script call, in milliseconds. Zero
	// selects the script host default.
	TimeoutMS int `toml:"timeout_ms" yaml:"timeout_ms"`
}

// Timeout returns the script call timeout as a duration.
func (p PluginConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutMS) * time.Millisecond
}

// Color returns the color for class, or "" when unset.
func (t ThemeConfig) Color(class string) string {
	return t.Colors[class]
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Namespace: "folio",
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Editor: EditorConfig{
			MaxTransformPasses: 100,
		},
		History: HistoryConfig{
			MaxEntries:    1000,
			MergeWindowMS: 1000,
		},
		Theme: ThemeConfig{
			Name: "default",
			Colors: map[string]string{
				"heading": "212",
				"quote":   "244",
				"code":    "#a6e22e",
				"link":    "39",
			},
		},
	}
}

var (
	validLevels  = []string{"debug", "info", "warn", "warning", "error"}
	validFormats = []string{"console", "json"}
)

// Validate reports the first out-of-range field.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Namespace) == "" {
		return &ValidationError{Field: "namespace", Message: "must not be empty"}
	}
	if !contains(validLevels, strings.ToLower(c.Log.Level)) {
		return &ValidationError{Field: "log.level", Message: "unknown level " + quote(c.Log.Level)}
	}
	if !contains(validFormats, strings.ToLower(c.Log.Format)) {
		return &ValidationError{Field: "log.format", Message: "unknown format " + quote(c.Log.Format)}
	}
	if c.Editor.MaxTransformPasses <= 0 {
		return &ValidationError{Field: "editor.max_transform_passes", Message: "must be positive"}
	}
	if c.History.MaxEntries < 0 {
		return &ValidationError{Field: "history.max_entries", Message: "must not be negative"}
	}
	if c.History.MergeWindowMS < 0 {
		return &ValidationError{Field: "history.merge_window_ms", Message: "must not be negative"}
	}
	if c.Plugins.TimeoutMS < 0 {
		return &ValidationError{Field: "plugins.timeout_ms", Message: "must not be negative"}
	}
	return nil
}

// LoggerConfig converts the log section into a logger configuration.
func (c *Config) LoggerConfig() logging.LoggerConfig {
	cfg := logging.DefaultLoggerConfig()
	cfg.Level = logging.ParseLogLevel(c.Log.Level)
	cfg.Format = strings.ToLower(c.Log.Format)
	cfg.Name = c.Namespace
	return cfg
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	if c.Theme.Colors != nil {
		out.Theme.Colors = make(map[string]string, len(c.Theme.Colors))
		for k, v := range c.Theme.Colors {
			out.Theme.Colors[k] = v
		}
	}
	out.Plugins.Paths = slices.Clone(c.Plugins.Paths)
	out.Plugins.Disabled = slices.Clone(c.Plugins.Disabled)
	return &out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func quote(s string) string {
	return `"` + s + `"`
}
