package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/folio/internal/logging"
)

const tomlConfig = `
namespace = "notes"

[log]
level = "debug"
format = "json"

[editor]
read_only = true
auto_direction = true
max_transform_passes = 10

[history]
max_entries = 50
merge_window_ms = 250

[theme]
name = "dark"

[theme.colors]
heading = "99"
quote = "244"
code = "#a6e22e"
link = "39"

[plugins]
paths = ["plugins"]
disabled = ["spell"]
timeout_ms = 2000
`

const yamlConfig = `
namespace: notes
log:
  level: debug
  format: json
editor:
  read_only: true
  auto_direction: true
  max_transform_passes: 10
history:
  max_entries: 50
  merge_window_ms: 250
theme:
  name: dark
  colors:
    heading: "99"
    quote: "244"
    code: "#a6e22e"
    link: "39"
plugins:
  paths: [plugins]
  disabled: [spell]
  timeout_ms: 2000
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestDefault_Validates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoad_FormatsAgree(t *testing.T) {
	dir := t.TempDir()
	fromTOML, err := Load(writeFile(t, dir, "folio.toml", tomlConfig))
	if err != nil {
		t.Fatalf("Load(toml): %v", err)
	}
	fromYAML, err := Load(writeFile(t, dir, "folio.yaml", yamlConfig))
	if err != nil {
		t.Fatalf("Load(yaml): %v", err)
	}
	if diff := cmp.Diff(fromTOML, fromYAML); diff != "" {
		t.Errorf("toml and yaml differ (-toml +yaml):\n%s", diff)
	}

	if fromTOML.Namespace != "notes" {
		t.Errorf("Namespace = %q, want notes", fromTOML.Namespace)
	}
	if !fromTOML.Editor.ReadOnly || !fromTOML.Editor.AutoDirection {
		t.Errorf("Editor = %+v", fromTOML.Editor)
	}
	if got := fromTOML.History.MergeWindow(); got != 250*time.Millisecond {
		t.Errorf("MergeWindow() = %v, want 250ms", got)
	}
	if got := fromTOML.Theme.Color("heading"); got != "99" {
		t.Errorf("Color(heading) = %q, want 99", got)
	}
	if got := fromTOML.Plugins.Timeout(); got != 2*time.Second {
		t.Errorf("Plugins.Timeout() = %v, want 2s", got)
	}
	if diff := cmp.Diff([]string{"spell"}, fromTOML.Plugins.Disabled); diff != "" {
		t.Errorf("Plugins.Disabled mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(writeFile(t, dir, "folio.yml", "history:\n  max_entries: 5\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	want.History.MaxEntries = 5
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_EmptyYAML(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(writeFile(t, dir, "empty.yaml", ""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		file    string
		content string
		check   func(error) bool
	}{
		{
			name:    "unsupported extension",
			file:    "folio.json",
			content: "{}",
			check:   func(err error) bool { return errors.Is(err, ErrUnsupportedFormat) },
		},
		{
			name:    "toml syntax",
			file:    "bad.toml",
			content: "namespace = \n",
			check: func(err error) bool {
				var pe *ParseError
				return errors.As(err, &pe) && pe.Path != ""
			},
		},
		{
			name:    "yaml unknown key",
			file:    "bad.yaml",
			content: "nmespace: x\n",
			check: func(err error) bool {
				var pe *ParseError
				return errors.As(err, &pe)
			},
		},
		{
			name:    "toml unknown key",
			file:    "unknown.toml",
			content: "[editor]\nreadonly = true\n",
			check: func(err error) bool {
				var pe *ParseError
				return errors.As(err, &pe)
			},
		},
		{
			name:    "invalid level",
			file:    "level.toml",
			content: "[log]\nlevel = \"loud\"\n",
			check: func(err error) bool {
				var ve *ValidationError
				return errors.Is(err, ErrValidationFailed) && errors.As(err, &ve) && ve.Field == "log.level"
			},
		},
		{
			name:    "negative history",
			file:    "history.yaml",
			content: "history:\n  max_entries: -1\n",
			check:   func(err error) bool { return errors.Is(err, ErrValidationFailed) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, dir, tt.file, tt.content))
			if err == nil {
				t.Fatal("Load succeeded, want error")
			}
			if !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadOrDefault_Missing(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path string
		want Format
		ok   bool
	}{
		{"a.toml", FormatTOML, true},
		{"a.TOML", FormatTOML, true},
		{"a.yaml", FormatYAML, true},
		{"dir/a.yml", FormatYAML, true},
		{"a.ini", 0, false},
		{"noext", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatOf(tt.path)
			if (err == nil) != tt.ok {
				t.Fatalf("FormatOf(%q) err = %v", tt.path, err)
			}
			if tt.ok && got != tt.want {
				t.Errorf("FormatOf(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestConfig_LoggerConfig(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "warn"
	cfg.Log.Format = "JSON"
	lc := cfg.LoggerConfig()
	if lc.Level != logging.LogLevelWarn {
		t.Errorf("Level = %v, want warn", lc.Level)
	}
	if lc.Format != "json" {
		t.Errorf("Format = %q, want json", lc.Format)
	}
	if lc.Name != "folio" {
		t.Errorf("Name = %q, want folio", lc.Name)
	}
}

func TestConfig_Clone(t *testing.T) {
	cfg := Default()
	c := cfg.Clone()
	c.Theme.Colors["heading"] = "1"
	if cfg.Theme.Colors["heading"] == "1" {
		t.Error("Clone shares the colors map")
	}
}

func TestWatcher_Reload(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "folio.toml", "namespace = \"one\"\n")

	w, err := NewWatcher(path, WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	got := make(chan *Config, 4)
	w.OnChange(func(cfg *Config) {
		select {
		case got <- cfg:
		default:
		}
	})
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	writeFile(t, dir, "folio.toml", "namespace = \"two\"\n")

	// A truncating write can surface an intermediate empty file first.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-got:
			if cfg.Namespace == "two" {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for reload")
		}
	}
}

func TestWatcher_ReportsLoadErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "folio.yaml", "namespace: one\n")

	errs := make(chan error, 4)
	w, err := NewWatcher(path, WithDebounce(0), WithErrorHandler(func(err error) {
		select {
		case errs <- err:
		default:
		}
	}))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	writeFile(t, dir, "folio.yaml", "bogus: [\n")

	select {
	case err := <-errs:
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("error = %v, want *ParseError", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for error")
	}
}

func TestWatcher_StartAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.toml")
	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Start(context.Background()); !errors.Is(err, ErrWatcherClosed) {
		t.Errorf("Start after Close = %v, want ErrWatcherClosed", err)
	}
}
