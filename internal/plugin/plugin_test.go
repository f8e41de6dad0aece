package plugin

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/folio/internal/config"
	"github.com/dshills/folio/internal/editor"
	"github.com/dshills/folio/internal/model"
)

func writePlugin(t *testing.T, dir, manifest, code string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if manifest != "" {
		if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte(manifest), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "init.lua"), []byte(code), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestManifestValidate(t *testing.T) {
	tests := []struct {
		name    string
		m       Manifest
		wantErr error
	}{
		{"valid", Manifest{Name: "smart-quotes", Version: "1.0.0", Main: "init.lua"}, nil},
		{"prerelease", Manifest{Name: "a", Version: "1.0.0-beta.1", Main: "x.lua"}, nil},
		{"missing name", Manifest{Version: "1.0.0", Main: "init.lua"}, ErrMissingName},
		{"uppercase name", Manifest{Name: "Quotes", Version: "1.0.0", Main: "init.lua"}, ErrInvalidName},
		{"trailing hyphen", Manifest{Name: "quotes-", Version: "1.0.0", Main: "init.lua"}, ErrInvalidName},
		{"bad version", Manifest{Name: "q", Version: "1.0", Main: "init.lua"}, ErrInvalidVersion},
		{"not lua", Manifest{Name: "q", Version: "1.0.0", Main: "init.js"}, ErrInvalidMain},
		{"command without id", Manifest{Name: "q", Version: "1.0.0", Main: "init.lua",
			Commands: []CommandContribution{{Title: "x"}}}, ErrMissingCommandID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, dir, `{"name": "shout", "displayName": "Shout"}`, "")

	m, err := LoadManifest(filepath.Join(dir, ManifestFile))
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	if m.Main != "init.lua" || m.Version != "0.0.0" {
		t.Errorf("defaults = main %q version %q", m.Main, m.Version)
	}
	if m.MainPath() != filepath.Join(dir, "init.lua") {
		t.Errorf("MainPath() = %q", m.MainPath())
	}
	if m.String() != "Shout v0.0.0" {
		t.Errorf("String() = %q", m.String())
	}
}

func TestLoaderDiscover(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	writePlugin(t, filepath.Join(first, "quotes-dir"), `{"name": "quotes", "version": "1.2.0"}`, "")
	writePlugin(t, filepath.Join(first, "bare"), "", "")
	writePlugin(t, filepath.Join(first, "broken"), `{"name": "Broken!"}`, "")
	if err := os.WriteFile(filepath.Join(first, "single.lua"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(first, "notes.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	writePlugin(t, filepath.Join(second, "quotes"), `{"name": "quotes", "version": "9.9.9"}`, "")

	l := NewLoader(first, second, filepath.Join(first, "missing"))
	infos, err := l.Discover()
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	var names []string
	for _, info := range infos {
		names = append(names, info.Name)
	}
	if diff := cmp.Diff([]string{"bare", "broken", "quotes", "single"}, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	quotes, _ := l.Get("quotes")
	if quotes.Manifest.Version != "1.2.0" {
		t.Errorf("first path should win, got version %s", quotes.Manifest.Version)
	}
	single, _ := l.Get("single")
	if single.Manifest.Main != "single.lua" {
		t.Errorf("single-file main = %q", single.Manifest.Main)
	}
	errored := l.Errors()
	if len(errored) != 1 || errored[0].Name != "broken" || errored[0].State != StateError {
		t.Errorf("Errors() = %+v", errored)
	}
}

func TestLoaderFindPlugin(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, filepath.Join(dir, "shout"), "", "")

	l := NewLoader(dir)
	info, err := l.FindPlugin("shout")
	if err != nil {
		t.Fatalf("FindPlugin() error = %v", err)
	}
	if info.Manifest.MainPath() != filepath.Join(dir, "shout", "init.lua") {
		t.Errorf("MainPath() = %q", info.Manifest.MainPath())
	}
	if _, err := l.FindPlugin("nope"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("FindPlugin(nope) = %v, want ErrPluginNotFound", err)
	}
}

// newEditor returns a rich-text editor with "hi" and the caret at its end.
func newEditor(t *testing.T) *editor.Editor {
	t.Helper()
	e := editor.New()
	editor.RegisterRichText(e)
	_, err := e.Update(func(tx *model.Tx) error {
		p := model.NewParagraph(tx)
		n := model.NewText(tx, "hi")
		p.Append(tx, n)
		tx.Root().Append(tx, p)
		n.Select(tx, 2, 2)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return e
}

const shoutPlugin = `
folio.register("SHOUT", function(text)
	folio.insert_text(string.upper(text))
	return true
end)
`

func TestManagerLoadRegistersCommands(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, filepath.Join(dir, "shout"),
		`{"name": "shout", "version": "1.0.0", "commands": [{"id": "SHOUT"}]}`, shoutPlugin)

	e := newEditor(t)
	m := NewManager(e, WithPaths(dir))
	p, err := m.Load("shout")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff([]string{"SHOUT"}, p.Host.Commands()); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
	if !e.DispatchName("SHOUT", "!x") {
		t.Fatal("SHOUT should be handled")
	}
	if got := e.EditorState().TextContent(); got != "hi!X" {
		t.Errorf("text = %q, want %q", got, "hi!X")
	}

	if _, err := m.Load("shout"); !errors.Is(err, ErrAlreadyLoaded) {
		t.Errorf("second Load() = %v, want ErrAlreadyLoaded", err)
	}

	if err := m.Unload("shout"); err != nil {
		t.Fatalf("Unload() error = %v", err)
	}
	if e.DispatchName("SHOUT", "y") {
		t.Error("SHOUT should be unhandled after Unload")
	}
	if err := m.Unload("shout"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("second Unload() = %v, want ErrPluginNotFound", err)
	}
}

func TestManagerLoadAllOrdersDependencies(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, filepath.Join(dir, "alpha"), `{"name": "alpha", "dependencies": ["zeta"]}`, "")
	writePlugin(t, filepath.Join(dir, "zeta"), `{"name": "zeta", "dependencies": ["mid"]}`, "")
	writePlugin(t, filepath.Join(dir, "mid"), "", "")

	m := NewManager(newEditor(t), WithPaths(dir))
	var events []string
	m.OnEvent(func(ev ManagerEvent) {
		events = append(events, ev.Type.String()+" "+ev.Plugin)
	})

	if err := m.LoadAll(); err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if diff := cmp.Diff([]string{"mid", "zeta", "alpha"}, m.Loaded()); diff != "" {
		t.Errorf("load order mismatch (-want +got):\n%s", diff)
	}

	if err := m.UnloadAll(); err != nil {
		t.Fatalf("UnloadAll() error = %v", err)
	}
	want := []string{
		"loaded mid", "loaded zeta", "loaded alpha",
		"unloaded alpha", "unloaded zeta", "unloaded mid",
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestManagerLoadErrors(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, filepath.Join(dir, "ping"), `{"name": "ping", "dependencies": ["pong"]}`, "")
	writePlugin(t, filepath.Join(dir, "pong"), `{"name": "pong", "dependencies": ["ping"]}`, "")
	writePlugin(t, filepath.Join(dir, "orphan"), `{"name": "orphan", "dependencies": ["ghost"]}`, "")
	writePlugin(t, filepath.Join(dir, "crash"), "", `error("boom")`)
	writePlugin(t, filepath.Join(dir, "spell"), "", shoutPlugin)

	tests := []struct {
		name    string
		wantErr error
	}{
		{"ping", ErrCyclicDependency},
		{"orphan", ErrDependencyNotFound},
		{"spell", ErrPluginDisabled},
		{"missing", ErrPluginNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(newEditor(t), WithPaths(dir), WithDisabled("spell"))
			if _, err := m.Load(tt.name); !errors.Is(err, tt.wantErr) {
				t.Errorf("Load(%s) = %v, want %v", tt.name, err, tt.wantErr)
			}
			if len(m.Loaded()) != 0 {
				t.Errorf("Loaded() = %v after failure", m.Loaded())
			}
		})
	}

	t.Run("script error", func(t *testing.T) {
		m := NewManager(newEditor(t), WithPaths(dir))
		var failed []string
		m.OnEvent(func(ev ManagerEvent) {
			if ev.Type == EventPluginError {
				failed = append(failed, ev.Plugin)
			}
		})
		if _, err := m.Load("crash"); err == nil {
			t.Fatal("Load(crash) should fail")
		}
		if diff := cmp.Diff([]string{"crash"}, failed); diff != "" {
			t.Errorf("error events mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestManagerLoadAllSkipsDisabledAndJoinsErrors(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, filepath.Join(dir, "shout"), "", shoutPlugin)
	writePlugin(t, filepath.Join(dir, "spell"), "", `error("never runs")`)
	writePlugin(t, filepath.Join(dir, "crash"), "", `error("boom")`)

	e := newEditor(t)
	cfg := config.PluginConfig{Paths: []string{dir}, Disabled: []string{"spell"}, TimeoutMS: 500}
	m := NewManager(e, WithConfig(cfg))
	if !m.IsDisabled("spell") {
		t.Error("spell should be disabled")
	}

	err := m.LoadAll()
	if err == nil {
		t.Fatal("LoadAll() should report the crashing plugin")
	}
	if diff := cmp.Diff([]string{"shout"}, m.Loaded()); diff != "" {
		t.Errorf("loaded mismatch (-want +got):\n%s", diff)
	}
	if _, ok := m.Get("shout"); !ok {
		t.Error("Get(shout) should find the loaded plugin")
	}
}
