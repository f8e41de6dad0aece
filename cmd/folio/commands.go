package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/muesli/termenv"

	"github.com/dshills/folio/internal/config"
	"github.com/dshills/folio/internal/editor"
	"github.com/dshills/folio/internal/history"
	"github.com/dshills/folio/internal/model"
	"github.com/dshills/folio/internal/plugin"
	"github.com/dshills/folio/internal/plugin/lua"
	"github.com/dshills/folio/internal/renderer/ansi"
	"github.com/dshills/folio/internal/renderer/backend"
)

var errUsage = errors.New("invalid arguments")

func newFlagSet(ev *env, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(ev.stderr)
	fs.Usage = func() {
		fmt.Fprintf(ev.stderr, "Usage: folio %s\n", usages[name])
		fs.PrintDefaults()
	}
	return fs
}

func runPrint(ev *env, args []string) error {
	fs := newFlagSet(ev, "print")
	width := fs.Int("width", 0, "Wrap blocks at `n` columns (0 disables wrapping)")
	color := fs.String("color", "auto", "Color output: auto, always or never")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}

	e := ev.newEditor()
	if err := loadDocument(e, fs.Arg(0)); err != nil {
		return err
	}

	opts := []ansi.Option{
		ansi.WithTheme(e.Theme()),
		ansi.WithWidth(*width),
		ansi.WithDecorators(e.Decorators()),
	}
	switch *color {
	case "auto":
	case "always":
		opts = append(opts, ansi.WithColorProfile(termenv.ANSI256))
	case "never":
		opts = append(opts, ansi.WithColorProfile(termenv.Ascii))
	default:
		return fmt.Errorf("invalid color mode %q", *color)
	}
	return ansi.New(ev.stdout, opts...).Fprint(ev.stdout, e.EditorState())
}

func runText(ev *env, args []string) error {
	fs := newFlagSet(ev, "text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}

	e := ev.newEditor()
	if err := loadDocument(e, fs.Arg(0)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(ev.stdout, e.EditorState().TextContent())
	return err
}

func runScript(ev *env, args []string) error {
	fs := newFlagSet(ev, "run")
	out := fs.String("o", "", "Write the resulting document to `file` instead of stdout")
	timeout := fs.Duration("timeout", lua.DefaultExecutionTimeout, "Script execution timeout")
	noPlugins := fs.Bool("no-plugins", false, "Do not load configured plugins")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		fs.Usage()
		return errUsage
	}

	e := ev.newEditor()
	defer editor.RegisterRichText(e)()
	defer history.Register(e, history.FromConfig(ev.cfg.History))()

	if fs.NArg() == 2 {
		if err := loadDocument(e, fs.Arg(1)); err != nil {
			return err
		}
	}
	if e.EditorState().Root().IsEmpty() {
		editor.DispatchCommand(e, editor.ClearEditor, struct{}{})
	}
	if e.EditorState().Selection() == nil {
		if _, err := e.Update(func(tx *model.Tx) error {
			tx.Root().SelectEnd(tx)
			return nil
		}); err != nil {
			return err
		}
	}

	if !*noPlugins {
		plugins := plugin.NewManager(e, plugin.WithConfig(ev.cfg.Plugins))
		if err := plugins.LoadAll(); err != nil {
			ev.log.Warn("some plugins failed to load", "error", err)
		}
		defer plugins.UnloadAll()
	}

	host := lua.NewHost(e, lua.WithExecutionTimeout(*timeout))
	defer host.Close()
	if err := host.RunFile(fs.Arg(0)); err != nil {
		return fmt.Errorf("%s: %w", fs.Arg(0), err)
	}
	ev.log.Debug("script finished", "script", fs.Arg(0), "commands", host.Commands())

	data, err := model.ExportJSON(e.EditorState())
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if *out == "" {
		_, err = ev.stdout.Write(data)
		return err
	}
	return os.WriteFile(*out, data, 0o644)
}

func runPlugins(ev *env, args []string) error {
	fs := newFlagSet(ev, "plugins")
	if err := fs.Parse(args); err != nil {
		return err
	}

	m := plugin.NewManager(ev.newEditor(), plugin.WithConfig(ev.cfg.Plugins))
	infos, err := m.Discover()
	if err != nil {
		return err
	}
	for _, info := range infos {
		status := "enabled"
		switch {
		case info.Error != nil:
			status = "error: " + info.Error.Error()
		case m.IsDisabled(info.Name):
			status = "disabled"
		}
		version := "-"
		if info.Manifest != nil {
			version = info.Manifest.Version
		}
		fmt.Fprintf(ev.stdout, "%s\t%s\t%s\t%s\n", info.Name, version, status, info.Path)
	}
	return nil
}

func runView(ev *env, args []string) error {
	fs := newFlagSet(ev, "view")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}

	screen, err := backend.NewTerminal(
		backend.WithTheme(editor.Theme(ev.cfg.Theme.Colors)),
		backend.WithLogger(ev.log),
	)
	if err != nil {
		return fmt.Errorf("failed to create terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	defer screen.Shutdown()

	e := ev.newEditor(editor.WithTarget(screen), editor.WithReadOnly(true))
	defer screen.Attach(e)()
	if err := loadDocument(e, fs.Arg(0)); err != nil {
		return err
	}

	// Handle signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		screen.Interrupt()
	}()

	if ev.configPath != "" {
		w, err := config.NewWatcher(ev.configPath, config.WithErrorHandler(func(err error) {
			ev.log.Warn("config reload failed", "error", err)
		}))
		if err != nil {
			return err
		}
		defer w.Close()
		w.OnChange(func(cfg *config.Config) {
			screen.SetTheme(editor.Theme(cfg.Theme.Colors))
			screen.Interrupt()
		})
		if err := w.Start(ctx); err != nil {
			return err
		}
	}

	return viewLoop(ctx, screen)
}

func viewLoop(ctx context.Context, screen *backend.Screen) error {
	for {
		if screen.IsDirty() {
			if err := screen.Draw(); err != nil && !errors.Is(err, backend.ErrNoRoot) {
				return err
			}
		}
		ev := screen.PollEvent()
		if ctx.Err() != nil || ev.IsQuit() {
			return nil
		}
		if ev.Type != backend.EventKey {
			continue
		}
		_, height := screen.Size()
		switch {
		case ev.Key == backend.KeyUp, ev.Key == backend.KeyRune && ev.Rune == 'k':
			screen.Scroll(-1)
		case ev.Key == backend.KeyDown, ev.Key == backend.KeyRune && ev.Rune == 'j':
			screen.Scroll(1)
		case ev.Key == backend.KeyPageUp:
			screen.Scroll(-height)
		case ev.Key == backend.KeyPageDown, ev.Key == backend.KeyRune && ev.Rune == ' ':
			screen.Scroll(height)
		case ev.Key == backend.KeyHome, ev.Key == backend.KeyRune && ev.Rune == 'g':
			screen.ScrollTo(0)
		case ev.Key == backend.KeyEnd, ev.Key == backend.KeyRune && ev.Rune == 'G':
			screen.ScrollTo(1 << 30)
		}
	}
}
