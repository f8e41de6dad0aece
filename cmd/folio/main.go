// Package main is the entry point for the folio document tool.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dshills/folio/internal/config"
	"github.com/dshills/folio/internal/editor"
	"github.com/dshills/folio/internal/logging"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// env carries what every subcommand needs.
type env struct {
	cfg        *config.Config
	configPath string
	log        *logging.Logger
	stdout     io.Writer
	stderr     io.Writer
}

var subcommands = map[string]func(ev *env, args []string) error{
	"print":   runPrint,
	"text":    runText,
	"view":    runView,
	"run":     runScript,
	"plugins": runPlugins,
}

var usages = map[string]string{
	"print":   "print [-width n] [-color auto|always|never] doc.json",
	"text":    "text doc.json",
	"view":    "view doc.json",
	"run":     "run [-o out.json] [-timeout d] [-no-plugins] script.lua [doc.json]",
	"plugins": "plugins",
}

var subcommandOrder = []string{"print", "text", "view", "run", "plugins"}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("folio", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath  string
		logLevel    string
		showVersion bool
	)
	fs.StringVar(&configPath, "config", "", "Path to configuration file (.toml, .yaml)")
	fs.StringVar(&configPath, "c", "", "Path to configuration file (shorthand)")
	fs.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.BoolVar(&showVersion, "version", false, "Show version information")
	fs.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "folio - rich text document tool\n\n")
		fmt.Fprintf(stderr, "Usage: folio [options] <command> [args]\n\n")
		fmt.Fprintf(stderr, "Commands:\n")
		for _, name := range subcommandOrder {
			fmt.Fprintf(stderr, "  folio %s\n", usages[name])
		}
		fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	if showVersion {
		fmt.Fprintf(stdout, "folio %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return 0
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	name := fs.Arg(0)
	sub, ok := subcommands[name]
	if !ok {
		fmt.Fprintf(stderr, "Error: unknown command %q\n", name)
		fs.Usage()
		return 2
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if logLevel != "" {
		switch logLevel {
		case "debug", "info", "warn", "error":
			cfg.Log.Level = logLevel
		default:
			fmt.Fprintf(stderr, "Error: invalid log level %q\n", logLevel)
			return 2
		}
	}

	lc := cfg.LoggerConfig()
	lc.Output = stderr
	log := logging.NewLogger(lc)
	defer func() { _ = log.Sync() }()

	ev := &env{cfg: cfg, configPath: configPath, log: log, stdout: stdout, stderr: stderr}
	if err := sub(ev, fs.Args()[1:]); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadOrDefault(path)
}

// newEditor creates an editor configured from ev.
func (ev *env) newEditor(opts ...editor.Option) *editor.Editor {
	base := []editor.Option{
		editor.WithConfig(ev.cfg),
		editor.WithLogger(ev.log),
	}
	return editor.New(append(base, opts...)...)
}

// loadDocument reads a serialized document into e. A document whose root
// has no children leaves the editor as it is.
func loadDocument(e *editor.Editor, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	s, err := e.ParseEditorState(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if s.Root().IsEmpty() {
		return nil
	}
	return e.SetEditorState(s)
}
