// Package main is the entry point for calnotes, which creates periodic
// notes in a vault from the configured category templates.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/calnotes/internal/app"
	"github.com/dshills/calnotes/internal/integration"
	"github.com/dshills/calnotes/internal/notes"
	"github.com/dshills/calnotes/internal/settings"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type cliOptions struct {
	app.Options
	noteType    string
	notePath    string
	plugin      string
	setTemplate string
	serve       bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	t, err := notes.ParseType(opts.noteType)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	application, err := app.New(opts.Options)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.plugin != "" {
		if err := application.SetPlugin(opts.plugin); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}
	if opts.setTemplate != "" {
		if err := application.SetTemplate(t, opts.setTemplate); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	if opts.serve {
		if err := application.Serve(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	path, err := application.CreateNote(ctx, t, opts.notePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Println(path)
	return 0
}

func parseFlags() cliOptions {
	var opts cliOptions
	var showVersion bool

	flag.StringVar(&opts.VaultPath, "vault", app.DefaultVault(), "Vault directory")
	flag.StringVar(&opts.ConfigPath, "config", settings.DefaultPath, "Settings file, relative to the vault")
	flag.StringVar(&opts.IntegrationsPath, "integrations", integration.DefaultConfigPath, "Integrations file, relative to the vault")
	flag.StringVar(&opts.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.Watch, "watch", false, "Reload settings when the settings file changes")
	flag.DurationVar(&opts.MountDelay, "mount-delay", 0, "Delay before a new note's editor becomes ready")
	flag.StringVar(&opts.noteType, "type", "daily", "Note type (daily, weekly, monthly, quarterly, yearly)")
	flag.StringVar(&opts.notePath, "note", "", "Note path, relative to the vault (default: dated name for the type)")
	flag.StringVar(&opts.plugin, "plugin", "", "Select the template plugin (none, builtin, core, script)")
	flag.StringVar(&opts.setTemplate, "set-template", "", "Set the template filename for -type and exit")
	flag.BoolVar(&opts.serve, "serve", false, "Read note requests (\"<type> [path]\") from stdin")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "calnotes - periodic notes from templates\n\n")
		fmt.Fprintf(os.Stderr, "Usage: calnotes [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  calnotes -type weekly                    Create this week's note\n")
		fmt.Fprintf(os.Stderr, "  calnotes -plugin core -type daily        Switch to core templates, create today's note\n")
		fmt.Fprintf(os.Stderr, "  calnotes -type monthly -set-template M   Use Templates/M.md for monthly notes\n")
		fmt.Fprintf(os.Stderr, "  calnotes -serve -watch < requests.txt    Create notes from a request stream\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("calnotes %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	switch opts.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
		os.Exit(1)
	}

	if opts.MountDelay < 0 {
		opts.MountDelay = 0
	}
	return opts
}
