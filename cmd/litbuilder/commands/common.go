package commands

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/litbuilder/internal/build"
	"git.home.luguber.info/inful/litbuilder/internal/compiler"
	"git.home.luguber.info/inful/litbuilder/internal/config"
	"git.home.luguber.info/inful/litbuilder/internal/history"
	"git.home.luguber.info/inful/litbuilder/internal/logfields"
	"git.home.luguber.info/inful/litbuilder/internal/metrics"
	"git.home.luguber.info/inful/litbuilder/internal/notify"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"litbuilder.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Compile CompileCmd `cmd:"" help:"Compile a literate document and place the output beside it"`
	List    ListCmd    `cmd:"" help:"List discovered source documents and their output status"`
	Watch   WatchCmd   `cmd:"" help:"Watch the source tree and recompile documents on change"`
	History HistoryCmd `cmd:"" help:"Show recent compile runs from the history store"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(c.Verbose),
	}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel resolves the log level from the verbose flag and the
// LITBUILDER_LOG_LEVEL environment variable (debug, info, warn, error).
// The environment variable wins so deployments can tune logging without
// editing unit files.
func parseLogLevel(verbose bool) slog.Level {
	switch strings.ToLower(os.Getenv("LITBUILDER_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// newRunner assembles a build runner with the history store, notifier, and
// metrics recorder the configuration asks for. The returned cleanup releases
// whatever was opened, in reverse order.
func newRunner(ctx context.Context, cfg *config.Config, force bool, rec metrics.Recorder) (*build.Runner, func(), error) {
	comp := compiler.NewExecCompiler(cfg.Compiler.Command, cfg.Compiler.Args, cfg.Compiler.ArtifactExt)
	runner := build.NewRunner(cfg, comp).WithForce(force)

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.History.Path != "" {
		store, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = store.Close() })

		// Retention is applied once per invocation, at open.
		if cfg.History.Keep > 0 {
			if removed, err := store.Prune(ctx, cfg.History.Keep); err != nil {
				slog.Warn("Failed to prune history", logfields.Error(err))
			} else if removed > 0 {
				slog.Debug("Pruned old history runs", slog.Int64("removed", removed))
			}
		}
		runner = runner.WithStore(store)
	}

	notifier, err := notify.FromConfig(&cfg.Notify)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	closers = append(closers, func() { _ = notifier.Close() })
	runner = runner.WithNotifier(notifier)

	if rec != nil {
		runner = runner.WithRecorder(rec)
	}

	return runner, cleanup, nil
}
