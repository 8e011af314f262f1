package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/litbuilder/internal/config"
	"git.home.luguber.info/inful/litbuilder/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Document string `arg:"" optional:"" help:"Only show runs for this source document"`
	Limit    int    `help:"Maximum number of runs to show" default:"20"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return RunHistory(cfg, h.Document, h.Limit)
}

func RunHistory(cfg *config.Config, doc string, limit int) error {
	if cfg.History.Path == "" {
		return fmt.Errorf("history is disabled: set history.path in the configuration")
	}

	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if doc != "" {
		doc = filepath.Clean(doc)
	}

	runs, err := store.Recent(context.Background(), doc, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No compile runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tDOCUMENT\tSTATUS\tDURATION\tCOMMIT\tOUTPUT")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			run.StartedAt.Format(time.RFC3339),
			run.Document,
			run.Status,
			run.Duration.Truncate(time.Millisecond),
			formatCommit(run),
			run.Output)
	}
	return w.Flush()
}

// formatCommit renders the provenance column: a short hash, an asterisk for
// a dirty worktree, or a dash when the source was outside any repository.
func formatCommit(run history.Run) string {
	if run.Commit == "" {
		return "-"
	}
	commit := run.Commit
	if len(commit) > 8 {
		commit = commit[:8]
	}
	if run.Dirty {
		commit += "*"
	}
	return commit
}
