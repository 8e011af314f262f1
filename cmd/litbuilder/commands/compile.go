package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/litbuilder/internal/config"
	"git.home.luguber.info/inful/litbuilder/internal/history"
)

// CompileCmd implements the 'compile' command.
type CompileCmd struct {
	File  string `arg:"" help:"Literate source document to compile" type:"existingfile"`
	Force bool   `help:"Recompile even when the source is unchanged"`
}

func (c *CompileCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return RunCompile(cfg, c.File, c.Force)
}

func RunCompile(cfg *config.Config, file string, force bool) error {
	// Friendly user-facing messages on stdout; diagnostics go to the log.
	fmt.Printf("Compiling %s\n", file)

	ctx := context.Background()
	runner, cleanup, err := newRunner(ctx, cfg, force, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := runner.CompileDocument(ctx, file)
	if err != nil {
		fmt.Println("Compile failed")
		return err
	}

	if report.Outcome == history.StatusSkipped {
		fmt.Printf("Up to date: %s\n", report.Output)
		return nil
	}

	fmt.Printf("Compiled to %s\n", report.Output)
	if report.Findings > 0 {
		fmt.Printf("Warning: %d broken local link(s) in the output\n", report.Findings)
	}
	return nil
}
