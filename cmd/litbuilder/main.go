package main

import (
	"log/slog"
	"os"

	"git.home.luguber.info/inful/litbuilder/cmd/litbuilder/commands"
	"git.home.luguber.info/inful/litbuilder/internal/logfields"
	"git.home.luguber.info/inful/litbuilder/internal/version"
	"github.com/alecthomas/kong"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("litbuilder"),
		kong.Description("Compiles literate markdown documents through an external compiler and places each output beside its source."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)

	if err := ctx.Run(&commands.Global{Logger: slog.Default()}, &cli); err != nil {
		slog.Error("Command failed", logfields.Error(err))
		os.Exit(1)
	}
}
