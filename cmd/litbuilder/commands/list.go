package commands

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"git.home.luguber.info/inful/litbuilder/internal/config"
	"git.home.luguber.info/inful/litbuilder/internal/document"
	"git.home.luguber.info/inful/litbuilder/internal/logfields"
)

// ListCmd implements the 'list' command.
type ListCmd struct {
	All bool `help:"Include documents without any code snippets"`
}

func (l *ListCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return RunList(cfg, l.All)
}

type listRow struct {
	doc    document.Document
	info   document.Info
	status string
}

func RunList(cfg *config.Config, all bool) error {
	scanner := document.NewScanner(cfg.Source.Extensions)
	docs, err := scanner.Scan(cfg.Source.Dir)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No source documents found.")
		return nil
	}

	var rows []listRow
	for _, doc := range docs {
		info, err := document.InspectFile(doc.Path)
		if err != nil {
			// Unreadable documents degrade to snippet count 0.
			slog.Warn("Could not inspect document",
				logfields.File(doc.RelativePath),
				logfields.Error(err))
		}
		if !all && info.CodeBlocks == 0 {
			continue
		}
		rows = append(rows, listRow{doc: doc, info: info, status: outputStatus(doc)})
	}

	if len(rows) == 0 {
		fmt.Println("No literate documents found (rerun with --all to include plain documents).")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DOCUMENT\tSECTION\tSNIPPETS\tTITLE\tOUTPUT")
	for _, row := range rows {
		title := row.info.Title
		if title == "" {
			title = document.SectionTitle(row.doc.Name)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			row.doc.RelativePath,
			document.SectionTitle(row.doc.Section),
			row.info.CodeBlocks,
			title,
			row.status)
	}
	return w.Flush()
}

// outputStatus classifies the compiled output of a document as missing,
// stale (older than the source), or fresh.
func outputStatus(doc document.Document) string {
	outInfo, err := os.Stat(doc.OutputPath())
	if err != nil {
		return "missing"
	}
	srcInfo, err := os.Stat(doc.Path)
	if err != nil {
		return "unknown"
	}
	if outInfo.ModTime().Before(srcInfo.ModTime()) {
		return "stale"
	}
	return "fresh"
}
