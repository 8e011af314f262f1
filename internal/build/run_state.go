package build

import (
	"context"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/litbuilder/internal/document"
	"git.home.luguber.info/inful/litbuilder/internal/fingerprint"
	"git.home.luguber.info/inful/litbuilder/internal/gitinfo"
	"git.home.luguber.info/inful/litbuilder/internal/linkcheck"
)

// Stage is one step of a compile run operating on shared run state.
type Stage func(ctx context.Context, rs *RunState) error

// RunState carries mutable state across the stages of one compile run.
type RunState struct {
	RunID        string
	Source       string // cleaned source path as given to the runner
	Doc          document.Document
	Signature    *fingerprint.Signature
	ArtifactDir  string        // per-run staging directory handed to the engine
	ArtifactPath string        // artifact the engine produced
	OutputPath   string        // final compiled output beside the source
	Provenance   *gitinfo.Info // nil outside a git repository
	Skipped      bool
	SkipReason   string
	Findings     []linkcheck.Finding
	Report       *Report
	start        time.Time
}

func newRunState(runID, sourcePath string) *RunState {
	source := filepath.Clean(sourcePath)
	return &RunState{
		RunID:  runID,
		Source: source,
		Report: &Report{
			RunID:          runID,
			Document:       source,
			StageDurations: make(map[StageName]time.Duration),
		},
		start: time.Now(),
	}
}

// Report summarizes one compile run.
type Report struct {
	RunID          string
	Document       string
	Output         string
	Outcome        string // succeeded | failed | skipped
	SkipReason     string
	Error          string
	Findings       int // broken local links found in the output
	StageDurations map[StageName]time.Duration
	Duration       time.Duration
}
