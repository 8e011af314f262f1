// Package history persists compile-run records so incremental builds can
// find the last successful signature for a document, and so users can ask
// what happened to their outputs.
package history

import (
	"context"
	"time"
)

// Run statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// Run is one recorded compile run for a document.
type Run struct {
	ID        int64
	RunID     string
	Document  string // source path as given to the build
	Output    string // compiled output path, empty when the run never placed one
	Signature string // input signature hash
	Status    string
	Error     string // failure message, empty otherwise
	Commit    string // git provenance, empty outside a repository
	Dirty     bool
	Duration  time.Duration
	StartedAt time.Time
}

// Store defines the interface for persisting and retrieving compile runs.
type Store interface {
	// Append records a finished run.
	Append(ctx context.Context, run Run) error

	// LastSuccess returns the most recent succeeded run for a document,
	// or nil when the document has never compiled successfully.
	LastSuccess(ctx context.Context, document string) (*Run, error)

	// Recent returns the newest runs, most recent first. An empty document
	// matches all documents.
	Recent(ctx context.Context, document string, limit int) ([]Run, error)

	// Prune drops all but the newest keep runs and reports how many were
	// removed.
	Prune(ctx context.Context, keep int) (int64, error)

	// Close closes the store and releases resources.
	Close() error
}
