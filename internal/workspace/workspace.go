package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/litbuilder/internal/logfields"
)

// Manager handles staging directories for compiler artifacts.
type Manager struct {
	baseDir    string
	stageDir   string
	persistent bool // If true, use stageDir directly and never remove it
}

// NewManager creates a manager with an ephemeral timestamped staging directory.
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{
		baseDir:    baseDir,
		persistent: false,
	}
}

// NewPersistentManager creates a manager bound to a fixed artifact directory.
// The directory is kept across runs and never removed by Cleanup.
func NewPersistentManager(dir string) *Manager {
	return &Manager{
		baseDir:    filepath.Dir(dir),
		stageDir:   dir,
		persistent: true,
	}
}

// Create creates the staging directory.
// For ephemeral mode: creates a timestamped directory.
// For persistent mode: ensures the fixed directory exists.
func (m *Manager) Create() error {
	if m.persistent {
		if err := os.MkdirAll(m.stageDir, 0o750); err != nil {
			return fmt.Errorf("failed to create persistent staging directory: %w", err)
		}
		slog.Debug("Using persistent staging directory", logfields.Path(m.stageDir))
		return nil
	}

	timestamp := time.Now().Format("20060102-150405")
	stageDir := filepath.Join(m.baseDir, fmt.Sprintf("litbuilder-%s", timestamp))

	if err := os.MkdirAll(stageDir, 0o750); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}

	m.stageDir = stageDir
	slog.Debug("Created staging directory", logfields.Path(stageDir))
	return nil
}

// Path returns the staging directory path.
func (m *Manager) Path() string {
	return m.stageDir
}

// RunDir creates and returns a per-run artifact directory inside the staging
// directory, so concurrent or successive runs never see each other's files.
func (m *Manager) RunDir(runID string) (string, error) {
	if m.stageDir == "" {
		return "", fmt.Errorf("staging directory not created")
	}

	dir := filepath.Join(m.stageDir, runID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create run directory: %w", err)
	}

	return dir, nil
}

// Cleanup removes the staging directory.
// For persistent mode: does nothing.
// For ephemeral mode: removes the timestamped directory and everything in it.
func (m *Manager) Cleanup() error {
	if m.stageDir == "" {
		return nil
	}

	if m.persistent {
		slog.Debug("Skipping cleanup for persistent staging directory", logfields.Path(m.stageDir))
		return nil
	}

	if err := os.RemoveAll(m.stageDir); err != nil {
		return fmt.Errorf("failed to clean up staging directory: %w", err)
	}

	slog.Debug("Removed staging directory", logfields.Path(m.stageDir))
	m.stageDir = ""
	return nil
}
