package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEphemeralLifecycle(t *testing.T) {
	base := t.TempDir()
	m := NewManager(base)

	if err := m.Create(); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	stage := m.Path()
	if stage == "" {
		t.Fatal("expected staging path after Create")
	}
	if filepath.Dir(stage) != base {
		t.Fatalf("staging dir %s not under base %s", stage, base)
	}

	runDir, err := m.RunDir("run-123")
	if err != nil {
		t.Fatalf("RunDir failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(runDir, "artifact.md"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write into run dir: %v", err)
	}

	if err := m.Cleanup(); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if _, err := os.Stat(stage); !os.IsNotExist(err) {
		t.Fatalf("expected staging dir removed, stat err: %v", err)
	}
	if m.Path() != "" {
		t.Fatal("expected empty path after cleanup")
	}
}

func TestPersistentKeptOnCleanup(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "artifacts")
	m := NewPersistentManager(dir)

	if err := m.Create(); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if m.Path() != dir {
		t.Fatalf("expected fixed path %s, got %s", dir, m.Path())
	}

	if err := m.Cleanup(); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("persistent dir must survive cleanup: %v", err)
	}
}

func TestRunDirRequiresCreate(t *testing.T) {
	m := NewManager(t.TempDir())
	if _, err := m.RunDir("run-1"); err == nil {
		t.Fatal("expected error before Create")
	}
}
