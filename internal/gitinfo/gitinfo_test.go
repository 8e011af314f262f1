package gitinfo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func initTestRepo(t *testing.T) (string, *git.Repository) {
	t.Helper()
	repoPath := filepath.Join(t.TempDir(), "repo")

	repo, err := git.PlainInit(repoPath, false)
	if err != nil {
		t.Fatalf("Failed to init repo: %v", err)
	}

	docPath := filepath.Join(repoPath, "variance.md")
	if err := os.WriteFile(docPath, []byte("# Variance\n"), 0o600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	w, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Failed to get worktree: %v", err)
	}
	if _, err := w.Add("."); err != nil {
		t.Fatalf("Failed to add files: %v", err)
	}
	_, err = w.Commit("Initial commit", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}

	return repoPath, repo
}

func TestLookup_CleanRepository(t *testing.T) {
	repoPath, _ := initTestRepo(t)

	info, err := Lookup(filepath.Join(repoPath, "variance.md"))
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}

	if len(info.Commit) != 40 {
		t.Fatalf("expected full commit hash, got %q", info.Commit)
	}
	if info.ShortCommit != info.Commit[:8] {
		t.Fatalf("short commit mismatch: %q", info.ShortCommit)
	}
	if info.Branch == "" {
		t.Fatal("expected a branch name for a fresh repository")
	}
	if info.Dirty {
		t.Fatal("fresh commit must not be dirty")
	}
}

func TestLookup_DirtyWorktree(t *testing.T) {
	repoPath, _ := initTestRepo(t)

	if err := os.WriteFile(filepath.Join(repoPath, "variance.md"), []byte("# Changed\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	info, err := Lookup(repoPath)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !info.Dirty {
		t.Fatal("expected dirty worktree after modification")
	}
}

func TestLookup_OutsideRepository(t *testing.T) {
	_, err := Lookup(t.TempDir())
	if !errors.Is(err, ErrNotARepository) {
		t.Fatalf("expected ErrNotARepository, got %v", err)
	}
}
