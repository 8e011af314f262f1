package integration

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/litbuilder/internal/compiler"
	"git.home.luguber.info/inful/litbuilder/internal/config"
	"git.home.luguber.info/inful/litbuilder/internal/document"
)

// treeSnapshot captures every compiled output under a source tree for golden
// comparison. Keys are slash-separated paths relative to the tree root.
type treeSnapshot struct {
	Outputs map[string]string `json:"outputs"` // path -> content hash
}

// writeTree materializes a map of relative paths to file contents.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// initTestRepo turns dir into a git repository with one commit so compile
// runs pick up provenance.
func initTestRepo(t *testing.T, dir string) {
	t.Helper()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err, "failed to initialize git repo")

	w, err := repo.Worktree()
	require.NoError(t, err, "failed to get worktree")

	err = w.AddGlob(".")
	require.NoError(t, err, "failed to add files to git")

	_, err = w.Commit("Initial test commit", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err, "failed to create initial commit")
}

// copyEngine builds an exec compiler that copies the source verbatim, which
// keeps golden hashes derivable from the fixtures alone.
func copyEngine() compiler.Compiler {
	return compiler.NewExecCompiler("cp", []string{"{source}", "{artifact_dir}/{base}.md"}, ".md")
}

// treeConfig returns a configuration rooted at dir.
func treeConfig(dir string) *config.Config {
	return &config.Config{
		Source: config.SourceConfig{
			Dir:        dir,
			Extensions: []string{".md"},
		},
		Compiler: config.CompilerConfig{
			Command:     "cp",
			Args:        []string{"{source}", "{artifact_dir}/{base}.md"},
			ArtifactExt: ".md",
		},
		Build: config.BuildConfig{
			VerifyLinks: true,
		},
	}
}

// snapshotTree collects content hashes of all compiled outputs under root.
func snapshotTree(t *testing.T, root string) *treeSnapshot {
	t.Helper()

	snap := &treeSnapshot{Outputs: make(map[string]string)}
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !document.IsCompiledOutput(info.Name()) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		// #nosec G304 -- test utility reading from test output directory
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		sum := sha256.Sum256(data)
		snap.Outputs[filepath.ToSlash(rel)] = fmt.Sprintf("sha256:%x", sum[:8])
		return nil
	})
	require.NoError(t, err, "failed to walk source tree")
	return snap
}

// verifyTree compares the compiled outputs under root against a golden file,
// or rewrites the golden file when update is set.
func verifyTree(t *testing.T, root, goldenPath string, update bool) {
	t.Helper()

	actual := snapshotTree(t, root)
	actualJSON, err := json.MarshalIndent(actual, "", "  ")
	require.NoError(t, err, "failed to marshal tree snapshot")

	if update {
		require.NoError(t, os.MkdirAll(filepath.Dir(goldenPath), 0o750))
		require.NoError(t, os.WriteFile(goldenPath, append(actualJSON, '\n'), 0o600))
		t.Logf("Updated golden file: %s", goldenPath)
		return
	}

	// #nosec G304 -- test utility reading golden file from testdata
	goldenData, err := os.ReadFile(goldenPath)
	require.NoError(t, err, "failed to read golden file: %s", goldenPath)
	require.JSONEq(t, string(goldenData), string(actualJSON), "compiled output mismatch")
}
