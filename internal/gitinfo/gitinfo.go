// Package gitinfo reads provenance for compiled documents from the
// enclosing git repository. Lookups are read-only and best-effort; sources
// outside any repository are a normal case, not a failure of the build.
package gitinfo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
)

// ErrNotARepository indicates the source lives outside any git worktree.
var ErrNotARepository = errors.New("not inside a git repository")

// Info captures the repository state a document was compiled from.
type Info struct {
	Commit      string
	ShortCommit string
	Branch      string // empty for detached HEAD
	Dirty       bool
}

// Lookup finds the repository enclosing path and reads its HEAD state.
// path may name a file or a directory.
func Lookup(path string) (*Info, error) {
	dir := path
	if stat, err := os.Stat(path); err != nil || !stat.IsDir() {
		dir = filepath.Dir(path)
	}

	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotARepository, dir)
		}
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	ref, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	hash := ref.Hash().String()
	info := &Info{
		Commit:      hash,
		ShortCommit: hash[:8],
	}
	if ref.Name().IsBranch() {
		info.Branch = ref.Name().Short()
	}

	worktree, err := repo.Worktree()
	if err != nil {
		// Bare repository: no worktree to inspect, HEAD state is all there is.
		return info, nil
	}
	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to read worktree status: %w", err)
	}
	info.Dirty = !status.IsClean()

	return info, nil
}
