package builder

import (
	"errors"
	"path/filepath"

	"github.com/go-git/go-git/v6"
)

// findWorktreeRoot returns the root of the git worktree enclosing dir, or ""
// when dir is not inside one.
func findWorktreeRoot(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	w, err := repo.Worktree()
	if errors.Is(err, git.ErrIsBareRepository) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return filepath.Abs(w.Filesystem.Root())
}

// InitRepository creates a git repository in dir unless dir already belongs
// to a worktree. It reports whether a repository was created.
func InitRepository(dir string) (bool, error) {
	root, err := findWorktreeRoot(dir)
	if err != nil {
		return false, err
	}
	if root != "" {
		return false, nil
	}
	if _, err := git.PlainInit(dir, false); err != nil {
		return false, err
	}
	return true, nil
}
