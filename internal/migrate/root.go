package migrate

import (
	"errors"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
)

// ProjectRoot returns the top of the git worktree containing dir, or dir
// itself when it is not inside a repository.
func ProjectRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return abs, nil
		}
		return "", err
	}
	wt, err := repo.Worktree()
	if err != nil {
		// Bare repositories have no worktree.
		if errors.Is(err, git.ErrIsBareRepository) {
			return abs, nil
		}
		return "", err
	}
	return wt.Filesystem.Root(), nil
}

// ResolveRoot returns explicit when set, otherwise the src directory of the
// project enclosing the working directory.
func ResolveRoot(explicit string) (string, error) {
	if explicit != "" {
		return filepath.Clean(explicit), nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	project, err := ProjectRoot(cwd)
	if err != nil {
		return "", err
	}
	return filepath.Join(project, DefaultSourceDir), nil
}
