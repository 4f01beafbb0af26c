package gogit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/format/index"

	"github.com/input-output-hk/catalyst-forge-libs/porcelain/engine"
)

// Stage adds paths to the index. Glob patterns that match nothing and paths
// that neither exist nor are tracked are skipped.
func (r *Repository) Stage(ctx context.Context, paths []string) error {
	if r.worktree == nil {
		return fmt.Errorf("%w: cannot stage in bare repository", engine.ErrInvalidState)
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == "" {
			continue
		}

		if strings.ContainsAny(path, "*?[") {
			if err := r.worktree.AddGlob(path); err != nil && !errors.Is(err, git.ErrGlobNoMatches) {
				return fmt.Errorf("failed to add %q: %w", path, err)
			}
			continue
		}

		if _, err := r.worktree.Filesystem.Lstat(path); err == nil {
			if _, err := r.worktree.Add(path); err != nil {
				return fmt.Errorf("failed to add %q: %w", path, err)
			}
			continue
		}

		tracked, err := r.tracked(path)
		if err != nil {
			return err
		}
		if tracked {
			if _, err := r.worktree.Remove(path); err != nil {
				return fmt.Errorf("failed to remove %q: %w", path, err)
			}
		}
	}

	r.logger.Debug("staged", "paths", paths)
	return nil
}

func (r *Repository) tracked(path string) (bool, error) {
	idx, err := r.repo.Storer.Index()
	if err != nil {
		return false, fmt.Errorf("failed to read index: %w", err)
	}

	_, err = idx.Entry(path)
	switch {
	case errors.Is(err, index.ErrEntryNotFound):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("failed to read index entry %q: %w", path, err)
	default:
		return true, nil
	}
}
