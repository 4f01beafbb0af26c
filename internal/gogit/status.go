package gogit

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5"

	"github.com/input-output-hk/catalyst-forge-libs/porcelain/engine"
)

// Status runs one worktree status query and places each changed path in
// exactly one category.
func (r *Repository) Status(ctx context.Context) (engine.StatusReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.worktree == nil {
		return nil, fmt.Errorf("%w: status requires a working tree", engine.ErrInvalidState)
	}

	st, err := r.worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree status: %w", err)
	}

	report := make(engine.StatusReport, len(st))
	for path, fs := range st {
		if category, ok := categorize(fs); ok {
			report[path] = category
		}
	}

	return report, nil
}

// categorize maps a go-git file status to a category. Index changes take
// precedence over working-tree changes. A path removed from the index but
// still on disk reports as untracked in the worktree and is a staged removal.
func categorize(fs *git.FileStatus) (engine.StatusCategory, bool) {
	switch {
	case fs.Staging == git.Deleted:
		return engine.Removed, true
	case fs.Worktree == git.Untracked:
		return engine.Untracked, true
	case fs.Staging == git.Added:
		return engine.Added, true
	case fs.Staging == git.Modified, fs.Staging == git.Renamed, fs.Staging == git.Copied:
		return engine.Changed, true
	case fs.Worktree == git.Deleted:
		return engine.Missing, true
	case fs.Worktree == git.Modified:
		return engine.Modified, true
	default:
		return 0, false
	}
}
