package gogit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/input-output-hk/catalyst-forge-libs/porcelain/engine"
)

// Commit records the index as a new commit, or replaces the tip when amending.
func (r *Repository) Commit(ctx context.Context, spec engine.CommitSpec) (plumbing.Hash, error) {
	if err := ctx.Err(); err != nil {
		return plumbing.ZeroHash, err
	}
	if r.worktree == nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: cannot commit in bare repository", engine.ErrInvalidState)
	}

	if spec.All {
		if err := r.stageTracked(); err != nil {
			return plumbing.ZeroHash, err
		}
	}

	when := spec.When
	if when.IsZero() {
		when = time.Now()
	}

	opts := &git.CommitOptions{
		Author:    signature(spec.Author, when),
		Committer: signature(spec.Committer, when),
		Amend:     spec.Amend,
		// Amending may only change the message, which go-git would
		// otherwise reject as an empty commit.
		AllowEmptyCommits: spec.Amend,
	}

	if spec.Amend && opts.Author == nil {
		head, err := r.repo.Head()
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("%w: nothing to amend: %w", engine.ErrInvalidState, err)
		}
		tip, err := r.repo.CommitObject(head.Hash())
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("%w: nothing to amend: %w", engine.ErrInvalidState, err)
		}
		original := tip.Author
		opts.Author = &original
		if opts.Committer == nil {
			opts.Committer = &object.Signature{Name: original.Name, Email: original.Email, When: when}
		}
	}
	if opts.Committer == nil && opts.Author != nil {
		opts.Committer = opts.Author
	}

	hash, err := r.worktree.Commit(spec.Message, opts)
	if err != nil {
		switch {
		case errors.Is(err, git.ErrEmptyCommit):
			return plumbing.ZeroHash, fmt.Errorf("%w: %w", engine.ErrNothingToCommit, err)
		case errors.Is(err, git.ErrMissingAuthor):
			return plumbing.ZeroHash, fmt.Errorf("%w: no author configured: %w", engine.ErrInvalidState, err)
		case errors.Is(err, plumbing.ErrReferenceNotFound):
			return plumbing.ZeroHash, fmt.Errorf("%w: %w", engine.ErrInvalidState, err)
		default:
			return plumbing.ZeroHash, fmt.Errorf("failed to create commit: %w", err)
		}
	}

	r.logger.Debug("committed", "hash", hash, "amend", spec.Amend)
	return hash, nil
}

// stageTracked stages modifications and deletions of tracked files.
// Untracked files are left alone.
func (r *Repository) stageTracked() error {
	st, err := r.worktree.Status()
	if err != nil {
		return fmt.Errorf("failed to get worktree status: %w", err)
	}

	for path, fs := range st {
		if fs.Worktree == git.Untracked {
			continue
		}

		switch fs.Worktree {
		case git.Modified:
			if _, err := r.worktree.Add(path); err != nil {
				return fmt.Errorf("failed to stage %s: %w", path, err)
			}
		case git.Deleted:
			if _, err := r.worktree.Remove(path); err != nil {
				return fmt.Errorf("failed to stage removal of %s: %w", path, err)
			}
		}
	}

	return nil
}

func signature(id *engine.Identity, when time.Time) *object.Signature {
	if id == nil {
		return nil
	}
	return &object.Signature{Name: id.Name, Email: id.Email, When: when}
}
