package porcelain

import (
	"context"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/leodido/go-conventionalcommits"
	"github.com/leodido/go-conventionalcommits/parser"

	"github.com/input-output-hk/catalyst-forge-libs/porcelain/engine"
)

// Identity is a commit author or committer.
type Identity = engine.Identity

// CommitRequest describes a commit.
type CommitRequest struct {
	// Message is the commit message. Required.
	Message string

	// Amend replaces the current tip, keeping its parents.
	Amend bool

	// All stages modifications and deletions of tracked files first.
	All bool

	// Author overrides Options.DefaultIdentity for this commit. When amending
	// without an author, the original author is kept.
	Author *Identity

	// Committer defaults to Author.
	Committer *Identity

	// When is the commit timestamp. Defaults to now.
	When time.Time
}

// Add stages paths, which may be glob patterns, for the next commit. Deleted
// tracked paths are staged as removals; paths that match nothing are skipped.
func (r *Repo) Add(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return WrapError(ErrEmptyInput, "no paths given")
	}
	if r.repo.Bare() {
		return WrapError(ErrInvalidState, "cannot stage in bare repository")
	}

	if err := r.repo.Stage(ctx, paths); err != nil {
		return WrapError(err, "failed to stage")
	}
	return nil
}

// Commit records staged changes (or all tracked modifications with
// req.All) and returns the new commit id.
func (r *Repo) Commit(ctx context.Context, req CommitRequest) (plumbing.Hash, error) {
	if strings.TrimSpace(req.Message) == "" {
		return plumbing.ZeroHash, WrapError(ErrEmptyInput, "commit message cannot be empty")
	}
	if r.repo.Bare() {
		return plumbing.ZeroHash, WrapError(ErrInvalidState, "cannot commit in bare repository")
	}

	if r.options.Conventional {
		if err := ValidateConventional(req.Message); err != nil {
			return plumbing.ZeroHash, err
		}
	}

	if req.Amend {
		head, err := r.repo.Head(ctx)
		if err != nil {
			return plumbing.ZeroHash, WrapError(err, "failed to read HEAD")
		}
		if head.Hash.IsZero() {
			return plumbing.ZeroHash, WrapError(ErrInvalidState, "no commit to amend")
		}
	} else if err := r.ensureStaged(ctx, req.All); err != nil {
		return plumbing.ZeroHash, err
	}

	spec := engine.CommitSpec{
		Message:   req.Message,
		Author:    req.Author,
		Committer: req.Committer,
		Amend:     req.Amend,
		All:       req.All,
		When:      req.When,
	}
	if spec.Author == nil && !req.Amend {
		spec.Author = r.options.DefaultIdentity
	}
	if spec.Committer == nil {
		spec.Committer = spec.Author
	}
	if spec.Committer == nil && req.Amend {
		spec.Committer = r.options.DefaultIdentity
	}

	hash, err := r.repo.Commit(ctx, spec)
	if err != nil {
		return plumbing.ZeroHash, WrapError(err, "failed to commit")
	}

	r.logger.Debug("committed", "hash", hash, "amend", req.Amend, "all", req.All)
	return hash, nil
}

// ensureStaged fails with ErrNothingToCommit when the commit would record
// no changes.
func (r *Repo) ensureStaged(ctx context.Context, all bool) error {
	report, err := r.repo.Status(ctx)
	if err != nil {
		return WrapError(err, "failed to get status")
	}

	for _, category := range report {
		switch category {
		case engine.Added, engine.Changed, engine.Removed:
			return nil
		case engine.Modified, engine.Missing:
			if all {
				return nil
			}
		}
	}

	return WrapError(ErrNothingToCommit, "no changes staged for commit")
}

// ValidateConventional checks that msg follows the Conventional Commits
// format. Failures wrap ErrInvalidOption.
func ValidateConventional(msg string) error {
	machine := parser.NewMachine(parser.WithTypes(conventionalcommits.TypesConventional))
	if _, err := machine.Parse([]byte(strings.TrimRight(msg, "\r\n"))); err != nil {
		return WrapErrorf(ErrInvalidOption, "commit message is not a conventional commit: %v", err)
	}
	return nil
}
