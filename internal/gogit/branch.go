package gogit

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/input-output-hk/catalyst-forge-libs/porcelain/engine"
)

// BranchList lists branches of the given mode sorted by full ref name.
// Symbolic refs such as refs/remotes/origin/HEAD are skipped.
func (r *Repository) BranchList(ctx context.Context, mode engine.BranchMode) ([]engine.BranchRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	refs, err := r.repo.References()
	if err != nil {
		return nil, fmt.Errorf("failed to list references: %w", err)
	}
	defer refs.Close()

	var branches []engine.BranchRef
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}

		name := ref.Name()
		include := false
		switch mode {
		case engine.BranchLocal:
			include = name.IsBranch()
		case engine.BranchRemote:
			include = name.IsRemote()
		case engine.BranchAll:
			include = name.IsBranch() || name.IsRemote()
		}

		if include {
			branches = append(branches, engine.BranchRef{Name: name, Hash: ref.Hash()})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate references: %w", err)
	}

	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })
	return branches, nil
}

// BranchCreate points refs/heads/<name> at the commit at.
func (r *Repository) BranchCreate(ctx context.Context, name string, at plumbing.Hash, force bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	refName := plumbing.NewBranchReferenceName(name)
	if err := refName.Validate(); err != nil {
		return fmt.Errorf("%w: branch name %q: %w", engine.ErrInvalidOption, name, err)
	}

	if _, err := r.repo.Reference(refName, false); err == nil && !force {
		return fmt.Errorf("%w: branch %q already exists", engine.ErrConflict, name)
	}

	if err := r.repo.Storer.SetReference(plumbing.NewHashReference(refName, at)); err != nil {
		return fmt.Errorf("failed to create branch reference: %w", err)
	}

	r.logger.Debug("created branch", "branch", name, "at", at, "force", force)
	return nil
}

// BranchDelete deletes local branches. Every name is checked before anything
// is deleted; if any check fails, the joined errors are returned and no
// branch is removed.
func (r *Repository) BranchDelete(ctx context.Context, names []string, force bool) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	head, err := r.Head(ctx)
	if err != nil {
		return nil, err
	}

	var errs []error
	for _, name := range names {
		if err := r.checkDeletable(name, head, force); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	cfg, err := r.repo.Config()
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	deleted := make([]string, 0, len(names))
	for _, name := range names {
		if err := r.repo.Storer.RemoveReference(plumbing.NewBranchReferenceName(name)); err != nil {
			return deleted, fmt.Errorf("failed to delete branch %q: %w", name, err)
		}
		delete(cfg.Branches, name)
		deleted = append(deleted, name)
	}

	if err := r.repo.SetConfig(cfg); err != nil {
		return deleted, fmt.Errorf("failed to write config: %w", err)
	}

	r.logger.Debug("deleted branches", "branches", deleted, "force", force)
	return deleted, nil
}

func (r *Repository) checkDeletable(name string, head engine.HeadState, force bool) error {
	refName := plumbing.NewBranchReferenceName(name)
	ref, err := r.repo.Reference(refName, true)
	if err != nil {
		return fmt.Errorf("%w: branch %q: %w", engine.ErrUnresolvable, name, err)
	}

	if head.Ref == refName {
		return fmt.Errorf("%w: cannot delete checked-out branch %q", engine.ErrConflict, name)
	}

	if force {
		return nil
	}

	merged, err := r.isMerged(ref.Hash(), head.Hash)
	if err != nil {
		return err
	}
	if !merged {
		return fmt.Errorf("%w: branch %q is not fully merged", engine.ErrConflict, name)
	}

	return nil
}

// isMerged reports whether commit is reachable from head.
func (r *Repository) isMerged(commit, head plumbing.Hash) (bool, error) {
	if head.IsZero() {
		return false, nil
	}
	if commit == head {
		return true, nil
	}

	c, err := r.commit(commit)
	if err != nil {
		return false, err
	}
	h, err := r.commit(head)
	if err != nil {
		return false, err
	}

	ok, err := c.IsAncestor(h)
	if err != nil {
		return false, fmt.Errorf("failed to compare %s with HEAD: %w", commit, err)
	}
	return ok, nil
}

// Checkout switches to a local branch or detaches HEAD at a commit.
func (r *Repository) Checkout(ctx context.Context, spec engine.CheckoutSpec) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.worktree == nil {
		return fmt.Errorf("%w: cannot checkout in bare repository", engine.ErrInvalidState)
	}

	opts := &git.CheckoutOptions{Force: spec.Force}
	target := spec.Hash.String()
	if spec.Branch != "" {
		opts.Branch = plumbing.NewBranchReferenceName(spec.Branch)
		target = spec.Branch
	} else {
		opts.Hash = spec.Hash
	}

	if err := r.worktree.Checkout(opts); err != nil {
		switch {
		case errors.Is(err, git.ErrUnstagedChanges):
			return fmt.Errorf("%w: checkout %s would overwrite local changes: %w", engine.ErrConflict, target, err)
		case errors.Is(err, plumbing.ErrReferenceNotFound), errors.Is(err, plumbing.ErrObjectNotFound):
			return fmt.Errorf("%w: %s: %w", engine.ErrUnresolvable, target, err)
		default:
			return fmt.Errorf("failed to checkout %s: %w", target, err)
		}
	}

	r.logger.Debug("checked out", "target", target, "force", spec.Force)
	return nil
}
