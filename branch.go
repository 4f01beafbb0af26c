package porcelain

import (
	"context"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/input-output-hk/catalyst-forge-libs/porcelain/engine"
)

// branchPrefix marks an attached HEAD value.
const branchPrefix = "refs/heads/"

// BranchRequest describes a branch to create.
type BranchRequest struct {
	// Name is the short branch name. Required.
	Name string

	// StartPoint is the commit-ish the branch points at. Defaults to HEAD.
	StartPoint string

	// Force moves an existing branch instead of failing with ErrConflict.
	Force bool
}

// CheckoutRequest describes a checkout.
type CheckoutRequest struct {
	// Target is a branch name or commit-ish. A local branch name attaches
	// HEAD to it; anything else detaches HEAD at the resolved commit.
	Target string

	// CreateBranch creates Target as a new branch at StartPoint first.
	CreateBranch bool

	// StartPoint is the start of a created branch. Defaults to HEAD.
	StartPoint string

	// Force discards working-tree changes that would block the switch.
	Force bool
}

// BranchAttached reports whether a raw HEAD value names a local branch.
func BranchAttached(raw string) bool {
	return strings.HasPrefix(raw, branchPrefix)
}

// CurrentBranch returns the short name of the checked-out branch. With a
// detached HEAD it returns the commit id. On an unborn branch it returns the
// name of the branch HEAD points at.
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	head, err := r.repo.Head(ctx)
	if err != nil {
		return "", WrapError(err, "failed to read HEAD")
	}

	if head.Ref != "" {
		return head.Ref.Short(), nil
	}
	return head.Hash.String(), nil
}

// CurrentBranchRef returns the unstripped HEAD value: "refs/heads/<name>"
// when attached, the commit id when detached.
func (r *Repo) CurrentBranchRef(ctx context.Context) (string, error) {
	head, err := r.repo.Head(ctx)
	if err != nil {
		return "", WrapError(err, "failed to read HEAD")
	}
	return head.Raw(), nil
}

// Attached reports whether HEAD is attached to a local branch.
func (r *Repo) Attached(ctx context.Context) (bool, error) {
	raw, err := r.CurrentBranchRef(ctx)
	if err != nil {
		return false, err
	}
	return BranchAttached(raw), nil
}

// CreateBranch creates a branch at req.StartPoint. An existing branch is a
// conflict unless req.Force is set.
func (r *Repo) CreateBranch(ctx context.Context, req BranchRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return WrapError(ErrEmptyInput, "branch name cannot be empty")
	}

	start := req.StartPoint
	if start == "" {
		start = plumbing.HEAD.String()
	}

	at, err := r.repo.ResolveCommitish(ctx, start)
	if err != nil {
		return WrapErrorf(err, "failed to resolve start point %q", start)
	}

	if err := r.repo.BranchCreate(ctx, req.Name, at, req.Force); err != nil {
		return WrapErrorf(err, "failed to create branch %q", req.Name)
	}

	r.logger.Debug("created branch", "branch", req.Name, "start", start, "force", req.Force)
	return nil
}

// DeleteBranches deletes local branches and returns the deleted names.
// Branches not merged into HEAD are refused unless force is set, and the
// checked-out branch is always refused. If any name is refused nothing is
// deleted and every refusal is reported.
func (r *Repo) DeleteBranches(ctx context.Context, names []string, force bool) ([]string, error) {
	if len(names) == 0 {
		return nil, WrapError(ErrEmptyInput, "no branches given")
	}
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return nil, WrapError(ErrEmptyInput, "branch name cannot be empty")
		}
	}

	deleted, err := r.repo.BranchDelete(ctx, names, force)
	if err != nil {
		return deleted, WrapError(err, "failed to delete branches")
	}
	return deleted, nil
}

// Checkout switches HEAD as described by req, optionally creating the
// branch first.
func (r *Repo) Checkout(ctx context.Context, req CheckoutRequest) error {
	if strings.TrimSpace(req.Target) == "" {
		return WrapError(ErrEmptyInput, "checkout target cannot be empty")
	}
	if r.repo.Bare() {
		return WrapError(ErrInvalidState, "cannot checkout in bare repository")
	}

	if req.CreateBranch {
		err := r.CreateBranch(ctx, BranchRequest{Name: req.Target, StartPoint: req.StartPoint})
		if err != nil {
			return err
		}
	}

	spec := engine.CheckoutSpec{Force: req.Force}
	if r.isLocalBranch(ctx, req.Target) {
		spec.Branch = req.Target
	} else {
		hash, err := r.repo.ResolveCommitish(ctx, req.Target)
		if err != nil {
			return WrapErrorf(err, "failed to resolve checkout target %q", req.Target)
		}
		spec.Hash = hash
	}

	if err := r.repo.Checkout(ctx, spec); err != nil {
		return WrapErrorf(err, "failed to checkout %q", req.Target)
	}

	r.logger.Debug("checked out", "target", req.Target, "detached", spec.Branch == "", "force", req.Force)
	return nil
}

func (r *Repo) isLocalBranch(ctx context.Context, name string) bool {
	_, err := r.repo.ResolveCommitish(ctx, plumbing.NewBranchReferenceName(name).String())
	return err == nil
}
