package porcelain

import (
	"context"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/input-output-hk/catalyst-forge-libs/porcelain/engine"
)

// BranchMode selects which branches BranchList returns.
type BranchMode = engine.BranchMode

const (
	// BranchLocal lists refs/heads/*.
	BranchLocal = engine.BranchLocal
	// BranchRemote lists remote-tracking branches.
	BranchRemote = engine.BranchRemote
	// BranchAll lists both.
	BranchAll = engine.BranchAll
)

// ParseBranchMode parses "local", "remote" or "all".
func ParseBranchMode(s string) (BranchMode, error) {
	switch strings.ToLower(s) {
	case "", "local":
		return BranchLocal, nil
	case "remote":
		return BranchRemote, nil
	case "all":
		return BranchAll, nil
	default:
		return 0, WrapErrorf(ErrInvalidOption, "unknown branch mode %q", s)
	}
}

// Branch is a listed branch.
type Branch struct {
	// Name is the short name, e.g. "main" or "origin/main".
	Name string

	// Ref is the full reference name.
	Ref plumbing.ReferenceName

	Hash plumbing.Hash

	// Remote is true for remote-tracking branches.
	Remote bool
}

// Remote is a configured remote.
type Remote = engine.RemoteInfo

// ResolveCommitish resolves a hash (full or abbreviated), branch, tag or
// symbolic ref to exactly one commit id, or fails with ErrUnresolvable.
func (r *Repo) ResolveCommitish(ctx context.Context, rev string) (plumbing.Hash, error) {
	if rev == "" {
		return plumbing.ZeroHash, WrapError(ErrEmptyInput, "revision cannot be empty")
	}

	hash, err := r.repo.ResolveCommitish(ctx, rev)
	if err != nil {
		return plumbing.ZeroHash, WrapErrorf(err, "failed to resolve %q", rev)
	}
	return hash, nil
}

// BranchList lists branches sorted by full reference name.
func (r *Repo) BranchList(ctx context.Context, mode BranchMode) ([]Branch, error) {
	refs, err := r.repo.BranchList(ctx, mode)
	if err != nil {
		return nil, WrapErrorf(err, "failed to list %s branches", mode)
	}

	branches := make([]Branch, 0, len(refs))
	for _, ref := range refs {
		branches = append(branches, Branch{
			Name:   ref.Name.Short(),
			Ref:    ref.Name,
			Hash:   ref.Hash,
			Remote: ref.Name.IsRemote(),
		})
	}
	return branches, nil
}

// Remotes lists configured remotes sorted by name.
func (r *Repo) Remotes(ctx context.Context) ([]Remote, error) {
	remotes, err := r.repo.Remotes(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to list remotes")
	}
	return remotes, nil
}
