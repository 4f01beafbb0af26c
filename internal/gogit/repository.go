package gogit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/input-output-hk/catalyst-forge-libs/porcelain/engine"
	"github.com/input-output-hk/catalyst-forge-libs/porcelain/internal/auth"
)

// Repository is an opened go-git repository.
type Repository struct {
	repo     *git.Repository
	worktree *git.Worktree
	storage  *filesystem.Storage
	auth     auth.Provider
	logger   *slog.Logger
}

var _ engine.Repository = (*Repository)(nil)

// Bare reports whether the repository has no working tree.
func (r *Repository) Bare() bool {
	return r.worktree == nil
}

// Head reads HEAD without dereferencing past an unborn branch.
func (r *Repository) Head(ctx context.Context) (engine.HeadState, error) {
	if err := ctx.Err(); err != nil {
		return engine.HeadState{}, err
	}

	head, err := r.repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return engine.HeadState{}, fmt.Errorf("failed to read HEAD: %w", err)
	}

	if head.Type() != plumbing.SymbolicReference {
		return engine.HeadState{Hash: head.Hash()}, nil
	}

	state := engine.HeadState{Ref: head.Target()}
	ref, err := r.repo.Reference(head.Target(), true)
	switch {
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		// Unborn branch.
	case err != nil:
		return engine.HeadState{}, fmt.Errorf("failed to resolve %s: %w", head.Target(), err)
	default:
		state.Hash = ref.Hash()
	}

	return state, nil
}

// ResolveCommitish resolves rev to a commit id.
func (r *Repository) ResolveCommitish(ctx context.Context, rev string) (plumbing.Hash, error) {
	if err := ctx.Err(); err != nil {
		return plumbing.ZeroHash, err
	}
	if rev == "" {
		return plumbing.ZeroHash, fmt.Errorf("%w: revision", engine.ErrEmptyInput)
	}

	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: %q: %w", engine.ErrUnresolvable, rev, err)
	}

	if _, err := r.repo.CommitObject(*hash); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: %q is not a commit: %w", engine.ErrUnresolvable, rev, err)
	}

	return *hash, nil
}

// Remotes lists configured remotes sorted by name.
func (r *Repository) Remotes(ctx context.Context) ([]engine.RemoteInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	remotes, err := r.repo.Remotes()
	if err != nil {
		return nil, fmt.Errorf("failed to list remotes: %w", err)
	}

	infos := make([]engine.RemoteInfo, 0, len(remotes))
	for _, remote := range remotes {
		cfg := remote.Config()
		infos = append(infos, engine.RemoteInfo{
			Name: cfg.Name,
			URLs: append([]string(nil), cfg.URLs...),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Close releases the object storage.
func (r *Repository) Close() error {
	if r.storage == nil {
		return nil
	}
	return r.storage.Close()
}

// renameClonedBranch replaces the branch created by clone with local,
// tracking remoteBranch on remoteName, and moves HEAD to it.
func (r *Repository) renameClonedBranch(remoteName, remoteBranch, local string) error {
	if remoteName == "" {
		remoteName = git.DefaultRemoteName
	}

	cloned := plumbing.NewBranchReferenceName(remoteBranch)
	ref, err := r.repo.Reference(cloned, true)
	if err != nil {
		return fmt.Errorf("failed to read cloned branch %s: %w", remoteBranch, err)
	}

	localRef := plumbing.NewBranchReferenceName(local)
	if err := r.repo.Storer.SetReference(plumbing.NewHashReference(localRef, ref.Hash())); err != nil {
		return fmt.Errorf("failed to create branch %s: %w", local, err)
	}

	cfg, err := r.repo.Config()
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	delete(cfg.Branches, remoteBranch)
	cfg.Branches[local] = &config.Branch{
		Name:   local,
		Remote: remoteName,
		Merge:  cloned,
	}
	if err := r.repo.SetConfig(cfg); err != nil {
		return fmt.Errorf("failed to write branch config: %w", err)
	}

	if r.worktree != nil {
		if err := r.worktree.Checkout(&git.CheckoutOptions{Branch: localRef}); err != nil {
			return fmt.Errorf("failed to checkout %s: %w", local, err)
		}
	} else if err := r.repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, localRef)); err != nil {
		return fmt.Errorf("failed to point HEAD at %s: %w", local, err)
	}

	if err := r.repo.Storer.RemoveReference(cloned); err != nil {
		return fmt.Errorf("failed to remove branch %s: %w", remoteBranch, err)
	}

	r.logger.Debug("renamed cloned branch", "from", remoteBranch, "to", local)
	return nil
}

// authFor resolves credentials for url. A nil provider yields no credentials.
//
//nolint:ireturn // go-git requires transport.AuthMethod.
func authFor(p auth.Provider, url string) (transport.AuthMethod, error) {
	if p == nil {
		return nil, nil
	}

	method, err := p.Method(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", engine.ErrTransport, engine.ErrAuthRequired, err)
	}
	return method, nil
}

// transportError classifies a remote failure under engine.ErrTransport,
// keeping the original cause in the chain.
func transportError(err error) error {
	switch {
	case errors.Is(err, transport.ErrAuthenticationRequired):
		return fmt.Errorf("%w: %w: %w", engine.ErrTransport, engine.ErrAuthRequired, err)
	case errors.Is(err, transport.ErrAuthorizationFailed):
		return fmt.Errorf("%w: %w: %w", engine.ErrTransport, engine.ErrAuthFailed, err)
	default:
		return fmt.Errorf("%w: %w", engine.ErrTransport, err)
	}
}
