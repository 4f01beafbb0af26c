package gogit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/input-output-hk/catalyst-forge-libs/porcelain/engine"
	"github.com/input-output-hk/catalyst-forge-libs/porcelain/internal/auth"
)

// anonymousRemote names the in-memory remote used for URL ls-remote.
const anonymousRemote = "anonymous"

// Fetch fetches from a configured remote and reports what it advertised and
// which remote-tracking refs changed.
func (r *Repository) Fetch(ctx context.Context, remoteName string) (engine.FetchOutcome, error) {
	remote, err := r.repo.Remote(remoteName)
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return engine.FetchOutcome{}, fmt.Errorf("%w: remote %q", engine.ErrUnresolvable, remoteName)
		}
		return engine.FetchOutcome{}, fmt.Errorf("failed to get remote %q: %w", remoteName, err)
	}

	url, err := remoteURL(remote)
	if err != nil {
		return engine.FetchOutcome{}, err
	}

	authMethod, err := authFor(r.auth, url)
	if err != nil {
		return engine.FetchOutcome{}, err
	}

	refs, err := remote.ListContext(ctx, &git.ListOptions{Auth: authMethod})
	if err != nil {
		return engine.FetchOutcome{}, transportError(err)
	}

	before, err := r.trackingRefs(remoteName)
	if err != nil {
		return engine.FetchOutcome{}, err
	}

	r.logger.Debug("fetching", "remote", remoteName, "url", url)

	err = remote.FetchContext(ctx, &git.FetchOptions{
		RemoteName: remoteName,
		Auth:       authMethod,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return engine.FetchOutcome{}, transportError(err)
	}

	after, err := r.trackingRefs(remoteName)
	if err != nil {
		return engine.FetchOutcome{}, err
	}

	return engine.FetchOutcome{
		Advertised: advertisements(refs),
		Updated:    diffRefs(before, after),
	}, nil
}

// LsRemote lists refs advertised by a configured remote or by a URL.
// heads and tags select refs/heads/* and refs/tags/*; when both are false
// every advertised ref is returned.
func (r *Repository) LsRemote(ctx context.Context, remoteName string, heads, tags bool) ([]engine.RefAdvertisement, error) {
	remote, err := r.repo.Remote(remoteName)
	switch {
	case errors.Is(err, git.ErrRemoteNotFound) && looksLikeURL(remoteName):
		remote = git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
			Name: anonymousRemote,
			URLs: []string{remoteName},
		})
	case errors.Is(err, git.ErrRemoteNotFound):
		return nil, fmt.Errorf("%w: remote %q", engine.ErrUnresolvable, remoteName)
	case err != nil:
		return nil, fmt.Errorf("failed to get remote %q: %w", remoteName, err)
	}

	return listRemote(ctx, remote, r.auth, heads, tags)
}

// Merge fast-forwards the current branch to target. Targets already
// contained in HEAD report MergeAlreadyUpToDate; diverged histories fail
// with engine.ErrConflict since only fast-forward merges are supported.
func (r *Repository) Merge(ctx context.Context, target plumbing.Hash) (engine.MergeOutcome, error) {
	if err := ctx.Err(); err != nil {
		return engine.MergeOutcome{}, err
	}

	head, err := r.Head(ctx)
	if err != nil {
		return engine.MergeOutcome{}, err
	}

	targetCommit, err := r.commit(target)
	if err != nil {
		return engine.MergeOutcome{}, err
	}

	if head.Hash.IsZero() {
		if err := r.moveTo(head, target, true); err != nil {
			return engine.MergeOutcome{}, err
		}
		return engine.MergeOutcome{Status: engine.MergeFastForward, Head: target}, nil
	}

	if head.Hash == target {
		return engine.MergeOutcome{Status: engine.MergeFastForward, Head: target}, nil
	}

	headCommit, err := r.commit(head.Hash)
	if err != nil {
		return engine.MergeOutcome{}, err
	}

	ff, err := headCommit.IsAncestor(targetCommit)
	if err != nil {
		return engine.MergeOutcome{}, fmt.Errorf("failed to compare HEAD with %s: %w", target, err)
	}
	if ff {
		if err := r.moveTo(head, target, false); err != nil {
			return engine.MergeOutcome{}, err
		}
		r.logger.Debug("fast-forwarded", "from", head.Hash, "to", target)
		return engine.MergeOutcome{Status: engine.MergeFastForward, Head: target}, nil
	}

	behind, err := targetCommit.IsAncestor(headCommit)
	if err != nil {
		return engine.MergeOutcome{}, fmt.Errorf("failed to compare %s with HEAD: %w", target, err)
	}
	if behind {
		return engine.MergeOutcome{Status: engine.MergeAlreadyUpToDate, Head: head.Hash}, nil
	}

	return engine.MergeOutcome{}, fmt.Errorf("%w: %s has diverged from HEAD and cannot be fast-forwarded",
		engine.ErrConflict, target)
}

// moveTo advances HEAD's branch (or detached HEAD) to target and updates the
// working tree. Local modifications block the move.
func (r *Repository) moveTo(head engine.HeadState, target plumbing.Hash, unborn bool) error {
	if r.worktree != nil {
		st, err := r.worktree.Status()
		if err != nil {
			return fmt.Errorf("failed to get worktree status: %w", err)
		}
		for path, fs := range st {
			if fs.Worktree != git.Unmodified && fs.Worktree != git.Untracked {
				return fmt.Errorf("%w: local changes to %s would be overwritten", engine.ErrConflict, path)
			}
			if fs.Staging != git.Unmodified && fs.Staging != git.Untracked {
				return fmt.Errorf("%w: staged changes to %s would be overwritten", engine.ErrConflict, path)
			}
		}
	}

	if unborn {
		err := r.repo.Storer.SetReference(plumbing.NewHashReference(head.Ref, target))
		if err != nil {
			return fmt.Errorf("failed to set %s: %w", head.Ref, err)
		}
	} else {
		err := r.repo.Merge(*plumbing.NewHashReference("", target), git.MergeOptions{
			Strategy: git.FastForwardMerge,
		})
		if err != nil {
			return fmt.Errorf("failed to merge %s: %w", target, err)
		}
	}

	if r.worktree == nil {
		return nil
	}

	if err := r.worktree.Reset(&git.ResetOptions{Commit: target, Mode: git.MergeReset}); err != nil {
		return fmt.Errorf("failed to update working tree: %w", err)
	}
	return nil
}

func (r *Repository) trackingRefs(remoteName string) (map[plumbing.ReferenceName]plumbing.Hash, error) {
	iter, err := r.repo.References()
	if err != nil {
		return nil, fmt.Errorf("failed to list references: %w", err)
	}
	defer iter.Close()

	prefix := "refs/remotes/" + remoteName + "/"
	refs := make(map[plumbing.ReferenceName]plumbing.Hash)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() == plumbing.HashReference && strings.HasPrefix(ref.Name().String(), prefix) {
			refs[ref.Name()] = ref.Hash()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate references: %w", err)
	}
	return refs, nil
}

// remoteURL returns the first URL configured for remote.
func remoteURL(remote *git.Remote) (string, error) {
	cfg := remote.Config()
	if len(cfg.URLs) == 0 {
		return "", fmt.Errorf("%w: remote %q has no url", engine.ErrUnresolvable, cfg.Name)
	}
	return cfg.URLs[0], nil
}

func listRemote(
	ctx context.Context, remote *git.Remote, p auth.Provider, heads, tags bool,
) ([]engine.RefAdvertisement, error) {
	url, err := remoteURL(remote)
	if err != nil {
		return nil, err
	}

	authMethod, err := authFor(p, url)
	if err != nil {
		return nil, err
	}

	refs, err := remote.ListContext(ctx, &git.ListOptions{Auth: authMethod})
	if err != nil {
		return nil, transportError(err)
	}

	ads := advertisements(refs)
	if !heads && !tags {
		return ads, nil
	}

	filtered := ads[:0]
	for _, ad := range ads {
		if (heads && ad.Name.IsBranch()) || (tags && ad.Name.IsTag()) {
			filtered = append(filtered, ad)
		}
	}
	return filtered, nil
}

// advertisements converts listed refs, resolving symbolic refs against the
// same listing, and orders them HEAD first then by name.
func advertisements(refs []*plumbing.Reference) []engine.RefAdvertisement {
	byName := make(map[plumbing.ReferenceName]plumbing.Hash, len(refs))
	for _, ref := range refs {
		if ref.Type() == plumbing.HashReference {
			byName[ref.Name()] = ref.Hash()
		}
	}

	ads := make([]engine.RefAdvertisement, 0, len(refs))
	for _, ref := range refs {
		ad := engine.RefAdvertisement{Name: ref.Name(), Hash: ref.Hash()}
		if ref.Type() == plumbing.SymbolicReference {
			ad.Target = ref.Target()
			ad.Hash = byName[ref.Target()]
		}
		ads = append(ads, ad)
	}

	sort.Slice(ads, func(i, j int) bool {
		if ads[i].Name == plumbing.HEAD || ads[j].Name == plumbing.HEAD {
			return ads[i].Name == plumbing.HEAD && ads[j].Name != plumbing.HEAD
		}
		return ads[i].Name < ads[j].Name
	})
	return ads
}

func diffRefs(before, after map[plumbing.ReferenceName]plumbing.Hash) []engine.RefUpdate {
	var updates []engine.RefUpdate
	for name, newHash := range after {
		if oldHash, ok := before[name]; !ok || oldHash != newHash {
			updates = append(updates, engine.RefUpdate{Name: name, Old: before[name], New: newHash})
		}
	}
	for name, oldHash := range before {
		if _, ok := after[name]; !ok {
			updates = append(updates, engine.RefUpdate{Name: name, Old: oldHash})
		}
	}

	sort.Slice(updates, func(i, j int) bool { return updates[i].Name < updates[j].Name })
	return updates
}

// looksLikeURL reports whether s is a remote address rather than a remote name.
func looksLikeURL(s string) bool {
	return strings.Contains(s, "://") || strings.Contains(s, ":") || strings.HasPrefix(s, "/") ||
		strings.HasPrefix(s, ".")
}
