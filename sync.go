package porcelain

import (
	"context"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/input-output-hk/catalyst-forge-libs/porcelain/engine"
)

// FetchResult reports advertised refs and the remote-tracking refs a fetch changed.
type FetchResult = engine.FetchOutcome

// RefAdvertisement is one ref advertised by a remote.
type RefAdvertisement = engine.RefAdvertisement

// MergeResult is the outcome of a merge.
type MergeResult = engine.MergeOutcome

// MergeStatus is the kind of merge outcome.
type MergeStatus = engine.MergeStatus

const (
	// MergeFastForward means the branch moved to, or already equalled, the target.
	MergeFastForward = engine.MergeFastForward
	// MergeMerged means a merge commit was created.
	MergeMerged = engine.MergeMerged
	// MergeConflicting means the merge stopped with conflicts.
	MergeConflicting = engine.MergeConflicting
	// MergeAlreadyUpToDate means the target is already contained in HEAD.
	MergeAlreadyUpToDate = engine.MergeAlreadyUpToDate
)

// RefKind selects advertised refs for LsRemote.
type RefKind int

const (
	// RefHeads selects refs/heads/*.
	RefHeads RefKind = iota
	// RefTags selects refs/tags/*.
	RefTags
)

// String returns a human-readable string representation of the RefKind.
func (k RefKind) String() string {
	switch k {
	case RefHeads:
		return "heads"
	case RefTags:
		return "tags"
	default:
		return "unknown"
	}
}

// ParseRefKind parses "heads" or "tags".
func ParseRefKind(s string) (RefKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "heads":
		return RefHeads, nil
	case "tags":
		return RefTags, nil
	default:
		return 0, WrapErrorf(ErrInvalidOption, "unknown ref kind %q", s)
	}
}

// CloneRequest describes a clone.
type CloneRequest struct {
	// URL is the remote address. Required.
	URL string

	// Dir is the destination directory. Required.
	Dir string

	// Remote names the remote. Defaults to Options.DefaultRemote.
	Remote string

	// RemoteBranch is the branch to check out. Defaults to Options.DefaultBranch.
	RemoteBranch string

	// LocalBranch is the local name for RemoteBranch. Defaults to RemoteBranch.
	LocalBranch string

	// Bare clones without a working tree.
	Bare bool
}

// CloneFullResult holds the repository and the outcomes of the fetch and
// merge that followed the clone.
type CloneFullResult struct {
	Repo  *Repo
	Fetch FetchResult
	Merge MergeResult
}

// Fetch fetches from remote, or from Options.DefaultRemote when remote is empty.
func (r *Repo) Fetch(ctx context.Context, remote string) (FetchResult, error) {
	if remote == "" {
		remote = r.options.DefaultRemote
	}

	r.logger.Debug("fetch", "remote", remote)
	outcome, err := r.repo.Fetch(ctx, remote)
	if err != nil {
		return FetchResult{}, WrapErrorf(err, "failed to fetch from %q", remote)
	}
	return outcome, nil
}

// Merge merges the commit-ish target into the current branch.
func (r *Repo) Merge(ctx context.Context, target string) (MergeResult, error) {
	if target == "" {
		return MergeResult{}, WrapError(ErrEmptyInput, "merge target cannot be empty")
	}

	hash, err := r.repo.ResolveCommitish(ctx, target)
	if err != nil {
		return MergeResult{}, WrapErrorf(err, "failed to resolve merge target %q", target)
	}

	outcome, err := r.repo.Merge(ctx, hash)
	if err != nil {
		return MergeResult{}, WrapErrorf(err, "failed to merge %q", target)
	}

	r.logger.Debug("merge", "target", target, "status", outcome.Status)
	return outcome, nil
}

// LsRemote lists refs advertised by a configured remote or a URL without
// changing local state. With no kinds the remote's full advertisement is
// returned; otherwise the union of the selected kinds.
func (r *Repo) LsRemote(ctx context.Context, remote string, kinds ...RefKind) ([]RefAdvertisement, error) {
	if remote == "" {
		remote = r.options.DefaultRemote
	}

	var heads, tags bool
	for _, k := range kinds {
		switch k {
		case RefHeads:
			heads = true
		case RefTags:
			tags = true
		default:
			return nil, WrapErrorf(ErrInvalidOption, "unknown ref kind %d", int(k))
		}
	}

	refs, err := r.repo.LsRemote(ctx, remote, heads, tags)
	if err != nil {
		return nil, WrapErrorf(err, "failed to list %q", remote)
	}
	return refs, nil
}

// Clone clones req.URL into req.Dir and opens the result.
func Clone(ctx context.Context, req CloneRequest, opts *Options) (*Repo, error) {
	if strings.TrimSpace(req.URL) == "" {
		return nil, WrapError(ErrEmptyInput, "remote URL cannot be empty")
	}
	if strings.TrimSpace(req.Dir) == "" {
		return nil, WrapError(ErrEmptyInput, "directory cannot be empty")
	}

	o, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	spec := engine.CloneSpec{
		URL:          req.URL,
		Dir:          req.Dir,
		RemoteName:   req.Remote,
		RemoteBranch: req.RemoteBranch,
		LocalBranch:  req.LocalBranch,
		Bare:         req.Bare,
		Depth:        o.ShallowDepth,
	}
	if spec.RemoteName == "" {
		spec.RemoteName = o.DefaultRemote
	}
	if spec.RemoteBranch == "" {
		spec.RemoteBranch = o.DefaultBranch
	}
	if spec.LocalBranch == "" {
		spec.LocalBranch = spec.RemoteBranch
	}

	o.Logger.Debug("clone", "url", req.URL, "dir", req.Dir, "remote", spec.RemoteName,
		"branch", spec.RemoteBranch, "local", spec.LocalBranch, "bare", req.Bare)

	repo, err := o.Engine.Clone(ctx, spec)
	if err != nil {
		return nil, WrapErrorf(err, "failed to clone %s", req.URL)
	}

	loc, err := Locate(o.FS, req.Dir)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	return newRepo(repo, loc, o), nil
}

// CloneFull clones, fetches and merges in one call. It merges the advertised
// refs/heads/<RemoteBranch>, or the first advertised ref when that branch is
// not advertised. The first failing step ends the workflow; its error is
// returned unchanged inside a *StepError. Nothing written to req.Dir is
// removed on failure.
func CloneFull(ctx context.Context, req CloneRequest, opts *Options) (*CloneFullResult, error) {
	const op = "clone-full"

	o, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	repo, err := Clone(ctx, req, &o)
	if err != nil {
		return nil, &StepError{Op: op, Step: StepClone, Err: err}
	}

	remote := req.Remote
	if remote == "" {
		remote = o.DefaultRemote
	}

	fetched, err := repo.Fetch(ctx, remote)
	if err != nil {
		_ = repo.Close()
		return nil, &StepError{Op: op, Step: StepFetch, Err: err}
	}

	branch := req.RemoteBranch
	if branch == "" {
		branch = o.DefaultBranch
	}

	target, ok := mergeTarget(fetched.Advertised, plumbing.NewBranchReferenceName(branch))
	if !ok {
		_ = repo.Close()
		return nil, &StepError{Op: op, Step: StepMerge, Err: WrapErrorf(ErrUnresolvable, "%s advertised no refs", remote)}
	}

	merged, err := repo.Merge(ctx, target.Hash.String())
	if err != nil {
		_ = repo.Close()
		return nil, &StepError{Op: op, Step: StepMerge, Err: err}
	}

	return &CloneFullResult{Repo: repo, Fetch: fetched, Merge: merged}, nil
}

func mergeTarget(ads []RefAdvertisement, preferred plumbing.ReferenceName) (RefAdvertisement, bool) {
	for _, ad := range ads {
		if ad.Name == preferred && !ad.Hash.IsZero() {
			return ad, true
		}
	}
	for _, ad := range ads {
		if !ad.Hash.IsZero() {
			return ad, true
		}
	}
	return RefAdvertisement{}, false
}
