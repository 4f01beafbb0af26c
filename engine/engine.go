package engine

import (
	"context"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Engine opens, creates and clones repositories.
//
// Implementations own object storage, ref resolution, pack transport and
// working-tree materialization. Callers only sequence calls against it.
type Engine interface {
	// Open opens an existing repository at a resolved location.
	Open(ctx context.Context, loc Location) (Repository, error)

	// Init creates a new repository in dir.
	Init(ctx context.Context, dir string, bare bool) (Repository, error)

	// Clone clones a remote repository into spec.Dir.
	Clone(ctx context.Context, spec CloneSpec) (Repository, error)
}

// Repository is an opened repository. It is not safe for concurrent mutating
// calls; read-only calls may overlap each other.
type Repository interface {
	// Bare reports whether the repository has no working tree.
	Bare() bool

	// Head reports the raw HEAD state without requiring a commit to exist.
	Head(ctx context.Context) (HeadState, error)

	// ResolveCommitish turns a hash, branch, tag or symbolic ref into a commit id.
	ResolveCommitish(ctx context.Context, rev string) (plumbing.Hash, error)

	// Status performs one atomic status query.
	Status(ctx context.Context) (StatusReport, error)

	// Log walks history reachable from tip, newest first.
	Log(ctx context.Context, tip plumbing.Hash) (object.CommitIter, error)

	// LogRange walks history reachable from to but not from from, newest first.
	LogRange(ctx context.Context, from, to plumbing.Hash) (object.CommitIter, error)

	// Stage updates the index from the working tree for paths, which may be
	// glob patterns. Deleted tracked paths are removed from the index.
	Stage(ctx context.Context, paths []string) error

	// Commit records a new commit and returns its id.
	Commit(ctx context.Context, spec CommitSpec) (plumbing.Hash, error)

	// BranchList lists branch refs of the given mode, sorted by name.
	BranchList(ctx context.Context, mode BranchMode) ([]BranchRef, error)

	// BranchCreate points refs/heads/<name> at the given commit.
	BranchCreate(ctx context.Context, name string, at plumbing.Hash, force bool) error

	// BranchDelete deletes local branches and returns the deleted names.
	BranchDelete(ctx context.Context, names []string, force bool) ([]string, error)

	// Checkout moves HEAD and materializes the working tree.
	Checkout(ctx context.Context, spec CheckoutSpec) error

	// Fetch downloads objects and refs from a configured remote.
	Fetch(ctx context.Context, remote string) (FetchOutcome, error)

	// Merge merges the target commit into the current branch.
	Merge(ctx context.Context, target plumbing.Hash) (MergeOutcome, error)

	// LsRemote lists refs advertised by a remote without mutating local state.
	LsRemote(ctx context.Context, remote string, heads, tags bool) ([]RefAdvertisement, error)

	// Remotes lists configured remotes, sorted by name.
	Remotes(ctx context.Context) ([]RemoteInfo, error)

	// Close releases storage resources.
	Close() error
}

// Location is a resolved repository location on the engine's filesystem.
type Location struct {
	// MetadataDir is the directory holding objects, refs and config.
	MetadataDir string

	// Worktree is the working directory root. Empty for bare repositories.
	Worktree string
}

// Bare reports whether the location has no working tree.
func (l Location) Bare() bool {
	return l.Worktree == ""
}

// HeadState is the raw value of HEAD.
type HeadState struct {
	// Ref is the symbolic target (e.g. "refs/heads/main") when HEAD is attached.
	// It is empty when HEAD is detached.
	Ref plumbing.ReferenceName

	// Hash is the commit HEAD resolves to. It is zero on an unborn branch.
	Hash plumbing.Hash
}

// Raw returns the unstripped HEAD value: the symbolic ref name when attached,
// the commit hash otherwise.
func (h HeadState) Raw() string {
	if h.Ref != "" {
		return h.Ref.String()
	}
	return h.Hash.String()
}

// Identity is a commit author or committer.
type Identity struct {
	Name  string
	Email string
}

// CommitSpec is a normalized commit request.
type CommitSpec struct {
	Message   string
	Author    *Identity
	Committer *Identity
	Amend     bool

	// All stages modifications and deletions of tracked files before committing.
	All bool

	// When is the timestamp for author and committer signatures.
	When time.Time
}

// BranchMode selects which branches BranchList returns.
type BranchMode int

const (
	// BranchLocal lists refs/heads/*.
	BranchLocal BranchMode = iota

	// BranchRemote lists refs/remotes/*.
	BranchRemote

	// BranchAll lists both local and remote branches.
	BranchAll
)

// String returns a human-readable string representation of the BranchMode.
func (m BranchMode) String() string {
	switch m {
	case BranchLocal:
		return "local"
	case BranchRemote:
		return "remote"
	case BranchAll:
		return "all"
	default:
		return "unknown"
	}
}

// BranchRef is a listed branch.
type BranchRef struct {
	// Name is the full reference name, e.g. "refs/heads/main".
	Name plumbing.ReferenceName
	Hash plumbing.Hash
}

// CheckoutSpec describes a checkout. Exactly one of Branch or Hash is set.
type CheckoutSpec struct {
	// Branch is the short name of an existing local branch.
	Branch string

	// Hash detaches HEAD at the given commit.
	Hash plumbing.Hash

	// Force discards conflicting working-tree modifications.
	Force bool
}

// StatusCategory is one of the six canonical status categories.
type StatusCategory int

const (
	// Added paths are new in the index relative to HEAD.
	Added StatusCategory = iota
	// Changed paths differ between HEAD and the index.
	Changed
	// Missing paths are in the index but absent from the working tree.
	Missing
	// Modified paths differ between the index and the working tree.
	Modified
	// Removed paths are deleted from the index.
	Removed
	// Untracked paths are in the working tree but not the index.
	Untracked
)

// StatusCategories lists every category in canonical order.
var StatusCategories = []StatusCategory{Added, Changed, Missing, Modified, Removed, Untracked}

// String returns the lower-case category name.
func (c StatusCategory) String() string {
	switch c {
	case Added:
		return "added"
	case Changed:
		return "changed"
	case Missing:
		return "missing"
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	case Untracked:
		return "untracked"
	default:
		return "unknown"
	}
}

// Valid reports whether c is one of the six canonical categories.
func (c StatusCategory) Valid() bool {
	return c >= Added && c <= Untracked
}

// StatusReport maps each path reported by one status query to exactly one category.
type StatusReport map[string]StatusCategory

// FetchOutcome is the result of a fetch.
type FetchOutcome struct {
	// Advertised holds the refs the remote advertised, HEAD first then by name.
	Advertised []RefAdvertisement

	// Updated holds the local remote-tracking refs changed by the fetch.
	Updated []RefUpdate
}

// RefAdvertisement is one ref advertised by a remote.
type RefAdvertisement struct {
	Name plumbing.ReferenceName
	Hash plumbing.Hash

	// Target is set when the ref is symbolic (e.g. HEAD -> refs/heads/main).
	Target plumbing.ReferenceName
}

// RefUpdate describes a local ref changed by a fetch. Old is zero for new refs
// and New is zero for pruned refs.
type RefUpdate struct {
	Name plumbing.ReferenceName
	Old  plumbing.Hash
	New  plumbing.Hash
}

// MergeStatus is the outcome kind of a merge.
type MergeStatus int

const (
	// MergeFastForward means the branch tip moved to (or already equals) the target.
	MergeFastForward MergeStatus = iota
	// MergeMerged means a merge commit was created.
	MergeMerged
	// MergeConflicting means the merge stopped with conflicts.
	MergeConflicting
	// MergeAlreadyUpToDate means the target is already contained in the branch.
	MergeAlreadyUpToDate
)

// String returns a human-readable string representation of the MergeStatus.
func (s MergeStatus) String() string {
	switch s {
	case MergeFastForward:
		return "fast-forward"
	case MergeMerged:
		return "merged"
	case MergeConflicting:
		return "conflicting"
	case MergeAlreadyUpToDate:
		return "already-up-to-date"
	default:
		return "unknown"
	}
}

// MergeOutcome is the result of a merge.
type MergeOutcome struct {
	Status MergeStatus

	// Head is the branch tip after the merge.
	Head plumbing.Hash

	// Conflicts lists conflicting paths when Status is MergeConflicting.
	Conflicts []string
}

// RemoteInfo is a configured remote.
type RemoteInfo struct {
	Name string
	URLs []string
}

// CloneSpec is a normalized clone request.
type CloneSpec struct {
	URL          string
	Dir          string
	RemoteName   string
	RemoteBranch string
	LocalBranch  string
	Bare         bool

	// Depth limits history for shallow clones. Zero clones everything.
	Depth int
}
