package porcelain

import (
	"context"
	"io"
	"log/slog"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/input-output-hk/catalyst-forge-libs/porcelain/engine"
	"github.com/input-output-hk/catalyst-forge-libs/porcelain/internal/fsbridge"
	"github.com/input-output-hk/catalyst-forge-libs/porcelain/internal/gogit"
)

const (
	// DefaultRemote is the remote used when an operation names none.
	DefaultRemote = "origin"

	// DefaultBranch is the branch used when clone names none, and the initial
	// branch of repositories created by Init.
	DefaultBranch = "master"

	// DefaultStorerCacheSize is the default object cache size.
	DefaultStorerCacheSize = fsbridge.DefaultCacheSize
)

// AuthProvider resolves credentials for a remote URL. A nil AuthMethod means
// no credentials are sent.
type AuthProvider interface {
	Method(remoteURL string) (transport.AuthMethod, error)
}

// Options configures how repositories are opened and how operations default
// their parameters. The zero value is usable; see each field for its default.
type Options struct {
	// Engine performs the underlying repository work. Defaults to the go-git
	// engine built from FS, StorerCacheSize, Auth and Logger.
	Engine engine.Engine

	// FS is the filesystem repository paths are resolved on. Defaults to the
	// host filesystem.
	FS billy.Filesystem

	// Logger receives debug records for every operation. Defaults to discarding.
	Logger *slog.Logger

	// DefaultRemote is used by Fetch and CloneFull when no remote is given.
	// Defaults to DefaultRemote.
	DefaultRemote string

	// DefaultBranch is used by clone when no remote branch is given.
	// Defaults to DefaultBranch.
	DefaultBranch string

	// DefaultIdentity is the author used when a commit request names none.
	// When nil, the engine falls back to the user's git configuration.
	DefaultIdentity *Identity

	// Auth resolves credentials for remote operations.
	Auth AuthProvider

	// StorerCacheSize is the object cache size. Defaults to DefaultStorerCacheSize.
	StorerCacheSize int

	// ShallowDepth limits clone history when positive.
	ShallowDepth int

	// Conventional requires commit messages to follow Conventional Commits.
	Conventional bool
}

// Validate checks the options for invalid values.
func (o *Options) Validate() error {
	if o.StorerCacheSize < 0 {
		return WrapError(ErrInvalidOption, "StorerCacheSize cannot be negative")
	}

	if o.ShallowDepth < 0 {
		return WrapError(ErrInvalidOption, "ShallowDepth cannot be negative")
	}

	return nil
}

func (o *Options) applyDefaults() {
	if o.FS == nil {
		o.FS = fsbridge.NewHostFS()
	}

	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if o.DefaultRemote == "" {
		o.DefaultRemote = DefaultRemote
	}

	if o.DefaultBranch == "" {
		o.DefaultBranch = DefaultBranch
	}

	if o.StorerCacheSize == 0 {
		o.StorerCacheSize = DefaultStorerCacheSize
	}

	if o.Engine == nil {
		o.Engine = gogit.New(gogit.Config{
			FS:            o.FS,
			CacheSize:     o.StorerCacheSize,
			Auth:          o.Auth,
			DefaultBranch: o.DefaultBranch,
			Logger:        o.Logger,
		})
	}
}

// resolveOptions copies opts, validates the copy and fills in defaults.
func resolveOptions(opts *Options) (Options, error) {
	var o Options
	if opts != nil {
		o = *opts
	}

	if err := o.Validate(); err != nil {
		return Options{}, WrapError(err, "invalid options")
	}

	o.applyDefaults()
	return o, nil
}

// Repo is an opened repository handle. A Repo is never partially
// initialized: constructors either return a usable handle or an error.
//
// A Repo is not safe for concurrent mutating operations; read-only
// operations may run concurrently with each other.
type Repo struct {
	repo    engine.Repository
	loc     engine.Location
	options Options
	logger  *slog.Logger
}

// Open resolves path to a repository and opens it.
// See Locate for how path is interpreted.
func Open(ctx context.Context, path string, opts *Options) (*Repo, error) {
	o, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	loc, err := Locate(o.FS, path)
	if err != nil {
		return nil, err
	}

	repo, err := o.Engine.Open(ctx, loc)
	if err != nil {
		return nil, WrapErrorf(err, "failed to open %s", path)
	}

	o.Logger.Debug("opened repository", "path", path, "bare", loc.Bare())
	return newRepo(repo, loc, o), nil
}

// Init creates a repository in dir and opens it.
func Init(ctx context.Context, dir string, bare bool, opts *Options) (*Repo, error) {
	if dir == "" {
		return nil, WrapError(ErrEmptyInput, "directory cannot be empty")
	}

	o, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	repo, err := o.Engine.Init(ctx, dir, bare)
	if err != nil {
		return nil, WrapErrorf(err, "failed to initialize %s", dir)
	}

	loc, err := Locate(o.FS, dir)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	o.Logger.Debug("initialized repository", "dir", dir, "bare", bare)
	return newRepo(repo, loc, o), nil
}

func newRepo(repo engine.Repository, loc engine.Location, o Options) *Repo {
	return &Repo{
		repo:    repo,
		loc:     loc,
		options: o,
		logger:  o.Logger,
	}
}

// Location returns where the repository lives.
func (r *Repo) Location() engine.Location {
	return r.loc
}

// Bare reports whether the repository has no working tree.
func (r *Repo) Bare() bool {
	return r.repo.Bare()
}

// Close releases resources held by the repository.
func (r *Repo) Close() error {
	return r.repo.Close()
}
