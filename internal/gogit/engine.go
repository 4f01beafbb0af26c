// Package gogit implements engine.Engine on top of go-git.
//
// Storage is always filesystem-backed with an LRU object cache from
// internal/fsbridge. Paths handed to the engine are interpreted on the
// configured billy filesystem, which defaults to the host filesystem.
package gogit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/input-output-hk/catalyst-forge-libs/porcelain/engine"
	"github.com/input-output-hk/catalyst-forge-libs/porcelain/internal/auth"
	"github.com/input-output-hk/catalyst-forge-libs/porcelain/internal/fsbridge"
)

// DefaultBranch is the branch HEAD points at in freshly initialized repositories.
const DefaultBranch = "master"

// Config configures the go-git engine.
type Config struct {
	// FS is the filesystem repositories live on. Defaults to the host filesystem.
	FS billy.Filesystem

	// CacheSize is the object cache size. Defaults to fsbridge.DefaultCacheSize.
	CacheSize int

	// Auth resolves credentials for remote operations. Nil disables authentication.
	Auth auth.Provider

	// DefaultBranch names the initial branch of new repositories.
	DefaultBranch string

	// Logger receives debug output. Defaults to a discarding logger.
	Logger *slog.Logger
}

// Engine is the go-git implementation of engine.Engine.
type Engine struct {
	fs            billy.Filesystem
	cacheSize     int
	auth          auth.Provider
	defaultBranch string
	logger        *slog.Logger
}

var _ engine.Engine = (*Engine)(nil)

// New creates an Engine, applying defaults for unset Config fields.
func New(cfg Config) *Engine {
	e := &Engine{
		fs:            cfg.FS,
		cacheSize:     cfg.CacheSize,
		auth:          cfg.Auth,
		defaultBranch: cfg.DefaultBranch,
		logger:        cfg.Logger,
	}

	if e.fs == nil {
		e.fs = fsbridge.NewHostFS()
	}
	if e.cacheSize == 0 {
		e.cacheSize = fsbridge.DefaultCacheSize
	}
	if e.defaultBranch == "" {
		e.defaultBranch = DefaultBranch
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return e
}

// Open opens the repository at loc.
//
//nolint:ireturn // engine.Engine is an interface.
func (e *Engine) Open(ctx context.Context, loc engine.Location) (engine.Repository, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	storage, worktreeFS, err := e.layout(loc.MetadataDir, loc.Worktree)
	if err != nil {
		return nil, err
	}

	repo, err := git.Open(storage, worktreeFS)
	if err != nil {
		_ = storage.Close()
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", engine.ErrNotFound, loc.MetadataDir)
		}
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	r, err := e.wrap(repo, storage)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("opened repository", "metadata", loc.MetadataDir, "worktree", loc.Worktree)
	return r, nil
}

// Init creates a repository in dir. Non-bare repositories keep their
// metadata in dir/.git.
//
//nolint:ireturn // engine.Engine is an interface.
func (e *Engine) Init(ctx context.Context, dir string, bare bool) (engine.Repository, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	loc := locationFor(dir, bare)
	storage, worktreeFS, err := e.layout(loc.MetadataDir, loc.Worktree)
	if err != nil {
		return nil, err
	}

	repo, err := git.InitWithOptions(storage, worktreeFS, git.InitOptions{
		DefaultBranch: plumbing.NewBranchReferenceName(e.defaultBranch),
	})
	if err != nil {
		_ = storage.Close()
		if errors.Is(err, git.ErrRepositoryAlreadyExists) {
			return nil, fmt.Errorf("%w: repository already exists at %s", engine.ErrConflict, dir)
		}
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}

	r, err := e.wrap(repo, storage)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("initialized repository", "dir", dir, "bare", bare)
	return r, nil
}

// Clone clones spec.URL into spec.Dir.
//
//nolint:ireturn // engine.Engine is an interface.
func (e *Engine) Clone(ctx context.Context, spec engine.CloneSpec) (engine.Repository, error) {
	loc := locationFor(spec.Dir, spec.Bare)
	storage, worktreeFS, err := e.layout(loc.MetadataDir, loc.Worktree)
	if err != nil {
		return nil, err
	}

	authMethod, err := authFor(e.auth, spec.URL)
	if err != nil {
		_ = storage.Close()
		return nil, err
	}

	cloneOpts := &git.CloneOptions{
		URL:          spec.URL,
		RemoteName:   spec.RemoteName,
		Auth:         authMethod,
		Depth:        spec.Depth,
		SingleBranch: spec.Depth > 0,
	}
	if spec.RemoteBranch != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(spec.RemoteBranch)
	}

	e.logger.Debug("cloning", "url", spec.URL, "dir", spec.Dir, "branch", spec.RemoteBranch)

	repo, err := git.CloneContext(ctx, storage, worktreeFS, cloneOpts)
	if err != nil {
		_ = storage.Close()
		switch {
		case errors.Is(err, git.ErrRepositoryAlreadyExists):
			return nil, fmt.Errorf("%w: repository already exists at %s", engine.ErrConflict, spec.Dir)
		case errors.Is(err, plumbing.ErrReferenceNotFound), errors.Is(err, git.NoMatchingRefSpecError{}):
			return nil, fmt.Errorf("%w: remote branch %q: %w", engine.ErrUnresolvable, spec.RemoteBranch, err)
		default:
			return nil, transportError(err)
		}
	}

	r, err := e.wrap(repo, storage)
	if err != nil {
		return nil, err
	}

	if spec.LocalBranch != "" && spec.LocalBranch != spec.RemoteBranch && spec.RemoteBranch != "" {
		if err := r.renameClonedBranch(spec.RemoteName, spec.RemoteBranch, spec.LocalBranch); err != nil {
			_ = r.Close()
			return nil, err
		}
	}

	return r, nil
}

// layout builds storage and worktree filesystems for a location.
func (e *Engine) layout(metadataDir, worktree string) (*filesystem.Storage, billy.Filesystem, error) {
	metaFS, err := e.fs.Chroot(metadataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to chroot to %q: %w", metadataDir, err)
	}

	var worktreeFS billy.Filesystem
	if worktree != "" {
		worktreeFS, err = e.fs.Chroot(worktree)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to chroot to %q: %w", worktree, err)
		}
	}

	return fsbridge.NewStorage(metaFS, e.cacheSize), worktreeFS, nil
}

func (e *Engine) wrap(repo *git.Repository, storage *filesystem.Storage) (*Repository, error) {
	r := &Repository{
		repo:    repo,
		storage: storage,
		auth:    e.auth,
		logger:  e.logger,
	}

	wt, err := repo.Worktree()
	switch {
	case errors.Is(err, git.ErrIsBareRepository):
	case err != nil:
		_ = storage.Close()
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	default:
		wt.Excludes = append(wt.Excludes, globalExcludes(e.fs, e.logger)...)
		r.worktree = wt
	}

	return r, nil
}

func locationFor(dir string, bare bool) engine.Location {
	if bare {
		return engine.Location{MetadataDir: dir}
	}
	return engine.Location{MetadataDir: filepath.Join(dir, ".git"), Worktree: dir}
}
