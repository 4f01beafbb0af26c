package porcelain

import (
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/input-output-hk/catalyst-forge-libs/porcelain/engine"
	"github.com/input-output-hk/catalyst-forge-libs/porcelain/internal/fsbridge"
)

// Locate resolves path to a repository location on fsys.
//
// A path ending in ".git" is taken as the metadata directory itself; when its
// base name is exactly ".git" the parent directory is the working tree,
// otherwise the repository is bare. Any other path is probed for a .git
// directory, then for a refs directory marking a bare repository. A path that
// matches none of these fails with ErrNotFound naming the original path.
func Locate(fsys billy.Filesystem, path string) (engine.Location, error) {
	if path == "" {
		return engine.Location{}, WrapError(ErrEmptyInput, "repository path")
	}

	p, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return engine.Location{}, WrapErrorf(ErrNotFound, "%s", path)
	}

	if strings.HasSuffix(p, ".git") {
		if ok, err := fsbridge.Exists(fsys, p); err != nil || !ok {
			return engine.Location{}, WrapErrorf(ErrNotFound, "%s", path)
		}
		if filepath.Base(p) == ".git" {
			return engine.Location{MetadataDir: p, Worktree: filepath.Dir(p)}, nil
		}
		return engine.Location{MetadataDir: p}, nil
	}

	dotGit := filepath.Join(p, ".git")
	if ok, _ := fsbridge.Exists(fsys, dotGit); ok {
		return engine.Location{MetadataDir: dotGit, Worktree: p}, nil
	}

	if ok, _ := fsbridge.Exists(fsys, filepath.Join(p, "refs")); ok {
		return engine.Location{MetadataDir: p}, nil
	}

	return engine.Location{}, WrapErrorf(ErrNotFound, "%s", path)
}
