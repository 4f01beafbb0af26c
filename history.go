package porcelain

import (
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// ZeroCommitish is the all-zero commit id. As the start of a LogRange it means
// "unbounded": the walk covers everything reachable from the end point.
const ZeroCommitish = "0000000000000000000000000000000000000000"

// LogRange selects the commits a Log call returns.
type LogRange struct {
	// From excludes commits reachable from it. Empty or ZeroCommitish walks
	// the whole history of To.
	From string

	// To is the tip of the walk. Defaults to HEAD.
	To string

	// Author keeps commits whose author or committer name or email
	// contains it.
	Author string

	// Since and Until bound the committer time, inclusive.
	Since *time.Time
	Until *time.Time

	// Paths keeps commits that change a file at or below one of the paths,
	// given relative to the worktree root with forward slashes. A merge is kept
	// only when it differs from every parent.
	Paths []string

	// MaxCount limits the number of commits returned.
	// If 0, all matching commits are returned.
	MaxCount int
}

// BuildLogRange builds a LogRange from zero, one or two endpoints:
// no endpoints walks HEAD, one walks that tip, and (a, b) walks commits
// reachable from b but not from a. More than two endpoints fail with
// ErrInvalidOption.
func BuildLogRange(endpoints ...string) (LogRange, error) {
	switch len(endpoints) {
	case 0:
		return LogRange{}, nil
	case 1:
		return LogRange{To: endpoints[0]}, nil
	case 2:
		return LogRange{From: endpoints[0], To: endpoints[1]}, nil
	default:
		return LogRange{}, WrapErrorf(ErrInvalidOption, "log accepts at most two endpoints, got %d", len(endpoints))
	}
}

// matcher returns the commit predicate for the range's filters, or nil when
// every commit matches.
func (l LogRange) matcher() func(*object.Commit) (bool, error) {
	paths := cleanPaths(l.Paths)
	if l.Author == "" && l.Since == nil && l.Until == nil && len(paths) == 0 {
		return nil
	}

	return func(c *object.Commit) (bool, error) {
		if l.Author != "" && !signedBy(c, l.Author) {
			return false, nil
		}
		when := c.Committer.When
		if l.Since != nil && when.Before(*l.Since) {
			return false, nil
		}
		if l.Until != nil && when.After(*l.Until) {
			return false, nil
		}
		if len(paths) > 0 {
			return touches(c, paths)
		}
		return true, nil
	}
}

// cleanPaths normalizes path filters. A filter naming the root drops the
// path filter entirely.
func cleanPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		p = path.Clean(filepath.ToSlash(p))
		p = strings.TrimPrefix(p, "/")
		if p == "." || p == "" {
			return nil
		}
		out = append(out, p)
	}
	return out
}

// touches reports whether c changes any of paths relative to its parents.
func touches(c *object.Commit, paths []string) (bool, error) {
	tree, err := c.Tree()
	if err != nil {
		return false, WrapErrorf(err, "failed to read tree of %s", c.Hash)
	}

	if c.NumParents() == 0 {
		for _, p := range paths {
			_, ok, err := entryHash(tree, p)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	}

	treesame := false
	err = c.Parents().ForEach(func(parent *object.Commit) error {
		parentTree, err := parent.Tree()
		if err != nil {
			return WrapErrorf(err, "failed to read tree of %s", parent.Hash)
		}

		for _, p := range paths {
			ours, inOurs, err := entryHash(tree, p)
			if err != nil {
				return err
			}
			theirs, inTheirs, err := entryHash(parentTree, p)
			if err != nil {
				return err
			}
			if inOurs != inTheirs || ours != theirs {
				return nil
			}
		}

		treesame = true
		return storer.ErrStop
	})
	if err != nil {
		return false, err
	}
	return !treesame, nil
}

// entryHash returns the blob or tree id at p, and whether p exists in tree.
func entryHash(tree *object.Tree, p string) (plumbing.Hash, bool, error) {
	entry, err := tree.FindEntry(p)
	switch {
	case errors.Is(err, object.ErrEntryNotFound), errors.Is(err, object.ErrDirectoryNotFound):
		return plumbing.ZeroHash, false, nil
	case err != nil:
		return plumbing.ZeroHash, false, WrapErrorf(err, "failed to look up %s", p)
	default:
		return entry.Hash, true, nil
	}
}

func signedBy(c *object.Commit, who string) bool {
	return strings.Contains(c.Author.Name, who) ||
		strings.Contains(c.Author.Email, who) ||
		strings.Contains(c.Committer.Name, who) ||
		strings.Contains(c.Committer.Email, who)
}

// unbounded reports whether the range has no lower bound.
func (l LogRange) unbounded() bool {
	return l.From == "" || l.From == ZeroCommitish
}

// CommitIter is a lazy, single-pass sequence of commits, newest first.
// Stop early by calling Close or by returning storer.ErrStop from ForEach.
type CommitIter struct {
	iter     object.CommitIter
	match    func(*object.Commit) (bool, error)
	maxCount int
	count    int
}

// Next returns the next commit in the iteration.
// Returns nil when iteration is complete.
func (ci *CommitIter) Next() (*object.Commit, error) {
	if ci.maxCount > 0 && ci.count >= ci.maxCount {
		return nil, nil
	}

	for {
		commit, err := ci.iter.Next()
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return nil, WrapError(err, "failed to get next commit")
		}

		if ci.match != nil {
			ok, err := ci.match(commit)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}

		ci.count++
		return commit, nil
	}
}

// ForEach executes fn for each remaining commit and closes the iterator.
// Iteration stops if fn returns an error; storer.ErrStop ends it without error.
func (ci *CommitIter) ForEach(fn func(*object.Commit) error) error {
	defer ci.Close()

	for {
		commit, err := ci.Next()
		if err != nil {
			return err
		}
		if commit == nil {
			return nil
		}

		if err := fn(commit); err != nil {
			if errors.Is(err, storer.ErrStop) {
				return nil
			}
			return err
		}
	}
}

// Close closes the iterator and releases any associated resources.
func (ci *CommitIter) Close() {
	ci.iter.Close()
}

// Log walks the history selected by rng, newest first.
// The returned CommitIter should be closed when no longer needed.
func (r *Repo) Log(ctx context.Context, rng LogRange) (*CommitIter, error) {
	if rng.MaxCount < 0 {
		return nil, WrapError(ErrInvalidOption, "MaxCount cannot be negative")
	}
	if rng.Since != nil && rng.Until != nil && rng.Since.After(*rng.Until) {
		return nil, WrapError(ErrInvalidOption, "Since is after Until")
	}

	to := rng.To
	if to == "" {
		to = plumbing.HEAD.String()
	}

	tip, err := r.repo.ResolveCommitish(ctx, to)
	if err != nil {
		return nil, WrapError(err, "failed to resolve log tip")
	}

	var iter object.CommitIter
	if rng.unbounded() {
		iter, err = r.repo.Log(ctx, tip)
	} else {
		var base plumbing.Hash
		base, err = r.repo.ResolveCommitish(ctx, rng.From)
		if err != nil {
			return nil, WrapError(err, "failed to resolve log range start")
		}
		iter, err = r.repo.LogRange(ctx, base, tip)
	}
	if err != nil {
		return nil, WrapError(err, "failed to walk history")
	}

	r.logger.Debug("log", "from", rng.From, "to", to, "author", rng.Author, "paths", rng.Paths, "max", rng.MaxCount)
	return &CommitIter{iter: iter, match: rng.matcher(), maxCount: rng.MaxCount}, nil
}
