package gogit

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/input-output-hk/catalyst-forge-libs/porcelain/engine"
)

// Log walks history from tip in committer-time order, newest first.
//
//nolint:ireturn // object.CommitIter is go-git's iterator interface.
func (r *Repository) Log(ctx context.Context, tip plumbing.Hash) (object.CommitIter, error) {
	return r.LogRange(ctx, plumbing.ZeroHash, tip)
}

// LogRange walks commits reachable from to but not from from. A zero from
// walks everything reachable from to.
//
//nolint:ireturn // object.CommitIter is go-git's iterator interface.
func (r *Repository) LogRange(ctx context.Context, from, to plumbing.Hash) (object.CommitIter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tip, err := r.commit(to)
	if err != nil {
		return nil, err
	}

	var iter object.CommitIter
	if from.IsZero() {
		iter = object.NewCommitIterCTime(tip, nil, nil)
	} else {
		base, err := r.commit(from)
		if err != nil {
			return nil, err
		}
		iter = newRangeIter(r.repo.Storer, tip, base)
	}

	r.logger.Debug("walking history", "from", from, "to", to)
	return &contextCommitIter{ctx: ctx, iter: iter}, nil
}

func (r *Repository) commit(hash plumbing.Hash) (*object.Commit, error) {
	c, err := r.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("%w: commit %s: %w", engine.ErrUnresolvable, hash, err)
	}
	return c, nil
}

// contextCommitIter stops iteration once ctx is done.
type contextCommitIter struct {
	ctx  context.Context //nolint:containedctx // iteration is lazy and outlives the call
	iter object.CommitIter
}

func (c *contextCommitIter) Next() (*object.Commit, error) {
	if err := c.ctx.Err(); err != nil {
		return nil, err
	}
	return c.iter.Next()
}

func (c *contextCommitIter) ForEach(fn func(*object.Commit) error) error {
	defer c.Close()

	for {
		commit, err := c.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := fn(commit); err != nil {
			if errors.Is(err, storer.ErrStop) {
				return nil
			}
			return err
		}
	}
}

func (c *contextCommitIter) Close() {
	c.iter.Close()
}
