package gogit

import (
	"errors"
	"io"

	"github.com/emirpasic/gods/trees/binaryheap"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// walkState tracks a commit the range walk has reached.
type walkState struct {
	commit        *object.Commit
	uninteresting bool
	queued        bool
}

// walkItem is a queue entry. The flag is the state at push time and only
// breaks committer-time ties.
type walkItem struct {
	commit        *object.Commit
	uninteresting bool
}

// rangeIter yields commits reachable from a tip but not from a base, newest
// first. Both sides are walked together in committer-time order and the walk
// ends once every queued commit is reachable from the base, so history below
// the merge base is never loaded.
type rangeIter struct {
	store       storer.EncodedObjectStorer
	queue       *binaryheap.Heap
	states      map[plumbing.Hash]*walkState
	interesting int
}

var _ object.CommitIter = (*rangeIter)(nil)

func newRangeIter(store storer.EncodedObjectStorer, tip, base *object.Commit) *rangeIter {
	it := &rangeIter{
		store:  store,
		queue:  binaryheap.NewWith(newestFirst),
		states: make(map[plumbing.Hash]*walkState),
	}
	it.push(base, true)
	it.push(tip, false)
	return it
}

// newestFirst orders by committer time, descending. On equal times commits
// reachable from the base come first so they mark their parents in time.
func newestFirst(a, b interface{}) int {
	x, y := a.(walkItem), b.(walkItem)
	xt, yt := x.commit.Committer.When, y.commit.Committer.When

	switch {
	case xt.After(yt):
		return -1
	case xt.Before(yt):
		return 1
	case x.uninteresting && !y.uninteresting:
		return -1
	case !x.uninteresting && y.uninteresting:
		return 1
	default:
		return 0
	}
}

func (it *rangeIter) push(c *object.Commit, uninteresting bool) {
	if _, ok := it.states[c.Hash]; ok {
		return
	}

	it.states[c.Hash] = &walkState{commit: c, uninteresting: uninteresting, queued: true}
	if !uninteresting {
		it.interesting++
	}
	it.queue.Push(walkItem{commit: c, uninteresting: uninteresting})
}

func (it *rangeIter) Next() (*object.Commit, error) {
	for it.interesting > 0 {
		v, ok := it.queue.Pop()
		if !ok {
			break
		}

		st := it.states[v.(walkItem).commit.Hash]
		st.queued = false

		if st.uninteresting {
			for _, parent := range st.commit.ParentHashes {
				if err := it.markUninteresting(parent); err != nil {
					return nil, err
				}
			}
			continue
		}

		it.interesting--
		for _, parent := range st.commit.ParentHashes {
			if _, ok := it.states[parent]; ok {
				continue
			}
			c, err := it.load(parent)
			if err != nil {
				return nil, err
			}
			if c != nil {
				it.push(c, false)
			}
		}
		return st.commit, nil
	}

	return nil, io.EOF
}

// markUninteresting flags hash as reachable from the base. A commit already
// emitted because of clock skew still passes the flag on to its ancestors.
func (it *rangeIter) markUninteresting(hash plumbing.Hash) error {
	st, ok := it.states[hash]
	if !ok {
		c, err := it.load(hash)
		if err != nil || c == nil {
			return err
		}
		it.push(c, true)
		return nil
	}

	if st.uninteresting {
		return nil
	}
	st.uninteresting = true

	if st.queued {
		it.interesting--
		return nil
	}

	for _, parent := range st.commit.ParentHashes {
		if err := it.markUninteresting(parent); err != nil {
			return err
		}
	}
	return nil
}

// load reads a commit. Parents missing from a shallow clone yield nil.
func (it *rangeIter) load(hash plumbing.Hash) (*object.Commit, error) {
	c, err := object.GetCommit(it.store, hash)
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return nil, nil
	}
	return c, err
}

func (it *rangeIter) ForEach(fn func(*object.Commit) error) error {
	for {
		c, err := it.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := fn(c); err != nil {
			if errors.Is(err, storer.ErrStop) {
				return nil
			}
			return err
		}
	}
}

func (it *rangeIter) Close() {
	it.queue.Clear()
}
