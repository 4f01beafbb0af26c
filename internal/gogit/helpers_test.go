package gogit

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/porcelain/engine"
	"github.com/input-output-hk/catalyst-forge-libs/porcelain/internal/fixture"
)

var testIdentity = &engine.Identity{Name: fixture.AuthorName, Email: fixture.AuthorEmail}

// open opens a fixture repository through the engine.
func open(t *testing.T, r *fixture.Repo) *Repository {
	t.Helper()

	repo, err := New(Config{}).Open(context.Background(), engine.Location{
		MetadataDir: filepath.Join(r.Dir, ".git"),
		Worktree:    r.Dir,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	return repo.(*Repository)
}

// collect drains a commit iterator into commit ids.
func collect(t *testing.T, iter object.CommitIter) []plumbing.Hash {
	t.Helper()

	var hashes []plumbing.Hash
	require.NoError(t, iter.ForEach(func(c *object.Commit) error {
		hashes = append(hashes, c.Hash)
		return nil
	}))
	return hashes
}
