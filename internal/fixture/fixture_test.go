package fixture

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeed(t *testing.T) {
	seed := NewSeed(t, 3)

	require.Len(t, seed.Commits, 3)
	assert.Equal(t, seed.Commits[2], seed.Head(t))
	assert.Equal(t, seed.Commits[2], seed.RefHash(t, plumbing.Master))

	c, err := seed.Repo.CommitObject(seed.Commits[1])
	require.NoError(t, err)
	assert.Equal(t, "commit 2", c.Message)
	assert.Equal(t, Epoch.Add(time.Minute).Unix(), c.Committer.When.Unix())
}

func TestInstallFileTransport(t *testing.T) {
	InstallFileTransport()
	InstallFileTransport()

	seed := NewSeed(t, 2)
	seed.Tag(t, "v1", seed.Commits[0])

	tests := []struct {
		name string
		url  string
	}{
		{name: "working directory", url: seed.URL()},
		{name: "metadata directory", url: filepath.Join(seed.Dir, ".git")},
		{name: "file scheme", url: "file://" + seed.Dir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clone, err := git.PlainClone(t.TempDir(), false, &git.CloneOptions{URL: tt.url})
			require.NoError(t, err)

			head, err := clone.Head()
			require.NoError(t, err)
			assert.Equal(t, seed.Commits[1], head.Hash())

			tag, err := clone.Tag("v1")
			require.NoError(t, err)
			assert.Equal(t, seed.Commits[0], tag.Hash())
		})
	}
}

func TestLoaderRejectsNonRepository(t *testing.T) {
	InstallFileTransport()

	_, err := git.PlainClone(t.TempDir(), false, &git.CloneOptions{URL: t.TempDir()})
	require.Error(t, err)
}
