package porcelain

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/porcelain/engine"
	"github.com/input-output-hk/catalyst-forge-libs/porcelain/internal/fixture"
	"github.com/input-output-hk/catalyst-forge-libs/porcelain/internal/fsbridge"
)

func TestLocate(t *testing.T) {
	work := fixture.NewSeed(t, 1)
	bare := fixture.NewBare(t)
	bareDotGit := filepath.Join(t.TempDir(), "project.git")
	require.NoError(t, os.MkdirAll(bareDotGit, 0o755))
	empty := t.TempDir()

	tests := []struct {
		name    string
		path    string
		want    engine.Location
		wantErr error
	}{
		{
			name: "working directory",
			path: work.Dir,
			want: engine.Location{MetadataDir: filepath.Join(work.Dir, ".git"), Worktree: work.Dir},
		},
		{
			name: "unclean path",
			path: work.Dir + "/./",
			want: engine.Location{MetadataDir: filepath.Join(work.Dir, ".git"), Worktree: work.Dir},
		},
		{
			name: "metadata directory",
			path: filepath.Join(work.Dir, ".git"),
			want: engine.Location{MetadataDir: filepath.Join(work.Dir, ".git"), Worktree: work.Dir},
		},
		{
			name: "bare by refs directory",
			path: bare,
			want: engine.Location{MetadataDir: bare},
		},
		{
			name: "bare by .git suffix",
			path: bareDotGit,
			want: engine.Location{MetadataDir: bareDotGit},
		},
		{name: "no repository", path: empty, wantErr: ErrNotFound},
		{name: "missing .git path", path: filepath.Join(empty, "nope.git"), wantErr: ErrNotFound},
		{name: "empty path", path: "", wantErr: ErrEmptyInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Locate(fsbridge.NewHostFS(), tt.path)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocateNamesOriginalPath(t *testing.T) {
	dir := t.TempDir()

	_, err := Locate(fsbridge.NewHostFS(), dir)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), dir)
}

func TestLocateMemFS(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("/srv/repo.git/refs", 0o755))
	require.NoError(t, fs.MkdirAll("/home/project/.git", 0o755))

	loc, err := Locate(fs, "/srv/repo.git")
	require.NoError(t, err)
	assert.True(t, loc.Bare())

	loc, err = Locate(fs, "/home/project")
	require.NoError(t, err)
	assert.Equal(t, "/home/project", loc.Worktree)
}

func TestOpenNotFound(t *testing.T) {
	_, err := Open(context.Background(), t.TempDir(), nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOpenBare(t *testing.T) {
	bare := fixture.NewBare(t)

	repo, err := Open(context.Background(), bare, nil)
	require.NoError(t, err)
	defer repo.Close()

	assert.True(t, repo.Bare())

	err = repo.Checkout(context.Background(), CheckoutRequest{Target: "master"})
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = repo.Commit(context.Background(), CommitRequest{Message: "x"})
	require.ErrorIs(t, err, ErrInvalidState)
}
