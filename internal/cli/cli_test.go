package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/porcelain"
	"github.com/input-output-hk/catalyst-forge-libs/porcelain/internal/fixture"
)

// writeConfig writes a configuration file with a fixed identity.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := fmt.Sprintf("identity:\n  name: %s\n  email: %s\n%s", fixture.AuthorName, fixture.AuthorEmail, extra)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

// run executes the command tree and returns stdout.
func run(t *testing.T, cfg string, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd("test")
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", cfg}, args...))

	err := cmd.Execute()
	return stdout.String(), err
}

func lines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{errors.New("boom"), ExitFailure},
		{porcelain.ErrInvalidOption, ExitUsage},
		{porcelain.ErrEmptyInput, ExitUsage},
		{porcelain.ErrNotFound, ExitNotFound},
		{porcelain.ErrUnresolvable, ExitNotFound},
		{porcelain.ErrConflict, ExitConflict},
		{porcelain.ErrNothingToCommit, ExitNothingToDo},
		{fmt.Errorf("%w: %w", porcelain.ErrTransport, porcelain.ErrAuthRequired), ExitTransport},
		{porcelain.ErrInvalidState, ExitInvalidState},
		{&porcelain.StepError{Op: "clone-full", Step: porcelain.StepMerge, Err: porcelain.ErrConflict}, ExitConflict},
		{porcelain.ErrNotImplemented, ExitNotImplemented},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExitCode(tt.err), "%v", tt.err)
	}
}

func TestParseIdentity(t *testing.T) {
	id, err := parseIdentity("Jane Doe <jane@example.com>")
	require.NoError(t, err)
	assert.Equal(t, &porcelain.Identity{Name: "Jane Doe", Email: "jane@example.com"}, id)

	id, err = parseIdentity("")
	require.NoError(t, err)
	assert.Nil(t, id)

	_, err = parseIdentity("jane@example.com")
	require.ErrorIs(t, err, porcelain.ErrInvalidOption)
}

func TestInitCommitLog(t *testing.T) {
	cfg := writeConfig(t, "")
	dir := t.TempDir()

	out, err := run(t, cfg, "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, ".git"))

	_, err = run(t, cfg, "-C", dir, "commit", "-m", "empty")
	require.ErrorIs(t, err, porcelain.ErrNothingToCommit)
	assert.Equal(t, ExitNothingToDo, ExitCode(err))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o600))

	out, err = run(t, cfg, "-C", dir, "status")
	require.NoError(t, err)
	assert.Equal(t, "untracked\ta.txt\n", out)

	out, err = run(t, cfg, "-C", dir, "status", "--category", "modified")
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = run(t, cfg, "-C", dir, "status", "--category", "staged")
	require.ErrorIs(t, err, porcelain.ErrInvalidOption)

	_, err = run(t, cfg, "-C", dir, "add", "a.txt")
	require.NoError(t, err)

	hash, err := run(t, cfg, "-C", dir, "commit", "-m", "initial")
	require.NoError(t, err)

	out, err = run(t, cfg, "-C", dir, "log")
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(hash)+" initial\n", out)
}

func TestBranchCommands(t *testing.T) {
	seed := fixture.NewSeed(t, 2)
	cfg := writeConfig(t, "")

	_, err := run(t, cfg, "-C", seed.Dir, "branch", "create", "feature", seed.Commits[0].String())
	require.NoError(t, err)

	out, err := run(t, cfg, "-C", seed.Dir, "branch", "list")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"  feature " + seed.Commits[0].String(),
		"* master " + seed.Commits[1].String(),
	}, lines(out))

	out, err = run(t, cfg, "-C", seed.Dir, "checkout", "feature")
	require.NoError(t, err)
	assert.Equal(t, "Checked out feature\n", out)

	out, err = run(t, cfg, "-C", seed.Dir, "branch", "current", "--raw")
	require.NoError(t, err)
	assert.Equal(t, "refs/heads/feature\n", out)

	_, err = run(t, cfg, "-C", seed.Dir, "branch", "delete", "feature")
	require.ErrorIs(t, err, porcelain.ErrConflict)

	_, err = run(t, cfg, "-C", seed.Dir, "checkout", "master")
	require.NoError(t, err)

	out, err = run(t, cfg, "-C", seed.Dir, "branch", "delete", "feature")
	require.NoError(t, err)
	assert.Equal(t, "Deleted branch feature\n", out)

	_, err = run(t, cfg, "-C", seed.Dir, "branch", "list", "--mode", "everything")
	require.ErrorIs(t, err, porcelain.ErrInvalidOption)
}

func TestLogCommand(t *testing.T) {
	seed := fixture.NewSeed(t, 3)
	cfg := writeConfig(t, "")

	out, err := run(t, cfg, "-C", seed.Dir, "log", "-n", "2")
	require.NoError(t, err)
	assert.Equal(t, []string{
		seed.Commits[2].String() + " commit 3",
		seed.Commits[1].String() + " commit 2",
	}, lines(out))

	out, err = run(t, cfg, "-C", seed.Dir, "log", seed.Commits[1].String(), "HEAD")
	require.NoError(t, err)
	assert.Equal(t, []string{seed.Commits[2].String() + " commit 3"}, lines(out))

	_, err = run(t, cfg, "-C", seed.Dir, "log", "a", "b", "c")
	require.ErrorIs(t, err, porcelain.ErrInvalidOption)

	notes := seed.Commit(t, "notes/todo.txt", "todo", "add notes")
	out, err = run(t, cfg, "-C", seed.Dir, "log", "--", "notes")
	require.NoError(t, err)
	assert.Equal(t, []string{notes.String() + " add notes"}, lines(out))

	out, err = run(t, cfg, "-C", seed.Dir, "log", seed.Commits[0].String(), "HEAD", "--", "file.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{
		seed.Commits[2].String() + " commit 3",
		seed.Commits[1].String() + " commit 2",
	}, lines(out))
}

func TestCommitCommand(t *testing.T) {
	seed := fixture.NewSeed(t, 1)
	cfg := writeConfig(t, "conventional_commits: true\n")
	seed.Write(t, "file.txt", "changed")

	_, err := run(t, cfg, "-C", seed.Dir, "commit", "-a", "-m", "changed things")
	require.ErrorIs(t, err, porcelain.ErrInvalidOption)

	out, err := run(t, cfg, "-C", seed.Dir, "commit", "-a", "-m", "fix: change file", "--author", "Jane Doe <jane@example.com>")
	require.NoError(t, err)
	assert.Equal(t, seed.Head(t).String()+"\n", out)

	c, err := seed.Repo.CommitObject(seed.Head(t))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", c.Author.Name)
}

func TestRemoteCommands(t *testing.T) {
	fixture.InstallFileTransport()
	upstream := fixture.NewSeed(t, 1)
	upstream.Tag(t, "v1", upstream.Commits[0])
	cfg := writeConfig(t, "")
	dir := filepath.Join(t.TempDir(), "clone")

	out, err := run(t, cfg, "clone", "--full", upstream.URL(), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "fast-forward "+upstream.Commits[0].String())

	out, err = run(t, cfg, "-C", dir, "remote")
	require.NoError(t, err)
	assert.Equal(t, "origin\t"+upstream.URL()+"\n", out)

	out, err = run(t, cfg, "-C", dir, "ls-remote", "--tags")
	require.NoError(t, err)
	assert.Equal(t, upstream.Commits[0].String()+"\trefs/tags/v1\n", out)

	next := upstream.Commit(t, "file.txt", "next", "next")

	out, err = run(t, cfg, "-C", dir, "fetch")
	require.NoError(t, err)
	assert.Contains(t, out, "origin/master")

	out, err = run(t, cfg, "-C", dir, "merge", "origin/master")
	require.NoError(t, err)
	assert.Equal(t, "fast-forward "+next.String()+"\n", out)

	_, err = run(t, cfg, "clone", "--full", filepath.Join(t.TempDir(), "missing"), filepath.Join(t.TempDir(), "x"))
	var stepErr *porcelain.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, porcelain.StepClone, stepErr.Step)
	assert.Equal(t, ExitTransport, ExitCode(err))
}

func TestOpenMissingRepository(t *testing.T) {
	_, err := run(t, writeConfig(t, ""), "-C", t.TempDir(), "status")
	require.ErrorIs(t, err, porcelain.ErrNotFound)
	assert.Equal(t, ExitNotFound, ExitCode(err))
}

func TestInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bogus: true\n"), 0o600))

	_, err := run(t, path, "status")
	require.ErrorIs(t, err, porcelain.ErrInvalidOption)
}

func TestLogFileClosedOnFailure(t *testing.T) {
	seed := fixture.NewSeed(t, 1)
	logFile := filepath.Join(t.TempDir(), "porcelain.log")
	cfg := writeConfig(t, fmt.Sprintf("log:\n  file: %s\n", logFile))

	a := &app{}
	cmd := newRootCmd(a, "test")
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", cfg, "-v", "-C", seed.Dir, "commit", "-m", "nothing here"})

	err := cmd.Execute()
	require.ErrorIs(t, err, porcelain.ErrNothingToCommit)
	assert.Nil(t, a.closer)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "opened repository")
}
