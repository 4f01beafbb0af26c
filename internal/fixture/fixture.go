// Package fixture builds throwaway repositories for tests. Every repository
// lives in its own t.TempDir(); nothing is shared between tests.
package fixture

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// Epoch is the timestamp of the first fixture commit. Each later commit is one
// minute newer so history order is deterministic.
var Epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// Author is the identity fixture commits are made with.
const (
	AuthorName  = "Test User"
	AuthorEmail = "test@example.com"
)

// Repo is a non-bare repository on the host filesystem.
type Repo struct {
	Dir  string
	Repo *git.Repository

	// Commits holds the commits made through the fixture, oldest first.
	Commits []plumbing.Hash
}

// NewRepo initializes an empty repository in a fresh temporary directory.
func NewRepo(t testing.TB) *Repo {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	return &Repo{Dir: dir, Repo: repo}
}

// NewSeed initializes a repository with n commits on master. Commit i writes
// file.txt with content "content i".
func NewSeed(t testing.TB, n int) *Repo {
	t.Helper()

	r := NewRepo(t)
	for i := 1; i <= n; i++ {
		r.Commit(t, "file.txt", fmt.Sprintf("content %d", i), fmt.Sprintf("commit %d", i))
	}
	return r
}

// NewBare initializes an empty bare repository in a fresh temporary directory.
func NewBare(t testing.TB) string {
	t.Helper()

	dir := t.TempDir()
	_, err := git.PlainInit(dir, true)
	require.NoError(t, err)
	return dir
}

// URL returns the address other repositories clone this one from.
func (r *Repo) URL() string {
	return r.Dir
}

// Signature returns the signature of the next fixture commit.
func (r *Repo) Signature() *object.Signature {
	return &object.Signature{
		Name:  AuthorName,
		Email: AuthorEmail,
		When:  Epoch.Add(time.Duration(len(r.Commits)) * time.Minute),
	}
}

// Write writes content to a path relative to the working directory.
func (r *Repo) Write(t testing.TB, path, content string) {
	t.Helper()

	full := filepath.Join(r.Dir, path)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

// Commit writes path, stages it and commits. It returns the new commit id.
func (r *Repo) Commit(t testing.TB, path, content, msg string) plumbing.Hash {
	t.Helper()

	r.Write(t, path, content)

	wt, err := r.Repo.Worktree()
	require.NoError(t, err)

	_, err = wt.Add(path)
	require.NoError(t, err)

	sig := r.Signature()
	hash, err := wt.Commit(msg, &git.CommitOptions{Author: sig, Committer: sig})
	require.NoError(t, err)

	r.Commits = append(r.Commits, hash)
	return hash
}

// Branch creates refs/heads/name at the given commit.
func (r *Repo) Branch(t testing.TB, name string, at plumbing.Hash) {
	t.Helper()

	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), at)
	require.NoError(t, r.Repo.Storer.SetReference(ref))
}

// Tag creates a lightweight tag at the given commit.
func (r *Repo) Tag(t testing.TB, name string, at plumbing.Hash) {
	t.Helper()

	_, err := r.Repo.CreateTag(name, at, nil)
	require.NoError(t, err)
}

// Checkout switches the working tree to an existing branch.
func (r *Repo) Checkout(t testing.TB, branch string) {
	t.Helper()

	wt, err := r.Repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(branch)}))
}

// Head returns the commit HEAD points at.
func (r *Repo) Head(t testing.TB) plumbing.Hash {
	t.Helper()

	head, err := r.Repo.Head()
	require.NoError(t, err)
	return head.Hash()
}

// RefHash returns the commit a reference points at.
func (r *Repo) RefHash(t testing.TB, name plumbing.ReferenceName) plumbing.Hash {
	t.Helper()

	ref, err := r.Repo.Reference(name, true)
	require.NoError(t, err)
	return ref.Hash()
}

// Merge writes path and commits it with HEAD and other as parents.
func (r *Repo) Merge(t testing.TB, other plumbing.Hash, path, content, msg string) plumbing.Hash {
	t.Helper()

	r.Write(t, path, content)

	wt, err := r.Repo.Worktree()
	require.NoError(t, err)

	_, err = wt.Add(path)
	require.NoError(t, err)

	sig := r.Signature()
	hash, err := wt.Commit(msg, &git.CommitOptions{
		Author:    sig,
		Committer: sig,
		Parents:   []plumbing.Hash{r.Head(t), other},
	})
	require.NoError(t, err)

	r.Commits = append(r.Commits, hash)
	return hash
}

// Untrack drops path from the index and leaves the file on disk.
func (r *Repo) Untrack(t testing.TB, path string) {
	t.Helper()

	idx, err := r.Repo.Storer.Index()
	require.NoError(t, err)

	_, err = idx.Remove(path)
	require.NoError(t, err)
	require.NoError(t, r.Repo.Storer.SetIndex(idx))
}
