package porcelain

import (
	"context"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/porcelain/internal/fixture"
)

func TestBranchAttached(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{raw: "refs/heads/main", want: true},
		{raw: "refs/heads/feature/x", want: true},
		{raw: "refs/remotes/origin/main", want: false},
		{raw: "0123456789abcdef0123456789abcdef01234567", want: false},
		{raw: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, BranchAttached(tt.raw))
		})
	}
}

func TestCurrentBranch(t *testing.T) {
	tests := []struct {
		name         string
		setup        func(t *testing.T) *fixture.Repo
		wantBranch   func(r *fixture.Repo) string
		wantRaw      func(r *fixture.Repo) string
		wantAttached bool
	}{
		{
			name:         "attached",
			setup:        func(t *testing.T) *fixture.Repo { return fixture.NewSeed(t, 1) },
			wantBranch:   func(*fixture.Repo) string { return "master" },
			wantRaw:      func(*fixture.Repo) string { return "refs/heads/master" },
			wantAttached: true,
		},
		{
			name: "detached",
			setup: func(t *testing.T) *fixture.Repo {
				r := fixture.NewSeed(t, 2)
				repo := openFixture(t, r)
				require.NoError(t, repo.Checkout(context.Background(), CheckoutRequest{Target: r.Commits[0].String()}))
				return r
			},
			wantBranch: func(r *fixture.Repo) string { return r.Commits[0].String() },
			wantRaw:    func(r *fixture.Repo) string { return r.Commits[0].String() },
		},
		{
			name:         "unborn",
			setup:        func(t *testing.T) *fixture.Repo { return fixture.NewRepo(t) },
			wantBranch:   func(*fixture.Repo) string { return "master" },
			wantRaw:      func(*fixture.Repo) string { return "refs/heads/master" },
			wantAttached: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed := tt.setup(t)
			repo := openFixture(t, seed)
			ctx := context.Background()

			branch, err := repo.CurrentBranch(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBranch(seed), branch)

			raw, err := repo.CurrentBranchRef(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRaw(seed), raw)

			attached, err := repo.Attached(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAttached, attached)
			assert.Equal(t, BranchAttached(raw), attached)
		})
	}
}

func TestCreateBranch(t *testing.T) {
	tests := []struct {
		name    string
		req     func(r *fixture.Repo) BranchRequest
		want    func(r *fixture.Repo) plumbing.Hash
		wantErr error
	}{
		{
			name: "defaults to HEAD",
			req:  func(*fixture.Repo) BranchRequest { return BranchRequest{Name: "feature"} },
			want: func(r *fixture.Repo) plumbing.Hash { return r.Commits[1] },
		},
		{
			name: "start point",
			req:  func(*fixture.Repo) BranchRequest { return BranchRequest{Name: "feature", StartPoint: "HEAD~1"} },
			want: func(r *fixture.Repo) plumbing.Hash { return r.Commits[0] },
		},
		{
			name:    "existing without force",
			req:     func(*fixture.Repo) BranchRequest { return BranchRequest{Name: "existing", StartPoint: "HEAD"} },
			want:    func(r *fixture.Repo) plumbing.Hash { return r.Commits[0] },
			wantErr: ErrConflict,
		},
		{
			name: "existing with force",
			req: func(*fixture.Repo) BranchRequest {
				return BranchRequest{Name: "existing", StartPoint: "HEAD", Force: true}
			},
			want: func(r *fixture.Repo) plumbing.Hash { return r.Commits[1] },
		},
		{
			name:    "empty name",
			req:     func(*fixture.Repo) BranchRequest { return BranchRequest{Name: " "} },
			wantErr: ErrEmptyInput,
		},
		{
			name:    "unresolvable start point",
			req:     func(*fixture.Repo) BranchRequest { return BranchRequest{Name: "x", StartPoint: "nope"} },
			wantErr: ErrUnresolvable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed := fixture.NewSeed(t, 2)
			seed.Branch(t, "existing", seed.Commits[0])
			repo := openFixture(t, seed)
			req := tt.req(seed)

			err := repo.CreateBranch(context.Background(), req)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			if tt.want != nil {
				assert.Equal(t, tt.want(seed), seed.RefHash(t, plumbing.NewBranchReferenceName(req.Name)))
			}
		})
	}
}

func TestCheckoutCurrentBranchRoundTrip(t *testing.T) {
	seed := fixture.NewSeed(t, 2)
	repo := openFixture(t, seed)
	ctx := context.Background()

	for _, name := range []string{"alpha", "feature/beta"} {
		require.NoError(t, repo.CreateBranch(ctx, BranchRequest{Name: name, StartPoint: "HEAD~1"}))
		require.NoError(t, repo.Checkout(ctx, CheckoutRequest{Target: name}))

		current, err := repo.CurrentBranch(ctx)
		require.NoError(t, err)
		assert.Equal(t, name, current)
		assert.Equal(t, seed.Commits[0], seed.Head(t))
	}

	require.NoError(t, repo.Checkout(ctx, CheckoutRequest{Target: "master"}))
	current, err := repo.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "master", current)
}

func TestCheckout(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(t *testing.T, r *fixture.Repo)
		req        CheckoutRequest
		wantErr    error
		wantBranch string
	}{
		{
			name:       "create branch",
			req:        CheckoutRequest{Target: "new", CreateBranch: true},
			wantBranch: "new",
		},
		{
			name:       "create branch at start point",
			req:        CheckoutRequest{Target: "new", CreateBranch: true, StartPoint: "HEAD~1"},
			wantBranch: "new",
		},
		{
			name:    "create existing branch",
			req:     CheckoutRequest{Target: "master", CreateBranch: true},
			wantErr: ErrConflict,
		},
		{
			name: "tag detaches",
			setup: func(t *testing.T, r *fixture.Repo) {
				r.Tag(t, "v1", r.Commits[0])
			},
			req: CheckoutRequest{Target: "v1"},
		},
		{
			name:    "unknown target",
			req:     CheckoutRequest{Target: "nope"},
			wantErr: ErrUnresolvable,
		},
		{
			name:    "empty target",
			req:     CheckoutRequest{},
			wantErr: ErrEmptyInput,
		},
		{
			name: "dirty tree without force",
			setup: func(t *testing.T, r *fixture.Repo) {
				r.Branch(t, "old", r.Commits[0])
				r.Write(t, "file.txt", "dirty")
			},
			req:     CheckoutRequest{Target: "old"},
			wantErr: ErrConflict,
		},
		{
			name: "dirty tree with force",
			setup: func(t *testing.T, r *fixture.Repo) {
				r.Branch(t, "old", r.Commits[0])
				r.Write(t, "file.txt", "dirty")
			},
			req:        CheckoutRequest{Target: "old", Force: true},
			wantBranch: "old",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed := fixture.NewSeed(t, 2)
			if tt.setup != nil {
				tt.setup(t, seed)
			}
			repo := openFixture(t, seed)
			ctx := context.Background()

			err := repo.Checkout(ctx, tt.req)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			attached, err := repo.Attached(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBranch != "", attached)

			if tt.wantBranch != "" {
				current, err := repo.CurrentBranch(ctx)
				require.NoError(t, err)
				assert.Equal(t, tt.wantBranch, current)
			}
		})
	}
}

func TestDeleteBranches(t *testing.T) {
	seed := fixture.NewSeed(t, 2)
	seed.Branch(t, "merged", seed.Commits[0])
	seed.Branch(t, "also-merged", seed.Commits[1])
	repo := openFixture(t, seed)
	ctx := context.Background()

	_, err := repo.DeleteBranches(ctx, nil, false)
	require.ErrorIs(t, err, ErrEmptyInput)

	_, err = repo.DeleteBranches(ctx, []string{"merged", "master"}, false)
	require.ErrorIs(t, err, ErrConflict)

	deleted, err := repo.DeleteBranches(ctx, []string{"merged", "also-merged"}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"merged", "also-merged"}, deleted)

	branches, err := repo.BranchList(ctx, BranchLocal)
	require.NoError(t, err)
	require.Len(t, branches, 1)
	assert.Equal(t, "master", branches[0].Name)
}
