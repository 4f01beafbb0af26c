package porcelain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/porcelain/engine"
	"github.com/input-output-hk/catalyst-forge-libs/porcelain/internal/fixture"
	"github.com/input-output-hk/catalyst-forge-libs/porcelain/internal/gogit"
)

var testIdentity = &Identity{Name: fixture.AuthorName, Email: fixture.AuthorEmail}

// testOptions returns options with a fixed identity.
func testOptions() *Options {
	return &Options{DefaultIdentity: testIdentity}
}

// openFixture opens a fixture repository through the porcelain.
func openFixture(t *testing.T, r *fixture.Repo) *Repo {
	t.Helper()

	repo, err := Open(context.Background(), r.Dir, testOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

// countingEngine wraps the go-git engine and counts status queries on the
// repositories it opens.
type countingEngine struct {
	engine.Engine
	statusCalls int
}

func newCountingEngine() *countingEngine {
	return &countingEngine{Engine: gogit.New(gogit.Config{})}
}

//nolint:ireturn // engine.Engine is an interface.
func (e *countingEngine) Open(ctx context.Context, loc engine.Location) (engine.Repository, error) {
	repo, err := e.Engine.Open(ctx, loc)
	if err != nil {
		return nil, err
	}
	return &countingRepo{Repository: repo, engine: e}, nil
}

type countingRepo struct {
	engine.Repository
	engine *countingEngine
}

func (r *countingRepo) Status(ctx context.Context) (engine.StatusReport, error) {
	r.engine.statusCalls++
	return r.Repository.Status(ctx)
}
