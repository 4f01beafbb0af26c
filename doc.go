// Package porcelain provides high-level repository operations on top of a
// version-control engine.
//
// The package sequences engine calls and normalizes their parameters. Object
// storage, ref resolution, pack transport and working-tree materialization
// belong to the engine; the default engine is go-git. Every operation either
// returns a complete result or an error; there are no partial results.
//
// # Opening Repositories
//
// Open accepts a working directory, a .git directory or a bare repository:
//
//	repo, err := porcelain.Open(ctx, "/path/to/repo", nil)
//	if err != nil {
//	    return err
//	}
//	defer repo.Close()
//
// Init creates a new repository:
//
//	repo, err := porcelain.Init(ctx, "/path/to/new", false, &porcelain.Options{
//	    DefaultIdentity: &porcelain.Identity{Name: "Jane Doe", Email: "jane@example.com"},
//	})
//
// # Branches and Checkout
//
// HEAD is either attached to a local branch or detached at a commit:
//
//	err = repo.Checkout(ctx, porcelain.CheckoutRequest{Target: "feature/x", CreateBranch: true})
//	name, err := repo.CurrentBranch(ctx)      // "feature/x"
//	raw, err := repo.CurrentBranchRef(ctx)    // "refs/heads/feature/x"
//	attached := porcelain.BranchAttached(raw) // true
//
// # Commits
//
//	err = repo.Add(ctx, "docs/*.md")
//	hash, err := repo.Commit(ctx, porcelain.CommitRequest{Message: "feat: add parser", All: true})
//
// Committing with nothing staged fails with ErrNothingToCommit unless Amend is set.
//
// # History
//
// BuildLogRange turns zero, one or two endpoints into a LogRange. A range
// starting at ZeroCommitish is the full history of its end point:
//
//	rng, err := porcelain.BuildLogRange("v1.0.0", "HEAD")
//	iter, err := repo.Log(ctx, rng)
//	defer iter.Close()
//	for {
//	    c, err := iter.Next()
//	    if err != nil || c == nil {
//	        break
//	    }
//	    fmt.Println(c.Hash, c.Message)
//	}
//
// # Remotes
//
// CloneFull clones, fetches and merges in one call. A failure in any step is
// returned as a *StepError naming the step:
//
//	res, err := porcelain.CloneFull(ctx, porcelain.CloneRequest{
//	    URL: "https://example.com/repo.git",
//	    Dir: "/tmp/repo",
//	}, nil)
//	var stepErr *porcelain.StepError
//	if errors.As(err, &stepErr) {
//	    log.Printf("failed during %s", stepErr.Step)
//	}
//
// # Error Handling
//
// Errors wrap the sentinel values declared in this package and can be
// checked with errors.Is:
//
//	if errors.Is(err, porcelain.ErrConflict) {
//	    // retry with Force
//	}
//
// # Thread Safety
//
// A Repo is not safe for concurrent mutating operations. Read-only
// operations (status, log, branch listing, ls-remote) may run concurrently.
// Callers that share a Repo across goroutines must serialize writes
// themselves. Network operations honor context cancellation; nothing is
// retried.
package porcelain
