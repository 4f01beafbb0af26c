package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/porcelain"
)

func newInitCmd(a *app) *cobra.Command {
	var bare bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create an empty repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.repoPath
			if len(args) > 0 {
				dir = args[0]
			}

			repo, err := porcelain.Init(cmd.Context(), dir, bare, a.opts)
			if err != nil {
				return err
			}
			defer repo.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Initialized repository in %s\n", repo.Location().MetadataDir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&bare, "bare", false, "Create a repository without a working tree")
	return cmd
}

func newCloneCmd(a *app) *cobra.Command {
	var (
		req  porcelain.CloneRequest
		full bool
	)

	cmd := &cobra.Command{
		Use:   "clone <url> [dir]",
		Short: "Clone a repository",
		Long: `Clone a repository.

With --full the clone is followed by a fetch and a fast-forward merge of the
remote branch. A failure reports which of the three steps failed.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.URL = args[0]
			req.Dir = a.repoPath
			if len(args) > 1 {
				req.Dir = args[1]
			}

			out := cmd.OutOrStdout()
			if !full {
				repo, err := porcelain.Clone(cmd.Context(), req, a.opts)
				if err != nil {
					return err
				}
				defer repo.Close()

				fmt.Fprintf(out, "Cloned %s into %s\n", req.URL, req.Dir)
				return nil
			}

			res, err := porcelain.CloneFull(cmd.Context(), req, a.opts)
			if err != nil {
				return err
			}
			defer res.Repo.Close()

			fmt.Fprintf(out, "Cloned %s into %s\n", req.URL, req.Dir)
			printUpdates(out, res.Fetch.Updated)
			fmt.Fprintf(out, "%s %s\n", res.Merge.Status, res.Merge.Head)
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.RemoteBranch, "branch", "b", "", "Remote branch to check out")
	cmd.Flags().StringVar(&req.LocalBranch, "local-branch", "", "Local name for the checked out branch")
	cmd.Flags().StringVarP(&req.Remote, "origin", "o", "", "Name of the remote")
	cmd.Flags().BoolVar(&req.Bare, "bare", false, "Clone without a working tree")
	cmd.Flags().BoolVar(&full, "full", false, "Fetch and merge after cloning")
	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	var names []string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show working tree status by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			categories := make([]porcelain.StatusCategory, 0, len(names))
			for _, name := range names {
				c, err := porcelain.ParseStatusCategory(name)
				if err != nil {
					return err
				}
				categories = append(categories, c)
			}

			return a.withRepo(cmd, func(ctx context.Context, repo *porcelain.Repo) error {
				snapshot, err := repo.Status(ctx, categories...)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				for _, c := range []porcelain.StatusCategory{
					porcelain.StatusAdded, porcelain.StatusChanged, porcelain.StatusMissing,
					porcelain.StatusModified, porcelain.StatusRemoved, porcelain.StatusUntracked,
				} {
					for _, p := range snapshot[c].Sorted() {
						fmt.Fprintf(out, "%s\t%s\n", c, p)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&names, "category", "c", nil,
		"Categories to show: added, changed, missing, modified, removed, untracked")
	return cmd
}

func newLogCmd(a *app) *cobra.Command {
	var (
		maxCount int
		author   string
	)

	cmd := &cobra.Command{
		Use:   "log [from] [to] [-- path...]",
		Short: "Show commit history",
		Long: `Show commit history, newest first.

With one argument the history of that commit is shown. With two, commits
reachable from <to> but not from <from>. Paths after "--" keep only commits
that change them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoints := args
			if dash := cmd.ArgsLenAtDash(); dash >= 0 {
				endpoints = args[:dash]
			}

			rng, err := porcelain.BuildLogRange(endpoints...)
			if err != nil {
				return err
			}
			rng.Paths = args[len(endpoints):]
			rng.MaxCount = maxCount
			rng.Author = author

			return a.withRepo(cmd, func(ctx context.Context, repo *porcelain.Repo) error {
				iter, err := repo.Log(ctx, rng)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				return iter.ForEach(func(c *object.Commit) error {
					subject, _, _ := strings.Cut(c.Message, "\n")
					fmt.Fprintf(out, "%s %s\n", c.Hash, subject)
					return nil
				})
			})
		},
	}

	cmd.Flags().IntVarP(&maxCount, "max-count", "n", 0, "Limit the number of commits")
	cmd.Flags().StringVar(&author, "author", "", "Only commits whose author or committer contains this text")
	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>...",
		Short: "Stage files for the next commit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRepo(cmd, func(ctx context.Context, repo *porcelain.Repo) error {
				return repo.Add(ctx, args...)
			})
		},
	}
}

func newCommitCmd(a *app) *cobra.Command {
	var (
		req       porcelain.CommitRequest
		author    string
		committer string
	)

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Record staged changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if req.Author, err = parseIdentity(author); err != nil {
				return err
			}
			if req.Committer, err = parseIdentity(committer); err != nil {
				return err
			}

			return a.withRepo(cmd, func(ctx context.Context, repo *porcelain.Repo) error {
				hash, err := repo.Commit(ctx, req)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), hash)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&req.Message, "message", "m", "", "Commit message")
	cmd.Flags().BoolVar(&req.Amend, "amend", false, "Replace the current tip")
	cmd.Flags().BoolVarP(&req.All, "all", "a", false, "Stage modified and deleted tracked files first")
	cmd.Flags().StringVar(&author, "author", "", `Author as "Name <email>"`)
	cmd.Flags().StringVar(&committer, "committer", "", `Committer as "Name <email>"`)
	return cmd
}
