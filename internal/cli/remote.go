package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/porcelain"
	"github.com/input-output-hk/catalyst-forge-libs/porcelain/engine"
)

func newFetchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch [remote]",
		Short: "Download objects and refs from a remote",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var remote string
			if len(args) > 0 {
				remote = args[0]
			}

			return a.withRepo(cmd, func(ctx context.Context, repo *porcelain.Repo) error {
				res, err := repo.Fetch(ctx, remote)
				if err != nil {
					return err
				}
				printUpdates(cmd.OutOrStdout(), res.Updated)
				return nil
			})
		},
	}
}

func newMergeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "merge <commit-ish>",
		Short: "Fast-forward the current branch to a commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRepo(cmd, func(ctx context.Context, repo *porcelain.Repo) error {
				res, err := repo.Merge(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", res.Status, res.Head)
				return nil
			})
		},
	}
}

func newLsRemoteCmd(a *app) *cobra.Command {
	var heads, tags bool

	cmd := &cobra.Command{
		Use:   "ls-remote [remote|url]",
		Short: "List refs advertised by a remote",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var remote string
			if len(args) > 0 {
				remote = args[0]
			}

			var kinds []porcelain.RefKind
			if heads {
				kinds = append(kinds, porcelain.RefHeads)
			}
			if tags {
				kinds = append(kinds, porcelain.RefTags)
			}

			return a.withRepo(cmd, func(ctx context.Context, repo *porcelain.Repo) error {
				ads, err := repo.LsRemote(ctx, remote, kinds...)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				for _, ad := range ads {
					fmt.Fprintf(out, "%s\t%s\n", ad.Hash, ad.Name)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&heads, "heads", false, "Limit to refs/heads")
	cmd.Flags().BoolVarP(&tags, "tags", "t", false, "Limit to refs/tags")
	return cmd
}

func newRemoteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remote",
		Short: "List configured remotes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRepo(cmd, func(ctx context.Context, repo *porcelain.Repo) error {
				remotes, err := repo.Remotes(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				for _, r := range remotes {
					fmt.Fprintf(out, "%s\t%s\n", r.Name, strings.Join(r.URLs, " "))
				}
				return nil
			})
		},
	}
}

func printUpdates(w io.Writer, updates []engine.RefUpdate) {
	for _, u := range updates {
		if u.Old.IsZero() {
			fmt.Fprintf(w, " * [new] %s %s\n", u.Name.Short(), u.New)
			continue
		}
		fmt.Fprintf(w, "   %s..%s %s\n", u.Old.String()[:7], u.New.String()[:7], u.Name.Short())
	}
}
