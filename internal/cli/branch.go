package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/porcelain"
)

func newBranchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branch",
		Short: "List, create and delete branches",
	}

	cmd.AddCommand(
		newBranchListCmd(a),
		newBranchCreateCmd(a),
		newBranchDeleteCmd(a),
		newBranchCurrentCmd(a),
	)
	return cmd
}

func newBranchListCmd(a *app) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List branches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := porcelain.ParseBranchMode(mode)
			if err != nil {
				return err
			}

			return a.withRepo(cmd, func(ctx context.Context, repo *porcelain.Repo) error {
				branches, err := repo.BranchList(ctx, m)
				if err != nil {
					return err
				}

				current, err := repo.CurrentBranchRef(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				for _, b := range branches {
					marker := " "
					if b.Ref.String() == current {
						marker = "*"
					}
					fmt.Fprintf(out, "%s %s %s\n", marker, b.Name, b.Hash)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "local", "Branches to list: local, remote or all")
	return cmd
}

func newBranchCreateCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "create <name> [start-point]",
		Short: "Create a branch",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := porcelain.BranchRequest{Name: args[0], Force: force}
			if len(args) > 1 {
				req.StartPoint = args[1]
			}

			return a.withRepo(cmd, func(ctx context.Context, repo *porcelain.Repo) error {
				return repo.CreateBranch(ctx, req)
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Reset the branch if it already exists")
	return cmd
}

func newBranchDeleteCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <name>...",
		Short: "Delete branches",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRepo(cmd, func(ctx context.Context, repo *porcelain.Repo) error {
				deleted, err := repo.DeleteBranches(ctx, args, force)
				if err != nil {
					return err
				}
				for _, name := range deleted {
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted branch %s\n", name)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Delete branches that are not merged into HEAD")
	return cmd
}

func newBranchCurrentCmd(a *app) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "current",
		Short: "Print the checked out branch, or the commit id when detached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRepo(cmd, func(ctx context.Context, repo *porcelain.Repo) error {
				get := repo.CurrentBranch
				if raw {
					get = repo.CurrentBranchRef
				}

				name, err := get(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), name)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print the full reference name")
	return cmd
}

func newCheckoutCmd(a *app) *cobra.Command {
	var req porcelain.CheckoutRequest

	cmd := &cobra.Command{
		Use:   "checkout <target>",
		Short: "Switch to a branch or detach at a commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Target = args[0]

			return a.withRepo(cmd, func(ctx context.Context, repo *porcelain.Repo) error {
				if err := repo.Checkout(ctx, req); err != nil {
					return err
				}

				name, err := repo.CurrentBranch(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Checked out %s\n", name)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&req.CreateBranch, "create", "b", false, "Create the branch first")
	cmd.Flags().StringVar(&req.StartPoint, "start-point", "", "Start point for a created branch")
	cmd.Flags().BoolVarP(&req.Force, "force", "f", false, "Discard conflicting local changes")
	return cmd
}
