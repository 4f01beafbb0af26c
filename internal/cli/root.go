// Package cli implements the porcelain command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/porcelain"
	"github.com/input-output-hk/catalyst-forge-libs/porcelain/engine"
	"github.com/input-output-hk/catalyst-forge-libs/porcelain/internal/config"
	"github.com/input-output-hk/catalyst-forge-libs/porcelain/internal/logging"
)

// Exit codes returned by the porcelain binary, one per error kind.
const (
	ExitOK             = 0
	ExitFailure        = 1
	ExitUsage          = 2
	ExitNotFound       = 3
	ExitConflict       = 4
	ExitNothingToDo    = 5
	ExitTransport      = 6
	ExitInvalidState   = 7
	ExitNotImplemented = 8
)

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	switch engine.CodeOf(err) {
	case engine.CodeInvalidOption, engine.CodeEmptyInput:
		return ExitUsage
	case engine.CodeNotFound, engine.CodeUnresolvable:
		return ExitNotFound
	case engine.CodeConflict:
		return ExitConflict
	case engine.CodeNothingToCommit:
		return ExitNothingToDo
	case engine.CodeTransport:
		return ExitTransport
	case engine.CodeInvalidState:
		return ExitInvalidState
	case engine.CodeNotImplemented:
		return ExitNotImplemented
	default:
		return ExitFailure
	}
}

// app holds state shared by every subcommand.
type app struct {
	repoPath   string
	configPath string
	verbose    bool

	opts   *porcelain.Options
	logger *slog.Logger
	closer io.Closer
}

// NewRootCmd creates the root cobra command.
func NewRootCmd(version string) *cobra.Command {
	return newRootCmd(&app{}, version)
}

func newRootCmd(a *app, version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "porcelain",
		Short:         "High-level repository operations",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.repoPath, "repo", "C", ".", "Repository path")
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Configuration file (default $"+config.EnvPath+" or XDG "+config.RelPath+")")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newInitCmd(a),
		newCloneCmd(a),
		newStatusCmd(a),
		newLogCmd(a),
		newBranchCmd(a),
		newCheckoutCmd(a),
		newAddCmd(a),
		newCommitCmd(a),
		newFetchCmd(a),
		newMergeCmd(a),
		newLsRemoteCmd(a),
		newRemoteCmd(a),
	)
	closeAfter(rootCmd, a)

	return rootCmd
}

// closeAfter releases the app's log output once a command's RunE returns,
// whether or not it failed.
func closeAfter(cmd *cobra.Command, a *app) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(c *cobra.Command, args []string) error {
			return errors.Join(run(c, args), a.close())
		}
	}
	for _, sub := range cmd.Commands() {
		closeAfter(sub, a)
	}
}

// Execute runs the command tree and reports errors on stderr.
func Execute(cmd *cobra.Command) int {
	err := cmd.Execute()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
	}
	return ExitCode(err)
}

func (a *app) setup(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFile(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	logCfg := logging.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}
	if a.verbose {
		logCfg.Level = "debug"
	}

	logger, closer, err := logging.New(cmd.ErrOrStderr(), logCfg)
	if err != nil {
		return porcelain.WrapError(porcelain.ErrInvalidOption, err.Error())
	}

	opts, err := cfg.Options()
	if err != nil {
		_ = closer.Close()
		return err
	}

	a.logger = logger
	a.closer = closer
	a.opts = opts
	a.opts.Logger = logger
	return nil
}

func (a *app) close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

func (a *app) open(ctx context.Context) (*porcelain.Repo, error) {
	return porcelain.Open(ctx, a.repoPath, a.opts)
}

// withRepo opens the repository, runs fn and closes the repository.
func (a *app) withRepo(cmd *cobra.Command, fn func(ctx context.Context, repo *porcelain.Repo) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	repo, err := a.open(ctx)
	if err != nil {
		return err
	}

	return errors.Join(fn(ctx, repo), repo.Close())
}

// parseIdentity parses "Name <email>".
func parseIdentity(s string) (*porcelain.Identity, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Name == "" {
		return nil, porcelain.WrapErrorf(porcelain.ErrInvalidOption, "identity %q must look like \"Name <email>\"", s)
	}
	return &porcelain.Identity{Name: addr.Name, Email: addr.Address}, nil
}
