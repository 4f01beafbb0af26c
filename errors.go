package porcelain

import (
	"fmt"

	"github.com/input-output-hk/catalyst-forge-libs/porcelain/engine"
)

// Error kinds returned by porcelain operations. All errors can be checked
// using errors.Is(); wrapped engine failures keep their original cause in
// the chain.
var (
	// ErrNotFound is returned when a path is neither a working directory with
	// a .git directory nor a bare repository.
	ErrNotFound = engine.ErrNotFound

	// ErrUnresolvable is returned when a commit-ish, branch or remote name has
	// no referent.
	ErrUnresolvable = engine.ErrUnresolvable

	// ErrConflict is returned when an operation would overwrite existing state
	// without force, or a merge cannot fast-forward.
	ErrConflict = engine.ErrConflict

	// ErrEmptyInput is returned for blank commit messages, branch names and URLs.
	ErrEmptyInput = engine.ErrEmptyInput

	// ErrNothingToCommit is returned when nothing is staged and amend was not requested.
	ErrNothingToCommit = engine.ErrNothingToCommit

	// ErrTransport is returned for network and remote failures.
	ErrTransport = engine.ErrTransport

	// ErrInvalidState is returned when the repository state forbids the
	// operation, such as amending with no history.
	ErrInvalidState = engine.ErrInvalidState

	// ErrInvalidOption is returned for unknown status categories, ref kinds
	// and malformed argument lists.
	ErrInvalidOption = engine.ErrInvalidOption

	// ErrNotImplemented is returned by declared operations without a handler.
	ErrNotImplemented = engine.ErrNotImplemented

	// ErrAuthRequired accompanies ErrTransport when credentials are missing.
	ErrAuthRequired = engine.ErrAuthRequired

	// ErrAuthFailed accompanies ErrTransport when credentials are rejected.
	ErrAuthFailed = engine.ErrAuthFailed
)

// Step names a stage of a multi-step workflow.
type Step string

const (
	// StepClone is the clone stage of CloneFull.
	StepClone Step = "clone"
	// StepFetch is the fetch stage of CloneFull.
	StepFetch Step = "fetch"
	// StepMerge is the merge stage of CloneFull.
	StepMerge Step = "merge"
)

// StepError reports which stage of a workflow failed. Err is the stage's
// error, unchanged, and is reachable with errors.Is and errors.As.
type StepError struct {
	Op   string
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapErrorf wraps an error with formatted additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
