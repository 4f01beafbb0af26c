// Package engine provides the error taxonomy shared by the porcelain layer and
// engine implementations. All errors can be checked using errors.Is().
package engine

import (
	"errors"
)

// Code identifies an error kind in a stable, serializable form.
// Codes are string-based for debuggability and natural JSON output.
type Code string

const (
	// CodeNotFound indicates a repository path could not be resolved.
	CodeNotFound Code = "NOT_FOUND"

	// CodeUnresolvable indicates a commit-ish, branch or remote has no referent.
	CodeUnresolvable Code = "UNRESOLVABLE"

	// CodeConflict indicates an operation would overwrite state or cannot fast-forward.
	CodeConflict Code = "CONFLICT"

	// CodeEmptyInput indicates a required input (message, name, URL) was blank.
	CodeEmptyInput Code = "EMPTY_INPUT"

	// CodeNothingToCommit indicates a commit was requested with no changes.
	CodeNothingToCommit Code = "NOTHING_TO_COMMIT"

	// CodeTransport indicates a network or remote failure.
	CodeTransport Code = "TRANSPORT_FAILURE"

	// CodeInvalidState indicates the repository is not in a state that permits the operation.
	CodeInvalidState Code = "INVALID_STATE"

	// CodeInvalidOption indicates an unrecognized flag, category or argument shape.
	CodeInvalidOption Code = "INVALID_OPTION"

	// CodeNotImplemented indicates a declared operation that has no handler.
	CodeNotImplemented Code = "NOT_IMPLEMENTED"

	// CodeUnknown indicates an unclassified error.
	CodeUnknown Code = "UNKNOWN"
)

// ErrNotFound is returned when a path denotes neither a working directory
// with a .git directory nor a bare repository.
var ErrNotFound = errors.New("repository not found")

// ErrUnresolvable is returned when a commit-ish, branch or remote name
// matches no object.
var ErrUnresolvable = errors.New("unresolvable reference")

// ErrConflict is returned when a branch, checkout or merge operation would
// overwrite existing state, or cannot fast-forward, and force was not requested.
var ErrConflict = errors.New("conflict")

// ErrEmptyInput is returned for blank commit messages, branch names and URLs.
var ErrEmptyInput = errors.New("empty input")

// ErrNothingToCommit is returned when a commit has no staged changes and
// amend was not requested.
var ErrNothingToCommit = errors.New("nothing to commit")

// ErrTransport is returned for network and remote failures during fetch,
// clone and ls-remote.
var ErrTransport = errors.New("transport failure")

// ErrInvalidState is returned when the repository state forbids the operation,
// e.g. amending in an empty history or committing in a bare repository.
var ErrInvalidState = errors.New("invalid state")

// ErrInvalidOption is returned for unrecognized option keys and malformed
// argument shapes.
var ErrInvalidOption = errors.New("invalid option")

// ErrNotImplemented is returned by operations that are declared but have no handler.
var ErrNotImplemented = errors.New("not implemented")

// ErrAuthRequired is returned, joined with ErrTransport, when a remote requires
// credentials and none were provided.
var ErrAuthRequired = errors.New("authentication required")

// ErrAuthFailed is returned, joined with ErrTransport, when credentials were
// rejected by the remote.
var ErrAuthFailed = errors.New("authentication failed")

var codes = []struct {
	err  error
	code Code
}{
	{ErrNotFound, CodeNotFound},
	{ErrUnresolvable, CodeUnresolvable},
	{ErrConflict, CodeConflict},
	{ErrEmptyInput, CodeEmptyInput},
	{ErrNothingToCommit, CodeNothingToCommit},
	{ErrTransport, CodeTransport},
	{ErrInvalidState, CodeInvalidState},
	{ErrInvalidOption, CodeInvalidOption},
	{ErrNotImplemented, CodeNotImplemented},
}

// CodeOf returns the Code of the first taxonomy error found in err's chain.
// It returns CodeUnknown for nil or unclassified errors.
func CodeOf(err error) Code {
	if err == nil {
		return CodeUnknown
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeUnknown
}
