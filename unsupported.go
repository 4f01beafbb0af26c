package porcelain

import "context"

// Operation names a porcelain operation.
type Operation string

const (
	OpCherryPick Operation = "cherry-pick"
	OpPush       Operation = "push"
	OpRebase     Operation = "rebase"
	OpRevert     Operation = "revert"
	OpTag        Operation = "tag"
)

func notImplemented(op Operation) error {
	return WrapErrorf(ErrNotImplemented, "%s", op)
}

// CherryPick is not supported and always fails with ErrNotImplemented.
func (r *Repo) CherryPick(_ context.Context, _ string) error {
	return notImplemented(OpCherryPick)
}

// Push is not supported and always fails with ErrNotImplemented.
func (r *Repo) Push(_ context.Context, _ string) error {
	return notImplemented(OpPush)
}

// Rebase is not supported and always fails with ErrNotImplemented.
func (r *Repo) Rebase(_ context.Context, _ string) error {
	return notImplemented(OpRebase)
}

// Revert is not supported and always fails with ErrNotImplemented.
func (r *Repo) Revert(_ context.Context, _ string) error {
	return notImplemented(OpRevert)
}

// Tag is not supported and always fails with ErrNotImplemented.
func (r *Repo) Tag(_ context.Context, _, _ string) error {
	return notImplemented(OpTag)
}
