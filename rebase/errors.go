package rebase

import (
	"github.com/andrewhampton/ghrebase/forge"
	"github.com/pkg/errors"
)

// Fatal sentinel errors the engine returns. Every one of them leaves the
// head reference untouched; check with errors.Is (or errors.As for
// *MergeConflictError, which carries the offending commit).
var (
	// ErrUnsupportedHistory is returned when the feature commit range
	// contains a merge commit. Only linear histories are rebased.
	ErrUnsupportedHistory = errors.New("rebase: feature branch contains a merge commit")

	// ErrAutosquashUnresolved is returned when a fixup!/squash!
	// directive has no matching anchor commit, or when the resulting
	// plan does not begin with a PICK.
	ErrAutosquashUnresolved = errors.New("rebase: autosquash directive could not be resolved to an anchor commit")

	// ErrHeadChanged is returned when the compare-and-swap pre-check in
	// the final ref swap observes a head sha different from the one
	// witnessed at the start of the operation.
	ErrHeadChanged = errors.New("rebase: head reference changed since the operation started")

	// ErrCancelled is returned when the caller's cancellation signal
	// fired between plan items.
	ErrCancelled = errors.New("rebase: operation cancelled")
)

// MergeConflictError is returned when the forge signals a conflict while
// three-way-merging a plan item onto the cursor. It wraps a
// *forge.ConflictError (checkable with forge.IsConflict on the underlying cause) with
// the replay-engine context of which source commit failed.
type MergeConflictError struct {
	// Source is the commit that could not be merged cleanly.
	Source forge.CommitID

	// Cause is the underlying *forge.ConflictError.
	Cause error
}

func (e *MergeConflictError) Error() string {
	return "rebase: merge conflict applying " + e.Source.String() + ": " + e.Cause.Error()
}

func (e *MergeConflictError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrMergeConflict for sentinel-style checks
// that don't need the offending commit (errors.Is(err, rebase.ErrMergeConflict)).
func (e *MergeConflictError) Is(target error) bool {
	return target == ErrMergeConflict
}

// ErrMergeConflict is the sentinel checked with errors.Is against a
// *MergeConflictError. Use errors.As to recover the offending Source.
var ErrMergeConflict = errors.New("rebase: merge conflict")
