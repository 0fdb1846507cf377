package forge

import "github.com/pkg/errors"

// Sentinel errors a Client implementation returns so the engine can
// distinguish forge-level failure modes from its own fatal kinds (see
// package rebase's errors.go). A Client is free to wrap these with
// additional context; callers should use errors.Is against them.
var (
	// ErrNotFound is returned when a ref, commit or PR does not exist.
	ErrNotFound = errors.New("forge: not found")

	// ErrAuth is returned for authentication/authorization failures.
	ErrAuth = errors.New("forge: authentication failed")

	// ErrNonFastForward is returned by UpdateReference when force is
	// false and the proposed tip is not a fast-forward of the current
	// tip.
	ErrNonFastForward = errors.New("forge: update is not a fast-forward")

	// ErrRefExists is returned by CreateTemporaryReference when the
	// requested name is already taken.
	ErrRefExists = errors.New("forge: reference already exists")
)

// ConflictError is returned by MergeThreeWay when the forge cannot merge
// the two commits cleanly. It carries the source commit that failed to
// apply so the engine can surface it in a MergeConflict error.
type ConflictError struct {
	// Source is the commit being applied when the conflict occurred.
	Source CommitID

	// Paths lists the conflicting file paths, when the forge reports
	// them. May be empty.
	Paths []string
}

func (e *ConflictError) Error() string {
	if len(e.Paths) == 0 {
		return "forge: merge conflict applying " + e.Source.String()
	}

	msg := "forge: merge conflict applying " + e.Source.String() + ": "
	for i, p := range e.Paths {
		if i > 0 {
			msg += ", "
		}
		msg += p
	}

	return msg
}

// IsConflict reports whether err is (or wraps) a *ConflictError.
func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}
