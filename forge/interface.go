package forge

import "context"

// Client abstracts the forge operations the rebase engine needs. It is
// deliberately narrow: nine calls cover everything C2 through C6 require,
// and any transport — a real GitHub/GHE client or a fake — can implement
// it. The engine holds no state about the transport beyond this interface.
type Client interface {
	// GetPullRequest reads a pull request's current metadata, including
	// the head/base shas observed at call time. The returned HeadSHA
	// becomes the CAS witness for the final ref swap.
	GetPullRequest(ctx context.Context, number int) (PullRequest, error)

	// GetReferenceSHA reads the commit a branch currently points at.
	GetReferenceSHA(ctx context.Context, ref string) (CommitID, error)

	// ListCommitsBetween returns the commits reachable from head but not
	// from base, oldest first, using the forge's first-parent
	// linearization. It excludes base itself.
	ListCommitsBetween(ctx context.Context, base, head CommitID) ([]Commit, error)

	// GetCommit reads a single commit object.
	GetCommit(ctx context.Context, id CommitID) (Commit, error)

	// CreateCommit creates a new commit object and returns its id. It
	// never updates any reference.
	CreateCommit(ctx context.Context, c NewCommit) (CommitID, error)

	// MergeThreeWay merges head onto the tip of branch (which must
	// currently be at base) and returns the resulting tree. On conflict
	// it returns a *ConflictError (checkable with IsConflict).
	MergeThreeWay(ctx context.Context, branch string, base, head CommitID) (MergeResult, error)

	// CreateTemporaryReference creates a new branch at sha and returns
	// its full ref name. Implementations should make the name unique
	// per call so concurrent rebases never collide.
	CreateTemporaryReference(ctx context.Context, sha CommitID) (string, error)

	// DeleteReference deletes a branch. Implementations should treat a
	// missing ref as success; cleanup is best-effort by design (see
	// package rebase).
	DeleteReference(ctx context.Context, ref string) error

	// UpdateReference points ref at sha. When force is false the call
	// only succeeds if sha is a fast-forward of the ref's current value
	// (ErrNonFastForward otherwise). When force is true it also acts as
	// a compare-and-swap against expected when expected is non-empty:
	// if the ref's current value isn't expected, the update is rejected.
	UpdateReference(ctx context.Context, ref string, sha CommitID, force bool, expected CommitID) error
}
