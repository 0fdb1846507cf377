package rebase

import (
	"context"

	"github.com/andrewhampton/ghrebase/forge"
	"github.com/pkg/errors"
)

// rangeInfo is what C2 hands off to the planner and replay engine: the
// base to replay onto, the feature commits in oldest-first order, the
// head ref name to eventually swap, and the head sha witnessed at
// resolve time (the CAS witness carried through to the final swap).
type rangeInfo struct {
	base    forge.CommitID
	commits []forge.Commit
	headRef string
	witness forge.CommitID
}

// resolveRange reads a pull request's current base and head, lists the
// commits unique to the head, and validates the history is linear.
// Returns ErrUnsupportedHistory if any feature commit has more than one
// parent; a forge-only rebase has no working copy to resolve a merge
// conflict against, so merge commits in the feature range are refused
// up front rather than partway through replay.
func resolveRange(ctx context.Context, client forge.Client, prNumber int) (rangeInfo, error) {
	pr, err := client.GetPullRequest(ctx, prNumber)
	if err != nil {
		return rangeInfo{}, errors.Wrapf(err, "rebase: get pull request %d", prNumber)
	}

	baseSHA, err := client.GetReferenceSHA(ctx, pr.BaseRef)
	if err != nil {
		return rangeInfo{}, errors.Wrapf(err, "rebase: resolve base ref %s", pr.BaseRef)
	}

	commits, err := client.ListCommitsBetween(ctx, baseSHA, pr.HeadSHA)
	if err != nil {
		return rangeInfo{}, errors.Wrap(err, "rebase: list commits between base and head")
	}

	for _, c := range commits {
		if len(c.Parents) > 1 {
			return rangeInfo{}, ErrUnsupportedHistory
		}
	}

	return rangeInfo{
		base:    baseSHA,
		commits: commits,
		headRef: pr.HeadRef,
		witness: pr.HeadSHA,
	}, nil
}
