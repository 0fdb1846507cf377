package rebase

import (
	"context"

	"github.com/andrewhampton/ghrebase/forge"
	"github.com/pkg/errors"
)

// swapHead performs the final compare-and-swap: it re-reads headRef and
// refuses to move it unless it still matches witness, then force-updates
// it to newHead with that same witness as the expected value so the
// forge's own update call is atomic against a concurrent push landing
// between our read and our write.
//
// intercept, when non-nil, runs once before the re-read on every call —
// test code uses it to land a concurrent ref change after replay and
// before the check, and assert swapHead reports ErrHeadChanged instead of
// silently overwriting it.
func swapHead(
	ctx context.Context, client forge.Client, headRef string,
	witness, newHead forge.CommitID, intercept func(),
) error {
	if intercept != nil {
		intercept()
	}

	current, err := client.GetReferenceSHA(ctx, headRef)
	if err != nil {
		return errors.Wrapf(err, "rebase: re-read head ref %s", headRef)
	}

	if current != witness {
		return ErrHeadChanged
	}

	if err := client.UpdateReference(ctx, headRef, newHead, true, witness); err != nil {
		if errors.Is(err, forge.ErrNonFastForward) {
			return ErrHeadChanged
		}

		return errors.Wrapf(err, "rebase: swap head ref %s to %s", headRef, newHead)
	}

	return nil
}
