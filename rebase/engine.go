package rebase

import (
	"context"

	"github.com/andrewhampton/ghrebase/forge"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// replay applies plan against base on a scratch branch created and destroyed
// for the duration of the call, and returns the resulting tip commit. It
// never touches headRef; the caller is responsible for the final swap.
//
// Each PICK item three-way merges its source commit onto the current
// cursor and creates a new commit with that tree, mirroring the sibling
// commit/merge dance a forge-only rebase has to do instead of a real
// checkout. Each FIXUP/SQUASH item merges its own tree change onto the
// cursor the same way, but creates its replacement commit with the
// anchor's original parent and author, so the anchor is amended in
// place rather than growing a new PICK of its own. This is what lets the
// replacement engine stay a flat loop over a single cursor/anchorParent
// pair instead of a tree of pending amendments.
//
// MergeThreeWay itself moves the scratch ref to the merge commit it
// creates as a side effect, so the ref is never sitting at cursor by the
// time the replacement commit is ready; advancing it to that replacement
// is an unconditional force-update rather than a CAS against cursor.
func replay(
	ctx context.Context, client forge.Client, log zerolog.Logger,
	base forge.CommitID, plan *Plan,
) (forge.CommitID, error) {
	if plan.Len() == 0 {
		return base, nil
	}

	tmpRef, err := client.CreateTemporaryReference(ctx, base)
	if err != nil {
		return "", errors.Wrap(err, "rebase: create scratch ref")
	}

	log.Debug().Str("ref", tmpRef).Msg("opened scratch ref for replay")

	defer func() {
		if derr := client.DeleteReference(context.WithoutCancel(ctx), tmpRef); derr != nil {
			log.Warn().Err(derr).Str("ref", tmpRef).Msg("failed to clean up scratch ref")
		}
	}()

	var (
		cursor       = base
		anchorParent forge.CommitID
		anchorAuthor forge.Identity
	)

	for i, item := range plan.Items {
		if err := checkCancelled(ctx); err != nil {
			return "", err
		}

		merge, err := client.MergeThreeWay(ctx, tmpRef, cursor, item.Source.ID)
		if err != nil {
			if forge.IsConflict(err) {
				return "", &MergeConflictError{Source: item.Source.ID, Cause: err}
			}

			return "", errors.Wrapf(err, "rebase: merge commit %s", item.Source.ID)
		}

		var (
			parent  forge.CommitID
			message string
			author  forge.Identity
		)

		switch item.Action {
		case ActionPick:
			parent = cursor
			message = item.Message
			author = item.Source.Author

		case ActionFixup, ActionSquash:
			parent = anchorParent
			message = plan.Items[item.Anchor].Message
			author = anchorAuthor

		default:
			return "", errors.Errorf("rebase: unknown plan action %q", item.Action)
		}

		// Committer is left zero-valued: the forge attaches the caller's
		// own authenticated identity as committer, the same as a normal
		// API-driven commit. Only authorship is carried over from source.
		newID, err := client.CreateCommit(ctx, forge.NewCommit{
			Tree:    merge.Tree,
			Parents: []forge.CommitID{parent},
			Message: message,
			Author:  author,
		})
		if err != nil {
			return "", errors.Wrapf(err, "rebase: create commit for item %d", i)
		}

		// MergeThreeWay already moved tmpRef to its own merge commit, not
		// to cursor, so advancing it to the replacement commit is a plain
		// force-update with no CAS precondition to satisfy.
		if err := client.UpdateReference(ctx, tmpRef, newID, true, ""); err != nil {
			return "", errors.Wrapf(err, "rebase: advance scratch ref to %s", newID)
		}

		cursor = newID

		if item.Action == ActionPick {
			anchorParent = parent
			anchorAuthor = author
		}
	}

	return cursor, nil
}

// checkCancelled reports ctx.Err() wrapped as ErrCancelled, so every caller
// checking between plan items gets a single sentinel to test against
// regardless of why ctx was cancelled.
func checkCancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return errors.Wrap(ErrCancelled, ctx.Err().Error())
	default:
		return nil
	}
}
