package rebase

import (
	"context"

	"github.com/andrewhampton/ghrebase/forge"
)

// Rebase replays a pull request's commits onto its current base, folding
// any fixup!/squash! directives along the way, and atomically moves the
// pull request's head to the result. It is safe to call concurrently
// with other pushes to the same head: the final swap only succeeds if
// the head ref still matches what GetPullRequest observed at the start
// of the call, and returns ErrHeadChanged otherwise with the head left
// untouched.
//
// Deletion of the scratch ref created during the call is attempted before
// Rebase returns, on every exit path including error returns; a failed
// deletion is logged and does not fail the call. Apart from that scratch
// ref, only the pull request's own head ref is ever updated, and only
// once, at the very end.
func Rebase(ctx context.Context, client forge.Client, prNumber int, opts ...Option) (forge.CommitID, error) {
	cfg := newConfig(opts...)

	info, err := resolveRange(ctx, client, prNumber)
	if err != nil {
		return "", err
	}

	cfg.log.Info().Int("pr", prNumber).Int("commits", len(info.commits)).Msg("resolved pull request commit range")

	if len(info.commits) == 0 {
		return info.witness, nil
	}

	plan, err := BuildPlan(info.commits)
	if err != nil {
		return "", err
	}

	cfg.log.Debug().Int("items", plan.Len()).Msg("built replay plan")

	newHead, err := replay(ctx, client, cfg.log, info.base, plan)
	if err != nil {
		return "", err
	}

	if err := checkCancelled(ctx); err != nil {
		return "", err
	}

	if err := swapHead(ctx, client, info.headRef, info.witness, newHead, cfg.intercept); err != nil {
		return "", err
	}

	cfg.log.Info().Int("pr", prNumber).Str("head", newHead.String()).Msg("rebased pull request")

	return newHead, nil
}
