package rebase

import (
	"context"
	"strings"

	"github.com/andrewhampton/ghrebase/forge"
)

// NeedAutosquashing reports whether a pull request's commit range contains
// any fixup!/squash! directive. It is read-only: it resolves the same
// commit range C2 would but never creates or updates anything, so it can
// run with a forge credential scoped to read access only.
func NeedAutosquashing(ctx context.Context, client forge.Client, prNumber int, opts ...Option) (bool, error) {
	cfg := newConfig(opts...)

	info, err := resolveRange(ctx, client, prNumber)
	if err != nil {
		return false, err
	}

	need := anyDirective(info.commits)

	cfg.log.Debug().Int("pr", prNumber).Bool("needs_autosquash", need).
		Int("commits", len(info.commits)).Msg("checked pull request for autosquash directives")

	return need, nil
}

func anyDirective(commits []forge.Commit) bool {
	for _, c := range commits {
		subject := c.Subject()
		if strings.HasPrefix(subject, fixupPrefix) || strings.HasPrefix(subject, squashPrefix) {
			return true
		}
	}

	return false
}
