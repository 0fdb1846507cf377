package githubforge

import (
	"net/http"

	"github.com/google/go-github/v60/github"
	"github.com/pkg/errors"

	"github.com/andrewhampton/ghrebase/forge"
)

func identityToGitUser(id forge.Identity) *github.CommitAuthor {
	name, email := id.Name, id.Email
	t := github.Timestamp{Time: id.Time}

	return &github.CommitAuthor{
		Name:  &name,
		Email: &email,
		Date:  &t,
	}
}

func gitUserToIdentity(u *github.CommitAuthor) forge.Identity {
	if u == nil {
		return forge.Identity{}
	}

	return forge.Identity{
		Name:  u.GetName(),
		Email: u.GetEmail(),
		Time:  u.GetDate().Time,
	}
}

func parentIDs(parents []*github.Commit) []forge.CommitID {
	ids := make([]forge.CommitID, len(parents))
	for i, p := range parents {
		ids[i] = forge.CommitID(p.GetSHA())
	}

	return ids
}

// gitCommitToCommit converts a git data API commit object, which carries
// no SHA of its own, into a forge.Commit tagged with the id the caller
// already knows (either because they asked for it by id, or it came back
// alongside a sha in a listing).
func gitCommitToCommit(id forge.CommitID, gc *github.Commit) forge.Commit {
	return forge.Commit{
		ID:        id,
		Parents:   parentIDs(gc.GetParents()),
		Tree:      forge.TreeID(gc.GetTree().GetSHA()),
		Message:   gc.GetMessage(),
		Author:    gitUserToIdentity(gc.GetAuthor()),
		Committer: gitUserToIdentity(gc.GetCommitter()),
	}
}

// repoCommitToCommit converts the higher-level RepositoryCommit shape
// returned by the commits-comparison and pull-request-commits endpoints.
func repoCommitToCommit(rc *github.RepositoryCommit) forge.Commit {
	c := gitCommitToCommit(forge.CommitID(rc.GetSHA()), rc.GetCommit())

	if len(rc.Parents) > 0 {
		c.Parents = make([]forge.CommitID, len(rc.Parents))
		for i, p := range rc.Parents {
			c.Parents[i] = forge.CommitID(p.GetSHA())
		}
	}

	return c
}

func isNotFound(err error) bool {
	var ghErr *github.ErrorResponse

	return errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
}

// translateError maps a go-github error into the forge package's sentinel
// errors where a clear mapping exists, wrapping it with request context
// otherwise so callers lose nothing by matching only the sentinels they
// care about.
func translateError(resp *github.Response, err error) error {
	if resp == nil {
		return errors.Wrap(err, "githubforge: request failed")
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return errors.Wrap(forge.ErrNotFound, err.Error())
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.Wrap(forge.ErrAuth, err.Error())
	case http.StatusUnprocessableEntity:
		return errors.Wrap(forge.ErrNonFastForward, err.Error())
	case http.StatusConflict:
		return errors.Wrap(forge.ErrRefExists, err.Error())
	default:
		return errors.Wrapf(err, "githubforge: request failed (status %d)", resp.StatusCode)
	}
}
