package githubforge

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/go-github/v60/github"
	"github.com/stretchr/testify/require"

	"github.com/andrewhampton/ghrebase/forge"
)

func TestIdentityRoundTrip(t *testing.T) {
	want := forge.Identity{
		Name:  "Ada Lovelace",
		Email: "ada@example.com",
		Time:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	got := gitUserToIdentity(identityToGitUser(want))

	require.Equal(t, want.Name, got.Name)
	require.Equal(t, want.Email, got.Email)
	require.True(t, want.Time.Equal(got.Time))
}

func TestGitUserToIdentity_Nil(t *testing.T) {
	require.Equal(t, forge.Identity{}, gitUserToIdentity(nil))
}

func TestGitCommitToCommit(t *testing.T) {
	sha := "deadbeef"
	treeSHA := "treesha"
	message := "add feature"
	parentSHA := "parentsha"

	gc := &github.Commit{
		Message: &message,
		Tree:    &github.Tree{SHA: &treeSHA},
		Parents: []*github.Commit{{SHA: &parentSHA}},
	}

	c := gitCommitToCommit(forge.CommitID(sha), gc)

	require.Equal(t, forge.CommitID(sha), c.ID)
	require.Equal(t, forge.TreeID(treeSHA), c.Tree)
	require.Equal(t, message, c.Message)
	require.Equal(t, []forge.CommitID{forge.CommitID(parentSHA)}, c.Parents)
}

func TestIsNotFound(t *testing.T) {
	notFound := &github.ErrorResponse{
		Response: &http.Response{StatusCode: http.StatusNotFound},
	}
	require.True(t, isNotFound(notFound))

	other := &github.ErrorResponse{
		Response: &http.Response{StatusCode: http.StatusInternalServerError},
	}
	require.False(t, isNotFound(other))
}
