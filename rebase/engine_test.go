package rebase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andrewhampton/ghrebase/forge"
	"github.com/andrewhampton/ghrebase/rebase"
	"github.com/andrewhampton/ghrebase/testutil"
)

func identity(name string) forge.Identity {
	return forge.Identity{Name: name, Email: name + "@example.com", Time: time.Unix(0, 0)}
}

func TestRebase_Nominal(t *testing.T) {
	f := testutil.NewForge()

	baseTree := f.Tree(map[string]string{"a.txt": "base\n"})
	base := f.Commit(nil, baseTree, "base", identity("base"))
	f.SetRef("refs/heads/main", base.ID)

	tree1 := f.Tree(map[string]string{"a.txt": "base\n", "b.txt": "one\n"})
	c1 := f.Commit([]forge.CommitID{base.ID}, tree1, "add b", identity("dev"))

	tree2 := f.Tree(map[string]string{"a.txt": "base\n", "b.txt": "one\n", "c.txt": "two\n"})
	c2 := f.Commit([]forge.CommitID{c1.ID}, tree2, "add c", identity("dev"))

	f.SetRef("refs/heads/feature", c2.ID)
	f.SetPullRequest(forge.PullRequest{Number: 1, HeadRef: "refs/heads/feature", BaseRef: "refs/heads/main"})

	newHead, err := rebase.Rebase(context.Background(), f, 1)
	require.NoError(t, err)

	finalCommit, err := f.GetCommit(context.Background(), newHead)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"a.txt": "base\n", "b.txt": "one\n", "c.txt": "two\n"}, f.Files(finalCommit.Tree))
	require.Equal(t, newHead, f.Ref("refs/heads/feature"))
}

func TestRebase_Autosquash(t *testing.T) {
	f := testutil.NewForge()

	baseTree := f.Tree(map[string]string{"a.txt": "base\n"})
	base := f.Commit(nil, baseTree, "base", identity("base"))
	f.SetRef("refs/heads/main", base.ID)

	tree1 := f.Tree(map[string]string{"a.txt": "base\n", "b.txt": "one\n"})
	c1 := f.Commit([]forge.CommitID{base.ID}, tree1, "add b", identity("dev"))

	tree2 := f.Tree(map[string]string{"a.txt": "base\n", "b.txt": "one\ntwo\n"})
	c2 := f.Commit([]forge.CommitID{c1.ID}, tree2, "fixup! add b", identity("dev"))

	f.SetRef("refs/heads/feature", c2.ID)
	f.SetPullRequest(forge.PullRequest{Number: 1, HeadRef: "refs/heads/feature", BaseRef: "refs/heads/main"})

	newHead, err := rebase.Rebase(context.Background(), f, 1)
	require.NoError(t, err)

	finalCommit, err := f.GetCommit(context.Background(), newHead)
	require.NoError(t, err)
	require.Equal(t, "add b", finalCommit.Message, "fixup discards its own message")
	require.Equal(t, map[string]string{"a.txt": "base\n", "b.txt": "one\ntwo\n"}, f.Files(finalCommit.Tree))
	require.Equal(t, base.ID, finalCommit.Parents[0], "anchor keeps its original parent")
}

func TestRebase_MergeConflict(t *testing.T) {
	f := testutil.NewForge()

	baseTree := f.Tree(map[string]string{"a.txt": "base\n"})
	base := f.Commit(nil, baseTree, "base", identity("base"))
	f.SetRef("refs/heads/main", base.ID)

	tree1 := f.Tree(map[string]string{"a.txt": "changed upstream\n"})
	c1 := f.Commit([]forge.CommitID{base.ID}, tree1, "conflicting change", identity("dev"))

	f.SetRef("refs/heads/feature", c1.ID)
	f.SetPullRequest(forge.PullRequest{Number: 1, HeadRef: "refs/heads/feature", BaseRef: "refs/heads/main"})

	f.ForceConflict(c1.ID, "a.txt")

	_, err := rebase.Rebase(context.Background(), f, 1)
	require.Error(t, err)
	require.ErrorIs(t, err, rebase.ErrMergeConflict)

	var conflictErr *rebase.MergeConflictError
	require.ErrorAs(t, err, &conflictErr)
	require.Equal(t, c1.ID, conflictErr.Source)

	require.Equal(t, c1.ID, f.Ref("refs/heads/feature"), "head must be untouched on conflict")
}

func TestRebase_HeadChangedDuringRebase(t *testing.T) {
	f := testutil.NewForge()

	baseTree := f.Tree(map[string]string{"a.txt": "base\n"})
	base := f.Commit(nil, baseTree, "base", identity("base"))
	f.SetRef("refs/heads/main", base.ID)

	tree1 := f.Tree(map[string]string{"a.txt": "base\n", "b.txt": "one\n"})
	c1 := f.Commit([]forge.CommitID{base.ID}, tree1, "add b", identity("dev"))

	f.SetRef("refs/heads/feature", c1.ID)
	f.SetPullRequest(forge.PullRequest{Number: 1, HeadRef: "refs/heads/feature", BaseRef: "refs/heads/main"})

	raceTree := f.Tree(map[string]string{"a.txt": "base\n", "b.txt": "one\n", "race.txt": "concurrent push\n"})
	raceCommit := f.Commit([]forge.CommitID{c1.ID}, raceTree, "concurrent push", identity("someone-else"))

	intercepted := false

	_, err := rebase.Rebase(context.Background(), f, 1, rebase.WithIntercept(func() {
		intercepted = true
		f.SetRef("refs/heads/feature", raceCommit.ID)
	}))

	require.True(t, intercepted)
	require.ErrorIs(t, err, rebase.ErrHeadChanged)
	require.Equal(t, raceCommit.ID, f.Ref("refs/heads/feature"), "the concurrent push must survive untouched")
}

func TestRebase_NoCommits(t *testing.T) {
	f := testutil.NewForge()

	baseTree := f.Tree(map[string]string{"a.txt": "base\n"})
	base := f.Commit(nil, baseTree, "base", identity("base"))
	f.SetRef("refs/heads/main", base.ID)
	f.SetRef("refs/heads/feature", base.ID)
	f.SetPullRequest(forge.PullRequest{Number: 1, HeadRef: "refs/heads/feature", BaseRef: "refs/heads/main"})

	newHead, err := rebase.Rebase(context.Background(), f, 1)
	require.NoError(t, err)
	require.Equal(t, base.ID, newHead)
}

func TestRebase_MergeCommitInRangeIsUnsupported(t *testing.T) {
	f := testutil.NewForge()

	baseTree := f.Tree(map[string]string{"a.txt": "base\n"})
	base := f.Commit(nil, baseTree, "base", identity("base"))
	f.SetRef("refs/heads/main", base.ID)

	tree1 := f.Tree(map[string]string{"a.txt": "base\n", "b.txt": "one\n"})
	c1 := f.Commit([]forge.CommitID{base.ID}, tree1, "add b", identity("dev"))

	otherTree := f.Tree(map[string]string{"a.txt": "base\n", "other.txt": "x\n"})
	other := f.Commit([]forge.CommitID{base.ID}, otherTree, "other branch", identity("dev"))

	mergeTree := f.Tree(map[string]string{"a.txt": "base\n", "b.txt": "one\n", "other.txt": "x\n"})
	merge := f.Commit([]forge.CommitID{c1.ID, other.ID}, mergeTree, "merge other into feature", identity("dev"))

	f.SetRef("refs/heads/feature", merge.ID)
	f.SetPullRequest(forge.PullRequest{Number: 1, HeadRef: "refs/heads/feature", BaseRef: "refs/heads/main"})

	_, err := rebase.Rebase(context.Background(), f, 1)
	require.ErrorIs(t, err, rebase.ErrUnsupportedHistory)
}

func TestNeedAutosquashing(t *testing.T) {
	f := testutil.NewForge()

	baseTree := f.Tree(map[string]string{"a.txt": "base\n"})
	base := f.Commit(nil, baseTree, "base", identity("base"))
	f.SetRef("refs/heads/main", base.ID)

	tree1 := f.Tree(map[string]string{"a.txt": "base\n", "b.txt": "one\n"})
	c1 := f.Commit([]forge.CommitID{base.ID}, tree1, "add b", identity("dev"))
	f.SetRef("refs/heads/feature", c1.ID)
	f.SetPullRequest(forge.PullRequest{Number: 1, HeadRef: "refs/heads/feature", BaseRef: "refs/heads/main"})

	need, err := rebase.NeedAutosquashing(context.Background(), f, 1)
	require.NoError(t, err)
	require.False(t, need)

	tree2 := f.Tree(map[string]string{"a.txt": "base\n", "b.txt": "one\ntwo\n"})
	c2 := f.Commit([]forge.CommitID{c1.ID}, tree2, "fixup! add b", identity("dev"))
	f.SetRef("refs/heads/feature", c2.ID)

	need, err = rebase.NeedAutosquashing(context.Background(), f, 1)
	require.NoError(t, err)
	require.True(t, need)
}

// readOnlyForge wraps a forge.Client and fails the test immediately if any
// write method is ever called, proving NeedAutosquashing needs nothing
// beyond read scopes on the forge token.
type readOnlyForge struct {
	forge.Client
	t *testing.T
}

func (r readOnlyForge) CreateCommit(context.Context, forge.NewCommit) (forge.CommitID, error) {
	r.t.Fatal("NeedAutosquashing must not create commits")
	return "", nil
}

func (r readOnlyForge) MergeThreeWay(context.Context, string, forge.CommitID, forge.CommitID) (forge.MergeResult, error) {
	r.t.Fatal("NeedAutosquashing must not merge")
	return forge.MergeResult{}, nil
}

func (r readOnlyForge) CreateTemporaryReference(context.Context, forge.CommitID) (string, error) {
	r.t.Fatal("NeedAutosquashing must not create refs")
	return "", nil
}

func (r readOnlyForge) DeleteReference(context.Context, string) error {
	r.t.Fatal("NeedAutosquashing must not delete refs")
	return nil
}

func (r readOnlyForge) UpdateReference(context.Context, string, forge.CommitID, bool, forge.CommitID) error {
	r.t.Fatal("NeedAutosquashing must not update refs")
	return nil
}

func TestNeedAutosquashing_NeverWrites(t *testing.T) {
	f := testutil.NewForge()

	baseTree := f.Tree(map[string]string{"a.txt": "base\n"})
	base := f.Commit(nil, baseTree, "base", identity("base"))
	f.SetRef("refs/heads/main", base.ID)

	tree1 := f.Tree(map[string]string{"a.txt": "base\n", "b.txt": "one\n"})
	c1 := f.Commit([]forge.CommitID{base.ID}, tree1, "fixup! add b", identity("dev"))
	f.SetRef("refs/heads/feature", c1.ID)
	f.SetPullRequest(forge.PullRequest{Number: 1, HeadRef: "refs/heads/feature", BaseRef: "refs/heads/main"})

	ro := readOnlyForge{Client: f, t: t}

	need, err := rebase.NeedAutosquashing(context.Background(), ro, 1)
	require.NoError(t, err)
	require.True(t, need)
}
