package rebase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/andrewhampton/ghrebase/forge"
)

func mkCommit(id, message string, parents ...forge.CommitID) forge.Commit {
	return forge.Commit{
		ID:      forge.CommitID(id),
		Parents: parents,
		Tree:    forge.TreeID("tree-" + id),
		Message: message,
		Author:  forge.Identity{Name: "author", Email: "a@example.com", Time: time.Unix(0, 0)},
	}
}

func TestDirectiveKind(t *testing.T) {
	tests := []struct {
		subject    string
		wantAction ActionType
		wantTarget string
	}{
		{"add feature", ActionPick, ""},
		{"fixup! add feature", ActionFixup, "add feature"},
		{"squash! add feature", ActionSquash, "add feature"},
		{"fixup! ", ActionPick, ""},
		{"squash! ", ActionPick, ""},
		{"fixup!missing space", ActionPick, ""},
	}

	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			action, target := directiveKind(tt.subject)
			require.Equal(t, tt.wantAction, action)
			require.Equal(t, tt.wantTarget, target)
		})
	}
}

func TestResolveTargetSubject(t *testing.T) {
	tests := []struct {
		subject string
		want    string
	}{
		{"add feature", "add feature"},
		{"fixup! squash! add feature", "add feature"},
		{"squash! fixup! fixup! add feature", "add feature"},
	}

	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			require.Equal(t, tt.want, resolveTargetSubject(tt.subject))
		})
	}
}

func TestBuildPlan_Nominal(t *testing.T) {
	commits := []forge.Commit{
		mkCommit("c1", "add feature"),
		mkCommit("c2", "add tests"),
	}

	plan, err := BuildPlan(commits)
	require.NoError(t, err)
	require.Len(t, plan.Items, 2)
	require.Equal(t, ActionPick, plan.Items[0].Action)
	require.Equal(t, ActionPick, plan.Items[1].Action)
	require.Equal(t, noAnchor, plan.Items[0].Anchor)
	require.Equal(t, noAnchor, plan.Items[1].Anchor)
}

func TestBuildPlan_FixupFoldsOntoAnchorImmediately(t *testing.T) {
	commits := []forge.Commit{
		mkCommit("c1", "add feature"),
		mkCommit("c2", "add tests"),
		mkCommit("c3", "fixup! add feature"),
	}

	plan, err := BuildPlan(commits)
	require.NoError(t, err)
	require.Len(t, plan.Items, 3)

	require.Equal(t, "c1", string(plan.Items[0].Source.ID))
	require.Equal(t, ActionPick, plan.Items[0].Action)

	require.Equal(t, "c3", string(plan.Items[1].Source.ID))
	require.Equal(t, ActionFixup, plan.Items[1].Action)
	require.Equal(t, 0, plan.Items[1].Anchor)

	require.Equal(t, "c2", string(plan.Items[2].Source.ID))
	require.Equal(t, ActionPick, plan.Items[2].Action)
}

func TestBuildPlan_SquashFoldsMessage(t *testing.T) {
	commits := []forge.Commit{
		mkCommit("c1", "add feature\n\noriginal body"),
		mkCommit("c2", "squash! add feature\n\nextra context"),
	}

	plan, err := BuildPlan(commits)
	require.NoError(t, err)
	require.Len(t, plan.Items, 2)

	anchor := plan.Items[0]
	require.Equal(t, "add feature\n\noriginal body\n\nextra context", anchor.Message)
}

func TestBuildPlan_DuplicateSubjectsResolveToMostRecentPick(t *testing.T) {
	commits := []forge.Commit{
		mkCommit("c1", "chore: tidy"),
		mkCommit("c2", "add feature"),
		mkCommit("c3", "chore: tidy"),
		mkCommit("c4", "fixup! chore: tidy"),
	}

	plan, err := BuildPlan(commits)
	require.NoError(t, err)

	var anchorSourceID forge.CommitID

	for _, item := range plan.Items {
		if item.Action == ActionFixup {
			anchorSourceID = plan.Items[item.Anchor].Source.ID
		}
	}

	require.Equal(t, forge.CommitID("c3"), anchorSourceID,
		"fixup must fold onto the most recent prior pick with a matching subject, not the first")
}

func TestBuildPlan_UnresolvedDirective(t *testing.T) {
	commits := []forge.Commit{
		mkCommit("c1", "fixup! nothing matches this"),
	}

	_, err := BuildPlan(commits)
	require.ErrorIs(t, err, ErrAutosquashUnresolved)
}

func TestBuildPlan_Empty(t *testing.T) {
	plan, err := BuildPlan(nil)
	require.NoError(t, err)
	require.Equal(t, 0, plan.Len())
}

// TestBuildPlanProperty checks that for any sequence of picks interleaved
// with fixups targeting an earlier pick's subject, the resulting plan
// always begins with a pick and every fixup/squash Anchor points
// strictly backwards to a pick that appears earlier in the plan.
func TestBuildPlanProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numPicks := rapid.IntRange(1, 6).Draw(t, "numPicks")

		var commits []forge.Commit

		for i := 0; i < numPicks; i++ {
			subject := rapid.StringMatching(`[a-z]{3,8}`).Draw(t, "subject")
			commits = append(commits, mkCommit(
				rapid.StringMatching(`[a-z0-9]{6}`).Draw(t, "id"),
				subject,
			))

			if rapid.Bool().Draw(t, "hasFixup") {
				directive := "fixup! "
				if rapid.Bool().Draw(t, "isSquash") {
					directive = "squash! "
				}

				commits = append(commits, mkCommit(
					rapid.StringMatching(`[a-z0-9]{6}`).Draw(t, "fixupID"),
					directive+subject,
				))
			}
		}

		plan, err := BuildPlan(commits)
		require.NoError(t, err)

		if plan.Len() == 0 {
			return
		}

		require.Equal(t, ActionPick, plan.Items[0].Action)

		for i, item := range plan.Items {
			if item.Action == ActionPick {
				require.Equal(t, noAnchor, item.Anchor)

				continue
			}

			require.Less(t, item.Anchor, i)
			require.GreaterOrEqual(t, item.Anchor, 0)
			require.Equal(t, ActionPick, plan.Items[item.Anchor].Action)
		}
	})
}
