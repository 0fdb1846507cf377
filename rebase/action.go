// Package rebase implements the rebase engine: walking a pull request's
// commit range, planning autosquash folds, replaying the plan against the
// forge via three-way merges, and atomically swapping the head reference.
// Everything here is pure orchestration over a forge.Client; no package in
// this tree shells out to git or touches a local working copy.
package rebase

import "github.com/andrewhampton/ghrebase/forge"

// ActionType is the kind of operation a ReplayItem performs during replay.
type ActionType string

const (
	// ActionPick places a commit as its own commit, with its original
	// message and author.
	ActionPick ActionType = "pick"

	// ActionFixup folds a commit's tree change into an earlier anchor
	// commit, discarding the source's message entirely.
	ActionFixup ActionType = "fixup"

	// ActionSquash folds a commit's tree change into an earlier anchor
	// commit, appending the source's message body to the anchor's.
	ActionSquash ActionType = "squash"
)

// noAnchor marks a ReplayItem that has no anchor (a PICK).
const noAnchor = -1

// ReplayItem is one entry in a Plan. PICK items carry the commit to apply
// as-is; FIXUP and SQUASH items carry the commit whose tree change should
// be folded into the PICK at Anchor.
type ReplayItem struct {
	// Source is the original commit this item replays.
	Source forge.Commit

	// Action determines how Source is applied during replay.
	Action ActionType

	// Message is the commit message to use when this item is replayed.
	// For PICK it starts as Source.Message and has the body of every
	// SQUASH anchored to it appended by BuildPlan. It exists on
	// FIXUP/SQUASH items only so the plan is self-describing in tests and
	// logs; the engine always reads the message from the anchor item for
	// FIXUP and SQUASH.
	Message string

	// Anchor is the index, within the same Plan, of the PICK item this
	// FIXUP/SQUASH folds into. It is noAnchor (-1) for PICK items, and
	// always strictly less than the item's own index otherwise.
	Anchor int
}

// Plan is the ordered sequence of ReplayItems the engine applies in order.
type Plan struct {
	Items []ReplayItem
}

// Len returns the number of items in the plan.
func (p *Plan) Len() int {
	if p == nil {
		return 0
	}

	return len(p.Items)
}
