package rebase

import (
	"strings"

	"github.com/andrewhampton/ghrebase/forge"
)

const (
	fixupPrefix  = "fixup! "
	squashPrefix = "squash! "
)

// directiveKind classifies a commit subject as a PICK, FIXUP or SQUASH, and
// returns the target subject the directive resolves to (empty for PICK).
func directiveKind(subject string) (ActionType, string) {
	if rest, ok := strings.CutPrefix(subject, fixupPrefix); ok && rest != "" {
		return ActionFixup, rest
	}

	if rest, ok := strings.CutPrefix(subject, squashPrefix); ok && rest != "" {
		return ActionSquash, rest
	}

	return ActionPick, ""
}

// resolveTargetSubject walks a chain of fixup!/squash! directives back to
// the real subject they ultimately target. "fixup! squash! feature" targets
// "feature" by recursing on the inner directive, exactly as git's own
// --autosquash does for nested fixups.
func resolveTargetSubject(subject string) string {
	for {
		if rest, ok := strings.CutPrefix(subject, fixupPrefix); ok && rest != "" {
			subject = rest

			continue
		}

		if rest, ok := strings.CutPrefix(subject, squashPrefix); ok && rest != "" {
			subject = rest

			continue
		}

		return subject
	}
}

// directiveBody strips the directive subject line (and a following blank
// line, if any) from a fixup!/squash! commit message, leaving only the
// body text to fold into the anchor's message.
func directiveBody(message string) string {
	_, rest, found := strings.Cut(message, "\n")
	if !found {
		return ""
	}

	return strings.TrimPrefix(rest, "\n")
}

// entry is planner-internal bookkeeping before the final reorder.
// origIndex is this entry's position in the original, pre-reorder commit
// scan; anchor is the origIndex of the PICK entry a FIXUP/SQUASH folds
// into (noAnchor for a PICK).
type entry struct {
	commit    forge.Commit
	action    ActionType
	origIndex int
	anchor    int
}

// BuildPlan turns an ordered (oldest-first) commit list into a Plan,
// resolving fixup!/squash! directives and reordering each onto the item
// immediately following its anchor PICK, then folding SQUASH message
// bodies into the anchor in place. Returns ErrAutosquashUnresolved if any
// directive cannot be resolved to a prior PICK subject.
func BuildPlan(commits []forge.Commit) (*Plan, error) {
	entries := make([]entry, 0, len(commits))

	// subjectToEntry maps a subject to the origIndex of the most recent
	// prior PICK with that subject. Scanning in commit order and only
	// ever consulting the map for entries already appended gives "most
	// recent prior PICK" for free.
	subjectToEntry := make(map[string]int)

	for _, c := range commits {
		action, target := directiveKind(c.Subject())

		e := entry{commit: c, action: action, origIndex: len(entries), anchor: noAnchor}

		if action == ActionPick {
			subjectToEntry[c.Subject()] = e.origIndex
		} else {
			targetSubject := resolveTargetSubject(target)

			anchorIdx, ok := subjectToEntry[targetSubject]
			if !ok {
				return nil, ErrAutosquashUnresolved
			}

			e.anchor = anchorIdx
		}

		entries = append(entries, e)
	}

	return foldPlan(reorderOntoAnchors(entries))
}

// reorderOntoAnchors places each FIXUP/SQUASH entry immediately after its
// anchor PICK (identified by origIndex), preserving the relative order of
// entries that share an anchor and of PICKs among themselves.
func reorderOntoAnchors(entries []entry) []entry {
	dependents := make(map[int][]entry, len(entries))

	for _, e := range entries {
		if e.action != ActionPick {
			dependents[e.anchor] = append(dependents[e.anchor], e)
		}
	}

	result := make([]entry, 0, len(entries))

	for _, e := range entries {
		if e.action != ActionPick {
			continue
		}

		result = append(result, e)
		result = append(result, dependents[e.origIndex]...)
	}

	return result
}

// foldPlan converts reordered entries into a Plan, wiring Anchor indices
// (into the final Plan) and folding SQUASH bodies into their anchor's
// message as they're encountered, left to right.
func foldPlan(entries []entry) (*Plan, error) {
	plan := &Plan{Items: make([]ReplayItem, 0, len(entries))}

	// finalIndexOf maps a pre-reorder origIndex to the PICK's index in
	// the final plan.
	finalIndexOf := make(map[int]int, len(entries))

	for _, e := range entries {
		switch e.action {
		case ActionPick:
			idx := len(plan.Items)
			finalIndexOf[e.origIndex] = idx
			plan.Items = append(plan.Items, ReplayItem{
				Source:  e.commit,
				Action:  ActionPick,
				Message: e.commit.Message,
				Anchor:  noAnchor,
			})

		case ActionFixup, ActionSquash:
			anchorIdx, ok := finalIndexOf[e.anchor]
			if !ok {
				return nil, ErrAutosquashUnresolved
			}

			plan.Items = append(plan.Items, ReplayItem{
				Source:  e.commit,
				Action:  e.action,
				Anchor:  anchorIdx,
				Message: e.commit.Message,
			})

			if e.action == ActionSquash {
				body := directiveBody(e.commit.Message)
				if body != "" {
					anchor := plan.Items[anchorIdx]
					anchor.Message = anchor.Message + "\n\n" + body
					plan.Items[anchorIdx] = anchor
				}
			}
		}
	}

	if len(plan.Items) > 0 && plan.Items[0].Action != ActionPick {
		return nil, ErrAutosquashUnresolved
	}

	return plan, nil
}
