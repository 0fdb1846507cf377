// Package testutil provides an in-memory fake forge.Client, so the
// rebase engine can be driven by deterministic, in-process tests instead
// of a real forge or a local git process. Every object — commit, tree,
// ref — lives in plain Go maps; MergeThreeWay computes an honest
// three-way merge over flat path->content trees instead of faking a
// result, so conflict and clean-merge scenarios both exercise the real
// merge algorithm a test is trying to pin down.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/andrewhampton/ghrebase/forge"
)

// fileTree is the fake's stand-in for a forge tree object: a flat map of
// path to file content. Absence of a key means the path doesn't exist.
type fileTree map[string]string

func (t fileTree) clone() fileTree {
	out := make(fileTree, len(t))
	for k, v := range t {
		out[k] = v
	}

	return out
}

// Forge is an in-memory forge.Client. The zero value is not usable; build
// one with NewForge.
type Forge struct {
	mu sync.Mutex

	commits map[forge.CommitID]forge.Commit
	trees   map[forge.TreeID]fileTree
	refs    map[string]forge.CommitID
	prs     map[int]forge.PullRequest

	nextID int

	// forceConflict makes MergeThreeWay report a conflict for a given
	// source commit regardless of what the flat-tree merge would
	// actually produce, so a test can pin a conflict scenario without
	// hand-crafting colliding edits.
	forceConflict map[forge.CommitID][]string
}

// NewForge returns an empty Forge ready to be seeded with Commit, Ref and
// PullRequest.
func NewForge() *Forge {
	return &Forge{
		commits:       make(map[forge.CommitID]forge.Commit),
		trees:         make(map[forge.TreeID]fileTree),
		refs:          make(map[string]forge.CommitID),
		prs:           make(map[int]forge.PullRequest),
		forceConflict: make(map[forge.CommitID][]string),
	}
}

func (f *Forge) nextid(prefix string) string {
	f.nextID++

	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

// Tree registers a new tree object from a flat path->content map and
// returns its id.
func (f *Forge) Tree(files map[string]string) forge.TreeID {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := forge.TreeID(f.nextid("tree"))
	f.trees[id] = fileTree(files).clone()

	return id
}

// Commit registers a new commit object with an auto-assigned id and
// returns it.
func (f *Forge) Commit(parents []forge.CommitID, tree forge.TreeID, message string, author forge.Identity) forge.Commit {
	f.mu.Lock()
	defer f.mu.Unlock()

	c := forge.Commit{
		ID:        forge.CommitID(f.nextid("commit")),
		Parents:   parents,
		Tree:      tree,
		Message:   message,
		Author:    author,
		Committer: author,
	}
	f.commits[c.ID] = c

	return c
}

// SetRef points ref directly at id, bypassing any fast-forward or CAS
// check — tests use it to seed initial state and to simulate a
// concurrent push landing mid-rebase.
func (f *Forge) SetRef(ref string, id forge.CommitID) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.refs[ref] = id
}

// SetPullRequest seeds a pull request's metadata. headRef/baseRef must
// already have a ref set via SetRef.
func (f *Forge) SetPullRequest(pr forge.PullRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.prs[pr.Number] = pr
}

// ForceConflict makes every later MergeThreeWay call applying source
// report a conflict on the given paths instead of computing the real
// merge.
func (f *Forge) ForceConflict(source forge.CommitID, paths ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.forceConflict[source] = paths
}

// Ref returns the commit a ref currently points at, for assertions.
func (f *Forge) Ref(ref string) forge.CommitID {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.refs[ref]
}

// Files returns the flat file map a tree resolves to, for assertions
// against the final replayed result.
func (f *Forge) Files(tree forge.TreeID) map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.trees[tree].clone()
}

var _ forge.Client = (*Forge)(nil)

func (f *Forge) GetPullRequest(_ context.Context, number int) (forge.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pr, ok := f.prs[number]
	if !ok {
		return forge.PullRequest{}, forge.ErrNotFound
	}

	pr.HeadSHA = f.refs[pr.HeadRef]
	pr.BaseSHA = f.refs[pr.BaseRef]

	return pr, nil
}

func (f *Forge) GetReferenceSHA(_ context.Context, ref string) (forge.CommitID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, ok := f.refs[ref]
	if !ok {
		return "", forge.ErrNotFound
	}

	return id, nil
}

func (f *Forge) ListCommitsBetween(_ context.Context, base, head forge.CommitID) ([]forge.Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var chain []forge.Commit

	cursor := head
	for cursor != base {
		c, ok := f.commits[cursor]
		if !ok {
			return nil, forge.ErrNotFound
		}

		chain = append(chain, c)

		if len(c.Parents) == 0 {
			return nil, forge.ErrNotFound
		}

		cursor = c.Parents[0]
	}

	// chain is newest-first; reverse to oldest-first.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	return chain, nil
}

func (f *Forge) GetCommit(_ context.Context, id forge.CommitID) (forge.Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.commits[id]
	if !ok {
		return forge.Commit{}, forge.ErrNotFound
	}

	return c, nil
}

// callerIdentity stands in for the identity a real forge attaches to a
// commit whose request carried no explicit committer.
var callerIdentity = forge.Identity{Name: "ghrebase-bot", Email: "ghrebase-bot@example.com"}

func (f *Forge) CreateCommit(_ context.Context, nc forge.NewCommit) (forge.CommitID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.trees[nc.Tree]; !ok {
		return "", forge.ErrNotFound
	}

	committer := nc.Committer
	if committer.IsZero() {
		committer = callerIdentity
	}

	c := forge.Commit{
		ID:        forge.CommitID(f.nextid("commit")),
		Parents:   nc.Parents,
		Tree:      nc.Tree,
		Message:   nc.Message,
		Author:    nc.Author,
		Committer: committer,
	}
	f.commits[c.ID] = c

	return c.ID, nil
}

// MergeThreeWay asserts branch currently sits at base, then three-way
// merges head onto it using head's own stored parent as the merge base —
// exactly what a real forge's merge endpoint does by walking commit
// ancestry to find the common ancestor, here made explicit since the
// fake has no ancestry-search of its own to mimic it implicitly.
func (f *Forge) MergeThreeWay(_ context.Context, branch string, base, head forge.CommitID) (forge.MergeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if paths, forced := f.forceConflict[head]; forced {
		return forge.MergeResult{}, &forge.ConflictError{Source: head, Paths: paths}
	}

	oursID, ok := f.refs[branch]
	if !ok {
		return forge.MergeResult{}, forge.ErrNotFound
	}

	if oursID != base {
		return forge.MergeResult{}, forge.ErrNonFastForward
	}

	oursCommit, ok := f.commits[oursID]
	if !ok {
		return forge.MergeResult{}, forge.ErrNotFound
	}

	headCommit, ok := f.commits[head]
	if !ok {
		return forge.MergeResult{}, forge.ErrNotFound
	}

	mergeBase := fileTree{}

	if len(headCommit.Parents) > 0 {
		parentCommit, ok := f.commits[headCommit.Parents[0]]
		if !ok {
			return forge.MergeResult{}, forge.ErrNotFound
		}

		mergeBase = f.trees[parentCommit.Tree]
	}

	merged, conflicts := threeWayMerge(f.trees[oursCommit.Tree], mergeBase, f.trees[headCommit.Tree])
	if len(conflicts) > 0 {
		return forge.MergeResult{}, &forge.ConflictError{Source: head, Paths: conflicts}
	}

	treeID := forge.TreeID(f.nextid("tree"))
	f.trees[treeID] = merged

	mergeCommit := forge.Commit{
		ID:      forge.CommitID(f.nextid("commit")),
		Parents: []forge.CommitID{oursID, head},
		Tree:    treeID,
		Message: "merge " + head.String() + " into " + branch,
	}
	f.commits[mergeCommit.ID] = mergeCommit

	// A real forge's merge endpoint advances branch to the new merge
	// commit as a side effect; callers that want branch back at a
	// specific commit must force-update it themselves afterward.
	f.refs[branch] = mergeCommit.ID

	return forge.MergeResult{CommitID: mergeCommit.ID, Tree: treeID}, nil
}

func (f *Forge) CreateTemporaryReference(_ context.Context, sha forge.CommitID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.commits[sha]; !ok {
		return "", forge.ErrNotFound
	}

	ref := "refs/heads/" + f.nextid("tmp")
	f.refs[ref] = sha

	return ref, nil
}

func (f *Forge) DeleteReference(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.refs, ref)

	return nil
}

func (f *Forge) UpdateReference(_ context.Context, ref string, sha forge.CommitID, force bool, expected forge.CommitID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, exists := f.refs[ref]

	if force {
		if !expected.Empty() && exists && current != expected {
			return forge.ErrNonFastForward
		}

		f.refs[ref] = sha

		return nil
	}

	if exists && !f.isAncestor(current, sha) {
		return forge.ErrNonFastForward
	}

	f.refs[ref] = sha

	return nil
}

// isAncestor reports whether ancestor is reachable from descendant by
// walking parent edges (all parents, not just first-parent).
func (f *Forge) isAncestor(ancestor, descendant forge.CommitID) bool {
	if ancestor == descendant {
		return true
	}

	seen := map[forge.CommitID]bool{}

	var walk func(id forge.CommitID) bool
	walk = func(id forge.CommitID) bool {
		if id == ancestor {
			return true
		}

		if seen[id] {
			return false
		}

		seen[id] = true

		c, ok := f.commits[id]
		if !ok {
			return false
		}

		for _, p := range c.Parents {
			if walk(p) {
				return true
			}
		}

		return false
	}

	return walk(descendant)
}

// threeWayMerge merges head's changes relative to base onto ours, the
// same way a forge's merge endpoint would: a path head didn't touch
// keeps ours' value; a path only head touched takes head's value; a path
// both touched identically resolves; a path both touched differently is
// a conflict.
func threeWayMerge(ours, base, head fileTree) (fileTree, []string) {
	merged := ours.clone()

	paths := map[string]struct{}{}
	for p := range base {
		paths[p] = struct{}{}
	}

	for p := range head {
		paths[p] = struct{}{}
	}

	for p := range ours {
		paths[p] = struct{}{}
	}

	var conflicts []string

	for p := range paths {
		baseVal, inBase := base[p]
		headVal, inHead := head[p]

		if inBase == inHead && baseVal == headVal {
			// head didn't change this path; keep ours.
			continue
		}

		oursVal, inOurs := ours[p]

		if inOurs == inBase && oursVal == baseVal {
			// ours didn't change this path; take head's edit.
			if inHead {
				merged[p] = headVal
			} else {
				delete(merged, p)
			}

			continue
		}

		if inOurs == inHead && oursVal == headVal {
			// both sides made the same change.
			continue
		}

		conflicts = append(conflicts, p)
	}

	return merged, conflicts
}
