// Package githubforge implements forge.Client against the real GitHub (or
// GitHub Enterprise Server) REST API via go-github, so the rebase engine
// never needs a local clone or git binary to operate on a pull request.
package githubforge

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v60/github"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/andrewhampton/ghrebase/forge"
)

const (
	refsPrefix  = "refs/"
	headsPrefix = "heads/"

	// defaultTmpRefPrefix is the heads/-relative namespace scratch refs
	// are created under absent a WithTempRefPrefix override.
	defaultTmpRefPrefix = "ghrebase/"
)

// Client implements forge.Client against one GitHub repository.
type Client struct {
	gh        *github.Client
	owner     string
	repo      string
	log       zerolog.Logger
	timeout   time.Duration
	tmpPrefix string
}

// New builds a Client authenticated with token, scoped to owner/repo. When
// baseURL is empty, api.github.com is used; otherwise baseURL should be a
// GitHub Enterprise Server API root (e.g. "https://ghe.example.com/api/v3/").
func New(ctx context.Context, owner, repo, token, baseURL string, opts ...Option) (*Client, error) {
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	))

	gh := github.NewClient(httpClient)

	if baseURL != "" {
		var err error

		gh, err = gh.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, errors.Wrap(err, "githubforge: configure enterprise base url")
		}
	}

	c := &Client{
		gh:        gh,
		owner:     owner,
		repo:      repo,
		log:       zerolog.Nop(),
		timeout:   30 * time.Second,
		tmpPrefix: defaultTmpRefPrefix,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Option customizes a Client constructed with New.
type Option func(*Client)

// WithLogger sets the logger used for request-level diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithTimeout bounds every individual API call issued by the client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient overrides the transport entirely, useful for pointing the
// client at a test server.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.gh = github.NewClient(hc) }
}

// WithTempRefPrefix overrides the heads/-relative namespace scratch refs
// are created under.
func WithTempRefPrefix(prefix string) Option {
	return func(c *Client) { c.tmpPrefix = prefix }
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, c.timeout)
}

// headsRef normalizes a ref name (possibly already prefixed with "refs/"
// or "refs/heads/") down to the "heads/<name>" form go-github's Git
// service expects.
func headsRef(ref string) string {
	ref = strings.TrimPrefix(ref, refsPrefix)
	ref = strings.TrimPrefix(ref, headsPrefix)

	return headsPrefix + ref
}

func (c *Client) GetPullRequest(ctx context.Context, number int) (forge.PullRequest, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	pr, resp, err := c.gh.PullRequests.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		return forge.PullRequest{}, translateError(resp, err)
	}

	return forge.PullRequest{
		Number:  pr.GetNumber(),
		HeadRef: pr.GetHead().GetRef(),
		HeadSHA: forge.CommitID(pr.GetHead().GetSHA()),
		BaseRef: pr.GetBase().GetRef(),
		BaseSHA: forge.CommitID(pr.GetBase().GetSHA()),
	}, nil
}

func (c *Client) GetReferenceSHA(ctx context.Context, ref string) (forge.CommitID, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	r, resp, err := c.gh.Git.GetRef(ctx, c.owner, c.repo, headsRef(ref))
	if err != nil {
		return "", translateError(resp, err)
	}

	return forge.CommitID(r.GetObject().GetSHA()), nil
}

func (c *Client) ListCommitsBetween(ctx context.Context, base, head forge.CommitID) ([]forge.Commit, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	cmp, resp, err := c.gh.Repositories.CompareCommits(ctx, c.owner, c.repo, base.String(), head.String(), nil)
	if err != nil {
		return nil, translateError(resp, err)
	}

	commits := make([]forge.Commit, 0, len(cmp.Commits))

	for _, rc := range cmp.Commits {
		commits = append(commits, repoCommitToCommit(rc))
	}

	return commits, nil
}

func (c *Client) GetCommit(ctx context.Context, id forge.CommitID) (forge.Commit, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	gc, resp, err := c.gh.Git.GetCommit(ctx, c.owner, c.repo, id.String())
	if err != nil {
		return forge.Commit{}, translateError(resp, err)
	}

	return gitCommitToCommit(id, gc), nil
}

func (c *Client) CreateCommit(ctx context.Context, nc forge.NewCommit) (forge.CommitID, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	parents := make([]*github.Commit, len(nc.Parents))
	for i, p := range nc.Parents {
		sha := p.String()
		parents[i] = &github.Commit{SHA: &sha}
	}

	tree := nc.Tree.String()
	message := nc.Message

	commit := &github.Commit{
		Message: &message,
		Tree:    &github.Tree{SHA: &tree},
		Parents: parents,
		Author:  identityToGitUser(nc.Author),
	}

	// A zero Committer means "let GitHub attribute the commit to the
	// token's own identity," which it only does when the field is left
	// out of the request entirely.
	if !nc.Committer.IsZero() {
		commit.Committer = identityToGitUser(nc.Committer)
	}

	created, resp, err := c.gh.Git.CreateCommit(ctx, c.owner, c.repo, commit, nil)
	if err != nil {
		return "", translateError(resp, err)
	}

	return forge.CommitID(created.GetSHA()), nil
}

func (c *Client) MergeThreeWay(ctx context.Context, branch string, base, head forge.CommitID) (forge.MergeResult, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	headSHA := head.String()
	branchRef := strings.TrimPrefix(headsRef(branch), headsPrefix)

	merge, resp, err := c.gh.Repositories.Merge(ctx, c.owner, c.repo, &github.RepositoryMergeRequest{
		Base: &branchRef,
		Head: &headSHA,
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusConflict {
			return forge.MergeResult{}, &forge.ConflictError{Source: head}
		}

		return forge.MergeResult{}, translateError(resp, err)
	}

	return forge.MergeResult{
		CommitID: forge.CommitID(merge.GetSHA()),
		Tree:     forge.TreeID(merge.GetCommit().GetTree().GetSHA()),
	}, nil
}

func (c *Client) CreateTemporaryReference(ctx context.Context, sha forge.CommitID) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	name := headsRef(c.tmpPrefix + uuid.NewString())
	fullRef := refsPrefix + name
	sl := sha.String()

	_, resp, err := c.gh.Git.CreateRef(ctx, c.owner, c.repo, &github.Reference{
		Ref:    &fullRef,
		Object: &github.GitObject{SHA: &sl},
	})
	if err != nil {
		return "", translateError(resp, err)
	}

	c.log.Debug().Str("ref", fullRef).Msg("created scratch ref")

	return fullRef, nil
}

func (c *Client) DeleteReference(ctx context.Context, ref string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	_, err := c.gh.Git.DeleteRef(ctx, c.owner, c.repo, headsRef(ref))
	if err != nil && !isNotFound(err) {
		return errors.Wrapf(err, "githubforge: delete ref %s", ref)
	}

	return nil
}

func (c *Client) UpdateReference(ctx context.Context, ref string, sha forge.CommitID, force bool, expected forge.CommitID) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if force && !expected.Empty() {
		current, err := c.GetReferenceSHA(ctx, ref)
		if err != nil {
			return err
		}

		if current != expected {
			return forge.ErrNonFastForward
		}
	}

	name := headsRef(ref)
	fullRef := refsPrefix + name
	sl := sha.String()

	_, resp, err := c.gh.Git.UpdateRef(ctx, c.owner, c.repo, &github.Reference{
		Ref:    &fullRef,
		Object: &github.GitObject{SHA: &sl},
	}, force)
	if err != nil {
		return translateError(resp, err)
	}

	return nil
}
