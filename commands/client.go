package commands

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/andrewhampton/ghrebase/githubforge"
)

// repoFlags are the --repo and --pr flags every forge-touching subcommand
// shares.
type repoFlags struct {
	repo string
	pr   int
}

func (f *repoFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.repo, "repo", "", "repository in owner/name form (required)")
	cmd.Flags().IntVar(&f.pr, "pr", 0, "pull request number (required)")

	_ = cmd.MarkFlagRequired("repo")
	_ = cmd.MarkFlagRequired("pr")
}

func (f *repoFlags) ownerAndRepo() (string, string, error) {
	owner, repo, ok := strings.Cut(f.repo, "/")
	if !ok || owner == "" || repo == "" {
		return "", "", errors.Errorf("--repo must be in owner/name form, got %q", f.repo)
	}

	return owner, repo, nil
}

// newClient builds a githubforge.Client for the given --repo using the
// current runtime config (token, base URL, timeout, logger).
func newClient(ctx context.Context, cfg runtimeConfig, f repoFlags) (*githubforge.Client, error) {
	owner, repo, err := f.ownerAndRepo()
	if err != nil {
		return nil, err
	}

	if cfg.token == "" {
		return nil, errors.New("GITHUB_TOKEN must be set")
	}

	return githubforge.New(
		ctx, owner, repo, cfg.token, cfg.GitHubBaseURL,
		githubforge.WithLogger(cfg.log),
		githubforge.WithTimeout(cfg.RequestTimeout),
		githubforge.WithTempRefPrefix(cfg.TmpRefPrefix),
	)
}
