// Package commands contains the CLI command implementations.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/andrewhampton/ghrebase/internal/config"
)

// configKey is the context key for runtime config.
type configKey struct{}

// runtimeConfig holds the flags and environment-derived settings shared
// by every subcommand.
type runtimeConfig struct {
	config.Config

	token   string
	jsonOut bool
	log     zerolog.Logger
}

func getRuntimeConfig(ctx context.Context) runtimeConfig {
	if cfg, ok := ctx.Value(configKey{}).(runtimeConfig); ok {
		return cfg
	}

	return runtimeConfig{log: zerolog.Nop()}
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:     "ghrebase",
		Short:   "Rebase pull requests entirely through a Git forge's API",
		Version: Version,
		Long: `ghrebase replays a pull request's commits onto its current base and
folds any fixup!/squash! commits, entirely through a forge's HTTP API.

It never clones the repository, never shells out to git, and never
touches a local working copy: every commit, merge and ref update happens
on the forge itself.

Examples:
  # Rebase a pull request onto its current base
  ghrebase run --repo octocat/hello-world --pr 42

  # Check whether a pull request has any fixup!/squash! commits pending
  ghrebase needs-autosquash --repo octocat/hello-world --pr 42`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			envCfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			log := zerolog.New(os.Stderr).Level(envCfg.LogLevel).With().Timestamp().Logger()

			cfg := runtimeConfig{
				Config:  envCfg,
				token:   os.Getenv("GITHUB_TOKEN"),
				jsonOut: jsonOut,
				log:     log,
			}

			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			cmd.SetContext(ctx)

			return nil
		},
	}

	cmd.PersistentFlags().BoolVar(
		&jsonOut, "json", false,
		"output in JSON format (for machine consumption)",
	)

	cmd.AddCommand(NewRebaseCmd())
	cmd.AddCommand(NewNeedsAutosquashCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
