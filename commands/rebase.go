package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/andrewhampton/ghrebase/rebase"
)

// rebaseOutput is the JSON output for "ghrebase run".
type rebaseOutput struct {
	Success bool   `json:"success"`
	Head    string `json:"head"`
}

// NewRebaseCmd creates the "run" command.
func NewRebaseCmd() *cobra.Command {
	var flags repoFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Rebase a pull request onto its current base",
		Long: `Replay a pull request's commits onto its current base, folding any
fixup!/squash! commits along the way, and move the pull request's head
to the result.

The pull request's head is only ever updated if it still matches what
was observed when the command started; if a concurrent push landed in
the meantime, the command fails and leaves the head untouched.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getRuntimeConfig(cmd.Context())

			client, err := newClient(cmd.Context(), cfg, flags)
			if err != nil {
				return err
			}

			newHead, err := rebase.Rebase(
				cmd.Context(), client, flags.pr,
				rebase.WithLogger(cfg.log),
			)
			if err != nil {
				return err
			}

			if cfg.jsonOut {
				return writeRebaseJSON(cmd.OutOrStdout(), newHead.String())
			}

			fmt.Fprintf(cmd.OutOrStdout(), "rebased pull request #%d, head is now %s\n", flags.pr, newHead)

			return nil
		},
	}

	flags.register(cmd)

	return cmd
}

func writeRebaseJSON(w io.Writer, head string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(rebaseOutput{Success: true, Head: head})
}
