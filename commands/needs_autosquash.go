package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/andrewhampton/ghrebase/rebase"
)

type needsAutosquashOutput struct {
	NeedsAutosquash bool `json:"needs_autosquash"`
}

// NewNeedsAutosquashCmd creates the "needs-autosquash" command.
func NewNeedsAutosquashCmd() *cobra.Command {
	var flags repoFlags

	cmd := &cobra.Command{
		Use:   "needs-autosquash",
		Short: "Report whether a pull request has pending fixup!/squash! commits",
		Long: `Check whether any commit in a pull request's range begins with a
fixup! or squash! directive, without creating or updating anything. The
exit code is 0 whether or not autosquashing is needed; check the
reported value, not the exit status.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getRuntimeConfig(cmd.Context())

			client, err := newClient(cmd.Context(), cfg, flags)
			if err != nil {
				return err
			}

			need, err := rebase.NeedAutosquashing(
				cmd.Context(), client, flags.pr,
				rebase.WithLogger(cfg.log),
			)
			if err != nil {
				return err
			}

			if cfg.jsonOut {
				return writeNeedsAutosquashJSON(cmd.OutOrStdout(), need)
			}

			if need {
				fmt.Fprintln(cmd.OutOrStdout(), "yes")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "no")
			}

			return nil
		},
	}

	flags.register(cmd)

	return cmd
}

func writeNeedsAutosquashJSON(w io.Writer, need bool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(needsAutosquashOutput{NeedsAutosquash: need})
}
