package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type sweepResult struct {
	Candidates int  `json:"candidates"`
	Due        int  `json:"due"`
	Matched    int  `json:"matched"`
	Sent       int  `json:"sent"`
	Failed     int  `json:"failed"`
	Errors     int  `json:"errors"`
	Skipped    bool `json:"skipped"`
}

func newSweepCommand(opts *RootOptions, open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one sweep over the due rules and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, opts, open, func(env *Env) error {
				rep, err := env.Sweep.Run(cmd.Context(), env.Now())
				if err != nil {
					return fmt.Errorf("sweep: %w", err)
				}
				res := sweepResult(rep)
				if rep.Skipped {
					return emit(cmd.OutOrStdout(), opts, res, "skipped: another sweeper holds the lock")
				}
				return emit(cmd.OutOrStdout(), opts, res, fmt.Sprintf(
					"candidates=%d due=%d matched=%d sent=%d failed=%d errors=%d",
					rep.Candidates, rep.Due, rep.Matched, rep.Sent, rep.Failed, rep.Errors))
			})
		},
	}
}
