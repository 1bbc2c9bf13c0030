package cli

import (
	"errors"
	"fmt"
	"strconv"

	pg "github.com/NordCoder/FlightAlert/internal/repository/postgres"
	"github.com/spf13/cobra"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func newRuleCommand(opts *RootOptions, open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rule",
		Short: "Manage alert rules",
	}
	cmd.AddCommand(newSetActiveCommand(opts, open, "activate", true))
	cmd.AddCommand(newSetActiveCommand(opts, open, "deactivate", false))
	return cmd
}

func newSetActiveCommand(opts *RootOptions, open Opener, verb string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <rule-id>",
		Short: verb + " a rule so the sweeper picks it up or ignores it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEnv(cmd, opts, open, func(env *Env) error {
				if err := env.Rules.SetActive(cmd.Context(), id, active); err != nil {
					if errors.Is(err, pg.ErrNotFound) {
						return fmt.Errorf("rule %d not found", id)
					}
					return err
				}
				return emit(cmd.OutOrStdout(), opts,
					map[string]any{"id": id, "is_active": active},
					fmt.Sprintf("rule %d: is_active=%t", id, active))
			})
		},
	}
}
