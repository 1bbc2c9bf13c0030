package cli

import (
	"context"
	"errors"
	"fmt"

	pg "github.com/NordCoder/FlightAlert/internal/repository/postgres"
	"github.com/spf13/cobra"
)

type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type userDeleter interface {
	Delete(ctx context.Context, id int64) error
}

type tokenRevoker interface {
	RevokeAllForUser(ctx context.Context, userID int64) error
}

// UserRemoval revokes a user's sessions and deletes the account in one
// transaction. Rules and deliveries go with it through the foreign keys.
type UserRemoval struct {
	Tx     Transactor
	Users  userDeleter
	Tokens tokenRevoker
}

func (u UserRemoval) RemoveUser(ctx context.Context, id int64) error {
	return u.Tx.WithTx(ctx, func(ctx context.Context) error {
		if err := u.Tokens.RevokeAllForUser(ctx, id); err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
		return u.Users.Delete(ctx, id)
	})
}

func newUserCommand(opts *RootOptions, open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete a user together with their rules and sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEnv(cmd, opts, open, func(env *Env) error {
				if err := env.Users.RemoveUser(cmd.Context(), id); err != nil {
					if errors.Is(err, pg.ErrNotFound) {
						return fmt.Errorf("user %d not found", id)
					}
					return err
				}
				return emit(cmd.OutOrStdout(), opts,
					map[string]any{"id": id, "deleted": true},
					fmt.Sprintf("user %d deleted", id))
			})
		},
	})
	return cmd
}
