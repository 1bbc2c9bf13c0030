// Package cli implements flightctl, the operator CLI for rules, users, sweeps
// and the alert event stream.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/NordCoder/FlightAlert/internal/repository/kafka"
	"github.com/NordCoder/FlightAlert/internal/services/sweeper"
	"github.com/spf13/cobra"
)

type RuleAdmin interface {
	SetActive(ctx context.Context, id int64, active bool) error
}

type UserRemover interface {
	RemoveUser(ctx context.Context, id int64) error
}

// TailFunc consumes alert events until ctx ends.
type TailFunc func(ctx context.Context, opts TailOptions, h kafka.Handler) error

// Env is what the commands operate on. Close releases whatever Open acquired.
type Env struct {
	Sweep sweeper.Sweeper
	Rules RuleAdmin
	Users UserRemover
	Tail  TailFunc
	Now   func() time.Time
	Close func()
}

// Opener builds an Env from the global flags.
type Opener func(ctx context.Context, opts *RootOptions) (*Env, error)

type RootOptions struct {
	ConfigPath string
	Format     string
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand(open Opener) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "flightctl",
		Short:         "Operate a FlightAlert deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to the sweeper YAML config (defaults to CONFIG_PATH)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(newSweepCommand(opts, open))
	cmd.AddCommand(newRuleCommand(opts, open))
	cmd.AddCommand(newUserCommand(opts, open))
	cmd.AddCommand(newEventsCommand(opts, open))
	return cmd
}

// withEnv opens the environment for the duration of one command.
func withEnv(cmd *cobra.Command, opts *RootOptions, open Opener, fn func(*Env) error) error {
	env, err := open(cmd.Context(), opts)
	if err != nil {
		return err
	}
	if env.Close != nil {
		defer env.Close()
	}
	if env.Now == nil {
		env.Now = func() time.Time { return time.Now().UTC() }
	}
	return fn(env)
}

// emit prints v as JSON or, in text mode, the preformatted line.
func emit(w io.Writer, opts *RootOptions, v any, text string) error {
	if opts.Format == "json" {
		enc := json.NewEncoder(w)
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(w, text)
	return err
}
