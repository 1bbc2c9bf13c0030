package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/NordCoder/FlightAlert/internal/repository/kafka"
	"github.com/spf13/cobra"
	"google.golang.org/protobuf/types/known/structpb"
)

type TailOptions struct {
	GroupID       string
	FromBeginning bool
}

type eventLine struct {
	Key         string    `json:"key"`
	RuleID      int64     `json:"rule_id"`
	UserID      int64     `json:"user_id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	OffersCount int       `json:"offers_count"`
	Status      string    `json:"status"`
	At          time.Time `json:"at"`
}

func newEventsCommand(opts *RootOptions, open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect the alert event stream",
	}

	var tail TailOptions
	tailCmd := &cobra.Command{
		Use:   "tail",
		Short: "Print alert.dispatched events as they arrive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, opts, open, func(env *Env) error {
				if env.Tail == nil {
					return fmt.Errorf("events are disabled in this config")
				}
				h := kafka.ProtoHandler(
					func() *structpb.Struct { return &structpb.Struct{} },
					func(_ context.Context, key []byte, s *structpb.Struct) error {
						ev, err := kafka.DecodeAlertDispatched(s)
						if err != nil {
							return err
						}
						line := eventLine{
							Key: string(key), RuleID: ev.RuleID, UserID: ev.UserID,
							Origin: ev.Origin, Destination: ev.Destination,
							OffersCount: ev.OffersCount, Status: ev.Status, At: ev.At,
						}
						return emit(cmd.OutOrStdout(), opts, line, fmt.Sprintf(
							"%s rule=%d user=%d %s->%s offers=%d status=%s",
							ev.At.Format(time.RFC3339), ev.RuleID, ev.UserID,
							ev.Origin, ev.Destination, ev.OffersCount, ev.Status))
					},
				)
				err := env.Tail(cmd.Context(), tail, h)
				if cmd.Context().Err() != nil {
					return nil
				}
				return err
			})
		},
	}
	tailCmd.Flags().StringVar(&tail.GroupID, "group", "flightctl-tail", "consumer group id")
	tailCmd.Flags().BoolVar(&tail.FromBeginning, "from-beginning", false, "start from the oldest retained event")

	cmd.AddCommand(tailCmd)
	return cmd
}
