package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/NordCoder/FlightAlert/internal/domain/kafka"
	"google.golang.org/protobuf/types/known/structpb"
)

// AlertEventsKafka publishes sweep outcomes keyed by rule id, so every event
// for one rule lands on the same partition.
type AlertEventsKafka struct {
	p *Producer
}

func NewAlertEventsKafka(p *Producer) *AlertEventsKafka { return &AlertEventsKafka{p: p} }

var _ kafka.AlertEvents = (*AlertEventsKafka)(nil)

func (e *AlertEventsKafka) PublishAlertDispatched(ctx context.Context, ev kafka.AlertDispatched) error {
	msg, err := EncodeAlertDispatched(ev)
	if err != nil {
		return err
	}
	return e.p.PublishProto(ctx, KeyFromInt64(ev.RuleID), msg)
}

func EncodeAlertDispatched(ev kafka.AlertDispatched) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(map[string]any{
		"rule_id":      ev.RuleID,
		"user_id":      ev.UserID,
		"origin":       ev.Origin,
		"destination":  ev.Destination,
		"offers_count": ev.OffersCount,
		"status":       ev.Status,
		"at":           ev.At.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("encode alert event: %w", err)
	}
	return s, nil
}

// DecodeAlertDispatched is the inverse of EncodeAlertDispatched.
func DecodeAlertDispatched(s *structpb.Struct) (kafka.AlertDispatched, error) {
	f := s.GetFields()
	ev := kafka.AlertDispatched{
		RuleID:      int64(f["rule_id"].GetNumberValue()),
		UserID:      int64(f["user_id"].GetNumberValue()),
		Origin:      f["origin"].GetStringValue(),
		Destination: f["destination"].GetStringValue(),
		OffersCount: int(f["offers_count"].GetNumberValue()),
		Status:      f["status"].GetStringValue(),
	}
	if raw := f["at"].GetStringValue(); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return ev, fmt.Errorf("decode alert event time: %w", err)
		}
		ev.At = at
	}
	return ev, nil
}
