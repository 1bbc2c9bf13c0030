package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NordCoder/FlightAlert/internal/domain/delivery"
	"github.com/NordCoder/FlightAlert/internal/domain/outbox"
	outboxrelay "github.com/NordCoder/FlightAlert/internal/outbox"
	"github.com/NordCoder/FlightAlert/internal/services/sweeper"
	"github.com/google/uuid"
)

type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Watermarks interface {
	MarkNotified(ctx context.Context, id int64, at time.Time) error
}

type Deliveries interface {
	Create(ctx context.Context, d *delivery.Delivery) error
}

type Outbox interface {
	Enqueue(ctx context.Context, key string, kind outbox.Kind, data []byte) error
}

// Ledger writes a rule's new watermark, its delivery row and, when events are
// enabled, an outbox message in one transaction.
type Ledger struct {
	Tx         Transactor
	Rules      Watermarks
	Deliveries Deliveries
	Outbox     Outbox
}

var _ sweeper.Ledger = Ledger{}

func (l Ledger) Record(ctx context.Context, o sweeper.Outcome) error {
	return l.Tx.WithTx(ctx, func(ctx context.Context) error {
		if err := l.Rules.MarkNotified(ctx, o.Rule.ID, o.At); err != nil {
			return fmt.Errorf("mark notified: %w", err)
		}

		status := "no_offers"
		if o.Delivery != nil {
			if err := l.Deliveries.Create(ctx, o.Delivery); err != nil {
				return fmt.Errorf("create delivery: %w", err)
			}
			status = string(o.Delivery.Status)
		}

		if l.Outbox == nil {
			return nil
		}
		data, err := json.Marshal(outboxrelay.AlertPayload{
			RuleID:      o.Rule.ID,
			UserID:      o.Rule.UserID,
			Origin:      o.Rule.Origin,
			Destination: o.Rule.Destination,
			OffersCount: o.Offers,
			Status:      status,
			At:          o.At,
		})
		if err != nil {
			return fmt.Errorf("marshal alert payload: %w", err)
		}
		if err := l.Outbox.Enqueue(ctx, uuid.NewString(), outbox.KindAlertDispatched, data); err != nil {
			return fmt.Errorf("enqueue alert event: %w", err)
		}
		return nil
	})
}
