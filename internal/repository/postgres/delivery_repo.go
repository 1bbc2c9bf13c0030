package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/NordCoder/FlightAlert/internal/domain/delivery"
)

var _ delivery.Repo = (*DeliveryRepo)(nil)

type DeliveryRepo struct{ db *DB }

func NewDeliveryRepo(db *DB) *DeliveryRepo { return &DeliveryRepo{db: db} }

const (
	qDeliveryInsert = `
INSERT INTO alert_deliveries (rule_id, user_id, channel, offers_count, status, detail, sent_at, payload)
VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, now()), $8)
RETURNING id, sent_at;
`
	qDeliveryByUser = `
SELECT id, rule_id, user_id, channel, offers_count, status, detail, sent_at, payload
FROM alert_deliveries
WHERE user_id = $1
ORDER BY sent_at DESC, id DESC
LIMIT $2;
`
)

func (r *DeliveryRepo) Create(ctx context.Context, d *delivery.Delivery) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if err := r.db.execQueryer(ctx).QueryRow(ctx, qDeliveryInsert,
		d.RuleID,
		d.UserID,
		d.Channel,
		d.OffersCount,
		string(d.Status),
		d.Detail,
		nullTime(d.SentAt),
		d.Payload,
	).Scan(&d.ID, &d.SentAt); err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

func (r *DeliveryRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]*delivery.Delivery, error) {
	if limit <= 0 {
		limit = 50
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qDeliveryByUser, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	out := make([]*delivery.Delivery, 0, limit)
	for rows.Next() {
		var (
			d      delivery.Delivery
			status string
		)
		if err := rows.Scan(&d.ID, &d.RuleID, &d.UserID, &d.Channel, &d.OffersCount, &status, &d.Detail, &d.SentAt, &d.Payload); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		d.Status = delivery.Status(status)
		out = append(out, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
