package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/NordCoder/FlightAlert/internal/domain/rule"
	"github.com/jackc/pgx/v5"
)

var _ rule.Repo = (*RuleRepo)(nil)

type RuleRepo struct {
	db *DB
}

func NewRuleRepo(db *DB) *RuleRepo { return &RuleRepo{db: db} }

const DefaultCandidatePage = 500

const ruleColumns = `id, user_id, origin, destination, departure_date, max_price,
       frequency, frequency_unit, is_active, last_notification, created_at`

const (
	qRuleInsert = `
INSERT INTO flight_notifications
    (user_id, origin, destination, departure_date, max_price, frequency, frequency_unit, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
RETURNING ` + ruleColumns + `;`

	qRuleByID = `
SELECT ` + ruleColumns + `
FROM flight_notifications
WHERE id = $1;`

	qRuleListByUser = `
SELECT ` + ruleColumns + `
FROM flight_notifications
WHERE user_id = $1
ORDER BY id;`

	qRuleDeleteOwned = `DELETE FROM flight_notifications WHERE id = $1 AND user_id = $2;`

	qRuleSetActive = `UPDATE flight_notifications SET is_active = $2 WHERE id = $1;`

	// Coarse filter only; the per-unit interval is checked in Go.
	// Keyset on id so a page of not-yet-due rules cannot hide later ones.
	qRuleCandidates = `
SELECT ` + ruleColumns + `
FROM flight_notifications
WHERE is_active = TRUE
  AND (last_notification IS NULL OR last_notification <= $1)
  AND id > $2
ORDER BY id
LIMIT $3;`

	qRuleMarkNotified = `UPDATE flight_notifications SET last_notification = $2 WHERE id = $1;`
)

func scanRule(row pgx.Row, r *rule.Rule) error {
	var unit string
	if err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.Origin,
		&r.Destination,
		&r.DepartureDate,
		&r.MaxPrice,
		&r.Frequency,
		&unit,
		&r.IsActive,
		&r.LastNotification,
		&r.CreatedAt,
	); err != nil {
		if notFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("scan rule: %w", err)
	}
	r.FrequencyUnit = rule.FrequencyUnit(unit)
	return nil
}

func (r *RuleRepo) Create(ctx context.Context, n *rule.Rule) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.execQueryer(ctx).QueryRow(ctx, qRuleInsert,
		n.UserID, n.Origin, n.Destination, n.DepartureDate,
		n.MaxPrice, n.Frequency, string(n.FrequencyUnit),
	)
	if err := scanRule(row, n); err != nil {
		return fmt.Errorf("rule insert: %w", err)
	}
	return nil
}

func (r *RuleRepo) GetByID(ctx context.Context, id int64) (*rule.Rule, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var n rule.Rule
	if err := scanRule(r.db.execQueryer(ctx).QueryRow(ctx, qRuleByID, id), &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *RuleRepo) ListByUser(ctx context.Context, userID int64) ([]*rule.Rule, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	return r.list(ctx, qRuleListByUser, userID)
}

func (r *RuleRepo) DeleteOwned(ctx context.Context, id, userID int64) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qRuleDeleteOwned, id, userID)
	if err != nil {
		return fmt.Errorf("rule delete: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RuleRepo) SetActive(ctx context.Context, id int64, active bool) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qRuleSetActive, id, active)
	if err != nil {
		return fmt.Errorf("rule set active: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RuleRepo) FetchCandidates(ctx context.Context, now time.Time, afterID int64, limit int) ([]*rule.Rule, error) {
	if limit <= 0 {
		limit = DefaultCandidatePage
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	return r.list(ctx, qRuleCandidates, now, afterID, limit)
}

func (r *RuleRepo) MarkNotified(ctx context.Context, id int64, at time.Time) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qRuleMarkNotified, id, at)
	if err != nil {
		return fmt.Errorf("rule mark notified: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RuleRepo) list(ctx context.Context, q string, args ...any) ([]*rule.Rule, error) {
	rows, err := r.db.execQueryer(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	out := make([]*rule.Rule, 0)
	for rows.Next() {
		var n rule.Rule
		if err := scanRule(rows, &n); err != nil {
			return nil, err
		}
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
