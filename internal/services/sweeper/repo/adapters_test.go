package repo

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/NordCoder/FlightAlert/internal/domain/delivery"
	"github.com/NordCoder/FlightAlert/internal/domain/outbox"
	"github.com/NordCoder/FlightAlert/internal/domain/rule"
	outboxrelay "github.com/NordCoder/FlightAlert/internal/outbox"
	"github.com/NordCoder/FlightAlert/internal/services/sweeper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type passTx struct{ calls int }

func (p *passTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	p.calls++
	return fn(ctx)
}

type marks struct {
	at  map[int64]time.Time
	err error
}

func (m *marks) MarkNotified(_ context.Context, id int64, at time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.at[id] = at
	return nil
}

type deliveries struct{ rows []*delivery.Delivery }

func (d *deliveries) Create(_ context.Context, x *delivery.Delivery) error {
	d.rows = append(d.rows, x)
	return nil
}

type box struct {
	keys []string
	data [][]byte
}

func (b *box) Enqueue(_ context.Context, key string, kind outbox.Kind, data []byte) error {
	if kind != outbox.KindAlertDispatched {
		return errors.New("unexpected kind")
	}
	b.keys = append(b.keys, key)
	b.data = append(b.data, data)
	return nil
}

func TestLedger_RecordsAllThree(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tx, m, d, b := &passTx{}, &marks{at: map[int64]time.Time{}}, &deliveries{}, &box{}
	l := Ledger{Tx: tx, Rules: m, Deliveries: d, Outbox: b}

	err := l.Record(context.Background(), sweeper.Outcome{
		Rule:     &rule.Rule{ID: 5, UserID: 2, Origin: "JFK", Destination: "LAX"},
		At:       at,
		Offers:   3,
		Delivery: &delivery.Delivery{RuleID: 5, Status: delivery.StatusSent},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, tx.calls)
	assert.Equal(t, at, m.at[5])
	require.Len(t, d.rows, 1)
	require.Len(t, b.data, 1)
	assert.NotEmpty(t, b.keys[0])

	var p outboxrelay.AlertPayload
	require.NoError(t, json.Unmarshal(b.data[0], &p))
	assert.Equal(t, int64(5), p.RuleID)
	assert.Equal(t, "sent", p.Status)
	assert.Equal(t, 3, p.OffersCount)
}

func TestLedger_NoDeliveryNoOutbox(t *testing.T) {
	m, d := &marks{at: map[int64]time.Time{}}, &deliveries{}
	l := Ledger{Tx: &passTx{}, Rules: m, Deliveries: d}

	require.NoError(t, l.Record(context.Background(), sweeper.Outcome{Rule: &rule.Rule{ID: 1}, At: time.Now()}))
	assert.Contains(t, m.at, int64(1))
	assert.Empty(t, d.rows)
}

func TestLedger_WatermarkErrorStopsEverything(t *testing.T) {
	d, b := &deliveries{}, &box{}
	l := Ledger{Tx: &passTx{}, Rules: &marks{err: errors.New("gone")}, Deliveries: d, Outbox: b}

	err := l.Record(context.Background(), sweeper.Outcome{
		Rule: &rule.Rule{ID: 1}, Delivery: &delivery.Delivery{Status: delivery.StatusFailed},
	})
	require.Error(t, err)
	assert.Empty(t, d.rows)
	assert.Empty(t, b.keys)
}
