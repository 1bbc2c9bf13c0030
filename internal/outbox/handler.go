package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NordCoder/FlightAlert/internal/domain/kafka"
	"github.com/NordCoder/FlightAlert/internal/domain/outbox"
	"github.com/NordCoder/FlightAlert/internal/obs/retry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

// AlertPayload is the outbox body written next to a rule's watermark.
type AlertPayload struct {
	RuleID      int64     `json:"rule_id"`
	UserID      int64     `json:"user_id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	OffersCount int       `json:"offers_count"`
	Status      string    `json:"status"`
	At          time.Time `json:"at"`
}

func (p AlertPayload) Event() kafka.AlertDispatched {
	return kafka.AlertDispatched{
		RuleID:      p.RuleID,
		UserID:      p.UserID,
		Origin:      p.Origin,
		Destination: p.Destination,
		OffersCount: p.OffersCount,
		Status:      p.Status,
		At:          p.At,
	}
}

type handlerMetrics struct {
	latency *prometheus.HistogramVec
	errors  *prometheus.CounterVec
}

func newHandlerMetrics(reg prometheus.Registerer) *handlerMetrics {
	f := promauto.With(reg)
	return &handlerMetrics{
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "outbox_handler_latency_seconds",
			Help:    "Latency of outbox handlers including retries.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		errors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "outbox_handler_errors_total",
			Help: "Errors in outbox handlers (after retries).",
		}, []string{"kind"}),
	}
}

func (m *handlerMetrics) instrument(kind string, h outbox.KindHandler, pol retry.Policy) outbox.KindHandler {
	tr := otel.Tracer("outbox.handler")
	if pol.Name == "" {
		pol.Name = "outbox_" + kind
	}
	return func(ctx context.Context, data []byte) error {
		ctx, span := tr.Start(ctx, "outbox.handle "+kind)
		defer span.End()

		start := time.Now()
		err := retry.Do(ctx, func() error { return h(ctx, data) }, pol)
		m.latency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			m.errors.WithLabelValues(kind).Inc()
		}
		return err
	}
}

// MakeGlobalOutboxHandler routes each outbox kind to its publisher.
func MakeGlobalOutboxHandler(pub kafka.AlertEvents, pol retry.Policy, reg prometheus.Registerer) outbox.GlobalHandler {
	m := newHandlerMetrics(reg)
	alert := m.instrument("alert_dispatched", func(ctx context.Context, data []byte) error {
		var p AlertPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("unmarshal alert payload: %w", err)
		}
		return pub.PublishAlertDispatched(ctx, p.Event())
	}, pol)

	return func(kind outbox.Kind) (outbox.KindHandler, error) {
		switch kind {
		case outbox.KindAlertDispatched:
			return alert, nil
		default:
			return nil, fmt.Errorf("unsupported outbox kind: %d", kind)
		}
	}
}
