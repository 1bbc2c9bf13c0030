package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/NordCoder/FlightAlert/internal/domain/delivery"
	"github.com/NordCoder/FlightAlert/internal/domain/rule"
	"github.com/NordCoder/FlightAlert/internal/domain/user"
	"github.com/NordCoder/FlightAlert/internal/gateway/email"
	"github.com/NordCoder/FlightAlert/internal/gateway/flights"
	"github.com/NordCoder/FlightAlert/internal/obs"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type RuleSource interface {
	FetchCandidates(ctx context.Context, now time.Time, afterID int64, limit int) ([]*rule.Rule, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

type FlightSearcher interface {
	SearchOffers(ctx context.Context, q flights.OfferQuery) ([]flights.Offer, error)
}

// Ledger persists the result of one rule atomically.
type Ledger interface {
	Record(ctx context.Context, o Outcome) error
}

type Locker interface {
	TryLock(ctx context.Context) (release func(), ok bool, err error)
}

// Outcome is what happened to one due rule during a sweep. Delivery is nil
// when no email was attempted.
type Outcome struct {
	Rule     *rule.Rule
	At       time.Time
	Offers   int
	Delivery *delivery.Delivery
}

type Config struct {
	// BatchLimit is the candidate page size. Every page is evaluated in a tick.
	BatchLimit int
	TopN       int
	Subject    string
	Currency   string
}

type Report struct {
	Candidates int
	Due        int
	Matched    int
	Sent       int
	Failed     int
	Errors     int
	Skipped    bool
}

type Sweep struct {
	rules  RuleSource
	users  UserReader
	search FlightSearcher
	mail   email.Sender
	ledger Ledger
	lock   Locker
	cfg    Config
	log    *zap.Logger
}

// NewSweep wires a sweep. lock may be nil when only one sweeper ever runs.
func NewSweep(rules RuleSource, users UserReader, search FlightSearcher, mail email.Sender,
	ledger Ledger, lock Locker, cfg Config, log *zap.Logger) *Sweep {
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = 500
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 5
	}
	if cfg.Subject == "" {
		cfg.Subject = "Flight Price Alert"
	}
	return &Sweep{
		rules: rules, users: users, search: search, mail: mail,
		ledger: ledger, lock: lock, cfg: cfg,
		log: obs.Component(log, "sweeper"),
	}
}

// Run evaluates every due rule once. Per-rule failures are counted in the
// report; only lock and fetch failures are returned.
func (s *Sweep) Run(ctx context.Context, now time.Time) (Report, error) {
	tr := otel.Tracer("sweeper")
	ctx, span := tr.Start(ctx, "sweep.run")
	defer span.End()

	var rep Report
	if s.lock != nil {
		release, ok, err := s.lock.TryLock(ctx)
		if err != nil {
			span.RecordError(err)
			return rep, fmt.Errorf("sweep lock: %w", err)
		}
		if !ok {
			obs.WithTrace(ctx, s.log).Info("another sweeper holds the lock, skipping tick")
			rep.Skipped = true
			return rep, nil
		}
		defer release()
	}

	var afterID int64
	for {
		page, err := s.rules.FetchCandidates(ctx, now, afterID, s.cfg.BatchLimit)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "fetch candidates")
			return rep, fmt.Errorf("fetch candidates after id %d: %w", afterID, err)
		}
		rep.Candidates += len(page)
		for _, r := range page {
			s.evaluate(ctx, tr, r, now, &rep)
		}
		if len(page) < s.cfg.BatchLimit {
			break
		}
		afterID = page[len(page)-1].ID
		if err := ctx.Err(); err != nil {
			return rep, err
		}
	}

	span.SetAttributes(
		attribute.Int("sweep.candidates", rep.Candidates),
		attribute.Int("sweep.due", rep.Due),
		attribute.Int("sweep.sent", rep.Sent),
		attribute.Int("sweep.errors", rep.Errors),
	)
	return rep, nil
}

func (s *Sweep) evaluate(ctx context.Context, tr trace.Tracer, r *rule.Rule, now time.Time, rep *Report) {
	if !r.IsDue(now) {
		if _, err := r.Interval(); err != nil {
			s.log.Warn("rule has unusable frequency", zap.Int64("rule_id", r.ID),
				zap.Int("frequency", r.Frequency), zap.String("unit", string(r.FrequencyUnit)), zap.Error(err))
		}
		return
	}
	rep.Due++

	out, err := s.processRule(ctx, tr, r, now)
	if err != nil {
		rep.Errors++
		obs.WithTrace(ctx, s.log).Error("rule processing failed", zap.Int64("rule_id", r.ID), zap.Error(err))
		return
	}
	if out.Offers > 0 {
		rep.Matched++
	}
	if out.Delivery != nil {
		if out.Delivery.Status == delivery.StatusSent {
			rep.Sent++
		} else {
			rep.Failed++
		}
	}
}

func (s *Sweep) processRule(ctx context.Context, tr trace.Tracer, r *rule.Rule, now time.Time) (Outcome, error) {
	ctx, span := tr.Start(ctx, "sweep.rule", trace.WithAttributes(
		attribute.Int64("rule.id", r.ID),
		attribute.String("rule.route", r.Origin+"-"+r.Destination),
	))
	defer span.End()

	log := obs.WithTrace(ctx, s.log).With(zap.Int64("rule_id", r.ID), zap.Int64("user_id", r.UserID))
	out := Outcome{Rule: r, At: now}

	offers, err := s.search.SearchOffers(ctx, flights.OfferQuery{
		Origin:        r.Origin,
		Destination:   r.Destination,
		DepartureDate: r.DepartureDate,
		MaxPrice:      r.MaxPrice,
		Adults:        1,
		Currency:      s.cfg.Currency,
	})
	if err != nil {
		span.RecordError(err)
		log.Warn("flight search failed, treating as no offers", zap.Error(err))
		offers = nil
	}
	out.Offers = len(offers)

	if len(offers) > 0 {
		d, err := s.notify(ctx, r, offers, now)
		if err != nil {
			span.RecordError(err)
			return out, err
		}
		out.Delivery = d
		log.Info("alert processed",
			zap.Int("offers", len(offers)),
			zap.String("status", string(d.Status)))
	}

	if err := s.ledger.Record(ctx, out); err != nil {
		span.RecordError(err)
		return out, fmt.Errorf("record outcome: %w", err)
	}
	return out, nil
}

func (s *Sweep) notify(ctx context.Context, r *rule.Rule, offers []flights.Offer, now time.Time) (*delivery.Delivery, error) {
	owner, err := s.users.GetByID(ctx, r.UserID)
	if err != nil {
		return nil, fmt.Errorf("load owner: %w", err)
	}
	body, err := RenderEmail(r, offers, s.cfg.TopN)
	if err != nil {
		return nil, err
	}

	d := &delivery.Delivery{
		RuleID:      r.ID,
		UserID:      r.UserID,
		Channel:     delivery.ChannelEmail,
		OffersCount: len(offers),
		SentAt:      now,
		Payload:     body,
	}
	st, err := s.mail.Send(ctx, email.Message{To: owner.Email, Subject: s.cfg.Subject, HTML: body})
	switch {
	case err == nil && st.Delivered:
		d.Status = delivery.StatusSent
		d.Detail = st.Detail
	case err != nil:
		d.Status = delivery.StatusFailed
		d.Detail = err.Error()
		s.log.Warn("alert email failed", zap.Int64("rule_id", r.ID), zap.Error(err))
	default:
		d.Status = delivery.StatusFailed
		d.Detail = st.Detail
		s.log.Warn("alert email not accepted", zap.Int64("rule_id", r.ID), zap.Int("code", st.Code))
	}
	return d, nil
}
