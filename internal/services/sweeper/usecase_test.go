package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/NordCoder/FlightAlert/internal/domain/delivery"
	"github.com/NordCoder/FlightAlert/internal/domain/rule"
	"github.com/NordCoder/FlightAlert/internal/domain/user"
	"github.com/NordCoder/FlightAlert/internal/gateway/email"
	"github.com/NordCoder/FlightAlert/internal/gateway/flights"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRules pages by id like the postgres repo; rules must be given in id order.
type fakeRules struct {
	rules []*rule.Rule
	err   error
	limit int
	pages int
}

func (f *fakeRules) FetchCandidates(_ context.Context, _ time.Time, afterID int64, limit int) ([]*rule.Rule, error) {
	f.limit = limit
	f.pages++
	if f.err != nil {
		return nil, f.err
	}
	var out []*rule.Rule
	for _, r := range f.rules {
		if r.ID > afterID && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeUsers map[int64]*user.User

func (f fakeUsers) GetByID(_ context.Context, id int64) (*user.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return u, nil
}

type fakeSearch struct {
	offers  map[int64][]flights.Offer
	err     error
	queries []flights.OfferQuery
	byRoute map[string]int64
}

func (f *fakeSearch) SearchOffers(_ context.Context, q flights.OfferQuery) ([]flights.Offer, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	return f.offers[f.byRoute[q.Origin+q.Destination]], nil
}

type fakeMail struct {
	sent []email.Message
	st   email.Status
	err  error
}

func (f *fakeMail) Send(_ context.Context, m email.Message) (email.Status, error) {
	f.sent = append(f.sent, m)
	return f.st, f.err
}

type fakeLedger struct {
	mu       sync.Mutex
	outcomes []Outcome
	failFor  int64
}

func (f *fakeLedger) Record(_ context.Context, o Outcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o.Rule.ID == f.failFor {
		return errors.New("db down")
	}
	f.outcomes = append(f.outcomes, o)
	return nil
}

type fakeLock struct {
	ok       bool
	err      error
	released bool
}

func (f *fakeLock) TryLock(context.Context) (func(), bool, error) {
	if f.err != nil || !f.ok {
		return nil, f.ok, f.err
	}
	return func() { f.released = true }, true, nil
}

var sweepNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func ago(d time.Duration) *time.Time {
	t := sweepNow.Add(-d)
	return &t
}

func newRule(id int64, origin, dest string, last *time.Time) *rule.Rule {
	return &rule.Rule{
		ID: id, UserID: 10, Origin: origin, Destination: dest, DepartureDate: "2025-12-01",
		Frequency: 1, FrequencyUnit: rule.UnitHours, IsActive: true, LastNotification: last,
	}
}

type sweepFixture struct {
	rules  *fakeRules
	search *fakeSearch
	mail   *fakeMail
	ledger *fakeLedger
	lock   *fakeLock
}

func newFixture(rules ...*rule.Rule) *sweepFixture {
	return &sweepFixture{
		rules:  &fakeRules{rules: rules},
		search: &fakeSearch{offers: map[int64][]flights.Offer{}, byRoute: map[string]int64{}},
		mail:   &fakeMail{st: email.Status{Code: 202, Delivered: true}},
		ledger: &fakeLedger{},
		lock:   &fakeLock{ok: true},
	}
}

func (f *sweepFixture) sweep() *Sweep {
	users := fakeUsers{10: {ID: 10, Email: "owner@example.com"}}
	return NewSweep(f.rules, users, f.search, f.mail, f.ledger, f.lock,
		Config{BatchLimit: 50, TopN: 5}, zap.NewNop())
}

func TestSweep_OnlyDueRulesAreProcessed(t *testing.T) {
	never := newRule(1, "JFK", "LAX", nil)
	old := newRule(2, "BOS", "SFO", ago(2*time.Hour))
	fresh := newRule(3, "MIA", "ORD", ago(10*time.Minute))
	f := newFixture(never, old, fresh)

	rep, err := f.sweep().Run(context.Background(), sweepNow)
	require.NoError(t, err)

	assert.Equal(t, 3, rep.Candidates)
	assert.Equal(t, 2, rep.Due)
	assert.Equal(t, 50, f.rules.limit)
	require.Len(t, f.ledger.outcomes, 2)
	assert.Equal(t, int64(1), f.ledger.outcomes[0].Rule.ID)
	assert.Equal(t, int64(2), f.ledger.outcomes[1].Rule.ID)
	assert.Equal(t, sweepNow, f.ledger.outcomes[0].At)
	assert.True(t, f.lock.released)
}

func TestSweep_DueRuleBehindFullPageOfIdleRules(t *testing.T) {
	var rules []*rule.Rule
	for id := int64(1); id <= 3; id++ {
		weekly := newRule(id, "JFK", "LAX", ago(24*time.Hour))
		weekly.FrequencyUnit = rule.UnitWeeks
		rules = append(rules, weekly)
	}
	frequent := newRule(4, "BOS", "SFO", ago(6*time.Minute))
	frequent.Frequency, frequent.FrequencyUnit = 5, rule.UnitMinutes
	rules = append(rules, frequent)

	f := newFixture(rules...)
	sw := NewSweep(f.rules, fakeUsers{10: {ID: 10, Email: "owner@example.com"}}, f.search, f.mail, f.ledger, f.lock,
		Config{BatchLimit: 3}, zap.NewNop())

	rep, err := sw.Run(context.Background(), sweepNow)
	require.NoError(t, err)

	assert.Equal(t, 2, f.rules.pages)
	assert.Equal(t, 4, rep.Candidates)
	assert.Equal(t, 1, rep.Due)
	require.Len(t, f.ledger.outcomes, 1)
	assert.Equal(t, int64(4), f.ledger.outcomes[0].Rule.ID)
}

func TestSweep_ExactPageFetchesOnceMore(t *testing.T) {
	f := newFixture(newRule(1, "JFK", "LAX", nil), newRule(2, "BOS", "SFO", nil))
	sw := NewSweep(f.rules, fakeUsers{10: {ID: 10, Email: "owner@example.com"}}, f.search, f.mail, f.ledger, f.lock,
		Config{BatchLimit: 2}, zap.NewNop())

	rep, err := sw.Run(context.Background(), sweepNow)
	require.NoError(t, err)
	assert.Equal(t, 2, f.rules.pages)
	assert.Equal(t, 2, rep.Due)
}

func TestSweep_NoOffersAdvancesWithoutEmail(t *testing.T) {
	f := newFixture(newRule(1, "JFK", "LAX", nil))

	rep, err := f.sweep().Run(context.Background(), sweepNow)
	require.NoError(t, err)

	assert.Empty(t, f.mail.sent)
	require.Len(t, f.ledger.outcomes, 1)
	assert.Nil(t, f.ledger.outcomes[0].Delivery)
	assert.Equal(t, 0, rep.Matched)
}

func TestSweep_SearchErrorStillAdvances(t *testing.T) {
	f := newFixture(newRule(1, "JFK", "LAX", nil))
	f.search.err = &flights.UpstreamError{Status: 500, Body: "boom"}

	rep, err := f.sweep().Run(context.Background(), sweepNow)
	require.NoError(t, err)

	assert.Equal(t, 0, rep.Errors)
	assert.Empty(t, f.mail.sent)
	require.Len(t, f.ledger.outcomes, 1)
	assert.Equal(t, 0, f.ledger.outcomes[0].Offers)
}

func TestSweep_OffersSendEmailAndRecordDelivery(t *testing.T) {
	r := newRule(1, "JFK", "LAX", nil)
	f := newFixture(r)
	f.search.byRoute["JFKLAX"] = 1
	f.search.offers[1] = []flights.Offer{offer("a", "300", "PT5H"), offer("b", "200", "PT6H")}

	rep, err := f.sweep().Run(context.Background(), sweepNow)
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Matched)
	assert.Equal(t, 1, rep.Sent)
	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, "owner@example.com", f.mail.sent[0].To)
	assert.Equal(t, "Flight Price Alert", f.mail.sent[0].Subject)
	assert.Contains(t, f.mail.sent[0].HTML, "Cheapest Flights")

	require.Len(t, f.ledger.outcomes, 1)
	d := f.ledger.outcomes[0].Delivery
	require.NotNil(t, d)
	assert.Equal(t, delivery.StatusSent, d.Status)
	assert.Equal(t, 2, d.OffersCount)
	assert.Equal(t, delivery.ChannelEmail, d.Channel)

	require.Len(t, f.search.queries, 1)
	assert.Equal(t, 1, f.search.queries[0].Adults)
	assert.Equal(t, "2025-12-01", f.search.queries[0].DepartureDate)
}

func TestSweep_FailedSendRecordsFailedDelivery(t *testing.T) {
	f := newFixture(newRule(1, "JFK", "LAX", nil))
	f.search.byRoute["JFKLAX"] = 1
	f.search.offers[1] = []flights.Offer{offer("a", "300", "PT5H")}
	f.mail.err = &email.UpstreamError{Provider: "sendgrid", Status: 401, Body: "unauthorized"}

	rep, err := f.sweep().Run(context.Background(), sweepNow)
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Failed)
	require.Len(t, f.ledger.outcomes, 1)
	d := f.ledger.outcomes[0].Delivery
	require.NotNil(t, d)
	assert.Equal(t, delivery.StatusFailed, d.Status)
	assert.Contains(t, d.Detail, "401")
}

func TestSweep_RejectedSendRecordsFailedDelivery(t *testing.T) {
	f := newFixture(newRule(1, "JFK", "LAX", nil))
	f.search.byRoute["JFKLAX"] = 1
	f.search.offers[1] = []flights.Offer{offer("a", "300", "PT5H")}
	f.mail.st = email.Status{Code: 400, Detail: "bad request"}

	rep, err := f.sweep().Run(context.Background(), sweepNow)
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Failed)
	assert.Equal(t, delivery.StatusFailed, f.ledger.outcomes[0].Delivery.Status)
}

func TestSweep_LedgerErrorIsCountedAndOthersContinue(t *testing.T) {
	f := newFixture(newRule(1, "JFK", "LAX", nil), newRule(2, "BOS", "SFO", nil))
	f.ledger.failFor = 1

	rep, err := f.sweep().Run(context.Background(), sweepNow)
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Errors)
	require.Len(t, f.ledger.outcomes, 1)
	assert.Equal(t, int64(2), f.ledger.outcomes[0].Rule.ID)
}

func TestSweep_MissingOwnerIsARuleError(t *testing.T) {
	r := newRule(1, "JFK", "LAX", nil)
	r.UserID = 99
	f := newFixture(r)
	f.search.byRoute["JFKLAX"] = 1
	f.search.offers[1] = []flights.Offer{offer("a", "300", "PT5H")}

	rep, err := f.sweep().Run(context.Background(), sweepNow)
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Errors)
	assert.Empty(t, f.ledger.outcomes)
	assert.Empty(t, f.mail.sent)
}

func TestSweep_LockHeldElsewhereSkips(t *testing.T) {
	f := newFixture(newRule(1, "JFK", "LAX", nil))
	f.lock.ok = false

	rep, err := f.sweep().Run(context.Background(), sweepNow)
	require.NoError(t, err)

	assert.True(t, rep.Skipped)
	assert.Empty(t, f.ledger.outcomes)
}

func TestSweep_LockErrorIsReturned(t *testing.T) {
	f := newFixture()
	f.lock.err = errors.New("conn refused")

	_, err := f.sweep().Run(context.Background(), sweepNow)
	require.Error(t, err)
}

func TestSweep_FetchErrorIsReturned(t *testing.T) {
	f := newFixture()
	f.rules.err = errors.New("timeout")

	_, err := f.sweep().Run(context.Background(), sweepNow)
	require.Error(t, err)
	assert.True(t, f.lock.released)
}

func TestSweep_InactiveAndBadUnitAreSkipped(t *testing.T) {
	inactive := newRule(1, "JFK", "LAX", nil)
	inactive.IsActive = false
	bad := newRule(2, "BOS", "SFO", ago(time.Hour))
	bad.FrequencyUnit = "fortnights"
	f := newFixture(inactive, bad)

	rep, err := f.sweep().Run(context.Background(), sweepNow)
	require.NoError(t, err)

	assert.Equal(t, 0, rep.Due)
	assert.Empty(t, f.ledger.outcomes)
}
