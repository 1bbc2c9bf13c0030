package rule

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

type FrequencyUnit string

const (
	UnitMinutes FrequencyUnit = "minutes"
	UnitHours   FrequencyUnit = "hours"
	UnitDays    FrequencyUnit = "days"
	UnitWeeks   FrequencyUnit = "weeks"
)

// MaxFrequency bounds accepted frequencies; 10000 weeks still fits a time.Duration.
const MaxFrequency = 10000

var (
	ErrUnknownUnit     = errors.New("unknown frequency unit")
	ErrIntervalTooLong = errors.New("frequency interval overflows")
)

func (u FrequencyUnit) Valid() bool {
	switch u {
	case UnitMinutes, UnitHours, UnitDays, UnitWeeks:
		return true
	}
	return false
}

// Duration returns n units as a time.Duration. Products that do not fit
// return ErrIntervalTooLong instead of wrapping negative.
func (u FrequencyUnit) Duration(n int) (time.Duration, error) {
	var step time.Duration
	switch u {
	case UnitMinutes:
		step = time.Minute
	case UnitHours:
		step = time.Hour
	case UnitDays:
		step = 24 * time.Hour
	case UnitWeeks:
		step = 7 * 24 * time.Hour
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, string(u))
	}
	if int64(n) > math.MaxInt64/int64(step) || int64(n) < math.MinInt64/int64(step) {
		return 0, fmt.Errorf("%w: %d %s", ErrIntervalTooLong, n, u)
	}
	return time.Duration(n) * step, nil
}

// Rule is a user's standing request to be told about offers on a route.
// A nil LastNotification means the rule has never fired.
type Rule struct {
	ID               int64
	UserID           int64
	Origin           string
	Destination      string
	DepartureDate    string
	MaxPrice         decimal.NullDecimal
	Frequency        int
	FrequencyUnit    FrequencyUnit
	IsActive         bool
	LastNotification *time.Time
	CreatedAt        time.Time
}

func (r *Rule) Interval() (time.Duration, error) {
	return r.FrequencyUnit.Duration(r.Frequency)
}

// IsDue reports whether the rule should be evaluated at now.
// Inactive rules and rules whose interval cannot be computed are never due.
func (r *Rule) IsDue(now time.Time) bool {
	if !r.IsActive || r.Frequency <= 0 {
		return false
	}
	iv, err := r.Interval()
	if err != nil {
		return false
	}
	if r.LastNotification == nil {
		return true
	}
	return !now.Before(r.LastNotification.Add(iv))
}
