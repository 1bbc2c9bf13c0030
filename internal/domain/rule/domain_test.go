package rule

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrequencyUnitDuration(t *testing.T) {
	cases := map[FrequencyUnit]time.Duration{
		UnitMinutes: 3 * time.Minute,
		UnitHours:   3 * time.Hour,
		UnitDays:    72 * time.Hour,
		UnitWeeks:   21 * 24 * time.Hour,
	}
	for u, want := range cases {
		got, err := u.Duration(3)
		require.NoError(t, err)
		assert.Equal(t, want, got, string(u))
	}

	d, err := UnitWeeks.Duration(MaxFrequency)
	require.NoError(t, err)
	assert.Positive(t, d)

	_, err = UnitWeeks.Duration(20000)
	assert.ErrorIs(t, err, ErrIntervalTooLong)
	_, err = UnitMinutes.Duration(math.MaxInt)
	assert.ErrorIs(t, err, ErrIntervalTooLong)

	_, err = FrequencyUnit("fortnights").Duration(1)
	assert.ErrorIs(t, err, ErrUnknownUnit)
	assert.False(t, FrequencyUnit("fortnights").Valid())
}

func TestIsDue(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time { v := now.Add(-d); return &v }

	tests := []struct {
		name string
		r    Rule
		want bool
	}{
		{"never notified", Rule{IsActive: true, Frequency: 1, FrequencyUnit: UnitDays}, true},
		{"inactive", Rule{IsActive: false, Frequency: 1, FrequencyUnit: UnitDays}, false},
		{"interval elapsed", Rule{IsActive: true, Frequency: 2, FrequencyUnit: UnitHours, LastNotification: at(3 * time.Hour)}, true},
		{"exactly on boundary", Rule{IsActive: true, Frequency: 2, FrequencyUnit: UnitHours, LastNotification: at(2 * time.Hour)}, true},
		{"not yet", Rule{IsActive: true, Frequency: 1, FrequencyUnit: UnitDays, LastNotification: at(23 * time.Hour)}, false},
		{"unknown unit", Rule{IsActive: true, Frequency: 1, FrequencyUnit: "years", LastNotification: at(1000 * time.Hour)}, false},
		{"unknown unit never notified", Rule{IsActive: true, Frequency: 1, FrequencyUnit: "years"}, false},
		{"overflowing interval", Rule{IsActive: true, Frequency: 20000, FrequencyUnit: UnitWeeks, LastNotification: at(time.Minute)}, false},
		{"zero frequency", Rule{IsActive: true, Frequency: 0, FrequencyUnit: UnitDays}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.r.IsDue(now))
		})
	}
}
