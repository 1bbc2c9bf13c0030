package rule

import (
	"context"
	"testing"

	"github.com/NordCoder/FlightAlert/internal/domain/rule"
	"github.com/NordCoder/FlightAlert/internal/services/api/apitest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestCreateNormalizes(t *testing.T) {
	uc := NewUsecase(apitest.NewRules(), apitest.NewDeliveries())

	r, err := uc.Create(context.Background(), 7, Input{
		Origin:        ptr(" mad "),
		Destination:   ptr("bcn"),
		DepartureDate: ptr("2025-05-01,2025-05-15"),
		MaxPrice:      ptr(decimal.RequireFromString("99.999")),
		Frequency:     ptr(3),
		FrequencyUnit: ptr("Days"),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(7), r.UserID)
	assert.Equal(t, "MAD", r.Origin)
	assert.Equal(t, "BCN", r.Destination)
	assert.Equal(t, "2025-05-01,2025-05-15", r.DepartureDate)
	assert.Equal(t, rule.UnitDays, r.FrequencyUnit)
	require.True(t, r.MaxPrice.Valid)
	assert.Equal(t, "100", r.MaxPrice.Decimal.String())
	assert.True(t, r.IsActive)
	assert.Nil(t, r.LastNotification)
}

func TestCreateValidationErrorNamesField(t *testing.T) {
	uc := NewUsecase(apitest.NewRules(), apitest.NewDeliveries())

	_, err := uc.Create(context.Background(), 1, Input{
		Origin: ptr("JFK"), Destination: ptr("LAX"), DepartureDate: ptr("2025-12-01"),
		Frequency: ptr(-2), FrequencyUnit: ptr("hours"),
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "frequency", ve.Field)
}

func TestCreateRejectsFrequencyAboveMax(t *testing.T) {
	uc := NewUsecase(apitest.NewRules(), apitest.NewDeliveries())

	for _, f := range []int{20000, 1 << 31} {
		_, err := uc.Create(context.Background(), 1, Input{
			Origin: ptr("JFK"), Destination: ptr("LAX"), DepartureDate: ptr("2025-12-01"),
			Frequency: ptr(f), FrequencyUnit: ptr("weeks"),
		})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve, "frequency %d", f)
		assert.Equal(t, "frequency", ve.Field)
		assert.Equal(t, "must be at most 10000", ve.Msg)
	}

	r, err := uc.Create(context.Background(), 1, Input{
		Origin: ptr("JFK"), Destination: ptr("LAX"), DepartureDate: ptr("2025-12-01"),
		Frequency: ptr(rule.MaxFrequency), FrequencyUnit: ptr("weeks"),
	})
	require.NoError(t, err)
	assert.Equal(t, rule.MaxFrequency, r.Frequency)
}

func TestDeleteMapsNotFound(t *testing.T) {
	uc := NewUsecase(apitest.NewRules(), apitest.NewDeliveries())
	assert.ErrorIs(t, uc.Delete(context.Background(), 1, 42), ErrNotFound)
}
