package rule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NordCoder/FlightAlert/internal/domain/delivery"
	"github.com/NordCoder/FlightAlert/internal/domain/rule"
	pg "github.com/NordCoder/FlightAlert/internal/repository/postgres"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("notification not found")

const deliveriesLimit = 50

// ValidationError reports the first invalid field of a create request.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Msg }

// Input mirrors the create request; nil means the field was absent.
type Input struct {
	Origin        *string
	Destination   *string
	DepartureDate *string
	MaxPrice      *decimal.Decimal
	Frequency     *int
	FrequencyUnit *string
}

type Usecase struct {
	rules      rule.Repo
	deliveries delivery.Repo
	now        func() time.Time
}

func NewUsecase(rules rule.Repo, deliveries delivery.Repo) *Usecase {
	return &Usecase{rules: rules, deliveries: deliveries, now: func() time.Time { return time.Now().UTC() }}
}

func required(field string, v *string) (string, error) {
	if v == nil {
		return "", &ValidationError{Field: field, Msg: "field required"}
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return "", &ValidationError{Field: field, Msg: "must not be empty"}
	}
	return s, nil
}

func (in Input) validate() (*rule.Rule, error) {
	origin, err := required("origin", in.Origin)
	if err != nil {
		return nil, err
	}
	dest, err := required("destination", in.Destination)
	if err != nil {
		return nil, err
	}
	date, err := required("departure_date", in.DepartureDate)
	if err != nil {
		return nil, err
	}
	if in.Frequency == nil {
		return nil, &ValidationError{Field: "frequency", Msg: "field required"}
	}
	if *in.Frequency <= 0 {
		return nil, &ValidationError{Field: "frequency", Msg: "must be greater than 0"}
	}
	if *in.Frequency > rule.MaxFrequency {
		return nil, &ValidationError{Field: "frequency", Msg: fmt.Sprintf("must be at most %d", rule.MaxFrequency)}
	}
	unit, err := required("frequency_unit", in.FrequencyUnit)
	if err != nil {
		return nil, err
	}
	fu := rule.FrequencyUnit(strings.ToLower(unit))
	if !fu.Valid() {
		return nil, &ValidationError{Field: "frequency_unit", Msg: "must be one of minutes, hours, days, weeks"}
	}

	r := &rule.Rule{
		Origin:        strings.ToUpper(origin),
		Destination:   strings.ToUpper(dest),
		DepartureDate: date,
		Frequency:     *in.Frequency,
		FrequencyUnit: fu,
		IsActive:      true,
	}
	if in.MaxPrice != nil {
		if in.MaxPrice.IsNegative() {
			return nil, &ValidationError{Field: "max_price", Msg: "must be greater than or equal to 0"}
		}
		r.MaxPrice = decimal.NewNullDecimal(in.MaxPrice.Round(2))
	}
	return r, nil
}

func (u *Usecase) Create(ctx context.Context, userID int64, in Input) (*rule.Rule, error) {
	r, err := in.validate()
	if err != nil {
		return nil, err
	}
	r.UserID = userID
	r.CreatedAt = u.now()
	if err := u.rules.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create rule: %w", err)
	}
	return r, nil
}

func (u *Usecase) List(ctx context.Context, userID int64) ([]*rule.Rule, error) {
	return u.rules.ListByUser(ctx, userID)
}

// Delete removes a rule only when userID owns it; other users' rules look missing.
func (u *Usecase) Delete(ctx context.Context, userID, id int64) error {
	if err := u.rules.DeleteOwned(ctx, id, userID); err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete rule: %w", err)
	}
	return nil
}

func (u *Usecase) Deliveries(ctx context.Context, userID int64) ([]*delivery.Delivery, error) {
	return u.deliveries.ListByUser(ctx, userID, deliveriesLimit)
}
