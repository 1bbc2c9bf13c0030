package kafka

import (
	"context"
	"time"
)

// AlertDispatched is published once a sweep has handled a due rule.
type AlertDispatched struct {
	RuleID      int64
	UserID      int64
	Origin      string
	Destination string
	OffersCount int
	Status      string
	At          time.Time
}

type AlertEvents interface {
	PublishAlertDispatched(ctx context.Context, ev AlertDispatched) error
}
