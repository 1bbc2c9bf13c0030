package delivery

import "time"

type Status string

const (
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

const ChannelEmail = "email"

// Delivery records one attempt to tell a user about offers for one of their rules.
type Delivery struct {
	ID          int64
	RuleID      int64
	UserID      int64
	Channel     string
	OffersCount int
	Status      Status
	Detail      string
	SentAt      time.Time
	Payload     string
}
