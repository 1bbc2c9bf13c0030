package rule

import (
	"context"
	"time"
)

type Repo interface {
	Create(ctx context.Context, r *Rule) error
	GetByID(ctx context.Context, id int64) (*Rule, error)
	ListByUser(ctx context.Context, userID int64) ([]*Rule, error)
	// DeleteOwned removes rule id only when it belongs to userID.
	DeleteOwned(ctx context.Context, id, userID int64) error
	SetActive(ctx context.Context, id int64, active bool) error
	// FetchCandidates returns up to limit active rules with id > afterID whose
	// watermark is not after now, in id order. Callers page until a short page.
	FetchCandidates(ctx context.Context, now time.Time, afterID int64, limit int) ([]*Rule, error)
	MarkNotified(ctx context.Context, id int64, at time.Time) error
}
