package delivery

import "context"

type Repo interface {
	Create(ctx context.Context, d *Delivery) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]*Delivery, error)
}
