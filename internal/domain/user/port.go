package user

import "context"

type Repo interface {
	// Create fills ID and timestamps; a taken email yields a conflict error.
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	// GetByEmail expects an already normalized address.
	GetByEmail(ctx context.Context, email string) (*User, error)
	// Delete cascades to the user's rules and deliveries.
	Delete(ctx context.Context, id int64) error
}
