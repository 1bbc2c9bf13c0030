package auth

import "context"

// RefreshTokenRepo persists refresh token records keyed by TokenHash.
type RefreshTokenRepo interface {
	Create(ctx context.Context, t *RefreshToken) error
	// FindValid ignores revoked and expired records and reports them as not found.
	FindValid(ctx context.Context, tokenHash string) (*RefreshToken, error)
	// Revoke is idempotent; an unknown hash is not an error.
	Revoke(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
}
