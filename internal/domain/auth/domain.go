package auth

import (
	"time"
)

// RefreshToken is the server-side record of an issued refresh token.
// Only a hash of the token id is stored.
type RefreshToken struct {
	ID        int64
	UserID    int64
	TokenHash string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Revoked   bool
}
