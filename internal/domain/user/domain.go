package user

import "time"

// User is an account owner. Email is stored normalized (trimmed, lower-cased).
type User struct {
	ID        int64
	Email     string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
