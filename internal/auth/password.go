package auth

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 18
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
	passwordSymbols  = "@$!%*?&"
)

var ErrWeakPassword = errors.New("password is too weak")

// PolicyError names the first password rule that failed.
type PolicyError struct {
	Reason string
}

func (e *PolicyError) Error() string { return e.Reason }

func (e *PolicyError) Unwrap() error { return ErrWeakPassword }

func ValidatePassword(p string) error {
	if utf8.RuneCountInString(p) < MinPasswordLength {
		return &PolicyError{Reason: fmt.Sprintf("Password must be at least %d characters long", MinPasswordLength)}
	}
	if len(p) > maxPasswordBytes {
		return &PolicyError{Reason: fmt.Sprintf("Password must be at most %d bytes long", maxPasswordBytes)}
	}
	var upper, lower, digit, symbol bool
	for _, r := range p {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	switch {
	case !upper:
		return &PolicyError{Reason: "Password must contain at least one uppercase letter"}
	case !lower:
		return &PolicyError{Reason: "Password must contain at least one lowercase letter"}
	case !digit:
		return &PolicyError{Reason: "Password must contain at least one digit"}
	case !symbol:
		return &PolicyError{Reason: "Password must contain at least one special character (" + passwordSymbols + ")"}
	}
	return nil
}

func HashPassword(p string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(p), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func ComparePassword(hash, p string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(p)) == nil
}
