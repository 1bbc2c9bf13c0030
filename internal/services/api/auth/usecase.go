package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/NordCoder/FlightAlert/internal/auth"
	domainauth "github.com/NordCoder/FlightAlert/internal/domain/auth"
	"github.com/NordCoder/FlightAlert/internal/domain/user"
	pg "github.com/NordCoder/FlightAlert/internal/repository/postgres"
	"go.uber.org/zap"
)

var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenMissing       = errors.New("access token missing")
	ErrTokenInvalid       = errors.New("invalid access token")
	ErrRefreshMissing     = errors.New("refresh token missing")
	ErrRefreshInvalid     = errors.New("invalid refresh token")
)

type Tokens interface {
	IssueAccess(subject string) (auth.Issued, error)
	IssueRefresh(subject string) (auth.Issued, error)
	Parse(raw string, want auth.TokenType) (*auth.Claims, error)
}

// Session is what a successful login hands back to the transport.
type Session struct {
	User    *user.User
	Access  auth.Issued
	Refresh auth.Issued
}

type Usecase struct {
	users  user.Repo
	rt     domainauth.RefreshTokenRepo
	tokens Tokens
	log    *zap.Logger
	now    func() time.Time
}

func NewUsecase(users user.Repo, rt domainauth.RefreshTokenRepo, tokens Tokens, log *zap.Logger) *Usecase {
	return &Usecase{
		users: users, rt: rt, tokens: tokens,
		log: log,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	return at > 0 && strings.Contains(s[at+1:], ".")
}

// Register creates a user after checking the address and the password policy.
// Policy failures come back as *auth.PolicyError.
func (u *Usecase) Register(ctx context.Context, email, password string) (*user.User, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, err
	}

	if _, err := u.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, pg.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := u.now()
	nu := &user.User{Email: email, Password: hash, CreatedAt: now, UpdatedAt: now}
	if err := u.users.Create(ctx, nu); err != nil {
		if errors.Is(err, pg.ErrConflict) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	u.log.Info("user registered", zap.Int64("user_id", nu.ID))
	return nu, nil
}

var dummyHash = sync.OnceValue(func() string {
	h, _ := auth.HashPassword("not-a-real-password-Aa1!")
	return h
})

// Login answers ErrInvalidCredentials for unknown emails and wrong passwords
// alike, and spends a bcrypt comparison in both cases.
func (u *Usecase) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	usr, err := u.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, pg.ErrNotFound) {
			return nil, fmt.Errorf("lookup user: %w", err)
		}
		auth.ComparePassword(dummyHash(), password)
		return nil, ErrInvalidCredentials
	}
	if !auth.ComparePassword(usr.Password, password) {
		return nil, ErrInvalidCredentials
	}

	access, err := u.tokens.IssueAccess(usr.Email)
	if err != nil {
		return nil, err
	}
	refresh, err := u.tokens.IssueRefresh(usr.Email)
	if err != nil {
		return nil, err
	}
	if err := u.rt.Create(ctx, &domainauth.RefreshToken{
		UserID:    usr.ID,
		TokenHash: auth.HashToken(refresh.ID),
		IssuedAt:  u.now(),
		ExpiresAt: refresh.ExpiresAt,
	}); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}
	return &Session{User: usr, Access: access, Refresh: refresh}, nil
}

// CurrentUser resolves the owner of an access token.
func (u *Usecase) CurrentUser(ctx context.Context, rawAccess string) (*user.User, error) {
	if rawAccess == "" {
		return nil, ErrTokenMissing
	}
	claims, err := u.tokens.Parse(rawAccess, auth.TokenAccess)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	usr, err := u.users.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return usr, nil
}

// Refresh issues a new access token for a valid, unrevoked refresh token whose
// user still exists. The refresh token itself is not rotated.
func (u *Usecase) Refresh(ctx context.Context, rawRefresh string) (auth.Issued, error) {
	if rawRefresh == "" {
		return auth.Issued{}, ErrRefreshMissing
	}
	claims, err := u.tokens.Parse(rawRefresh, auth.TokenRefresh)
	if err != nil {
		return auth.Issued{}, ErrRefreshInvalid
	}
	if _, err := u.rt.FindValid(ctx, auth.HashToken(claims.ID)); err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			return auth.Issued{}, ErrRefreshInvalid
		}
		return auth.Issued{}, fmt.Errorf("lookup refresh token: %w", err)
	}
	if _, err := u.users.GetByEmail(ctx, claims.Subject); err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			return auth.Issued{}, ErrRefreshInvalid
		}
		return auth.Issued{}, fmt.Errorf("lookup user: %w", err)
	}
	return u.tokens.IssueAccess(claims.Subject)
}

// Logout revokes the refresh token when one is given. Unknown or malformed
// tokens are ignored.
func (u *Usecase) Logout(ctx context.Context, rawRefresh string) error {
	if rawRefresh == "" {
		return nil
	}
	claims, err := u.tokens.Parse(rawRefresh, auth.TokenRefresh)
	if err != nil {
		return nil
	}
	if err := u.rt.Revoke(ctx, auth.HashToken(claims.ID)); err != nil && !errors.Is(err, pg.ErrNotFound) {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}
