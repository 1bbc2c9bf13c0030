package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenInvalid     = errors.New("invalid token")
	ErrUnsupportedAlg   = errors.New("unsupported signing algorithm")
	ErrEmptySecret      = errors.New("token secret is empty")
	ErrTokenTypeInvalid = errors.New("unexpected token type")
)

type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// Claims carries the user email in Subject and a random token id in ID.
type Claims struct {
	Type TokenType `json:"typ"`
	jwt.RegisteredClaims
}

type TokenConfig struct {
	Secret     []byte
	Algorithm  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

// Issued is a signed token together with the claims needed to persist or set it.
type Issued struct {
	Token     string
	ID        string
	Subject   string
	ExpiresAt time.Time
}

type TokenService struct {
	method jwt.SigningMethod
	cfg    TokenConfig
}

func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrEmptySecret
	}
	if cfg.Algorithm == "" {
		cfg.Algorithm = jwt.SigningMethodHS256.Alg()
	}
	var method jwt.SigningMethod
	switch cfg.Algorithm {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlg, cfg.Algorithm)
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 48 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &TokenService{method: method, cfg: cfg}, nil
}

func (s *TokenService) AccessTTL() time.Duration  { return s.cfg.AccessTTL }
func (s *TokenService) RefreshTTL() time.Duration { return s.cfg.RefreshTTL }

func (s *TokenService) IssueAccess(subject string) (Issued, error) {
	return s.issue(subject, TokenAccess, s.cfg.AccessTTL)
}

func (s *TokenService) IssueRefresh(subject string) (Issued, error) {
	return s.issue(subject, TokenRefresh, s.cfg.RefreshTTL)
}

func (s *TokenService) issue(subject string, typ TokenType, ttl time.Duration) (Issued, error) {
	now := s.cfg.Now()
	exp := now.Add(ttl)
	claims := Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return Issued{}, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return Issued{Token: signed, ID: claims.ID, Subject: subject, ExpiresAt: exp}, nil
}

// Parse verifies signature, expiry and token type. Every failure wraps ErrTokenInvalid.
func (s *TokenService) Parse(raw string, want TokenType) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return s.cfg.Secret, nil },
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.cfg.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.Type != want {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, ErrTokenTypeInvalid)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: empty subject", ErrTokenInvalid)
	}
	return &claims, nil
}

// HashToken is used to store token ids without keeping the raw value.
func HashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(h[:])
}
