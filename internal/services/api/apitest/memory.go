// Package apitest has in-memory versions of the stores behind the HTTP API.
// They return the same sentinel errors as the postgres repositories.
package apitest

import (
	"context"
	"slices"
	"sync"
	"time"

	domainauth "github.com/NordCoder/FlightAlert/internal/domain/auth"
	"github.com/NordCoder/FlightAlert/internal/domain/delivery"
	"github.com/NordCoder/FlightAlert/internal/domain/rule"
	"github.com/NordCoder/FlightAlert/internal/domain/user"
	pg "github.com/NordCoder/FlightAlert/internal/repository/postgres"
)

type Users struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*user.User
}

var _ user.Repo = (*Users)(nil)

func NewUsers() *Users { return &Users{byID: map[int64]*user.User{}} }

func (s *Users) Create(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.byID {
		if x.Email == u.Email {
			return pg.ErrConflict
		}
	}
	s.nextID++
	u.ID = s.nextID
	cp := *u
	s.byID[u.ID] = &cp
	return nil
}

func (s *Users) GetByID(_ context.Context, id int64) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, pg.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Users) GetByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pg.ErrNotFound
}

func (s *Users) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return pg.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

type RefreshTokens struct {
	mu   sync.Mutex
	rows []*domainauth.RefreshToken
	Now  func() time.Time
}

var _ domainauth.RefreshTokenRepo = (*RefreshTokens)(nil)

func NewRefreshTokens() *RefreshTokens {
	return &RefreshTokens{Now: time.Now}
}

func (s *RefreshTokens) Create(_ context.Context, t *domainauth.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = int64(len(s.rows) + 1)
	cp := *t
	s.rows = append(s.rows, &cp)
	return nil
}

func (s *RefreshTokens) FindValid(_ context.Context, hash string) (*domainauth.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.rows {
		if t.TokenHash == hash && !t.Revoked && t.ExpiresAt.After(s.Now()) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, pg.ErrNotFound
}

func (s *RefreshTokens) Revoke(_ context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.rows {
		if t.TokenHash == hash {
			t.Revoked = true
		}
	}
	return nil
}

func (s *RefreshTokens) RevokeAllForUser(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.rows {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func (s *RefreshTokens) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

type Rules struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*rule.Rule
}

var _ rule.Repo = (*Rules)(nil)

func NewRules() *Rules { return &Rules{byID: map[int64]*rule.Rule{}} }

func (s *Rules) Create(_ context.Context, r *rule.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	r.ID = s.nextID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	cp := *r
	s.byID[r.ID] = &cp
	return nil
}

func (s *Rules) GetByID(_ context.Context, id int64) (*rule.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return nil, pg.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *Rules) ListByUser(_ context.Context, userID int64) ([]*rule.Rule, error) {
	return s.filter(func(r *rule.Rule) bool { return r.UserID == userID }), nil
}

func (s *Rules) DeleteOwned(_ context.Context, id, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok || r.UserID != userID {
		return pg.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *Rules) SetActive(_ context.Context, id int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return pg.ErrNotFound
	}
	r.IsActive = active
	return nil
}

func (s *Rules) FetchCandidates(_ context.Context, now time.Time, afterID int64, limit int) ([]*rule.Rule, error) {
	out := s.filter(func(r *rule.Rule) bool {
		return r.ID > afterID && r.IsActive && (r.LastNotification == nil || !r.LastNotification.After(now))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Rules) MarkNotified(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return pg.ErrNotFound
	}
	t := at
	r.LastNotification = &t
	return nil
}

func (s *Rules) filter(keep func(*rule.Rule) bool) []*rule.Rule {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*rule.Rule, 0)
	for _, r := range s.byID {
		if keep(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *rule.Rule) int { return int(a.ID - b.ID) })
	return out
}

type Deliveries struct {
	mu   sync.Mutex
	rows []*delivery.Delivery
}

var _ delivery.Repo = (*Deliveries)(nil)

func NewDeliveries() *Deliveries { return &Deliveries{} }

func (s *Deliveries) Create(_ context.Context, d *delivery.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = int64(len(s.rows) + 1)
	cp := *d
	s.rows = append(s.rows, &cp)
	return nil
}

// ListByUser returns newest first, like the SQL ORDER BY sent_at DESC, id DESC.
func (s *Deliveries) ListByUser(_ context.Context, userID int64, limit int) ([]*delivery.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*delivery.Delivery, 0)
	for i := len(s.rows) - 1; i >= 0; i-- {
		if s.rows[i].UserID == userID {
			cp := *s.rows[i]
			out = append(out, &cp)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
