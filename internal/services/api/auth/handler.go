package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/NordCoder/FlightAlert/internal/auth"
	"github.com/NordCoder/FlightAlert/internal/domain/user"
	"github.com/NordCoder/FlightAlert/internal/obs"
	"github.com/NordCoder/FlightAlert/internal/services/api/httpx"
	"go.uber.org/zap"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

type CookieOptions struct {
	Domain   string
	Path     string
	Secure   bool
	SameSite http.SameSite
}

type Handler struct {
	uc         *Usecase
	log        *zap.Logger
	cookies    CookieOptions
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewHandler(uc *Usecase, log *zap.Logger, cookies CookieOptions, accessTTL, refreshTTL time.Duration) *Handler {
	if cookies.Path == "" {
		cookies.Path = "/"
	}
	return &Handler{uc: uc, log: obs.Component(log, "api.auth"), cookies: cookies, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userView struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if _, err := h.uc.Register(r.Context(), in.Email, in.Password); err != nil {
		var pe *auth.PolicyError
		switch {
		case errors.As(err, &pe):
			httpx.WriteDetail(w, http.StatusUnprocessableEntity, pe.Reason)
		case errors.Is(err, ErrInvalidEmail):
			httpx.WriteDetail(w, http.StatusUnprocessableEntity, "Invalid email address")
		case errors.Is(err, ErrEmailExists):
			httpx.WriteDetail(w, http.StatusBadRequest, "Email is already registered")
		default:
			h.internal(w, r, "register", err)
		}
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message":      "User registered successfully. Please log in.",
		"redirect_url": "/login",
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s, err := h.uc.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			httpx.WriteDetail(w, http.StatusBadRequest, "Invalid credentials")
			return
		}
		h.internal(w, r, "login", err)
		return
	}

	h.setCookie(w, AccessCookie, s.Access.Token, h.accessTTL)
	h.setCookie(w, RefreshCookie, s.Refresh.Token, h.refreshTTL)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Login successful"})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	access, err := h.uc.Refresh(r.Context(), cookieValue(r, RefreshCookie))
	if err != nil {
		switch {
		case errors.Is(err, ErrRefreshMissing):
			httpx.WriteDetail(w, http.StatusUnauthorized, "Refresh token missing")
		case errors.Is(err, ErrRefreshInvalid):
			httpx.WriteDetail(w, http.StatusUnauthorized, "Invalid refresh token")
		default:
			h.internal(w, r, "refresh", err)
		}
		return
	}

	h.setCookie(w, AccessCookie, access.Token, h.accessTTL)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"access_token": access.Token,
		"token_type":   "bearer",
	})
}

// Logout sits behind RequireUser.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.Logout(r.Context(), cookieValue(r, RefreshCookie)); err != nil {
		obs.WithTrace(r.Context(), h.log).Warn("refresh revoke failed", zap.Error(err))
	}
	h.clearCookie(w, AccessCookie)
	h.clearCookie(w, RefreshCookie)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		httpx.WriteDetail(w, http.StatusUnauthorized, "Access token missing")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Welcome to the home page",
		"user":    userView{ID: u.ID, Email: u.Email},
	})
}

// RequireUser resolves the access_token cookie and stores the user in the
// request context.
func (h *Handler) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := h.uc.CurrentUser(r.Context(), cookieValue(r, AccessCookie))
		if err != nil {
			switch {
			case errors.Is(err, ErrTokenMissing):
				httpx.WriteDetail(w, http.StatusUnauthorized, "Access token missing")
			case errors.Is(err, ErrTokenInvalid):
				httpx.WriteDetail(w, http.StatusUnauthorized, "Invalid token")
			default:
				h.internal(w, r, "resolve user", err)
			}
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

func (h *Handler) internal(w http.ResponseWriter, r *http.Request, op string, err error) {
	obs.WithTrace(r.Context(), h.log).Error(op+" failed", zap.Error(err))
	httpx.WriteDetail(w, http.StatusInternalServerError, "Internal server error")
}

func (h *Handler) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     h.cookies.Path,
		Domain:   h.cookies.Domain,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: h.cookies.SameSite,
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl).UTC(),
	})
}

func (h *Handler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     h.cookies.Path,
		Domain:   h.cookies.Domain,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: h.cookies.SameSite,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
	})
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

type ctxKey int

const userKey ctxKey = 1

func WithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func UserFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(userKey).(*user.User)
	return u, ok && u != nil
}
