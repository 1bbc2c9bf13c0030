package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestMux(t *testing.T) (*http.ServeMux, *fixture) {
	t.Helper()
	f := newFixture(t)
	h := NewHandler(f.uc, zap.NewNop(), CookieOptions{SameSite: http.SameSiteLaxMode}, 15*time.Minute, 48*time.Hour)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/register", h.Register)
	mux.HandleFunc("POST /auth/login", h.Login)
	mux.HandleFunc("POST /auth/refresh", h.Refresh)
	mux.Handle("POST /auth/logout", h.RequireUser(http.HandlerFunc(h.Logout)))
	mux.Handle("GET /auth/home", h.RequireUser(http.HandlerFunc(h.Home)))
	return mux, f
}

func do(mux http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func cookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Detail
}

func TestHandlerRegister(t *testing.T) {
	mux, _ := newTestMux(t)
	creds := `{"email":"alice@example.com","password":"` + goodPassword + `"}`

	rec := do(mux, http.MethodPost, "/auth/register", creds)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"User registered successfully. Please log in.","redirect_url":"/login"}`, rec.Body.String())

	rec = do(mux, http.MethodPost, "/auth/register", creds)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email is already registered", detail(t, rec))

	rec = do(mux, http.MethodPost, "/auth/register", `{"email":"bob@example.com","password":"alllowercasebutlong1!"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Password must contain at least one uppercase letter", detail(t, rec))

	rec = do(mux, http.MethodPost, "/auth/register", `{"email":"bob","password":"`+goodPassword+`"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(mux, http.MethodPost, "/auth/register", `{`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandlerLoginFlow(t *testing.T) {
	mux, _ := newTestMux(t)
	creds := `{"email":"alice@example.com","password":"` + goodPassword + `"}`
	require.Equal(t, http.StatusOK, do(mux, http.MethodPost, "/auth/register", creds).Code)

	rec := do(mux, http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid credentials", detail(t, rec))

	rec = do(mux, http.MethodPost, "/auth/login", creds)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Login successful"}`, rec.Body.String())
	access, refresh := cookie(rec, AccessCookie), cookie(rec, RefreshCookie)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.True(t, access.HttpOnly)
	assert.Equal(t, 900, access.MaxAge)
	assert.Equal(t, 172800, refresh.MaxAge)

	rec = do(mux, http.MethodGet, "/auth/home", "", access)
	require.Equal(t, http.StatusOK, rec.Code)
	var home struct {
		Message string `json:"message"`
		User    struct {
			ID    int64  `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &home))
	assert.Equal(t, "Welcome to the home page", home.Message)
	assert.Equal(t, "alice@example.com", home.User.Email)

	rec = do(mux, http.MethodPost, "/auth/refresh", "", refresh)
	require.Equal(t, http.StatusOK, rec.Code)
	var tok struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	assert.Equal(t, "bearer", tok.TokenType)
	assert.NotEmpty(t, tok.AccessToken)
	require.NotNil(t, cookie(rec, AccessCookie))

	rec = do(mux, http.MethodPost, "/auth/logout", "", access, refresh)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Logout successful"}`, rec.Body.String())
	cleared := cookie(rec, AccessCookie)
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)

	rec = do(mux, http.MethodPost, "/auth/refresh", "", refresh)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid refresh token", detail(t, rec))
}

func TestHandlerUnauthorizedMessages(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := do(mux, http.MethodGet, "/auth/home", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Access token missing", detail(t, rec))

	rec = do(mux, http.MethodGet, "/auth/home", "", &http.Cookie{Name: AccessCookie, Value: "forged"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token", detail(t, rec))

	rec = do(mux, http.MethodPost, "/auth/refresh", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Refresh token missing", detail(t, rec))

	rec = do(mux, http.MethodPost, "/auth/logout", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
