package api_config

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/NordCoder/FlightAlert/internal/config/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithSecretFromEnv(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "s3cr3t")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", cfg.Auth.JWTSecret)
	assert.Equal(t, "HS256", cfg.Auth.Algorithm)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, 48*time.Hour, cfg.Auth.RefreshTTL)
	assert.Equal(t, ":8000", cfg.Server.HTTPAddr)
	assert.Equal(t, "USD", cfg.Amadeus.Currency)
	assert.Equal(t, 10*time.Second, cfg.Gateway.Timeout)

	secure, sameSite := cfg.CookiePolicy()
	assert.False(t, secure)
	assert.Equal(t, http.SameSiteLaxMode, sameSite)
}

func TestLoadRequiresSecret(t *testing.T) {
	_, err := Load("")
	var ce common.ErrConfig
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "api.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  env: prod
auth:
  jwt_secret: from-file
  cookie_samesite: none
cors:
  allowed_origins: ["https://flights.example"]
`), 0o600))
	t.Setenv("AUTH_ACCESS_TTL", "5m")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, []string{"https://flights.example"}, cfg.CORS.AllowedOrigins)

	secure, sameSite := cfg.CookiePolicy()
	assert.True(t, secure)
	assert.Equal(t, http.SameSiteStrictMode, sameSite)
}

func TestLoadRejectsWildcardOriginInProd(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "x")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://flights.example, *")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, hasWildcardOrigin(cfg.CORS.AllowedOrigins))

	t.Setenv("APP_ENV", "prod")
	_, err = Load("")
	var ce common.ErrConfig
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "cors.allowed_origins")
}

func TestLoadRejectsUnknownAlgorithm(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "x")
	t.Setenv("AUTH_ALGORITHM", "RS256")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.algorithm")
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
