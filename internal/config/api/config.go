package api_config

import (
	"net/http"
	"strings"
	"time"

	"github.com/NordCoder/FlightAlert/internal/config/common"
	pg "github.com/NordCoder/FlightAlert/internal/repository/postgres"
)

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	GRPCAddr        string        `mapstructure:"grpc_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

type Auth struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	Algorithm      string        `mapstructure:"algorithm"`
	AccessTTL      time.Duration `mapstructure:"access_ttl"`
	RefreshTTL     time.Duration `mapstructure:"refresh_ttl"`
	CookieDomain   string        `mapstructure:"cookie_domain"`
	CookiePath     string        `mapstructure:"cookie_path"`
	CookieSecure   bool          `mapstructure:"cookie_secure"`
	CookieSameSite string        `mapstructure:"cookie_samesite"`
}

type CORS struct {
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	MaxAge         time.Duration `mapstructure:"max_age"`
}

type Config struct {
	App     common.App     `mapstructure:"app"`
	Server  Server         `mapstructure:"server"`
	DB      pg.Config      `mapstructure:"db"`
	OTEL    common.OTEL    `mapstructure:"otel"`
	Log     common.Log     `mapstructure:"log"`
	Auth    Auth           `mapstructure:"auth"`
	CORS    CORS           `mapstructure:"cors"`
	Amadeus common.Amadeus `mapstructure:"amadeus"`
	Gateway common.Gateway `mapstructure:"gateway"`
}

// CookiePolicy returns the Secure flag and SameSite mode for auth cookies.
// The production profile always gets Secure and Strict.
func (c *Config) CookiePolicy() (secure bool, sameSite http.SameSite) {
	if c.App.IsProd() {
		return true, http.SameSiteStrictMode
	}
	switch strings.ToLower(c.Auth.CookieSameSite) {
	case "strict":
		sameSite = http.SameSiteStrictMode
	case "none":
		sameSite = http.SameSiteNoneMode
	default:
		sameSite = http.SameSiteLaxMode
	}
	return c.Auth.CookieSecure, sameSite
}
