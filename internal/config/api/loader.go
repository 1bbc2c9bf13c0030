package api_config

import (
	"fmt"
	"strings"

	"github.com/NordCoder/FlightAlert/internal/config/common"
)

func Load(path string) (*Config, error) {
	v, err := common.NewViper(path, "api")
	if err != nil {
		return nil, err
	}

	v.SetDefault("server.http_addr", ":8000")
	v.SetDefault("server.grpc_addr", ":9090")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.graceful_timeout", "15s")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.algorithm", "HS256")
	v.SetDefault("auth.access_ttl", "15m")
	v.SetDefault("auth.refresh_ttl", "48h")
	v.SetDefault("auth.cookie_domain", "")
	v.SetDefault("auth.cookie_path", "/")
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("auth.cookie_samesite", "lax")
	_ = v.BindEnv("auth.jwt_secret", "AUTH_JWT_SECRET", "SECRET_KEY")
	_ = v.BindEnv("auth.algorithm", "AUTH_ALGORITHM", "ALGORITHM")

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("cors.max_age", "10m")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if err := common.ValidateDB(cfg.DB); err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return common.ErrConfig("auth.jwt_secret is required")
	}
	switch cfg.Auth.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return common.ErrConfig("auth.algorithm must be one of HS256, HS384, HS512")
	}
	switch strings.ToLower(cfg.Auth.CookieSameSite) {
	case "lax", "strict", "none":
	default:
		return common.ErrConfig("auth.cookie_samesite must be lax, strict or none")
	}
	if cfg.Auth.AccessTTL <= 0 || cfg.Auth.RefreshTTL <= 0 {
		return common.ErrConfig("auth token ttls must be positive")
	}
	if cfg.App.IsProd() && hasWildcardOrigin(cfg.CORS.AllowedOrigins) {
		return common.ErrConfig(`cors.allowed_origins must not contain "*" in prod`)
	}
	return nil
}

// hasWildcardOrigin also looks inside comma separated env values.
func hasWildcardOrigin(origins []string) bool {
	for _, v := range origins {
		for _, o := range strings.Split(v, ",") {
			if strings.TrimSpace(o) == "*" {
				return true
			}
		}
	}
	return false
}
