package main

import (
	"net/http"
	"time"

	"github.com/NordCoder/FlightAlert/internal/auth"
	config "github.com/NordCoder/FlightAlert/internal/config/api"
	"github.com/NordCoder/FlightAlert/internal/gateway"
	"github.com/NordCoder/FlightAlert/internal/gateway/flights"
	"github.com/NordCoder/FlightAlert/internal/obs"
	pg "github.com/NordCoder/FlightAlert/internal/repository/postgres"
	"github.com/NordCoder/FlightAlert/internal/services/api"
	authsvc "github.com/NordCoder/FlightAlert/internal/services/api/auth"
	"github.com/NordCoder/FlightAlert/internal/services/api/httpx"
	rulesvc "github.com/NordCoder/FlightAlert/internal/services/api/rule"
	"github.com/NordCoder/FlightAlert/internal/services/api/search"
	"go.uber.org/zap"
)

func buildHTTPServer(cfg *config.Config, logger *zap.Logger, db *pg.DB) (*http.Server, error) {
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret:     []byte(cfg.Auth.JWTSecret),
		Algorithm:  cfg.Auth.Algorithm,
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
	})
	if err != nil {
		return nil, err
	}

	users := pg.NewUserRepo(db)
	authUC := authsvc.NewUsecase(users, pg.NewRefreshTokenRepo(db), tokens, logger)
	secure, sameSite := cfg.CookiePolicy()
	authH := authsvc.NewHandler(authUC, logger, authsvc.CookieOptions{
		Domain:   cfg.Auth.CookieDomain,
		Path:     cfg.Auth.CookiePath,
		Secure:   secure,
		SameSite: sameSite,
	}, tokens.AccessTTL(), tokens.RefreshTTL())

	ruleH := rulesvc.NewHandler(rulesvc.NewUsecase(pg.NewRuleRepo(db), pg.NewDeliveryRepo(db)), logger)

	hc := gateway.NewHTTPClient(gateway.Config{Timeout: cfg.Gateway.Timeout, UserAgent: cfg.Gateway.UserAgent})
	amadeus := flights.New(flights.Config{
		BaseURL:      cfg.Amadeus.BaseURL,
		ClientID:     cfg.Amadeus.ClientID,
		ClientSecret: cfg.Amadeus.ClientSecret,
		Currency:     cfg.Amadeus.Currency,
		MaxResults:   cfg.Amadeus.MaxResults,
	}, hc)
	if cfg.Amadeus.ClientID == "" {
		logger.Warn("amadeus credentials missing, search endpoints will fail")
	}

	router := api.NewRouter(api.Deps{
		Auth:           authH,
		Rules:          ruleH,
		Search:         search.NewHandler(amadeus, logger),
		Health:         db.Ping,
		Log:            logger,
		AllowedOrigins: httpx.SplitOrigins(cfg.CORS.AllowedOrigins),
		CORSMaxAge:     cfg.CORS.MaxAge,
	})

	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           obs.HTTPHandler(router, "flightalert.api"),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}, nil
}

func serveHTTP(srv *http.Server, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", srv.Addr))
	return srv.ListenAndServe()
}
