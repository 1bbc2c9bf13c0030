// Package api assembles the HTTP surface of the API binary.
package api

import (
	"net/http"
	"time"

	"github.com/NordCoder/FlightAlert/internal/obs"
	"github.com/NordCoder/FlightAlert/internal/services/api/auth"
	"github.com/NordCoder/FlightAlert/internal/services/api/httpx"
	"github.com/NordCoder/FlightAlert/internal/services/api/rule"
	"github.com/NordCoder/FlightAlert/internal/services/api/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Deps struct {
	Auth   *auth.Handler
	Rules  *rule.Handler
	Search *search.Handler

	Health   obs.HealthFunc
	Log      *zap.Logger
	Registry *prometheus.Registry

	AllowedOrigins []string
	CORSMaxAge     time.Duration
}

// NewRouter registers every route. Collection routes answer with and without
// the trailing slash.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()
	protect := func(h http.HandlerFunc) http.Handler { return d.Auth.RequireUser(h) }
	both := func(method, path string, h http.Handler) {
		mux.Handle(method+" "+path+"{$}", h)
		mux.Handle(method+" "+path[:len(path)-1], h)
	}

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Welcome to FlightAlert!"})
	})

	mux.HandleFunc("POST /auth/register", d.Auth.Register)
	mux.HandleFunc("POST /auth/login", d.Auth.Login)
	mux.HandleFunc("POST /auth/refresh", d.Auth.Refresh)
	mux.Handle("POST /auth/logout", protect(d.Auth.Logout))
	mux.Handle("GET /auth/home", protect(d.Auth.Home))

	both(http.MethodPost, "/notify/notifications/", protect(d.Rules.Create))
	both(http.MethodGet, "/notify/notifications/", protect(d.Rules.List))
	both(http.MethodDelete, "/notify/notifications/{id}/", protect(d.Rules.Delete))
	both(http.MethodGet, "/notify/deliveries/", protect(d.Rules.Deliveries))

	mux.Handle("POST /api/search_location", protect(d.Search.SearchLocation))
	mux.Handle("POST /api/flight_destinations", protect(d.Search.FlightDestinations))
	mux.Handle("GET /api/airport_autocomplete", protect(d.Search.AirportAutocomplete))

	var reg prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if d.Registry != nil {
		reg, gatherer = d.Registry, d.Registry
	}
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /healthz", obs.HealthHandler(d.Health))

	log := obs.Component(d.Log, "http")
	return httpx.Chain(mux,
		httpx.Recover(log),
		httpx.CORS(d.AllowedOrigins, d.CORSMaxAge),
		httpx.AccessLog(log, reg),
	)
}
