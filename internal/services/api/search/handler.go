// Package search proxies location and destination lookups to the flight provider
// for signed-in users.
package search

import (
	"context"
	"net/http"
	"strings"

	"github.com/NordCoder/FlightAlert/internal/gateway/flights"
	"github.com/NordCoder/FlightAlert/internal/obs"
	"github.com/NordCoder/FlightAlert/internal/services/api/httpx"
	"go.uber.org/zap"
)

type Provider interface {
	Locations(ctx context.Context, keyword string, subTypes ...string) ([]flights.Location, error)
	Destinations(ctx context.Context, q flights.DestinationQuery) ([]flights.Destination, error)
}

type Handler struct {
	p   Provider
	log *zap.Logger
}

func NewHandler(p Provider, log *zap.Logger) *Handler {
	return &Handler{p: p, log: obs.Component(log, "api.search")}
}

type locationRequest struct {
	Keyword string `json:"keyword"`
}

func (h *Handler) SearchLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if strings.TrimSpace(req.Keyword) == "" {
		httpx.WriteDetail(w, http.StatusUnprocessableEntity, "keyword: field required")
		return
	}

	log := obs.WithTrace(r.Context(), h.log)
	log.Info("search location", zap.String("keyword", req.Keyword))
	locs, err := h.p.Locations(r.Context(), req.Keyword, "AIRPORT")
	if err != nil {
		log.Error("location search failed", zap.Error(err))
		httpx.WriteDetail(w, http.StatusInternalServerError, "Failed to fetch locations from Amadeus API")
		return
	}
	if locs == nil {
		locs = []flights.Location{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"data": locs})
}

func (h *Handler) FlightDestinations(w http.ResponseWriter, r *http.Request) {
	req := flights.DestinationQuery{ViewBy: "DURATION"}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	switch {
	case strings.TrimSpace(req.Origin) == "":
		httpx.WriteDetail(w, http.StatusUnprocessableEntity, "origin: field required")
		return
	case strings.TrimSpace(req.DepartureDate) == "":
		httpx.WriteDetail(w, http.StatusUnprocessableEntity, "departureDate: field required")
		return
	case req.MaxPrice != nil && *req.MaxPrice < 0:
		httpx.WriteDetail(w, http.StatusUnprocessableEntity, "maxPrice: must be greater than or equal to 0")
		return
	}
	req.Origin = strings.ToUpper(strings.TrimSpace(req.Origin))

	log := obs.WithTrace(r.Context(), h.log)
	log.Info("flight destinations", zap.String("origin", req.Origin), zap.String("departure_date", req.DepartureDate))
	ds, err := h.p.Destinations(r.Context(), req)
	if err != nil {
		log.Error("flight destinations failed", zap.Error(err))
		httpx.WriteDetail(w, http.StatusInternalServerError, "Failed to fetch flight destinations from Amadeus API")
		return
	}
	if ds == nil {
		ds = []flights.Destination{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"data": ds})
}

type suggestion struct {
	IATACode string `json:"iataCode"`
	Name     string `json:"name"`
	CityName string `json:"cityName"`
}

func (h *Handler) AirportAutocomplete(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("term"))
	if term == "" {
		httpx.WriteDetail(w, http.StatusUnprocessableEntity, "term: field required")
		return
	}

	locs, err := h.p.Locations(r.Context(), term, "AIRPORT", "CITY")
	if err != nil {
		obs.WithTrace(r.Context(), h.log).Error("autocomplete failed", zap.String("term", term), zap.Error(err))
		httpx.WriteDetail(w, http.StatusInternalServerError, "Failed to fetch airport suggestions from Amadeus API")
		return
	}
	out := make([]suggestion, 0, len(locs))
	for _, l := range locs {
		out = append(out, suggestion{IATACode: l.IATACode, Name: l.Name, CityName: l.Address.CityName})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
