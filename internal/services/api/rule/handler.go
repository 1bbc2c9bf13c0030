package rule

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/NordCoder/FlightAlert/internal/domain/delivery"
	"github.com/NordCoder/FlightAlert/internal/domain/rule"
	"github.com/NordCoder/FlightAlert/internal/obs"
	apiauth "github.com/NordCoder/FlightAlert/internal/services/api/auth"
	"github.com/NordCoder/FlightAlert/internal/services/api/httpx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Handler struct {
	uc  *Usecase
	log *zap.Logger
}

func NewHandler(uc *Usecase, log *zap.Logger) *Handler {
	return &Handler{uc: uc, log: obs.Component(log, "api.rule")}
}

type createRequest struct {
	Origin        *string          `json:"origin"`
	Destination   *string          `json:"destination"`
	DepartureDate *string          `json:"departure_date"`
	MaxPrice      *decimal.Decimal `json:"max_price"`
	Frequency     *int             `json:"frequency"`
	FrequencyUnit *string          `json:"frequency_unit"`
}

type ruleResponse struct {
	ID               int64      `json:"id"`
	Origin           string     `json:"origin"`
	Destination      string     `json:"destination"`
	DepartureDate    string     `json:"departure_date"`
	MaxPrice         *float64   `json:"max_price"`
	Frequency        int        `json:"frequency"`
	FrequencyUnit    string     `json:"frequency_unit"`
	IsActive         bool       `json:"is_active"`
	LastNotification *time.Time `json:"last_notification"`
	CreatedAt        time.Time  `json:"created_at"`
}

func toResponse(r *rule.Rule) ruleResponse {
	out := ruleResponse{
		ID:               r.ID,
		Origin:           r.Origin,
		Destination:      r.Destination,
		DepartureDate:    r.DepartureDate,
		Frequency:        r.Frequency,
		FrequencyUnit:    string(r.FrequencyUnit),
		IsActive:         r.IsActive,
		LastNotification: r.LastNotification,
		CreatedAt:        r.CreatedAt,
	}
	if r.MaxPrice.Valid {
		f := r.MaxPrice.Decimal.InexactFloat64()
		out.MaxPrice = &f
	}
	return out
}

type deliveryResponse struct {
	ID          int64     `json:"id"`
	RuleID      int64     `json:"rule_id"`
	Channel     string    `json:"channel"`
	OffersCount int       `json:"offers_count"`
	Status      string    `json:"status"`
	SentAt      time.Time `json:"sent_at"`
}

func toDeliveryResponse(d *delivery.Delivery) deliveryResponse {
	return deliveryResponse{
		ID:          d.ID,
		RuleID:      d.RuleID,
		Channel:     d.Channel,
		OffersCount: d.OffersCount,
		Status:      string(d.Status),
		SentAt:      d.SentAt,
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := apiauth.UserFromContext(r.Context())
	if !ok {
		httpx.WriteDetail(w, http.StatusUnauthorized, "Access token missing")
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := h.uc.Create(r.Context(), u.ID, Input(req))
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			httpx.WriteDetail(w, http.StatusUnprocessableEntity, ve.Error())
			return
		}
		h.internal(w, r, "create rule", err)
		return
	}
	obs.WithTrace(r.Context(), h.log).Info("rule created", zap.Int64("rule_id", created.ID), zap.Int64("user_id", u.ID))
	httpx.WriteJSON(w, http.StatusOK, toResponse(created))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	u, ok := apiauth.UserFromContext(r.Context())
	if !ok {
		httpx.WriteDetail(w, http.StatusUnauthorized, "Access token missing")
		return
	}
	rules, err := h.uc.List(r.Context(), u.ID)
	if err != nil {
		h.internal(w, r, "list rules", err)
		return
	}
	out := make([]ruleResponse, 0, len(rules))
	for _, x := range rules {
		out = append(out, toResponse(x))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	u, ok := apiauth.UserFromContext(r.Context())
	if !ok {
		httpx.WriteDetail(w, http.StatusUnauthorized, "Access token missing")
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httpx.WriteDetail(w, http.StatusUnprocessableEntity, "id: must be an integer")
		return
	}
	if err := h.uc.Delete(r.Context(), u.ID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteDetail(w, http.StatusNotFound, "Notification not found")
			return
		}
		h.internal(w, r, "delete rule", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Notification deleted successfully"})
}

func (h *Handler) Deliveries(w http.ResponseWriter, r *http.Request) {
	u, ok := apiauth.UserFromContext(r.Context())
	if !ok {
		httpx.WriteDetail(w, http.StatusUnauthorized, "Access token missing")
		return
	}
	ds, err := h.uc.Deliveries(r.Context(), u.ID)
	if err != nil {
		h.internal(w, r, "list deliveries", err)
		return
	}
	out := make([]deliveryResponse, 0, len(ds))
	for _, d := range ds {
		out = append(out, toDeliveryResponse(d))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) internal(w http.ResponseWriter, r *http.Request, op string, err error) {
	obs.WithTrace(r.Context(), h.log).Error(op+" failed", zap.Error(err))
	httpx.WriteDetail(w, http.StatusInternalServerError, "Internal server error")
}
