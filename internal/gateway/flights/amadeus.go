// Package flights adapts the Amadeus self-service REST API.
package flights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	tokenPath        = "/v1/security/oauth2/token"
	offersPath       = "/v2/shopping/flight-offers"
	destinationsPath = "/v1/shopping/flight-destinations"
	locationsPath    = "/v1/reference-data/locations"
)

var ErrNotConfigured = errors.New("flight provider credentials are not configured")

type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Currency     string
	MaxResults   int
}

type Client struct {
	baseURL    string
	configured bool
	currency   string
	maxResults int
	http       *http.Client
}

// New wraps base with an OAuth2 client-credentials token source. Tokens are
// fetched with base too, so they share its timeout and tracing.
func New(cfg Config, base *http.Client) *Client {
	if base == nil {
		base = http.DefaultClient
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     baseURL + tokenPath,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	hc := cc.Client(ctx)
	hc.Timeout = base.Timeout
	hc.CheckRedirect = base.CheckRedirect

	return &Client{
		baseURL:    baseURL,
		configured: cfg.ClientID != "" && cfg.ClientSecret != "",
		currency:   cfg.Currency,
		maxResults: cfg.MaxResults,
		http:       hc,
	}
}

// SearchOffers returns offers in provider order.
func (c *Client) SearchOffers(ctx context.Context, q OfferQuery) ([]Offer, error) {
	v := url.Values{}
	v.Set("originLocationCode", q.Origin)
	v.Set("destinationLocationCode", q.Destination)
	v.Set("departureDate", q.DepartureDate)
	adults := q.Adults
	if adults <= 0 {
		adults = 1
	}
	v.Set("adults", strconv.Itoa(adults))
	if q.MaxPrice.Valid && q.MaxPrice.Decimal.IsPositive() {
		v.Set("maxPrice", q.MaxPrice.Decimal.Truncate(0).String())
	}
	if q.NonStop {
		v.Set("nonStop", "true")
	}
	currency := q.Currency
	if currency == "" {
		currency = c.currency
	}
	if currency != "" {
		v.Set("currencyCode", currency)
	}
	limit := q.Max
	if limit <= 0 {
		limit = c.maxResults
	}
	if limit > 0 {
		v.Set("max", strconv.Itoa(limit))
	}

	var out struct {
		Data []Offer `json:"data"`
	}
	if err := c.get(ctx, offersPath, v, &out); err != nil {
		return nil, fmt.Errorf("search offers: %w", err)
	}
	return out.Data, nil
}

func (c *Client) Destinations(ctx context.Context, q DestinationQuery) ([]Destination, error) {
	v := url.Values{}
	v.Set("origin", q.Origin)
	v.Set("departureDate", q.DepartureDate)
	v.Set("oneWay", strconv.FormatBool(q.OneWay))
	if q.Duration != "" {
		v.Set("duration", q.Duration)
	}
	if q.NonStop {
		v.Set("nonStop", "true")
	}
	if q.MaxPrice != nil {
		v.Set("maxPrice", strconv.Itoa(*q.MaxPrice))
	}
	if q.ViewBy != "" {
		v.Set("viewBy", q.ViewBy)
	}

	var out struct {
		Data []Destination `json:"data"`
	}
	if err := c.get(ctx, destinationsPath, v, &out); err != nil {
		return nil, fmt.Errorf("flight destinations: %w", err)
	}
	return out.Data, nil
}

// Locations searches airports and cities by keyword. subTypes defaults to AIRPORT.
func (c *Client) Locations(ctx context.Context, keyword string, subTypes ...string) ([]Location, error) {
	if len(subTypes) == 0 {
		subTypes = []string{"AIRPORT"}
	}
	v := url.Values{}
	v.Set("keyword", keyword)
	v.Set("subType", strings.Join(subTypes, ","))

	var out struct {
		Data []Location `json:"data"`
	}
	if err := c.get(ctx, locationsPath, v, &out); err != nil {
		return nil, fmt.Errorf("locations: %w", err)
	}
	return out.Data, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	if !c.configured {
		return ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.amadeus+json, application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &UpstreamError{Status: resp.StatusCode, Body: string(raw)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
