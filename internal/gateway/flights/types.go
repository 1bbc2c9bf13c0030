package flights

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Endpoint struct {
	IATACode string `json:"iataCode"`
	Terminal string `json:"terminal,omitempty"`
	At       string `json:"at"`
}

type Segment struct {
	Departure     Endpoint `json:"departure"`
	Arrival       Endpoint `json:"arrival"`
	CarrierCode   string   `json:"carrierCode"`
	Number        string   `json:"number"`
	Duration      string   `json:"duration"`
	NumberOfStops int      `json:"numberOfStops"`
}

type Itinerary struct {
	Duration string    `json:"duration"`
	Segments []Segment `json:"segments"`
}

type Price struct {
	Currency   string          `json:"currency"`
	Total      decimal.Decimal `json:"total"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
}

// Offer is one priced itinerary set as returned by the flight-offers search.
type Offer struct {
	ID          string      `json:"id"`
	Source      string      `json:"source,omitempty"`
	Itineraries []Itinerary `json:"itineraries"`
	Price       Price       `json:"price"`
}

// First and Last return the outbound departure and final arrival of the first itinerary.
func (o Offer) First() (Segment, bool) {
	if len(o.Itineraries) == 0 || len(o.Itineraries[0].Segments) == 0 {
		return Segment{}, false
	}
	return o.Itineraries[0].Segments[0], true
}

func (o Offer) Last() (Segment, bool) {
	if len(o.Itineraries) == 0 || len(o.Itineraries[0].Segments) == 0 {
		return Segment{}, false
	}
	segs := o.Itineraries[0].Segments
	return segs[len(segs)-1], true
}

type OfferQuery struct {
	Origin        string
	Destination   string
	DepartureDate string
	// MaxPrice is truncated to whole currency units by the provider.
	MaxPrice decimal.NullDecimal
	Adults   int
	NonStop  bool
	Currency string
	Max      int
}

type DestinationQuery struct {
	Origin        string `json:"origin"`
	DepartureDate string `json:"departureDate"`
	OneWay        bool   `json:"oneWay"`
	Duration      string `json:"duration,omitempty"`
	NonStop       bool   `json:"nonStop"`
	MaxPrice      *int   `json:"maxPrice,omitempty"`
	ViewBy        string `json:"viewBy,omitempty"`
}

type DestinationPrice struct {
	Total decimal.Decimal `json:"total"`
}

type Destination struct {
	Type          string            `json:"type"`
	Origin        string            `json:"origin"`
	Destination   string            `json:"destination"`
	DepartureDate string            `json:"departureDate"`
	ReturnDate    string            `json:"returnDate,omitempty"`
	Price         DestinationPrice  `json:"price"`
	Links         map[string]string `json:"links,omitempty"`
}

type Address struct {
	CityName    string `json:"cityName,omitempty"`
	CityCode    string `json:"cityCode,omitempty"`
	CountryName string `json:"countryName,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
}

type Location struct {
	Type         string  `json:"type"`
	SubType      string  `json:"subType"`
	Name         string  `json:"name"`
	DetailedName string  `json:"detailedName,omitempty"`
	ID           string  `json:"id,omitempty"`
	IATACode     string  `json:"iataCode"`
	Address      Address `json:"address"`
}

// UpstreamError is a non-2xx answer from the provider.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("flight provider: status %d: %s", e.Status, e.Body)
}
