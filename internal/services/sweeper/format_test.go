package sweeper

import (
	"strings"
	"testing"

	"github.com/NordCoder/FlightAlert/internal/domain/rule"
	"github.com/NordCoder/FlightAlert/internal/gateway/flights"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDuration(t *testing.T) {
	cases := map[string]string{
		"PT2H30M":  "2h 30m",
		"PT45M":    "0h 45m",
		"PT11H":    "11h 0m",
		"PT1H5M0S": "1h 5m",
		"":         "Unknown duration",
		"2H30M":    "Unknown duration",
		"P1D":      "Unknown duration",

		"PT99999999999999999999H":   "Unknown duration",
		"PT1H99999999999999999999M": "Unknown duration",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatDuration(in), in)
	}
}

func offer(id, price, duration string) flights.Offer {
	return flights.Offer{
		ID: id,
		Itineraries: []flights.Itinerary{{
			Duration: duration,
			Segments: []flights.Segment{
				{Departure: flights.Endpoint{IATACode: "JFK", At: "2025-12-01T08:00:00"}, Arrival: flights.Endpoint{IATACode: "ORD"}},
				{Departure: flights.Endpoint{IATACode: "ORD"}, Arrival: flights.Endpoint{IATACode: "LAX"}},
			},
		}},
		Price: flights.Price{Currency: "USD", Total: decimal.RequireFromString(price)},
	}
}

func ids(offers []flights.Offer) []string {
	out := make([]string, 0, len(offers))
	for _, o := range offers {
		out = append(out, o.ID)
	}
	return out
}

func TestRanking(t *testing.T) {
	offers := []flights.Offer{
		offer("a", "300.00", "PT4H"),
		offer("b", "99.50", "PT9H"),
		offer("c", "150", "PT2H30M"),
		offer("d", "1000", "garbage"),
		offer("e", "120", "PT3H"),
		offer("f", "80", "PT12H"),
	}

	assert.Equal(t, []string{"f", "b", "e", "c", "a"}, ids(Cheapest(offers, 5)))
	assert.Equal(t, []string{"c", "e", "a", "b", "f"}, ids(Shortest(offers, 5)))
	assert.Len(t, Cheapest(offers, 10), 6)
	assert.Equal(t, "a", offers[0].ID, "input is not reordered")
}

func TestRenderEmail(t *testing.T) {
	r := &rule.Rule{
		Origin: "JFK", Destination: "LAX", DepartureDate: "2025-12-01",
		MaxPrice: decimal.NewNullDecimal(decimal.RequireFromString("500")),
	}
	body, err := RenderEmail(r, []flights.Offer{offer("a", "199.9", "PT5H10M")}, 5)
	require.NoError(t, err)

	assert.Contains(t, body, "JFK to LAX")
	assert.Contains(t, body, "under 500.00")
	assert.Contains(t, body, "Cheapest Flights")
	assert.Contains(t, body, "Shortest Duration Flights")
	assert.Contains(t, body, "5h 10m")
	assert.Contains(t, body, "199.90 USD")
	assert.Equal(t, 2, strings.Count(body, "<td>JFK</td>"))
}

func TestRenderEmailEscapesInput(t *testing.T) {
	r := &rule.Rule{Origin: "<script>", Destination: "LAX", DepartureDate: "d"}
	body, err := RenderEmail(r, nil, 5)
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
}
