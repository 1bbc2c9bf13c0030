package sweeper

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"sort"
	"strconv"

	"github.com/NordCoder/FlightAlert/internal/domain/rule"
	"github.com/NordCoder/FlightAlert/internal/gateway/flights"
)

const unknownDuration = "Unknown duration"

// Only the hour and minute designators are read; anything after them is ignored.
var durationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?`)

func parseDuration(iso string) (hours, minutes int, ok bool) {
	m := durationRe.FindStringSubmatch(iso)
	if m == nil {
		return 0, 0, false
	}
	var err error
	if m[1] != "" {
		if hours, err = strconv.Atoi(m[1]); err != nil {
			return 0, 0, false
		}
	}
	if m[2] != "" {
		if minutes, err = strconv.Atoi(m[2]); err != nil {
			return 0, 0, false
		}
	}
	return hours, minutes, true
}

// FormatDuration renders "PT2H30M" as "2h 30m".
func FormatDuration(iso string) string {
	h, m, ok := parseDuration(iso)
	if !ok {
		return unknownDuration
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

// totalMinutes sums every itinerary of the offer. Unparseable offers sort last.
func totalMinutes(o flights.Offer) (int, bool) {
	if len(o.Itineraries) == 0 {
		return 0, false
	}
	total := 0
	for _, it := range o.Itineraries {
		h, m, ok := parseDuration(it.Duration)
		if !ok {
			return 0, false
		}
		total += h*60 + m
	}
	return total, true
}

func Cheapest(offers []flights.Offer, n int) []flights.Offer {
	out := append([]flights.Offer(nil), offers...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Price.Total.LessThan(out[j].Price.Total)
	})
	return head(out, n)
}

func Shortest(offers []flights.Offer, n int) []flights.Offer {
	out := append([]flights.Offer(nil), offers...)
	sort.SliceStable(out, func(i, j int) bool {
		a, aok := totalMinutes(out[i])
		b, bok := totalMinutes(out[j])
		if aok != bok {
			return aok
		}
		return a < b
	})
	return head(out, n)
}

func head(offers []flights.Offer, n int) []flights.Offer {
	if n >= 0 && len(offers) > n {
		return offers[:n]
	}
	return offers
}

type emailRow struct {
	From      string
	To        string
	Departure string
	Duration  string
	Stops     int
	Price     string
	Currency  string
}

type emailSection struct {
	Title string
	Rows  []emailRow
}

type emailView struct {
	Origin        string
	Destination   string
	DepartureDate string
	MaxPrice      string
	Sections      []emailSection
}

var emailTmpl = template.Must(template.New("alert").Parse(`<html><body style="font-family:Arial,sans-serif">
<h2>Flight Price Alert: {{.Origin}} to {{.Destination}}</h2>
<p>Here are the flights matching your criteria for {{.DepartureDate}}{{if .MaxPrice}} under {{.MaxPrice}}{{end}}.</p>
{{range .Sections}}<h3>{{.Title}}</h3>
<table cellpadding="6" style="border-collapse:collapse">
<tr><th align="left">From</th><th align="left">To</th><th align="left">Departure</th><th align="left">Duration</th><th align="left">Stops</th><th align="left">Price</th></tr>
{{range .Rows}}<tr><td>{{.From}}</td><td>{{.To}}</td><td>{{.Departure}}</td><td>{{.Duration}}</td><td>{{.Stops}}</td><td>{{.Price}} {{.Currency}}</td></tr>
{{end}}</table>
{{end}}<p style="color:#888">You receive this email because of an active flight alert.</p>
</body></html>`))

// RenderEmail builds the HTML alert body with the top n offers by price and by duration.
func RenderEmail(r *rule.Rule, offers []flights.Offer, n int) (string, error) {
	view := emailView{
		Origin:        r.Origin,
		Destination:   r.Destination,
		DepartureDate: r.DepartureDate,
		Sections: []emailSection{
			{Title: "Cheapest Flights", Rows: rows(Cheapest(offers, n))},
			{Title: "Shortest Duration Flights", Rows: rows(Shortest(offers, n))},
		},
	}
	if r.MaxPrice.Valid {
		view.MaxPrice = r.MaxPrice.Decimal.StringFixed(2)
	}

	var buf bytes.Buffer
	if err := emailTmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return buf.String(), nil
}

func rows(offers []flights.Offer) []emailRow {
	out := make([]emailRow, 0, len(offers))
	for _, o := range offers {
		row := emailRow{
			Price:    o.Price.Total.StringFixed(2),
			Currency: o.Price.Currency,
			Duration: unknownDuration,
		}
		if first, ok := o.First(); ok {
			last, _ := o.Last()
			row.From = first.Departure.IATACode
			row.To = last.Arrival.IATACode
			row.Departure = first.Departure.At
			row.Duration = FormatDuration(o.Itineraries[0].Duration)
			row.Stops = len(o.Itineraries[0].Segments) - 1
		}
		out = append(out, row)
	}
	return out
}
