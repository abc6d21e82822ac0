package repository

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"01-02-06", // excelize default date format
}

// parseDate accepts the date encodings produced by sqlite, postgres, CSV and
// spreadsheet sources, and returns the calendar day in UTC.
func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// parseSales coerces a raw sales cell to a non-negative quantity; anything
// non-numeric counts as zero.
func parseSales(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Max(0, v)
}

type rawObservation struct {
	date  string
	sales string
}

// normalizeSeries parses rows, collapses duplicate dates keeping the last
// row seen, and orders the result by date. Rows with unparseable dates are
// dropped.
func normalizeSeries(rows []rawObservation) []domain.SalesObservation {
	byDate := make(map[time.Time]float64, len(rows))
	for _, r := range rows {
		d, ok := parseDate(r.date)
		if !ok {
			continue
		}
		byDate[d] = parseSales(r.sales)
	}

	out := make([]domain.SalesObservation, 0, len(byDate))
	for d, s := range byDate {
		out = append(out, domain.SalesObservation{Date: d, Sales: s})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
