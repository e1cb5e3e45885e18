// Package listing holds the in-memory collection behind a console page and
// derives what the operator sees from it: the filtered rows and their
// aggregate statistics. Derivations are pure functions of the collection
// and the filter.
package listing

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"github.com/k2nservice/console/internal/domain/models"
)

// Filter is the operator's search state for a page.
type Filter struct {
	Search string
	From   time.Time
	To     time.Time
}

// MarshalJSON writes the bounds as wire dates and leaves unset ones out.
func (f Filter) MarshalJSON() ([]byte, error) {
	out := struct {
		Search string `json:"q"`
		From   string `json:"from,omitempty"`
		To     string `json:"to,omitempty"`
	}{Search: f.Search}
	if !f.From.IsZero() {
		out.From = f.From.Format(models.DateLayout)
	}
	if !f.To.IsZero() {
		out.To = f.To.Format(models.DateLayout)
	}
	return json.Marshal(out)
}

// Active reports whether the filter restricts anything.
func (f Filter) Active() bool {
	return f.Search != "" || !f.From.IsZero() || !f.To.IsZero()
}

// ParseBound reads a date bound typed by the operator. An empty string is an
// unset bound.
func ParseBound(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, ok := models.ParseDate(value)
	if !ok {
		return time.Time{}, fmt.Errorf("date invalide: %q", value)
	}
	return t, nil
}

// Spec describes how one domain plugs into the view: which fields are
// searched, dated, summed, counted and how identifiers are handled.
type Spec[T any] struct {
	// Text returns the designated searchable fields.
	Text func(T) []string
	// Date returns the record date in wire format; nil disables date bounds.
	Date func(T) string
	// Amount is the monetary field summed into Stats.Total.
	Amount func(T) decimal.Decimal
	// Category is the field whose distinct values are counted.
	Category func(T) string
	// Status selects the records counted in Stats.Matching.
	Status func(T) bool
	// ID and WithID read and assign the record identifier.
	ID     func(T) models.RecordID
	WithID func(T, models.RecordID) T
	// IDPrefix is used when an identifier has to be synthesized ("ACQ").
	IDPrefix string
	// Normalize, when set, is applied to every record loaded from the backend.
	Normalize func(T) T
}

// Apply returns the records matching the filter, in collection order. The
// input slice is never modified.
func Apply[T any](records []T, f Filter, spec Spec[T]) []T {
	term := strings.ToLower(f.Search)
	out := make([]T, 0, len(records))
	for _, r := range records {
		if term != "" && !matchesText(spec.Text(r), term) {
			continue
		}
		if !withinBounds(r, f, spec) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesText(fields []string, term string) bool {
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func withinBounds[T any](r T, f Filter, spec Spec[T]) bool {
	if f.From.IsZero() && f.To.IsZero() {
		return true
	}
	if spec.Date == nil {
		return true
	}
	day, ok := models.ParseDate(spec.Date(r))
	if !ok {
		return false
	}
	if !f.From.IsZero() && day.Before(truncate(f.From)) {
		return false
	}
	if !f.To.IsZero() && day.After(truncate(f.To)) {
		return false
	}
	return true
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Stats summarizes a filtered subset.
type Stats struct {
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
	Distinct int             `json:"distinct"`
	Matching int             `json:"matching"`
	Mean     decimal.Decimal `json:"mean"`
	Median   decimal.Decimal `json:"median"`
}

// Aggregate computes the statistics of rows.
func Aggregate[T any](rows []T, spec Spec[T]) Stats {
	out := Stats{Total: decimal.Zero, Mean: decimal.Zero, Median: decimal.Zero, Count: len(rows)}

	seen := make(map[string]struct{})
	amounts := make(stats.Float64Data, 0, len(rows))
	for _, r := range rows {
		if spec.Amount != nil {
			amount := spec.Amount(r)
			out.Total = out.Total.Add(amount)
			amounts = append(amounts, amount.InexactFloat64())
		}
		if spec.Category != nil {
			if category := spec.Category(r); category != "" {
				seen[category] = struct{}{}
			}
		}
		if spec.Status != nil && spec.Status(r) {
			out.Matching++
		}
	}
	out.Distinct = len(seen)

	if len(amounts) > 0 {
		if mean, err := amounts.Mean(); err == nil {
			out.Mean = decimal.NewFromFloat(mean).Round(2)
		}
		if median, err := amounts.Median(); err == nil {
			out.Median = decimal.NewFromFloat(median).Round(2)
		}
	}
	return out
}
