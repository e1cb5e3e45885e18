package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// DateLayout is the calendar date format exchanged with the K2N backend.
const DateLayout = "2006-01-02"

func init() {
	// The backend reads amounts as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// RecordID identifies a record within its collection. The backend sends
// either strings ("V003") or integers (42); both decode to their text form.
type RecordID string

// UnmarshalJSON accepts string and numeric identifiers.
func (id *RecordID) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode record id: %w", err)
	}
	if raw == nil {
		*id = ""
		return nil
	}
	value, err := cast.ToStringE(raw)
	if err != nil {
		return fmt.Errorf("decode record id %v: %w", raw, err)
	}
	*id = RecordID(value)
	return nil
}

// String returns the identifier text.
func (id RecordID) String() string {
	return string(id)
}

// ParseDate reads a record date leniently ("2024-01-15", RFC3339 timestamps,
// "Jan 15, 2024" ...) and truncates it to the calendar day in UTC.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t, true
	}
	t, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}

// Installment is one scheduled partial payment of an acquisition.
type Installment struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"montant"`
}
