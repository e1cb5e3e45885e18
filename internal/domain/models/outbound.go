package models

import "time"

// Outbound is a stock movement leaving the warehouse.
type Outbound struct {
	ID          RecordID   `json:"id,omitempty" csv:"id"`
	Article     string     `json:"article" csv:"article"`
	Quantity    int64      `json:"quantite" csv:"quantite"`
	Reason      string     `json:"motif" csv:"motif"`
	Responsible string     `json:"responsable" csv:"responsable"`
	Date        string     `json:"date_sortie" csv:"date_sortie"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" csv:"-"`
}
