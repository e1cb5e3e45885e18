package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockStatus is derived from the quantity on hand and the minimum threshold.
type StockStatus string

const (
	StockOK       StockStatus = "OK"
	StockLow      StockStatus = "Faible"
	StockCritical StockStatus = "Critique"
)

// StockItem is an article held in inventory.
type StockItem struct {
	ID         RecordID        `json:"id,omitempty" csv:"id"`
	Name       string          `json:"nom" csv:"nom"`
	Category   string          `json:"categorie" csv:"categorie"`
	Quantity   int64           `json:"quantite" csv:"quantite"`
	MinLevel   int64           `json:"seuil_min" csv:"seuil_min"`
	MaxLevel   int64           `json:"seuil_max" csv:"seuil_max"`
	UnitPrice  decimal.Decimal `json:"prix_unitaire" csv:"prix_unitaire"`
	Location   string          `json:"emplacement" csv:"emplacement"`
	LastUpdate string          `json:"date_maj" csv:"date_maj"`
	Status     StockStatus     `json:"statut,omitempty" csv:"statut"`
	UpdatedAt  *time.Time      `json:"updated_at,omitempty" csv:"-"`
}

// DeriveStatus classifies the item: Critique at or below the minimum,
// Faible up to 1.5x the minimum, OK above.
func (s StockItem) DeriveStatus() StockStatus {
	switch {
	case s.Quantity <= s.MinLevel:
		return StockCritical
	case 2*s.Quantity <= 3*s.MinLevel:
		return StockLow
	default:
		return StockOK
	}
}

// NeedsRestock reports whether the item belongs in the stock alerts.
func (s StockItem) NeedsRestock() bool {
	return s.DeriveStatus() != StockOK
}

// Value is the inventory value of the item (quantity x unit price).
func (s StockItem) Value() decimal.Decimal {
	return s.UnitPrice.Mul(decimal.NewFromInt(s.Quantity))
}

// FillRatio is the quantity over the maximum threshold, capped at 1.
func (s StockItem) FillRatio() decimal.Decimal {
	if s.MaxLevel <= 0 {
		return decimal.Zero
	}
	ratio := decimal.NewFromInt(s.Quantity).Div(decimal.NewFromInt(s.MaxLevel))
	if ratio.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return ratio.Round(2)
}
