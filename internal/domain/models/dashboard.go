package models

import "github.com/shopspring/decimal"

// DashboardStats mirrors /api/dashboard/stats. The backend is loose about
// numeric types, so the payload is decoded weakly.
type DashboardStats struct {
	SalesTotal            decimal.Decimal `mapstructure:"total_ventes" json:"total_ventes"`
	AcquisitionsTotal     decimal.Decimal `mapstructure:"total_acquisitions" json:"total_acquisitions"`
	AvailableFunds        decimal.Decimal `mapstructure:"fonds_disponibles" json:"fonds_disponibles"`
	StockItems            int64           `mapstructure:"articles_en_stock" json:"articles_en_stock"`
	SalesVariation        float64         `mapstructure:"variation_ventes" json:"variation_ventes"`
	AcquisitionsVariation float64         `mapstructure:"variation_acquisitions" json:"variation_acquisitions"`
	FundsVariation        float64         `mapstructure:"variation_fonds" json:"variation_fonds"`
	StockVariation        float64         `mapstructure:"variation_stocks" json:"variation_stocks"`
}

// Activity is one line of the dashboard "recent activity" feed.
type Activity struct {
	Kind        string          `json:"type"`
	ID          RecordID        `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"montant"`
	Date        string          `json:"date"`
}
