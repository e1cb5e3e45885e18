package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportStatus is the generation state of a report.
type ReportStatus string

const (
	ReportDone       ReportStatus = "Terminé"
	ReportInProgress ReportStatus = "En cours"
	ReportFailed     ReportStatus = "Erreur"
)

// Report is a generated document listed on the reports page.
type Report struct {
	ID        RecordID     `json:"id,omitempty" csv:"id"`
	Name      string       `json:"nom" csv:"nom"`
	Type      string       `json:"type" csv:"type"`
	Category  string       `json:"categorie" csv:"categorie"`
	CreatedOn string       `json:"date_creation" csv:"date_creation"`
	Size      string       `json:"taille" csv:"taille"`
	Status    ReportStatus `json:"statut" csv:"statut"`
	UpdatedAt *time.Time   `json:"updated_at,omitempty" csv:"-"`
}

// Downloadable reports whether the report file can be fetched.
func (r Report) Downloadable() bool {
	return r.Status == ReportDone
}

// DailySnapshot is the aggregated state of every page archived once a day.
type DailySnapshot struct {
	Date              time.Time       `json:"date"`
	SalesTotal        decimal.Decimal `json:"sales_total"`
	SalesPaid         decimal.Decimal `json:"sales_paid"`
	SalesCount        int             `json:"sales_count"`
	AcquisitionsTotal decimal.Decimal `json:"acquisitions_total"`
	AcquisitionsCount int             `json:"acquisitions_count"`
	FundsTotal        decimal.Decimal `json:"funds_total"`
	StockValue        decimal.Decimal `json:"stock_value"`
	LowStockCount     int             `json:"low_stock_count"`
	OutboundCount     int             `json:"outbound_count"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ReportTypes lists the periodicities offered when requesting a report.
var ReportTypes = []string{"Hebdomadaire", "Mensuel", "Trimestriel", "Annuel"}

// ReportCategories lists the report categories.
var ReportCategories = []string{"Financier", "Ventes", "Inventaire", "Achats"}
