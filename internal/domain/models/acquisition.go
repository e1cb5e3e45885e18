package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AcquisitionType tells whether a purchase is paid at once or in installments.
type AcquisitionType string

const (
	AcquisitionTotale   AcquisitionType = "totale"
	AcquisitionTranches AcquisitionType = "tranches"
)

// Valid reports whether t is one of the known acquisition types.
func (t AcquisitionType) Valid() bool {
	return t == AcquisitionTotale || t == AcquisitionTranches
}

// Acquisition is a purchase recorded by the organization.
type Acquisition struct {
	ID            RecordID        `json:"id,omitempty" csv:"id"`
	Responsible   string          `json:"responsable" csv:"responsable"`
	Nature        string          `json:"nature" csv:"nature"`
	Quantity      decimal.Decimal `json:"quantite_acquise" csv:"quantite_acquise"`
	UnitPrice     decimal.Decimal `json:"prix_unitaire" csv:"prix_unitaire"`
	Fee           decimal.Decimal `json:"frais_acquisition" csv:"frais_acquisition"`
	AncillaryFees decimal.Decimal `json:"frais_annexes" csv:"frais_annexes"`
	TotalFee      decimal.Decimal `json:"total_frais" csv:"total_frais"`
	Type          AcquisitionType `json:"type_acquisition" csv:"type_acquisition"`
	Date          string          `json:"date_acquisition" csv:"date_acquisition"`
	// Installments is nil unless Type is AcquisitionTranches.
	Installments []Installment `json:"dates_acquisition_tranches" csv:"-"`
	UpdatedAt    *time.Time    `json:"updated_at,omitempty" csv:"-"`
}
