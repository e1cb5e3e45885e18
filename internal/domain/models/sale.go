package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMode enumerates how a client settled a sale.
type PaymentMode string

const (
	PaymentCash         PaymentMode = "especes"
	PaymentMobileMoney  PaymentMode = "mobile_money"
	PaymentBankTransfer PaymentMode = "virement"
	PaymentCheque       PaymentMode = "cheque"
)

// PaymentModes lists the accepted payment modes in display order.
var PaymentModes = []PaymentMode{PaymentCash, PaymentMobileMoney, PaymentBankTransfer, PaymentCheque}

// SaleStatus is the settlement state of a sale.
type SaleStatus string

const (
	SalePaid     SaleStatus = "paye"
	SalePending  SaleStatus = "en_attente"
	SaleInvoiced SaleStatus = "facture"
)

// SaleStatuses lists the accepted sale statuses.
var SaleStatuses = []SaleStatus{SalePaid, SalePending, SaleInvoiced}

// Label returns the French caption shown in the console.
func (s SaleStatus) Label() string {
	switch s {
	case SalePaid:
		return "Payé"
	case SalePending:
		return "En attente"
	case SaleInvoiced:
		return "Facturé"
	default:
		return string(s)
	}
}

// Sale is one sale to a client.
type Sale struct {
	ID             RecordID        `json:"id,omitempty" csv:"id"`
	Responsible    string          `json:"responsable" csv:"responsable"`
	Client         string          `json:"client" csv:"client"`
	Product        string          `json:"produit" csv:"produit"`
	Quantity       decimal.Decimal `json:"quantite" csv:"quantite"`
	UnitPrice      decimal.Decimal `json:"prix_unitaire" csv:"prix_unitaire"`
	Total          decimal.Decimal `json:"total" csv:"total"`
	AmountReceived decimal.Decimal `json:"montant_recu" csv:"montant_recu"`
	PaymentMode    PaymentMode     `json:"mode_paiement" csv:"mode_paiement"`
	Date           string          `json:"date_vente" csv:"date_vente"`
	Status         SaleStatus      `json:"statut" csv:"statut"`
	UpdatedAt      *time.Time      `json:"updated_at,omitempty" csv:"-"`
}
