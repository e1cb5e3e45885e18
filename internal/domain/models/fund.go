package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fund is a cash contribution received from a creditor.
type Fund struct {
	ID             RecordID        `json:"id,omitempty" csv:"id"`
	Creditor       string          `json:"creancier" csv:"creancier"`
	AmountReceived decimal.Decimal `json:"montant_recu" csv:"montant_recu"`
	Date           string          `json:"date_fonds" csv:"date_fonds"`
	UpdatedAt      *time.Time      `json:"updated_at,omitempty" csv:"-"`
}

// FundShare is the amount held under one fund type.
type FundShare struct {
	Type    string          `json:"type"`
	Amount  decimal.Decimal `json:"montant"`
	Percent decimal.Decimal `json:"pourcentage"`
}

// FundMovement is one inflow or outflow of cash.
type FundMovement struct {
	Date        string          `json:"date"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"montant"`
	Description string          `json:"description"`
}

// Inflow reports whether the movement adds cash.
func (m FundMovement) Inflow() bool {
	return m.Amount.IsPositive()
}

// FundState is the analytics payload behind the fund-state page.
type FundState struct {
	Total     decimal.Decimal `json:"total_fonds"`
	Variation decimal.Decimal `json:"variation"`
	Objective decimal.Decimal `json:"objectif"`
	Breakdown []FundShare     `json:"repartition"`
	Movements []FundMovement  `json:"mouvements"`
}

// ObjectiveProgress returns Total as a percentage of Objective, rounded to
// one decimal place, or zero when no objective is set.
func (s FundState) ObjectiveProgress() decimal.Decimal {
	if !s.Objective.IsPositive() {
		return decimal.Zero
	}
	return s.Total.Mul(decimal.NewFromInt(100)).Div(s.Objective).Round(1)
}
