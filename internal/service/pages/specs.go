package pages

import (
	"github.com/shopspring/decimal"

	"github.com/k2nservice/console/internal/domain/models"
	"github.com/k2nservice/console/internal/listing"
)

// AcquisitionSpec sums total fees and counts purchases paid in installments.
func AcquisitionSpec() listing.Spec[models.Acquisition] {
	return listing.Spec[models.Acquisition]{
		Text: func(a models.Acquisition) []string {
			return []string{a.ID.String(), a.Responsible, a.Nature}
		},
		Date:     func(a models.Acquisition) string { return a.Date },
		Amount:   func(a models.Acquisition) decimal.Decimal { return a.TotalFee },
		Category: func(a models.Acquisition) string { return a.Nature },
		Status:   func(a models.Acquisition) bool { return a.Type == models.AcquisitionTranches },
		ID:       func(a models.Acquisition) models.RecordID { return a.ID },
		WithID: func(a models.Acquisition, id models.RecordID) models.Acquisition {
			a.ID = id
			return a
		},
		IDPrefix: "ACQ",
	}
}

// SaleSpec sums sale totals per client and counts the paid sales.
func SaleSpec() listing.Spec[models.Sale] {
	return listing.Spec[models.Sale]{
		Text: func(s models.Sale) []string {
			return []string{s.ID.String(), s.Client, s.Product, s.Responsible}
		},
		Date:     func(s models.Sale) string { return s.Date },
		Amount:   func(s models.Sale) decimal.Decimal { return s.Total },
		Category: func(s models.Sale) string { return s.Client },
		Status:   func(s models.Sale) bool { return s.Status == models.SalePaid },
		ID:       func(s models.Sale) models.RecordID { return s.ID },
		WithID: func(s models.Sale, id models.RecordID) models.Sale {
			s.ID = id
			return s
		},
		IDPrefix: "V",
	}
}

// FundSpec sums the amounts received per creditor.
func FundSpec() listing.Spec[models.Fund] {
	return listing.Spec[models.Fund]{
		Text:     func(f models.Fund) []string { return []string{f.ID.String(), f.Creditor} },
		Date:     func(f models.Fund) string { return f.Date },
		Amount:   func(f models.Fund) decimal.Decimal { return f.AmountReceived },
		Category: func(f models.Fund) string { return f.Creditor },
		ID:       func(f models.Fund) models.RecordID { return f.ID },
		WithID: func(f models.Fund, id models.RecordID) models.Fund {
			f.ID = id
			return f
		},
		IDPrefix: "F",
	}
}

// StockSpec sums inventory value and counts the items needing restock. The
// status sent by the backend is replaced by the one derived from thresholds.
func StockSpec() listing.Spec[models.StockItem] {
	return listing.Spec[models.StockItem]{
		Text: func(s models.StockItem) []string {
			return []string{s.ID.String(), s.Name, s.Category, s.Location}
		},
		Date:     func(s models.StockItem) string { return s.LastUpdate },
		Amount:   func(s models.StockItem) decimal.Decimal { return s.Value() },
		Category: func(s models.StockItem) string { return s.Category },
		Status:   func(s models.StockItem) bool { return s.NeedsRestock() },
		ID:       func(s models.StockItem) models.RecordID { return s.ID },
		WithID: func(s models.StockItem, id models.RecordID) models.StockItem {
			s.ID = id
			return s
		},
		IDPrefix: "S",
		Normalize: func(s models.StockItem) models.StockItem {
			s.Status = s.DeriveStatus()
			return s
		},
	}
}

// OutboundSpec sums the quantities that left the warehouse.
func OutboundSpec() listing.Spec[models.Outbound] {
	return listing.Spec[models.Outbound]{
		Text: func(o models.Outbound) []string {
			return []string{o.ID.String(), o.Article, o.Reason, o.Responsible}
		},
		Date:     func(o models.Outbound) string { return o.Date },
		Amount:   func(o models.Outbound) decimal.Decimal { return decimal.NewFromInt(o.Quantity) },
		Category: func(o models.Outbound) string { return o.Article },
		ID:       func(o models.Outbound) models.RecordID { return o.ID },
		WithID: func(o models.Outbound, id models.RecordID) models.Outbound {
			o.ID = id
			return o
		},
		IDPrefix: "SO",
	}
}

// ReportSpec counts the reports ready to download.
func ReportSpec() listing.Spec[models.Report] {
	return listing.Spec[models.Report]{
		Text: func(r models.Report) []string {
			return []string{r.ID.String(), r.Name, r.Type, r.Category}
		},
		Date:     func(r models.Report) string { return r.CreatedOn },
		Category: func(r models.Report) string { return r.Category },
		Status:   func(r models.Report) bool { return r.Downloadable() },
		ID:       func(r models.Report) models.RecordID { return r.ID },
		WithID: func(r models.Report, id models.RecordID) models.Report {
			r.ID = id
			return r
		},
		IDPrefix: "R",
	}
}

// ContactSpec only identifies contacts; the page never lists them.
func ContactSpec() listing.Spec[models.Contact] {
	return listing.Spec[models.Contact]{
		Text: func(c models.Contact) []string {
			return []string{c.Name, c.Email, c.Company}
		},
		ID: func(c models.Contact) models.RecordID { return c.ID },
		WithID: func(c models.Contact, id models.RecordID) models.Contact {
			c.ID = id
			return c
		},
		IDPrefix: "C",
	}
}
