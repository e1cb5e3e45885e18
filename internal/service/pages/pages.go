package pages

import (
	"github.com/asaskevich/EventBus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/k2nservice/console/internal/domain/models"
	"github.com/k2nservice/console/internal/forms"
	"github.com/k2nservice/console/internal/session"
	"github.com/k2nservice/console/pkg/clients/k2n"
)

// Page slugs as they appear under /dashboard.
const (
	SlugAcquisitions = "acquisitions"
	SlugSales        = "ventes"
	SlugFunds        = "fonds"
	SlugStocks       = "stocks"
	SlugOutbound     = "sorties"
	SlugReports      = "rapports"
	SlugContacts     = "enregistrement"
)

// Sources groups the backend collections behind the pages.
type Sources struct {
	Acquisitions Collection[models.Acquisition]
	Sales        Collection[models.Sale]
	Funds        Collection[models.Fund]
	Stocks       Collection[models.StockItem]
	Outbound     Collection[models.Outbound]
	Reports      Collection[models.Report]
	Contacts     Collection[models.Contact]
}

// BackendSources binds every page to its K2N resource.
func BackendSources(client *k2n.Client) Sources {
	return Sources{
		Acquisitions: k2n.NewResource[models.Acquisition](client, k2n.PathAcquisitions),
		Sales:        k2n.NewResource[models.Sale](client, k2n.PathSales),
		Funds:        k2n.NewResource[models.Fund](client, k2n.PathFunds),
		Stocks:       k2n.NewResource[models.StockItem](client, k2n.PathStocks),
		Outbound:     k2n.NewResource[models.Outbound](client, k2n.PathOutbound),
		Reports:      k2n.NewResource[models.Report](client, k2n.PathReports),
		Contacts:     k2n.NewResource[models.Contact](client, k2n.PathContacts),
	}
}

// Pages is the set of domain pages of the console.
type Pages struct {
	Acquisitions *Page[models.Acquisition]
	Sales        *Page[models.Sale]
	Funds        *Page[models.Fund]
	Stocks       *Page[models.StockItem]
	Outbound     *Page[models.Outbound]
	Reports      *Page[models.Report]
	Contacts     *Page[models.Contact]

	bySlug map[string]Handle
	order  []Handle
}

// New builds every page. When bus is set, pages drop their collections and
// drafts on session:logout.
func New(src Sources, bus EventBus.Bus, logger *zap.Logger) (*Pages, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Pages{
		Acquisitions: NewPage(SlugAcquisitions, "Acquisitions", src.Acquisitions, AcquisitionSpec(), forms.NewAcquisitionDraft(), logger,
			WithExtras(acquisitionExtras)),
		Sales: NewPage(SlugSales, "Ventes", src.Sales, SaleSpec(), forms.NewSaleDraft(), logger,
			WithExtras(saleExtras)),
		Funds: NewPage(SlugFunds, "Fonds", src.Funds, FundSpec(), forms.NewFundDraft(), logger),
		Stocks: NewPage(SlugStocks, "Stocks", src.Stocks, StockSpec(), forms.NewStockDraft(), logger,
			WithExtras(stockExtras)),
		Outbound: NewPage(SlugOutbound, "Sorties", src.Outbound, OutboundSpec(), forms.NewOutboundDraft(), logger),
		Reports: NewPage(SlugReports, "Rapports", src.Reports, ReportSpec(), forms.NewReportDraft(), logger,
			WithExtras(reportExtras)),
		Contacts: NewPage(SlugContacts, "Enregistrement", src.Contacts, ContactSpec(), forms.NewContactDraft(), logger,
			WithoutList[models.Contact]()),
	}

	p.order = []Handle{p.Acquisitions, p.Sales, p.Funds, p.Stocks, p.Outbound, p.Reports, p.Contacts}
	p.bySlug = make(map[string]Handle, len(p.order))
	for _, h := range p.order {
		p.bySlug[h.Slug()] = h
	}

	if bus != nil {
		if err := bus.Subscribe(session.TopicLogout, p.Reset); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Lookup returns the page served under slug.
func (p *Pages) Lookup(slug string) (Handle, bool) {
	h, ok := p.bySlug[slug]
	return h, ok
}

// All returns the pages in navigation order.
func (p *Pages) All() []Handle {
	out := make([]Handle, len(p.order))
	copy(out, p.order)
	return out
}

// Reset drops every collection and draft.
func (p *Pages) Reset() {
	for _, h := range p.order {
		h.Reset()
	}
}

// StockAlerts returns the loaded stock items at or below 1.5x their minimum
// threshold, critical items first.
func (p *Pages) StockAlerts() []models.StockItem {
	return StockAlerts(p.Stocks.View().Records())
}

// StockAlerts filters items needing restock, critical ones first.
func StockAlerts(items []models.StockItem) []models.StockItem {
	var critical, low []models.StockItem
	for _, item := range items {
		switch item.DeriveStatus() {
		case models.StockCritical:
			critical = append(critical, item)
		case models.StockLow:
			low = append(low, item)
		}
	}
	return append(critical, low...)
}

// PaidTotal sums the totals of paid sales.
func PaidTotal(sales []models.Sale) decimal.Decimal {
	total := decimal.Zero
	for _, s := range sales {
		if s.Status == models.SalePaid {
			total = total.Add(s.Total)
		}
	}
	return total
}

func acquisitionExtras(rows []models.Acquisition) map[string]any {
	ancillary := decimal.Zero
	for _, r := range rows {
		ancillary = ancillary.Add(r.AncillaryFees)
	}
	return map[string]any{"frais_annexes": ancillary}
}

func saleExtras(rows []models.Sale) map[string]any {
	received := decimal.Zero
	for _, r := range rows {
		received = received.Add(r.AmountReceived)
	}
	return map[string]any{
		"total_paye":   PaidTotal(rows),
		"montant_recu": received,
	}
}

func stockExtras(rows []models.StockItem) map[string]any {
	alerts := StockAlerts(rows)
	critical := 0
	for _, item := range alerts {
		if item.DeriveStatus() == models.StockCritical {
			critical++
		}
	}
	return map[string]any{
		"alertes":   len(alerts),
		"critiques": critical,
	}
}

func reportExtras(rows []models.Report) map[string]any {
	var inProgress, done int
	for _, r := range rows {
		switch r.Status {
		case models.ReportInProgress:
			inProgress++
		case models.ReportDone:
			done++
		}
	}
	return map[string]any{"en_cours": inProgress, "termines": done}
}
