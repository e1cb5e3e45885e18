package reporting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/k2nservice/console/internal/domain/models"
	"github.com/k2nservice/console/internal/listing"
	"github.com/k2nservice/console/internal/repository/mongodb"
	"github.com/k2nservice/console/internal/service/pages"
)

const displayLayout = "02/01/2006"

// ErrNoArchive is returned when snapshots are not archived.
var ErrNoArchive = errors.New("snapshot archive is not configured")

// Service builds the daily snapshot and the notification texts from the
// console pages.
type Service struct {
	pages   *pages.Pages
	archive mongodb.Repository
	loc     *time.Location
	printer *message.Printer
	now     func() time.Time
	logger  *zap.Logger
}

// NewService wires a new reporting service instance. archive may be nil.
func NewService(p *pages.Pages, archive mongodb.Repository, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		pages:   p,
		archive: archive,
		loc:     loc,
		printer: message.NewPrinter(language.French),
		now:     time.Now,
		logger:  logger,
	}
}

// Refresh reloads every listed collection concurrently.
func (s *Service) Refresh(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.pages.Acquisitions.Load(gctx) })
	g.Go(func() error { return s.pages.Sales.Load(gctx) })
	g.Go(func() error { return s.pages.Funds.Load(gctx) })
	g.Go(func() error { return s.pages.Stocks.Load(gctx) })
	g.Go(func() error { return s.pages.Outbound.Load(gctx) })
	if err := g.Wait(); err != nil {
		return fmt.Errorf("refresh pages: %w", err)
	}
	return nil
}

// Snapshot aggregates the loaded collections.
func (s *Service) Snapshot() models.DailySnapshot {
	now := s.now().In(s.loc)
	sales := s.pages.Sales.View().Records()
	acquisitions := s.pages.Acquisitions.View().Records()
	stocks := s.pages.Stocks.View().Records()

	salesStats := listing.Aggregate(sales, pages.SaleSpec())
	acqStats := listing.Aggregate(acquisitions, pages.AcquisitionSpec())
	fundStats := listing.Aggregate(s.pages.Funds.View().Records(), pages.FundSpec())
	stockStats := listing.Aggregate(stocks, pages.StockSpec())

	return models.DailySnapshot{
		Date:              time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		SalesTotal:        salesStats.Total,
		SalesPaid:         pages.PaidTotal(sales),
		SalesCount:        salesStats.Count,
		AcquisitionsTotal: acqStats.Total,
		AcquisitionsCount: acqStats.Count,
		FundsTotal:        fundStats.Total,
		StockValue:        stockStats.Total,
		LowStockCount:     stockStats.Matching,
		OutboundCount:     len(s.pages.Outbound.View().Records()),
		CreatedAt:         now.UTC(),
	}
}

// ArchiveDailySnapshot refreshes the pages and stores today's snapshot.
func (s *Service) ArchiveDailySnapshot(ctx context.Context) (models.DailySnapshot, error) {
	if s.archive == nil {
		return models.DailySnapshot{}, ErrNoArchive
	}
	if err := s.Refresh(ctx); err != nil {
		return models.DailySnapshot{}, err
	}

	snapshot := s.Snapshot()
	if err := s.archive.SaveDailySnapshot(ctx, snapshot); err != nil {
		return models.DailySnapshot{}, err
	}
	s.logger.Info("daily snapshot archived",
		zap.Time("date", snapshot.Date),
		zap.String("sales_total", snapshot.SalesTotal.String()),
		zap.Int("low_stock", snapshot.LowStockCount))
	return snapshot, nil
}

// History returns the latest archived snapshots, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]models.DailySnapshot, error) {
	if s.archive == nil {
		return nil, ErrNoArchive
	}
	return s.archive.RecentSnapshots(ctx, limit)
}

// WeeklyDigest refreshes the pages and summarizes the seven days ending
// today.
func (s *Service) WeeklyDigest(ctx context.Context) (string, error) {
	if err := s.Refresh(ctx); err != nil {
		return "", err
	}
	return s.Digest(s.now()), nil
}

// Digest summarizes the loaded collections over the seven days ending at
// end.
func (s *Service) Digest(end time.Time) string {
	end = end.In(s.loc)
	start := end.AddDate(0, 0, -6)
	week := listing.Filter{
		From: time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		To:   time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC),
	}

	sales := listing.Apply(s.pages.Sales.View().Records(), week, pages.SaleSpec())
	acquisitions := listing.Apply(s.pages.Acquisitions.View().Records(), week, pages.AcquisitionSpec())
	funds := listing.Apply(s.pages.Funds.View().Records(), week, pages.FundSpec())
	outbound := listing.Apply(s.pages.Outbound.View().Records(), week, pages.OutboundSpec())
	alerts := pages.StockAlerts(s.pages.Stocks.View().Records())

	salesStats := listing.Aggregate(sales, pages.SaleSpec())
	acqStats := listing.Aggregate(acquisitions, pages.AcquisitionSpec())
	fundStats := listing.Aggregate(funds, pages.FundSpec())
	outStats := listing.Aggregate(outbound, pages.OutboundSpec())

	var b strings.Builder
	b.WriteString("Bilan hebdomadaire K2NService\n")
	fmt.Fprintf(&b, "Du %s au %s\n\n", start.Format(displayLayout), end.Format(displayLayout))
	fmt.Fprintf(&b, "Ventes : %d (total %s, payé %s)\n", salesStats.Count, s.Amount(salesStats.Total), s.Amount(pages.PaidTotal(sales)))
	fmt.Fprintf(&b, "Acquisitions : %d (total %s)\n", acqStats.Count, s.Amount(acqStats.Total))
	fmt.Fprintf(&b, "Fonds reçus : %d (total %s)\n", fundStats.Count, s.Amount(fundStats.Total))
	fmt.Fprintf(&b, "Sorties de stock : %d (%s articles)\n", outStats.Count, s.printer.Sprintf("%d", outStats.Total.IntPart()))
	fmt.Fprintf(&b, "Articles à réapprovisionner : %d", len(alerts))
	return b.String()
}

// StockAlerts refreshes the stock page and returns the alert text with the
// number of items concerned. The text is empty when nothing needs restock.
func (s *Service) StockAlerts(ctx context.Context) (string, int, error) {
	if err := s.pages.Stocks.Load(ctx); err != nil {
		return "", 0, err
	}
	alerts := s.pages.StockAlerts()
	return s.StockAlertText(alerts), len(alerts), nil
}

// StockAlertText lists the items needing restock.
func (s *Service) StockAlertText(alerts []models.StockItem) string {
	if len(alerts) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Alerte stock : %d article(s) à réapprovisionner\n", len(alerts))
	for _, item := range alerts {
		fmt.Fprintf(&b, "\n- %s (%s) : %s en stock, seuil %s [%s]",
			item.Name, item.Category,
			s.printer.Sprintf("%d", item.Quantity),
			s.printer.Sprintf("%d", item.MinLevel),
			item.DeriveStatus())
	}
	return b.String()
}

// Amount formats a monetary amount in Guinean francs with French digit
// grouping.
func (s *Service) Amount(d decimal.Decimal) string {
	return s.printer.Sprintf("%d GNF", d.Round(0).IntPart())
}
