// Package dashboard builds the console home page and the fund-state page.
package dashboard

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/k2nservice/console/internal/domain/models"
	"github.com/k2nservice/console/internal/listing"
	"github.com/k2nservice/console/internal/service/pages"
)

// recentPerDomain is how many records of each domain feed the activity list.
const recentPerDomain = 3

// Source reads the backend analytics endpoints.
type Source interface {
	DashboardStats(ctx context.Context) (models.DashboardStats, error)
	FundState(ctx context.Context) (models.FundState, error)
}

// Summary is the dashboard payload. Parts that could not be loaded are
// replaced by a warning.
type Summary struct {
	Stats       *models.DashboardStats `json:"stats,omitempty"`
	Recent      []models.Activity      `json:"activites_recentes"`
	StockAlerts int                    `json:"alertes_stock"`
	Warnings    []string               `json:"warnings,omitempty"`
}

// FundOverview is the fund-state payload with the derived objective progress.
type FundOverview struct {
	models.FundState
	Progress decimal.Decimal `json:"progression_objectif"`
}

// Service assembles dashboard data.
type Service struct {
	source Source
	pages  *pages.Pages
	logger *zap.Logger
}

// NewService wires the dashboard.
func NewService(source Source, p *pages.Pages, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, pages: p, logger: logger}
}

// Summary reads the stats endpoint and reloads the sales, acquisitions and
// stocks pages concurrently. A failing part degrades to a warning.
func (s *Service) Summary(ctx context.Context) Summary {
	var (
		mu  sync.Mutex
		out Summary
		g   errgroup.Group
	)
	warn := func(message string, err error) {
		s.logger.Warn("dashboard part unavailable", zap.String("part", message), zap.Error(err))
		mu.Lock()
		out.Warnings = append(out.Warnings, message)
		mu.Unlock()
	}

	g.Go(func() error {
		stats, err := s.source.DashboardStats(ctx)
		if err != nil {
			warn("Statistiques indisponibles", err)
			return nil
		}
		mu.Lock()
		out.Stats = &stats
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		if err := s.pages.Sales.Load(ctx); err != nil {
			warn("Ventes indisponibles", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.pages.Acquisitions.Load(ctx); err != nil {
			warn("Acquisitions indisponibles", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.pages.Stocks.Load(ctx); err != nil {
			warn("Stocks indisponibles", err)
		}
		return nil
	})
	_ = g.Wait()

	sort.Strings(out.Warnings)
	out.Recent = s.recent()
	out.StockAlerts = len(s.pages.StockAlerts())
	return out
}

func (s *Service) recent() []models.Activity {
	var activities []models.Activity

	for _, sale := range latest(s.pages.Sales.View().Records(), pages.SaleSpec()) {
		activities = append(activities, models.Activity{
			Kind:        "vente",
			ID:          sale.ID,
			Description: sale.Client + " - " + sale.Product,
			Amount:      sale.Total,
			Date:        sale.Date,
		})
	}
	for _, acq := range latest(s.pages.Acquisitions.View().Records(), pages.AcquisitionSpec()) {
		activities = append(activities, models.Activity{
			Kind:        "acquisition",
			ID:          acq.ID,
			Description: acq.Nature,
			Amount:      acq.TotalFee,
			Date:        acq.Date,
		})
	}
	for _, item := range latest(s.pages.Stocks.View().Records(), pages.StockSpec()) {
		activities = append(activities, models.Activity{
			Kind:        "stock",
			ID:          item.ID,
			Description: item.Name,
			Amount:      item.Value(),
			Date:        item.LastUpdate,
		})
	}

	sort.SliceStable(activities, func(i, j int) bool {
		return dateOf(activities[i].Date).After(dateOf(activities[j].Date))
	})
	if activities == nil {
		activities = []models.Activity{}
	}
	return activities
}

// latest returns the most recent records by date, keeping collection order
// between records of the same day.
func latest[T any](records []T, spec listing.Spec[T]) []T {
	sorted := make([]T, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return dateOf(spec.Date(sorted[i])).After(dateOf(spec.Date(sorted[j])))
	})
	if len(sorted) > recentPerDomain {
		sorted = sorted[:recentPerDomain]
	}
	return sorted
}

func dateOf(value string) (day time.Time) {
	day, _ = models.ParseDate(value)
	return day
}

// FundState reads the fund analytics.
func (s *Service) FundState(ctx context.Context) (FundOverview, error) {
	state, err := s.source.FundState(ctx)
	if err != nil {
		return FundOverview{}, err
	}
	return FundOverview{FundState: state, Progress: state.ObjectiveProgress()}, nil
}
