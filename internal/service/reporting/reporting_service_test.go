package reporting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/k2nservice/console/internal/domain/models"
	"github.com/k2nservice/console/internal/service/pages"
)

type staticCollection[T any] struct {
	rows []T
	err  error
}

func (c staticCollection[T]) List(context.Context) ([]T, error) { return c.rows, c.err }

func (c staticCollection[T]) Create(context.Context, any) (T, error) {
	var zero T
	return zero, errors.New("read only")
}

type memoryArchive struct {
	saved []models.DailySnapshot
}

func (m *memoryArchive) SaveDailySnapshot(_ context.Context, s models.DailySnapshot) error {
	m.saved = append(m.saved, s)
	return nil
}

func (m *memoryArchive) RecentSnapshots(context.Context, int) ([]models.DailySnapshot, error) {
	return m.saved, nil
}

func testPages(t *testing.T, salesErr error) *pages.Pages {
	t.Helper()
	p, err := pages.New(pages.Sources{
		Acquisitions: staticCollection[models.Acquisition]{rows: []models.Acquisition{
			{ID: "ACQ001", Nature: "Ciment", TotalFee: decimal.NewFromInt(11250), Date: "2024-03-04"},
			{ID: "ACQ002", Nature: "Tôles", TotalFee: decimal.NewFromInt(5000), Date: "2024-02-01"},
		}},
		Sales: staticCollection[models.Sale]{err: salesErr, rows: []models.Sale{
			{ID: "V001", Total: decimal.NewFromInt(1500000), Status: models.SalePaid, Date: "2024-03-05"},
			{ID: "V002", Total: decimal.NewFromInt(500000), Status: models.SalePending, Date: "2024-03-06"},
			{ID: "V003", Total: decimal.NewFromInt(70000), Status: models.SalePaid, Date: "2024-01-06"},
		}},
		Funds: staticCollection[models.Fund]{rows: []models.Fund{
			{ID: "F001", AmountReceived: decimal.NewFromInt(2000000), Date: "2024-03-01"},
		}},
		Stocks: staticCollection[models.StockItem]{rows: []models.StockItem{
			{ID: "S001", Name: "Chaises", Category: "Mobilier", Quantity: 5, MinLevel: 10, UnitPrice: decimal.NewFromInt(100)},
			{ID: "S002", Name: "Tables", Category: "Mobilier", Quantity: 50, MinLevel: 10, UnitPrice: decimal.NewFromInt(10)},
		}},
		Outbound: staticCollection[models.Outbound]{rows: []models.Outbound{
			{ID: "SO001", Article: "Chaises", Quantity: 3, Date: "2024-03-07"},
		}},
	}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestSnapshot(t *testing.T) {
	archive := &memoryArchive{}
	svc := NewService(testPages(t, nil), archive, time.UTC, nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 7, 20, 0, 0, 0, time.UTC) }

	snap, err := svc.ArchiveDailySnapshot(context.Background())
	if err != nil {
		t.Fatalf("ArchiveDailySnapshot: %v", err)
	}
	if !snap.SalesTotal.Equal(decimal.NewFromInt(2070000)) || !snap.SalesPaid.Equal(decimal.NewFromInt(1570000)) || snap.SalesCount != 3 {
		t.Errorf("sales = %s / %s / %d", snap.SalesTotal, snap.SalesPaid, snap.SalesCount)
	}
	if !snap.StockValue.Equal(decimal.NewFromInt(1000)) || snap.LowStockCount != 1 {
		t.Errorf("stock = %s / %d", snap.StockValue, snap.LowStockCount)
	}
	if snap.OutboundCount != 1 || snap.AcquisitionsCount != 2 {
		t.Errorf("counts = %+v", snap)
	}
	if !snap.Date.Equal(time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %s", snap.Date)
	}
	if len(archive.saved) != 1 {
		t.Fatalf("archived %d snapshots", len(archive.saved))
	}
}

func TestArchiveWithoutMongo(t *testing.T) {
	svc := NewService(testPages(t, nil), nil, time.UTC, nil)
	if _, err := svc.ArchiveDailySnapshot(context.Background()); !errors.Is(err, ErrNoArchive) {
		t.Fatalf("error = %v", err)
	}
	if _, err := svc.History(context.Background(), 5); !errors.Is(err, ErrNoArchive) {
		t.Fatalf("history error = %v", err)
	}
}

func TestRefreshFailure(t *testing.T) {
	svc := NewService(testPages(t, errors.New("backend down")), &memoryArchive{}, time.UTC, nil)
	if _, err := svc.WeeklyDigest(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}
}

func TestDigest(t *testing.T) {
	svc := NewService(testPages(t, nil), nil, time.UTC, nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 7, 20, 0, 0, 0, time.UTC) }

	digest, err := svc.WeeklyDigest(context.Background())
	if err != nil {
		t.Fatalf("WeeklyDigest: %v", err)
	}

	for _, want := range []string{
		"Du 01/03/2024 au 07/03/2024",
		"Ventes : 2 (total " + svc.Amount(decimal.NewFromInt(2000000)) + ", payé " + svc.Amount(decimal.NewFromInt(1500000)) + ")",
		"Acquisitions : 1 (total " + svc.Amount(decimal.NewFromInt(11250)) + ")",
		"Fonds reçus : 1",
		"Sorties de stock : 1",
		"Articles à réapprovisionner : 1",
	} {
		if !strings.Contains(digest, want) {
			t.Errorf("digest misses %q:\n%s", want, digest)
		}
	}
}

func TestAmountGroupsDigits(t *testing.T) {
	svc := NewService(nil, nil, nil, nil)
	got := svc.Amount(decimal.RequireFromString("1250000.6"))
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, got)
	if digits != "1250001" || !strings.HasSuffix(got, " GNF") || got == "1250001 GNF" {
		t.Fatalf("Amount = %q", got)
	}
}

func TestStockAlertText(t *testing.T) {
	svc := NewService(testPages(t, nil), nil, time.UTC, nil)
	text, n, err := svc.StockAlerts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || !strings.Contains(text, "Chaises (Mobilier)") || !strings.Contains(text, "[Critique]") {
		t.Fatalf("alerts = %d\n%s", n, text)
	}
	if svc.StockAlertText(nil) != "" {
		t.Fatal("empty alert list produced a message")
	}
}
