package pages

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/shopspring/decimal"

	"github.com/k2nservice/console/internal/config"
	"github.com/k2nservice/console/internal/domain/models"
	"github.com/k2nservice/console/internal/forms"
	"github.com/k2nservice/console/internal/listing"
	"github.com/k2nservice/console/internal/session"
	"github.com/k2nservice/console/pkg/clients/k2n"
)

// fakeCollection is an in-memory backend collection.
type fakeCollection[T any] struct {
	rows    []T
	listErr error
	created T
	err     error
	posts   atomic.Int32
	lists   atomic.Int32
}

func (f *fakeCollection[T]) List(context.Context) ([]T, error) {
	f.lists.Add(1)
	return f.rows, f.listErr
}

func (f *fakeCollection[T]) Create(_ context.Context, payload any) (T, error) {
	f.posts.Add(1)
	return f.created, f.err
}

// stalledCollection holds every Create until release is closed.
type stalledCollection[T any] struct {
	created T
	entered chan struct{}
	release chan struct{}
}

func (f *stalledCollection[T]) List(context.Context) ([]T, error) { return nil, nil }

func (f *stalledCollection[T]) Create(context.Context, any) (T, error) {
	close(f.entered)
	<-f.release
	return f.created, nil
}

func newSalesBackend(t *testing.T, lists *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/sales":
			lists.Add(1)
			_, _ = w.Write([]byte(`[
				{"id":"V001","client":"Boutique Kaloum","produit":"Riz","quantite":2,"prix_unitaire":500,"total":1000,"date_vente":"2024-01-10","statut":"paye"},
				{"id":"V002","client":"Marché Madina","produit":"Huile","quantite":1,"prix_unitaire":3000,"total":3000,"date_vente":"2024-01-12","statut":"en_attente"}
			]`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/sales":
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			body["id"] = "V003"
			body["updated_at"] = time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(body)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSaleCreationIsPrependedWithoutRefetch(t *testing.T) {
	var lists atomic.Int32
	srv := newSalesBackend(t, &lists)
	client := k2n.NewClient(config.BackendConfig{BaseURL: srv.URL + "/api/", Timeout: time.Second}, nil, nil)

	p, err := New(BackendSources(client), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if _, err := p.Sales.Open(ctx, listing.Filter{}); err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := p.Sales.SetFields(map[string]string{
		"responsable":   "Moussa",
		"client":        "Quincaillerie Dixinn",
		"produit":       "Ciment",
		"quantite":      "3",
		"prix_unitaire": "85000",
		"date_vente":    "2024-02-01",
		"statut":        "paye",
	}); err != nil {
		t.Fatalf("SetFields: %v", err)
	}

	created, err := p.Sales.Create(ctx)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != "V003" {
		t.Fatalf("created id = %s, want V003", created.ID)
	}

	snap := p.Sales.Snapshot()
	if len(snap.Rows) != 3 || snap.Rows[0].ID != "V003" {
		t.Fatalf("first row = %v of %d rows", snap.Rows[0].ID, len(snap.Rows))
	}
	if got := lists.Load(); got != 1 {
		t.Fatalf("collection fetched %d times, want 1", got)
	}
	if !snap.Rows[0].Total.Equal(decimal.NewFromInt(255000)) {
		t.Errorf("total = %s", snap.Rows[0].Total)
	}
	if values := p.Sales.Draft(); values["client"] != "" {
		t.Errorf("draft not reset: %v", values)
	}
}

func TestValidationFailureMakesNoRequest(t *testing.T) {
	src := &fakeCollection[models.Acquisition]{}
	page := NewPage(SlugAcquisitions, "Acquisitions", Collection[models.Acquisition](src), AcquisitionSpec(), forms.NewAcquisitionDraft(), nil)

	if err := page.SetFields(map[string]string{
		forms.FieldResponsible: "Awa",
		forms.FieldNature:      "Tôles",
		forms.FieldQuantityAcq: "15",
		forms.FieldUnitPrice:   "750",
		forms.FieldAcqType:     "tranches",
		forms.FieldAcqDate:     "2024-03-01",
	}); err != nil {
		t.Fatal(err)
	}
	if err := page.SetInstallment(0, forms.InstallmentDate, "2024-04-01"); err != nil {
		t.Fatal(err)
	}
	if err := page.SetInstallment(0, forms.InstallmentAmount, "0"); err != nil {
		t.Fatal(err)
	}

	_, err := page.Create(context.Background())
	var verr *forms.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Create error = %v, want ValidationError", err)
	}
	if src.posts.Load() != 0 {
		t.Fatal("backend was called for an invalid draft")
	}
	if values := page.Draft(); values[forms.FieldNature] != "Tôles" {
		t.Fatalf("draft was not preserved: %v", values)
	}
}

func TestSubmissionFailureKeepsDraft(t *testing.T) {
	src := &fakeCollection[models.Fund]{err: &k2n.SubmissionError{Resource: "fonds", StatusCode: 500, Reason: "indisponible"}}
	page := NewPage(SlugFunds, "Fonds", Collection[models.Fund](src), FundSpec(), forms.NewFundDraft(), nil)
	_ = page.SetFields(map[string]string{"creancier": "BICIGUI", "montant_recu": "1000000", "date_fonds": "2024-01-05"})

	_, err := page.Create(context.Background())
	var serr *k2n.SubmissionError
	if !errors.As(err, &serr) {
		t.Fatalf("Create error = %v", err)
	}
	if page.Draft()["creancier"] != "BICIGUI" {
		t.Fatal("draft lost after submission failure")
	}
	if len(page.View().Records()) != 0 {
		t.Fatal("failed record was prepended")
	}
}

func TestCreatedRecordWithoutIDIsSynthesized(t *testing.T) {
	src := &fakeCollection[models.Fund]{rows: []models.Fund{{ID: "F004"}, {ID: "F010"}}}
	page := NewPage(SlugFunds, "Fonds", Collection[models.Fund](src), FundSpec(), forms.NewFundDraft(), nil)
	if err := page.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	_ = page.SetFields(map[string]string{"creancier": "Orange Money", "montant_recu": "250000", "date_fonds": "2024-01-05"})

	created, err := page.Create(context.Background())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != "F011" || created.Creditor != "Orange Money" {
		t.Fatalf("created = %+v", created)
	}
}

func TestOpenFailureKeepsRowsAndWarns(t *testing.T) {
	src := &fakeCollection[models.StockItem]{rows: []models.StockItem{{ID: "S001", Name: "Chaises", Quantity: 3, MinLevel: 10}}}
	page := NewPage(SlugStocks, "Stocks", Collection[models.StockItem](src), StockSpec(), forms.NewStockDraft(), nil, WithExtras(stockExtras))
	ctx := context.Background()

	if _, err := page.Open(ctx, listing.Filter{}); err != nil {
		t.Fatal(err)
	}
	src.listErr = &k2n.FetchError{Resource: "stocks", StatusCode: 503}
	snap, err := page.Open(ctx, listing.Filter{})
	if err == nil {
		t.Fatal("expected fetch error")
	}
	if len(snap.Rows) != 1 || snap.Warning == "" {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.Rows[0].Status != models.StockCritical {
		t.Errorf("status = %s, want Critique", snap.Rows[0].Status)
	}
	if snap.Extras["alertes"] != 1 {
		t.Errorf("extras = %v", snap.Extras)
	}
}

func TestContactPageNeverLists(t *testing.T) {
	src := &fakeCollection[models.Contact]{}
	p, err := New(Sources{Contacts: src}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	h, ok := p.Lookup(SlugContacts)
	if !ok || h.Listable() {
		t.Fatalf("lookup = %v listable", ok)
	}
	if _, err := h.Mount(context.Background(), listing.Filter{}); err != nil {
		t.Fatal(err)
	}
	if src.lists.Load() != 0 {
		t.Fatal("contact collection was listed")
	}
	if err := h.AddInstallment(); !errors.Is(err, ErrNoDraft) {
		t.Fatalf("AddInstallment error = %v, want ErrNoDraft", err)
	}
}

func TestLogoutResetsPages(t *testing.T) {
	bus := EventBus.New()
	sales := &fakeCollection[models.Sale]{rows: []models.Sale{{ID: "V001"}}}
	p, err := New(Sources{Sales: sales}, bus, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Sales.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	_ = p.Sales.SetFields(map[string]string{"client": "X"})

	bus.Publish(session.TopicLogout)

	if len(p.Sales.View().Records()) != 0 || p.Sales.Draft()["client"] != "" {
		t.Fatal("page state survived logout")
	}
}

func TestLogoutDuringCreationDropsCreatedRecord(t *testing.T) {
	bus := EventBus.New()
	funds := &stalledCollection[models.Fund]{
		created: models.Fund{ID: "F900", Creditor: "BICIGUI"},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	p, err := New(Sources{Funds: funds}, bus, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Funds.SetFields(map[string]string{"creancier": "BICIGUI", "montant_recu": "1000000", "date_fonds": "2024-01-05"}); err != nil {
		t.Fatal(err)
	}

	created := make(chan error, 1)
	go func() {
		_, err := p.Funds.Create(context.Background())
		created <- err
	}()
	<-funds.entered

	loggedOut := make(chan struct{})
	go func() {
		bus.Publish(session.TopicLogout)
		close(loggedOut)
	}()
	select {
	case <-loggedOut:
		t.Fatal("logout completed while a creation was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(funds.release)
	if err := <-created; err != nil {
		t.Fatalf("Create: %v", err)
	}
	<-loggedOut

	if records := p.Funds.View().Records(); len(records) != 0 {
		t.Fatalf("records after logout = %+v", records)
	}
	if p.Funds.Draft()["creancier"] != "" {
		t.Fatal("draft survived logout")
	}
}

func TestSetFieldsRejectsWholeUpdate(t *testing.T) {
	page := NewPage(SlugAcquisitions, "Acquisitions", Collection[models.Acquisition](&fakeCollection[models.Acquisition]{}),
		AcquisitionSpec(), forms.NewAcquisitionDraft(), nil)

	err := page.SetFields(map[string]string{
		forms.FieldNature:      "Ciment",
		forms.FieldResponsible: "Diallo",
		forms.FieldTotalFee:    "1",
	})
	var verr *forms.ValidationError
	if !errors.As(err, &verr) || verr.Field != forms.FieldTotalFee {
		t.Fatalf("SetFields error = %v, want ValidationError on %s", err, forms.FieldTotalFee)
	}
	draft := page.Draft()
	if draft[forms.FieldNature] != "" || draft[forms.FieldResponsible] != "" {
		t.Fatalf("draft partially updated: %v", draft)
	}

	if err := page.SetFields(map[string]string{forms.FieldNature: "Ciment", "inconnu": "x"}); !errors.Is(err, forms.ErrUnknownField) {
		t.Fatalf("SetFields error = %v, want ErrUnknownField", err)
	}
	if page.Draft()[forms.FieldNature] != "" {
		t.Fatal("draft partially updated by an unknown field")
	}
}

func TestStockAlertsOrder(t *testing.T) {
	items := []models.StockItem{
		{ID: "S001", Quantity: 100, MinLevel: 10},
		{ID: "S002", Quantity: 14, MinLevel: 10},
		{ID: "S003", Quantity: 2, MinLevel: 10},
	}
	alerts := StockAlerts(items)
	if len(alerts) != 2 || alerts[0].ID != "S003" || alerts[1].ID != "S002" {
		t.Fatalf("alerts = %+v", alerts)
	}
}

func TestPaidTotal(t *testing.T) {
	sales := []models.Sale{
		{Total: decimal.NewFromInt(100), Status: models.SalePaid},
		{Total: decimal.NewFromInt(50), Status: models.SalePending},
		{Total: decimal.NewFromInt(25), Status: models.SalePaid},
	}
	if got := PaidTotal(sales); !got.Equal(decimal.NewFromInt(125)) {
		t.Fatalf("PaidTotal = %s", got)
	}
}
