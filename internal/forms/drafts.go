package forms

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/k2nservice/console/internal/domain/models"
)

// SaleDraft is the sale form; total = quantity x unit price.
type SaleDraft struct {
	fields *table
	total  decimal.Decimal
}

// NewSaleDraft returns an empty sale form, cash and pending by default.
func NewSaleDraft() *SaleDraft {
	return &SaleDraft{
		fields: newTable(
			Field{Name: "responsable", Label: "Responsable", Required: true},
			Field{Name: "client", Label: "Client", Required: true},
			Field{Name: "produit", Label: "Produit", Required: true},
			Field{Name: "quantite", Label: "La quantité", Kind: KindDecimal, Required: true, Positive: true},
			Field{Name: "prix_unitaire", Label: "Le prix unitaire", Kind: KindDecimal, Required: true, Positive: true},
			Field{Name: "montant_recu", Label: "Le montant reçu", Kind: KindDecimal},
			Field{
				Name: "mode_paiement", Label: "Mode de paiement", Kind: KindChoice, Required: true,
				Options: choices(models.PaymentModes), Default: string(models.PaymentCash),
			},
			Field{Name: "date_vente", Label: "Date de vente", Kind: KindDate, Required: true},
			Field{
				Name: "statut", Label: "Statut", Kind: KindChoice, Required: true,
				Options: choices(models.SaleStatuses), Default: string(models.SalePending),
			},
		),
		total: decimal.Zero,
	}
}

// Check implements Draft. The total is read-only.
func (d *SaleDraft) Check(field string) error {
	if field == "total" {
		return computed(field)
	}
	return d.fields.accepts(field)
}

// Set implements Draft and keeps the total in step with quantity and price.
func (d *SaleDraft) Set(field, value string) error {
	if err := d.Check(field); err != nil {
		return err
	}
	if err := d.fields.set(field, value); err != nil {
		return err
	}
	if field == "quantite" || field == "prix_unitaire" {
		d.total = d.fields.decimal("quantite").Mul(d.fields.decimal("prix_unitaire"))
	}
	return nil
}

// Total is the derived sale total.
func (d *SaleDraft) Total() decimal.Decimal { return d.total }

// Values implements Draft.
func (d *SaleDraft) Values() map[string]any {
	out := d.fields.snapshot()
	out["total"] = d.total
	return out
}

// Validate implements Draft.
func (d *SaleDraft) Validate() error { return d.fields.validate() }

// Payload implements Draft with a models.Sale.
func (d *SaleDraft) Payload() (any, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	quantity, price := d.fields.decimal("quantite"), d.fields.decimal("prix_unitaire")
	return models.Sale{
		Responsible:    d.fields.get("responsable"),
		Client:         d.fields.get("client"),
		Product:        d.fields.get("produit"),
		Quantity:       quantity,
		UnitPrice:      price,
		Total:          quantity.Mul(price),
		AmountReceived: d.fields.decimal("montant_recu"),
		PaymentMode:    models.PaymentMode(d.fields.get("mode_paiement")),
		Date:           d.fields.date("date_vente"),
		Status:         models.SaleStatus(d.fields.get("statut")),
	}, nil
}

// Reset implements Draft.
func (d *SaleDraft) Reset() {
	d.fields.reset()
	d.total = decimal.Zero
}

// FundDraft records a cash contribution.
type FundDraft struct{ fields *table }

// NewFundDraft returns an empty contribution form.
func NewFundDraft() *FundDraft {
	return &FundDraft{fields: newTable(
		Field{Name: "creancier", Label: "Créancier", Required: true},
		Field{Name: "montant_recu", Label: "Le montant reçu", Kind: KindDecimal, Required: true, Positive: true},
		Field{Name: "date_fonds", Label: "Date", Kind: KindDate, Required: true},
	)}
}

// Draft methods over the plain field table.
func (d *FundDraft) Check(field string) error      { return d.fields.accepts(field) }
func (d *FundDraft) Set(field, value string) error { return d.fields.set(field, value) }
func (d *FundDraft) Values() map[string]any        { return d.fields.snapshot() }
func (d *FundDraft) Validate() error               { return d.fields.validate() }
func (d *FundDraft) Reset()                        { d.fields.reset() }

// Payload implements Draft with a models.Fund.
func (d *FundDraft) Payload() (any, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return models.Fund{
		Creditor:       d.fields.get("creancier"),
		AmountReceived: d.fields.decimal("montant_recu"),
		Date:           d.fields.date("date_fonds"),
	}, nil
}

// StockDraft adds an article to the inventory. Its status is derived from
// the quantity and the minimum threshold as they are typed.
type StockDraft struct {
	fields *table
	now    func() time.Time
}

// NewStockDraft returns an empty inventory form. An item submitted without
// an update date is dated today.
func NewStockDraft() *StockDraft {
	return &StockDraft{
		fields: newTable(
			Field{Name: "nom", Label: "Nom", Required: true},
			Field{Name: "categorie", Label: "Catégorie", Required: true},
			Field{Name: "quantite", Label: "La quantité", Kind: KindInteger, Required: true},
			Field{Name: "seuil_min", Label: "Le seuil minimum", Kind: KindInteger, Required: true},
			Field{Name: "seuil_max", Label: "Le seuil maximum", Kind: KindInteger, Required: true, Positive: true},
			Field{Name: "prix_unitaire", Label: "Le prix unitaire", Kind: KindDecimal, Required: true, Positive: true},
			Field{Name: "emplacement", Label: "Emplacement"},
			Field{Name: "date_maj", Label: "Date de mise à jour", Kind: KindDate},
		),
		now: time.Now,
	}
}

// Check implements Draft. The status is read-only.
func (d *StockDraft) Check(field string) error {
	if field == "statut" {
		return computed(field)
	}
	return d.fields.accepts(field)
}

// Set implements Draft.
func (d *StockDraft) Set(field, value string) error {
	if err := d.Check(field); err != nil {
		return err
	}
	return d.fields.set(field, value)
}

func (d *StockDraft) item() models.StockItem {
	date := d.fields.date("date_maj")
	if date == "" {
		date = d.now().Format(models.DateLayout)
	}
	item := models.StockItem{
		Name:       d.fields.get("nom"),
		Category:   d.fields.get("categorie"),
		Quantity:   d.fields.integer("quantite"),
		MinLevel:   d.fields.integer("seuil_min"),
		MaxLevel:   d.fields.integer("seuil_max"),
		UnitPrice:  d.fields.decimal("prix_unitaire"),
		Location:   d.fields.get("emplacement"),
		LastUpdate: date,
	}
	item.Status = item.DeriveStatus()
	return item
}

// Values implements Draft, with the derived status.
func (d *StockDraft) Values() map[string]any {
	out := d.fields.snapshot()
	out["statut"] = d.item().Status
	return out
}

// Validate implements Draft. The maximum threshold may not be below the
// minimum.
func (d *StockDraft) Validate() error {
	if err := d.fields.validate(); err != nil {
		return err
	}
	if d.fields.integer("seuil_max") < d.fields.integer("seuil_min") {
		return invalid("seuil_max", "Le seuil maximum doit être supérieur ou égal au seuil minimum")
	}
	return nil
}

// Payload implements Draft with a models.StockItem.
func (d *StockDraft) Payload() (any, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d.item(), nil
}

// Reset implements Draft.
func (d *StockDraft) Reset() { d.fields.reset() }

// OutboundDraft records goods leaving the warehouse.
type OutboundDraft struct{ fields *table }

// NewOutboundDraft returns an empty goods-out form.
func NewOutboundDraft() *OutboundDraft {
	return &OutboundDraft{fields: newTable(
		Field{Name: "article", Label: "Article", Required: true},
		Field{Name: "quantite", Label: "La quantité", Kind: KindInteger, Required: true, Positive: true},
		Field{Name: "motif", Label: "Motif", Required: true},
		Field{Name: "responsable", Label: "Responsable", Required: true},
		Field{Name: "date_sortie", Label: "Date de sortie", Kind: KindDate, Required: true},
	)}
}

// Draft methods over the plain field table.
func (d *OutboundDraft) Check(field string) error      { return d.fields.accepts(field) }
func (d *OutboundDraft) Set(field, value string) error { return d.fields.set(field, value) }
func (d *OutboundDraft) Values() map[string]any        { return d.fields.snapshot() }
func (d *OutboundDraft) Validate() error               { return d.fields.validate() }
func (d *OutboundDraft) Reset()                        { d.fields.reset() }

// Payload implements Draft with a models.Outbound.
func (d *OutboundDraft) Payload() (any, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return models.Outbound{
		Article:     d.fields.get("article"),
		Quantity:    d.fields.integer("quantite"),
		Reason:      d.fields.get("motif"),
		Responsible: d.fields.get("responsable"),
		Date:        d.fields.date("date_sortie"),
	}, nil
}

// ReportDraft requests the generation of a report. New reports start
// "En cours" and are dated on submission.
type ReportDraft struct {
	fields *table
	now    func() time.Time
}

// NewReportDraft returns an empty report request, monthly by default.
func NewReportDraft() *ReportDraft {
	return &ReportDraft{
		fields: newTable(
			Field{Name: "nom", Label: "Nom", Required: true},
			Field{Name: "type", Label: "Type", Kind: KindChoice, Required: true, Options: models.ReportTypes, Default: "Mensuel"},
			Field{Name: "categorie", Label: "Catégorie", Kind: KindChoice, Required: true, Options: models.ReportCategories},
		),
		now: time.Now,
	}
}

// Draft methods over the plain field table.
func (d *ReportDraft) Check(field string) error      { return d.fields.accepts(field) }
func (d *ReportDraft) Set(field, value string) error { return d.fields.set(field, value) }
func (d *ReportDraft) Values() map[string]any        { return d.fields.snapshot() }
func (d *ReportDraft) Validate() error               { return d.fields.validate() }
func (d *ReportDraft) Reset()                        { d.fields.reset() }

// Payload implements Draft with a models.Report.
func (d *ReportDraft) Payload() (any, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return models.Report{
		Name:      d.fields.get("nom"),
		Type:      d.fields.get("type"),
		Category:  d.fields.get("categorie"),
		CreatedOn: d.now().Format(models.DateLayout),
		Status:    models.ReportInProgress,
	}, nil
}

// ContactDraft is the registration form. Address, city, postal code and
// country stay local; the address is sent as the company line and the notes
// as the message.
type ContactDraft struct{ fields *table }

// NewContactDraft returns an empty registration form.
func NewContactDraft() *ContactDraft {
	return &ContactDraft{fields: newTable(
		Field{Name: "nom", Label: "Nom", Required: true},
		Field{Name: "email", Label: "Email", Kind: KindEmail, Required: true},
		Field{Name: "telephone", Label: "Téléphone"},
		Field{Name: "adresse", Label: "Adresse"},
		Field{Name: "ville", Label: "Ville"},
		Field{Name: "code_postal", Label: "Code postal"},
		Field{Name: "pays", Label: "Pays"},
		Field{Name: "categorie", Label: "Catégorie", Kind: KindChoice, Required: true, Options: models.ContactCategories},
		Field{Name: "notes", Label: "Notes"},
	)}
}

// Draft methods over the plain field table.
func (d *ContactDraft) Check(field string) error      { return d.fields.accepts(field) }
func (d *ContactDraft) Set(field, value string) error { return d.fields.set(field, value) }
func (d *ContactDraft) Values() map[string]any        { return d.fields.snapshot() }
func (d *ContactDraft) Validate() error               { return d.fields.validate() }
func (d *ContactDraft) Reset()                        { d.fields.reset() }

// Payload implements Draft with a models.Contact.
func (d *ContactDraft) Payload() (any, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return models.Contact{
		Name:    d.fields.get("nom"),
		Email:   d.fields.get("email"),
		Phone:   d.fields.get("telephone"),
		Company: d.fields.get("adresse"),
		Message: d.fields.get("notes"),
	}, nil
}
