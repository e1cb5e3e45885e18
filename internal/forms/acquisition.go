package forms

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/k2nservice/console/internal/domain/models"
)

// Acquisition field names.
const (
	FieldResponsible   = "responsable"
	FieldNature        = "nature"
	FieldQuantityAcq   = "quantite_acquise"
	FieldUnitPrice     = "prix_unitaire"
	FieldAncillaryFees = "frais_annexes"
	FieldAcqType       = "type_acquisition"
	FieldAcqDate       = "date_acquisition"
	FieldFee           = "frais_acquisition"
	FieldTotalFee      = "total_frais"
	FieldInstallments  = "dates_acquisition_tranches"
)

// Installment sub-fields.
const (
	InstallmentDate   = "date"
	InstallmentAmount = "montant"
)

// InstallmentInput is one installment as typed by the operator.
type InstallmentInput struct {
	Date   string `json:"date"`
	Amount string `json:"montant"`
}

// AcquisitionDraft is the purchase form. Fee and total are derived on every
// change of quantity, unit price or ancillary fees and cannot be set.
type AcquisitionDraft struct {
	fields       *table
	fee          decimal.Decimal
	total        decimal.Decimal
	installments []InstallmentInput
}

// NewAcquisitionDraft returns an empty purchase form.
func NewAcquisitionDraft() *AcquisitionDraft {
	d := &AcquisitionDraft{
		fields: newTable(
			Field{Name: FieldResponsible, Label: "Responsable", Required: true},
			Field{Name: FieldNature, Label: "Nature", Required: true},
			Field{Name: FieldQuantityAcq, Label: "La quantité", Kind: KindDecimal, Required: true, Positive: true},
			Field{Name: FieldUnitPrice, Label: "Le prix unitaire", Kind: KindDecimal, Required: true, Positive: true},
			Field{Name: FieldAncillaryFees, Label: "Les frais annexes", Kind: KindDecimal},
			Field{
				Name: FieldAcqType, Label: "Type d'acquisition", Kind: KindChoice, Required: true,
				Options: choices([]models.AcquisitionType{models.AcquisitionTotale, models.AcquisitionTranches}),
				Default: string(models.AcquisitionTotale),
			},
			Field{Name: FieldAcqDate, Label: "Date d'acquisition", Kind: KindDate, Required: true},
		),
	}
	d.Reset()
	return d
}

// Check implements Draft. Fee and total are derived and read-only.
func (d *AcquisitionDraft) Check(field string) error {
	switch field {
	case FieldFee, FieldTotalFee:
		return computed(field)
	}
	return d.fields.accepts(field)
}

// Set implements Draft.
func (d *AcquisitionDraft) Set(field, value string) error {
	if err := d.Check(field); err != nil {
		return err
	}
	if err := d.fields.set(field, value); err != nil {
		return err
	}
	switch field {
	case FieldQuantityAcq, FieldUnitPrice, FieldAncillaryFees:
		d.derive()
	case FieldAcqType:
		if d.Type() == models.AcquisitionTranches && len(d.installments) == 0 {
			d.installments = append(d.installments, InstallmentInput{})
		}
	}
	return nil
}

// derive recomputes fee = round(quantity x unit price) and
// total = fee + ancillary fees.
func (d *AcquisitionDraft) derive() {
	d.fee = d.fields.decimal(FieldQuantityAcq).Mul(d.fields.decimal(FieldUnitPrice)).Round(0)
	d.total = d.fee.Add(d.fields.decimal(FieldAncillaryFees))
}

// Type is the selected acquisition type.
func (d *AcquisitionDraft) Type() models.AcquisitionType {
	return models.AcquisitionType(d.fields.get(FieldAcqType))
}

// Fee is the derived acquisition fee.
func (d *AcquisitionDraft) Fee() decimal.Decimal { return d.fee }

// Total is the derived total fee.
func (d *AcquisitionDraft) Total() decimal.Decimal { return d.total }

// Installments returns a copy of the installment entries.
func (d *AcquisitionDraft) Installments() []InstallmentInput {
	out := make([]InstallmentInput, len(d.installments))
	copy(out, d.installments)
	return out
}

// AddInstallment appends exactly one blank entry.
func (d *AcquisitionDraft) AddInstallment() {
	d.installments = append(d.installments, InstallmentInput{})
}

// SetInstallment edits the date or the amount of the entry at index.
func (d *AcquisitionDraft) SetInstallment(index int, field, value string) error {
	if index < 0 || index >= len(d.installments) {
		return fmt.Errorf("%w: %d of %d", ErrNoInstallment, index, len(d.installments))
	}
	switch field {
	case InstallmentDate:
		d.installments[index].Date = value
	case InstallmentAmount:
		d.installments[index].Amount = value
	default:
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, FieldInstallments, field)
	}
	return nil
}

// RemoveInstallment drops the entry at index. It is a no-op when the entry is
// the last one and the type still requires installments.
func (d *AcquisitionDraft) RemoveInstallment(index int) error {
	if index < 0 || index >= len(d.installments) {
		return fmt.Errorf("%w: %d of %d", ErrNoInstallment, index, len(d.installments))
	}
	if len(d.installments) == 1 && d.Type() == models.AcquisitionTranches {
		return nil
	}
	d.installments = append(d.installments[:index], d.installments[index+1:]...)
	return nil
}

// Values implements Draft.
func (d *AcquisitionDraft) Values() map[string]any {
	out := d.fields.snapshot()
	out[FieldFee] = d.fee
	out[FieldTotalFee] = d.total
	out[FieldInstallments] = d.Installments()
	return out
}

// Validate implements Draft.
func (d *AcquisitionDraft) Validate() error {
	if err := d.fields.validate(); err != nil {
		return err
	}
	if d.Type() != models.AcquisitionTranches {
		return nil
	}
	if len(d.installments) == 0 {
		return invalid(FieldInstallments, "Ajoutez au moins une tranche")
	}
	for i, in := range d.installments {
		if _, ok := models.ParseDate(in.Date); !ok {
			return invalid(FieldInstallments, "Tranche %d : date obligatoire", i+1)
		}
		amount, err := ParseDecimal(in.Amount)
		if err != nil || !amount.IsPositive() {
			return invalid(FieldInstallments, "Tranche %d : le montant doit être supérieur à zéro", i+1)
		}
	}
	return nil
}

// Payload implements Draft. A totale acquisition carries no installments.
func (d *AcquisitionDraft) Payload() (any, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	d.derive()

	acq := models.Acquisition{
		Responsible:   d.fields.get(FieldResponsible),
		Nature:        d.fields.get(FieldNature),
		Quantity:      d.fields.decimal(FieldQuantityAcq),
		UnitPrice:     d.fields.decimal(FieldUnitPrice),
		Fee:           d.fee,
		AncillaryFees: d.fields.decimal(FieldAncillaryFees),
		TotalFee:      d.total,
		Type:          d.Type(),
		Date:          d.fields.date(FieldAcqDate),
	}
	if acq.Type == models.AcquisitionTranches {
		acq.Installments = make([]models.Installment, 0, len(d.installments))
		for _, in := range d.installments {
			day, _ := models.ParseDate(in.Date)
			amount, _ := ParseDecimal(in.Amount)
			acq.Installments = append(acq.Installments, models.Installment{
				Date:   day.Format(models.DateLayout),
				Amount: amount,
			})
		}
	}
	return acq, nil
}

// Reset implements Draft.
func (d *AcquisitionDraft) Reset() {
	d.fields.reset()
	d.installments = nil
	d.fee = decimal.Zero
	d.total = decimal.Zero
}
