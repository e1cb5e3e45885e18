// Package forms holds the drafts behind the console's creation forms: raw
// field values typed by the operator, derived fields, validation and the
// normalized payload posted to the backend.
package forms

import (
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/k2nservice/console/internal/domain/models"
)

// MsgRequired is shown when a mandatory field is left empty.
const MsgRequired = "Veuillez remplir tous les champs obligatoires"

// ErrUnknownField is returned when a draft has no field of the given name.
var ErrUnknownField = errors.New("unknown form field")

// ErrNoInstallment is returned for an installment index outside the list.
var ErrNoInstallment = errors.New("no such installment")

// ValidationError rejects a draft before anything is sent to the backend.
// Message is meant for the operator.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Draft is one in-progress record.
type Draft interface {
	// Check reports whether Set accepts the field name. Values are not
	// inspected.
	Check(field string) error
	// Set assigns the raw text of one field and recomputes derived fields.
	Set(field, value string) error
	// Values returns raw and derived values keyed by wire name.
	Values() map[string]any
	// Validate returns the first problem found, as a *ValidationError.
	Validate() error
	// Payload validates the draft and builds the creation body.
	Payload() (any, error)
	// Reset restores the initial empty state.
	Reset()
}

// Kind is how a field's text is interpreted.
type Kind int

const (
	KindText Kind = iota
	KindDecimal
	KindInteger
	KindDate
	KindChoice
	KindEmail
)

// Field declares one input of a form.
type Field struct {
	Name     string
	Label    string
	Kind     Kind
	Required bool
	// Positive requires a number strictly greater than zero.
	Positive bool
	// Options restricts KindChoice values.
	Options []string
	Default string
}

// table stores the raw values of a declared set of fields.
type table struct {
	fields []Field
	values map[string]string
}

func newTable(fields ...Field) *table {
	t := &table{fields: fields}
	t.reset()
	return t
}

func (t *table) reset() {
	t.values = make(map[string]string, len(t.fields))
	for _, f := range t.fields {
		t.values[f.Name] = f.Default
	}
}

func (t *table) field(name string) (Field, bool) {
	for _, f := range t.fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (t *table) accepts(name string) error {
	if _, ok := t.field(name); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	return nil
}

func (t *table) set(name, value string) error {
	if err := t.accepts(name); err != nil {
		return err
	}
	t.values[name] = value
	return nil
}

func computed(field string) error {
	return invalid(field, "Ce champ est calculé automatiquement")
}

func (t *table) get(name string) string {
	return strings.TrimSpace(t.values[name])
}

func (t *table) snapshot() map[string]any {
	out := make(map[string]any, len(t.fields))
	for _, f := range t.fields {
		out[f.Name] = t.values[f.Name]
	}
	return out
}

// validate checks mandatory fields first, then formats, in declaration
// order, stopping at the first failure.
func (t *table) validate() error {
	for _, f := range t.fields {
		if f.Required && t.get(f.Name) == "" {
			return &ValidationError{Field: f.Name, Message: MsgRequired}
		}
	}
	for _, f := range t.fields {
		if err := t.check(f); err != nil {
			return err
		}
	}
	return nil
}

func (t *table) check(f Field) error {
	raw := t.get(f.Name)
	if raw == "" {
		if f.Positive {
			return invalid(f.Name, "%s doit être supérieur à zéro", f.Label)
		}
		return nil
	}

	switch f.Kind {
	case KindDecimal:
		d, err := ParseDecimal(raw)
		if err != nil {
			return invalid(f.Name, "%s doit être un nombre", f.Label)
		}
		if f.Positive && !d.IsPositive() {
			return invalid(f.Name, "%s doit être supérieur à zéro", f.Label)
		}
		if d.IsNegative() {
			return invalid(f.Name, "%s ne peut pas être négatif", f.Label)
		}
	case KindInteger:
		n, err := ParseInteger(raw)
		if err != nil {
			return invalid(f.Name, "%s doit être un nombre entier", f.Label)
		}
		if f.Positive && n <= 0 {
			return invalid(f.Name, "%s doit être supérieur à zéro", f.Label)
		}
		if n < 0 {
			return invalid(f.Name, "%s ne peut pas être négatif", f.Label)
		}
	case KindDate:
		if _, ok := models.ParseDate(raw); !ok {
			return invalid(f.Name, "%s : date invalide", f.Label)
		}
	case KindChoice:
		if !slices.Contains(f.Options, raw) {
			return invalid(f.Name, "%s : valeur non autorisée", f.Label)
		}
	case KindEmail:
		if !strings.Contains(raw, "@") {
			return invalid(f.Name, "Adresse e-mail invalide")
		}
		if _, err := mail.ParseAddress(raw); err != nil {
			return invalid(f.Name, "Adresse e-mail invalide")
		}
	}
	return nil
}

func (t *table) decimal(name string) decimal.Decimal {
	d, err := ParseDecimal(t.get(name))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (t *table) integer(name string) int64 {
	n, err := ParseInteger(t.get(name))
	if err != nil {
		return 0
	}
	return n
}

// date returns the wire form (YYYY-MM-DD) of a date field.
func (t *table) date(name string) string {
	d, ok := models.ParseDate(t.get(name))
	if !ok {
		return t.get(name)
	}
	return d.Format(models.DateLayout)
}

// ParseDecimal reads an amount typed by the operator. Both "1500.5" and
// "1 500,5" are accepted.
func ParseDecimal(value string) (decimal.Decimal, error) {
	value = normalizeNumber(value)
	if value == "" {
		return decimal.Zero, errors.New("empty number")
	}
	return decimal.NewFromString(value)
}

// ParseInteger reads a whole quantity; "12,0" is accepted, "12,5" is not.
func ParseInteger(value string) (int64, error) {
	value = normalizeNumber(value)
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, err
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("%s is not a whole number", value)
	}
	return d.IntPart(), nil
}

func normalizeNumber(value string) string {
	value = strings.TrimSpace(value)
	value = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", ",", ".").Replace(value)
	return value
}

func choices[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
