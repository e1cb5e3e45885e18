// Package pages assembles the console's domain pages. A page binds one
// backend collection to a listing view and a creation draft.
package pages

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/k2nservice/console/internal/forms"
	"github.com/k2nservice/console/internal/listing"
)

// ErrNoDraft is returned when the page's draft does not support the
// requested edit.
var ErrNoDraft = errors.New("page has no such draft")

// Collection is the backend surface a page needs.
type Collection[T any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, payload any) (T, error)
}

// Handle is the type-erased view of a page used by the HTTP layer.
type Handle interface {
	Slug() string
	Title() string
	Listable() bool
	Mount(ctx context.Context, f listing.Filter) (any, error)
	Current() any
	VisibleRows() any
	Draft() map[string]any
	SetFields(values map[string]string) error
	ResetDraft()
	Submit(ctx context.Context) (any, error)
	AddInstallment() error
	SetInstallment(index int, field, value string) error
	RemoveInstallment(index int) error
	Reset()
}

// installments is implemented by drafts with an installment sub-list.
type installments interface {
	AddInstallment()
	SetInstallment(index int, field, value string) error
	RemoveInstallment(index int) error
}

// Snapshot is a listing snapshot plus page specific figures.
type Snapshot[T any] struct {
	listing.Snapshot[T]
	Extras map[string]any `json:"extras,omitempty"`
}

// Page is one domain page.
type Page[T any] struct {
	slug     string
	title    string
	listable bool

	source Collection[T]
	spec   listing.Spec[T]
	view   *listing.View[T]
	extras func(rows []T) map[string]any

	mu    sync.Mutex
	draft forms.Draft

	logger *zap.Logger
}

// Option customizes a page.
type Option[T any] func(*Page[T])

// WithExtras adds page specific figures computed over the visible rows.
func WithExtras[T any](fn func(rows []T) map[string]any) Option[T] {
	return func(p *Page[T]) { p.extras = fn }
}

// WithoutList marks a page whose collection is never fetched.
func WithoutList[T any]() Option[T] {
	return func(p *Page[T]) { p.listable = false }
}

// NewPage builds a page over source.
func NewPage[T any](slug, title string, source Collection[T], spec listing.Spec[T], draft forms.Draft, logger *zap.Logger, opts ...Option[T]) *Page[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("page", slug))
	p := &Page[T]{
		slug:     slug,
		title:    title,
		listable: true,
		source:   source,
		spec:     spec,
		view:     listing.NewView(spec, logger),
		draft:    draft,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle accessors.
func (p *Page[T]) Slug() string   { return p.slug }
func (p *Page[T]) Title() string  { return p.title }
func (p *Page[T]) Listable() bool { return p.listable }

// View exposes the page's listing.
func (p *Page[T]) View() *listing.View[T] { return p.view }

// Load fetches the collection under the caller's context. A failure keeps
// the previous rows and is returned.
func (p *Page[T]) Load(ctx context.Context) error {
	if !p.listable {
		return nil
	}
	err := p.view.Load(ctx, p.source.List)
	if err != nil {
		p.logger.Warn("collection load failed", zap.Error(err))
	}
	return err
}

// Open applies the filter, then reloads the collection.
func (p *Page[T]) Open(ctx context.Context, f listing.Filter) (Snapshot[T], error) {
	p.view.SetFilter(f)
	err := p.Load(ctx)
	return p.Snapshot(), err
}

// Snapshot returns what the page currently shows.
func (p *Page[T]) Snapshot() Snapshot[T] {
	snap := Snapshot[T]{Snapshot: p.view.Snapshot()}
	if p.extras != nil {
		snap.Extras = p.extras(snap.Rows)
	}
	return snap
}

// Mount implements Handle.
func (p *Page[T]) Mount(ctx context.Context, f listing.Filter) (any, error) {
	return p.Open(ctx, f)
}

// Current implements Handle.
func (p *Page[T]) Current() any { return p.Snapshot() }

// VisibleRows returns the filtered rows as a []T.
func (p *Page[T]) VisibleRows() any { return p.view.Visible() }

// Draft returns the draft values.
func (p *Page[T]) Draft() map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.draft.Values()
}

// SetFields assigns several draft fields in name order. Nothing is assigned
// when any name is rejected.
func (p *Page[T]) SetFields(values map[string]string) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, name := range names {
		if err := p.draft.Check(name); err != nil {
			return err
		}
	}
	for _, name := range names {
		if err := p.draft.Set(name, values[name]); err != nil {
			return err
		}
	}
	return nil
}

// ResetDraft empties the form.
func (p *Page[T]) ResetDraft() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draft.Reset()
}

// Create validates the draft, posts it and prepends the stored record. On
// failure the draft is left intact.
func (p *Page[T]) Create(ctx context.Context) (T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var zero T
	payload, err := p.draft.Payload()
	if err != nil {
		return zero, err
	}

	created, err := p.source.Create(ctx, payload)
	if err != nil {
		p.logger.Warn("record creation failed", zap.Error(err))
		return zero, err
	}

	// A backend answering without the record gets the payload echoed back.
	if p.spec.ID != nil && p.spec.ID(created) == "" {
		if sent, ok := payload.(T); ok {
			created = sent
		}
	}
	if p.spec.Normalize != nil {
		created = p.spec.Normalize(created)
	}

	record := p.view.Prepend(created)
	p.draft.Reset()
	if p.spec.ID != nil {
		p.logger.Info("record created", zap.String("id", p.spec.ID(record).String()))
	}
	return record, nil
}

// Submit implements Handle.
func (p *Page[T]) Submit(ctx context.Context) (any, error) {
	return p.Create(ctx)
}

func (p *Page[T]) editor() (installments, error) {
	editor, ok := p.draft.(installments)
	if !ok {
		return nil, ErrNoDraft
	}
	return editor, nil
}

// AddInstallment appends a blank installment to the draft.
func (p *Page[T]) AddInstallment() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	editor, err := p.editor()
	if err != nil {
		return err
	}
	editor.AddInstallment()
	return nil
}

// SetInstallment edits one installment of the draft.
func (p *Page[T]) SetInstallment(index int, field, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	editor, err := p.editor()
	if err != nil {
		return err
	}
	return editor.SetInstallment(index, field, value)
}

// RemoveInstallment drops one installment of the draft.
func (p *Page[T]) RemoveInstallment(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	editor, err := p.editor()
	if err != nil {
		return err
	}
	return editor.RemoveInstallment(index)
}

// Reset forgets the collection and the draft. It waits for a creation in
// flight so the created record cannot land in the emptied view.
func (p *Page[T]) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.view.Reset()
	p.draft.Reset()
}
