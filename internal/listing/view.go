package listing

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/k2nservice/console/internal/domain/models"
)

// Fetcher reads the full collection from the backend.
type Fetcher[T any] func(ctx context.Context) ([]T, error)

// Ticket identifies one issued load. Only the most recently issued ticket may
// apply its result; older completions are dropped.
type Ticket uint64

// Snapshot is what a page renders.
type Snapshot[T any] struct {
	Rows    []T    `json:"rows"`
	Stats   Stats  `json:"stats"`
	Filter  Filter `json:"filter"`
	Size    int    `json:"size"`
	Loaded  bool   `json:"loaded"`
	Warning string `json:"warning,omitempty"`
}

// View is the authoritative in-memory collection of one page. Visible rows
// and statistics are recomputed on the events that change them: a load
// applied, a filter change, a record prepended, a reset.
type View[T any] struct {
	mu      sync.RWMutex
	spec    Spec[T]
	records []T
	filter  Filter
	visible []T
	stats   Stats
	issued  Ticket
	loaded  bool
	lastErr error
	logger  *zap.Logger
}

// NewView returns an empty view for the given domain spec.
func NewView[T any](spec Spec[T], logger *zap.Logger) *View[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := &View[T]{spec: spec, logger: logger}
	v.recompute()
	return v
}

// Begin issues a new load ticket, superseding every earlier one.
func (v *View[T]) Begin() Ticket {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.issued++
	return v.issued
}

// Complete integrates the outcome of the load identified by t. It reports
// whether the result was applied. A failed load keeps the previous
// collection.
func (v *View[T]) Complete(t Ticket, rows []T, err error) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if t != v.issued {
		v.logger.Debug("dropping superseded load", zap.Uint64("ticket", uint64(t)), zap.Uint64("latest", uint64(v.issued)))
		return false
	}

	if err != nil {
		v.lastErr = err
		return false
	}

	records := make([]T, len(rows))
	copy(records, rows)
	if v.spec.Normalize != nil {
		for i := range records {
			records[i] = v.spec.Normalize(records[i])
		}
	}

	v.records = records
	v.loaded = true
	v.lastErr = nil
	v.recompute()
	return true
}

// Load fetches the collection and applies it under a fresh ticket. The fetch
// is bound to ctx.
func (v *View[T]) Load(ctx context.Context, fetch Fetcher[T]) error {
	ticket := v.Begin()
	rows, err := fetch(ctx)
	v.Complete(ticket, rows, err)
	return err
}

// SetFilter replaces the search state.
func (v *View[T]) SetFilter(f Filter) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filter = f
	v.recompute()
}

// Filter returns the current search state.
func (v *View[T]) Filter() Filter {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.filter
}

// Prepend puts a freshly created record at the top of the collection without
// a re-fetch. A record without identifier gets a synthesized one, which is
// returned with the record.
func (v *View[T]) Prepend(record T) T {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.spec.ID != nil && v.spec.WithID != nil && v.spec.ID(record) == "" {
		record = v.spec.WithID(record, nextID(v.spec.IDPrefix, v.records, v.spec.ID))
	}

	records := make([]T, 0, len(v.records)+1)
	records = append(records, record)
	records = append(records, v.records...)
	v.records = records
	v.recompute()
	return record
}

// Records returns a copy of the full collection.
func (v *View[T]) Records() []T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]T, len(v.records))
	copy(out, v.records)
	return out
}

// Visible returns a copy of the filtered rows.
func (v *View[T]) Visible() []T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]T, len(v.visible))
	copy(out, v.visible)
	return out
}

// Snapshot returns the rows and statistics to display.
func (v *View[T]) Snapshot() Snapshot[T] {
	v.mu.RLock()
	defer v.mu.RUnlock()

	rows := make([]T, len(v.visible))
	copy(rows, v.visible)
	snap := Snapshot[T]{
		Rows:   rows,
		Stats:  v.stats,
		Filter: v.filter,
		Size:   len(v.records),
		Loaded: v.loaded,
	}
	if v.lastErr != nil {
		snap.Warning = "Données temporairement indisponibles"
	}
	return snap
}

// Loaded reports whether a load has been applied since the last reset.
func (v *View[T]) Loaded() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loaded
}

// Reset empties the view and supersedes any load in flight.
func (v *View[T]) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.issued++
	v.records = nil
	v.filter = Filter{}
	v.loaded = false
	v.lastErr = nil
	v.recompute()
}

// recompute must be called with mu held for writing.
func (v *View[T]) recompute() {
	v.visible = Apply(v.records, v.filter, v.spec)
	v.stats = Aggregate(v.visible, v.spec)
}

// nextID returns prefix followed by a 3-digit sequence one above the highest
// sequence already used with that prefix.
func nextID[T any](prefix string, records []T, id func(T) models.RecordID) models.RecordID {
	highest := 0
	for _, r := range records {
		raw := id(r).String()
		if !strings.HasPrefix(raw, prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(raw, prefix))
		if err != nil || n < 0 {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return models.RecordID(fmt.Sprintf("%s%03d", prefix, highest+1))
}
