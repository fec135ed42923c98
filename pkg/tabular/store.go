package tabular

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	pkgerrors "github.com/lastbite-ai/lastbite-backend/pkg/errors"
	"go.uber.org/multierr"
)

// Codec maps one record type to and from table rows.
type Codec[T any] interface {
	// Columns lists the columns written on save, in order.
	Columns() []string
	// Required lists the columns a stored table must carry to be decoded.
	Required() []string
	Decode(Row) (T, error)
	Encode(T) []string
}

// Observer receives persistence timings, e.g. for metrics.
type Observer interface {
	ObservePersist(table string, duration time.Duration, err error)
}

type storeOptions struct {
	observer Observer
}

// Option configures a Store.
type Option func(*storeOptions)

// WithObserver reports every save to o.
func WithObserver(o Observer) Option {
	return func(opts *storeOptions) {
		opts.observer = o
	}
}

// Store owns the cached, typed copy of one table. Reads share a lock; Update holds the write
// lock across check, mutation and save so check-then-append sequences are atomic within the
// process. Other processes writing the same backend are not coordinated: last writer wins.
type Store[T any] struct {
	name     string
	backend  Backend
	codec    Codec[T]
	observer Observer

	mu     sync.RWMutex
	rows   []T
	loaded bool
}

// NewStore builds a store; nothing is read until first use.
func NewStore[T any](name string, backend Backend, codec Codec[T], opts ...Option) *Store[T] {
	o := storeOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return &Store[T]{name: name, backend: backend, codec: codec, observer: o.observer}
}

// Name returns the table name used in errors and metrics.
func (s *Store[T]) Name() string { return s.name }

// All returns a copy of every record in table order.
func (s *Store[T]) All(ctx context.Context) ([]T, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.rows), nil
}

// Find returns the first record matching pred in table order.
func (s *Store[T]) Find(ctx context.Context, pred func(T) bool) (T, bool, error) {
	var zero T
	if err := s.ensureLoaded(ctx); err != nil {
		return zero, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, row := range s.rows {
		if pred(row) {
			return row, true, nil
		}
	}
	return zero, false, nil
}

// Filter returns every record matching pred in table order.
func (s *Store[T]) Filter(ctx context.Context, pred func(T) bool) ([]T, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []T
	for _, row := range s.rows {
		if pred(row) {
			out = append(out, row)
		}
	}
	return out, nil
}

// Update runs fn on a copy of the current records under the write lock. When fn reports a change
// the returned records are saved as the whole table; the cache is replaced only after the save
// succeeded, so a failed save leaves it exactly as it was before the call.
func (s *Store[T]) Update(ctx context.Context, fn func(current []T) (next []T, changed bool, err error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		if err := s.loadLocked(ctx); err != nil {
			return err
		}
	}

	next, changed, err := fn(slices.Clone(s.rows))
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	table := NewTable(s.codec.Columns())
	table.Rows = make([][]string, 0, len(next))
	for _, rec := range next {
		table.Rows = append(table.Rows, s.codec.Encode(rec))
	}

	start := time.Now()
	saveErr := s.backend.Save(ctx, table)
	if s.observer != nil {
		s.observer.ObservePersist(s.name, time.Since(start), saveErr)
	}
	if saveErr != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, saveErr, fmt.Sprintf("save %s table", s.name)).
			WithDetails(map[string]any{"table": s.name})
	}

	s.rows = next
	return nil
}

// Reload re-reads the table from the backend, replacing the cache.
func (s *Store[T]) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

// Invalidate drops the cache; the next access reloads from the backend.
func (s *Store[T]) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = nil
	s.loaded = false
}

// Ping loads the table if needed and reports whether it is readable.
func (s *Store[T]) Ping(ctx context.Context) error {
	return s.ensureLoaded(ctx)
}

func (s *Store[T]) ensureLoaded(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}
	return s.loadLocked(ctx)
}

func (s *Store[T]) loadLocked(ctx context.Context) error {
	table, err := s.backend.Load(ctx, s.codec.Columns())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, fmt.Sprintf("load %s table", s.name)).
			WithDetails(map[string]any{"table": s.name})
	}

	if table.Len() > 0 {
		if missing := table.Missing(s.codec.Required()); len(missing) > 0 {
			return pkgerrors.New(pkgerrors.CodeStorage, fmt.Sprintf("%s table is missing columns", s.name)).
				WithDetails(map[string]any{"table": s.name, "missing_columns": missing})
		}
	}

	rows, err := decodeAll(table, s.codec)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, fmt.Sprintf("decode %s table", s.name)).
			WithDetails(map[string]any{"table": s.name})
	}

	s.rows = rows
	s.loaded = true
	return nil
}

func decodeAll[T any](table *Table, codec Codec[T]) ([]T, error) {
	views := table.RowViews()
	rows := make([]T, 0, len(views))
	var errs error
	for _, view := range views {
		rec, err := codec.Decode(view)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("row %d: %w", view.Number, err))
			continue
		}
		rows = append(rows, rec)
	}
	if errs != nil {
		return nil, errs
	}
	return rows, nil
}
