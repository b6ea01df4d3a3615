// Package memstore is an in-memory, map-backed syncengine.TableStore,
// used for unit tests and fixtures in place of a real database or
// spreadsheet connection.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/tievenr/sheetsql-sync/pkg/syncengine"
)

// ErrNoMatchingRow means Update was called with a primary key that has no
// matching row — the database-side contract Update must not silently
// no-op on a missing row.
var ErrNoMatchingRow = fmt.Errorf("no row matched primary key")

// Store holds rows keyed by their primary key's canonical string form.
type Store struct {
	mu       sync.Mutex
	pkColumn string
	columns  []string
	rows     map[string]syncengine.Row
	schema   map[string]string
}

// New returns an empty Store declaring the given columns.
func New(pkColumn string, columns []string) *Store {
	return &Store{pkColumn: pkColumn, columns: columns, rows: map[string]syncengine.Row{}}
}

// Seed inserts rows directly and returns the Store, for building fixtures
// before a test begins.
func (s *Store) Seed(rows ...syncengine.Row) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		s.rows[r.Get(s.pkColumn).String()] = r.Clone()
	}
	return s
}

// SetSchema fixes the result of Schema(); useful when a test wants to
// exercise schema-aware callers without a real catalog to query.
func (s *Store) SetSchema(schema map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schema = schema
}

func (s *Store) ReadAll(ctx context.Context) (syncengine.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]syncengine.Row, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, r.Clone())
	}
	return syncengine.Snapshot{Columns: s.columns, Rows: out}, nil
}

func (s *Store) Insert(ctx context.Context, row syncengine.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[row.Get(s.pkColumn).String()] = row.Clone()
	return nil
}

func (s *Store) Update(ctx context.Context, pk string, delta syncengine.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.rows[pk]
	if !ok {
		return fmt.Errorf("update pk=%s: %w", pk, ErrNoMatchingRow)
	}
	merged := existing.Clone()
	for _, col := range delta.Columns {
		merged.Cells[col] = delta.Get(col)
	}
	s.rows[pk] = merged
	return nil
}

func (s *Store) Delete(ctx context.Context, pk string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, pk)
	return nil
}

func (s *Store) Schema(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schema, nil
}

var _ syncengine.TableStore = (*Store)(nil)
