// Package sqlitestore adapts a SQLite table to syncengine.TableStore using
// database/sql and the pure-Go modernc.org/sqlite driver — no cgo, so it
// builds everywhere the rest of this module does. Intended for local
// development and for integration tests standing in for a real RDBMS.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/tievenr/sheetsql-sync/pkg/syncengine"
	"github.com/tievenr/sheetsql-sync/store/sqlstoreutil"
)

// Store is the database-side peer backed by a SQLite file (or :memory:).
type Store struct {
	db       *sql.DB
	table    string
	pkColumn string
}

// Open connects to path (a filesystem path or ":memory:") and returns a
// Store reading/writing table. The table is created if it doesn't already
// exist, using columns as a TEXT-typed schema — SQLite is dynamically
// typed per-cell regardless of a column's declared type, which matches
// the loosely-typed spreadsheet side this adapter is usually paired with.
func Open(ctx context.Context, path, table, pkColumn string, columns []string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &Store{db: db, table: table, pkColumn: pkColumn}
	if err := s.ensureTable(ctx, columns); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureTable(ctx context.Context, columns []string) error {
	defs := make([]string, len(columns))
	for i, col := range columns {
		if col == s.pkColumn {
			defs[i] = fmt.Sprintf("%s TEXT PRIMARY KEY", col)
			continue
		}
		defs[i] = fmt.Sprintf("%s TEXT", col)
	}
	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", s.table, joinDefs(defs))
	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

func joinDefs(defs []string) string {
	out := ""
	for i, d := range defs {
		if i > 0 {
			out += ", "
		}
		out += d
	}
	return out
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) ReadAll(ctx context.Context) (syncengine.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s", s.table))
	if err != nil {
		return syncengine.Snapshot{}, fmt.Errorf("read all from %s: %w", s.table, err)
	}
	defer rows.Close()
	return sqlstoreutil.ScanSnapshot(rows)
}

func (s *Store) Insert(ctx context.Context, row syncengine.Row) error {
	query, args := sqlstoreutil.BuildInsert(s.table, row, sqlstoreutil.QuestionMark)
	_, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", s.table, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, pk string, delta syncengine.Row) error {
	if len(delta.Columns) == 0 {
		return nil
	}
	query, args := sqlstoreutil.BuildUpdate(s.table, s.pkColumn, pk, delta, sqlstoreutil.QuestionMark)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s pk=%s: %w", s.table, pk, err)
	}
	return sqlstoreutil.CheckRowsAffected(res, s.table, pk)
}

func (s *Store) Delete(ctx context.Context, pk string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", s.table, s.pkColumn)
	_, err := s.db.ExecContext(ctx, query, pk)
	if err != nil {
		return fmt.Errorf("delete %s pk=%s: %w", s.table, pk, err)
	}
	return nil
}

func (s *Store) Schema(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", s.table))
	if err != nil {
		return nil, fmt.Errorf("schema for %s: %w", s.table, err)
	}
	defer rows.Close()

	schema := map[string]string{}
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull int
		var dfltValue any
		var pk int
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan schema row: %w", err)
		}
		schema[name] = colType
	}
	return schema, rows.Err()
}

var _ syncengine.TableStore = (*Store)(nil)
