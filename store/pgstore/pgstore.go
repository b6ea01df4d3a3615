// Package pgstore adapts a PostgreSQL table to syncengine.TableStore using
// database/sql and the lib/pq driver.
package pgstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"github.com/tievenr/sheetsql-sync/pkg/syncengine"
	"github.com/tievenr/sheetsql-sync/store/sqlstoreutil"
)

// Store is the database-side peer backed by a real Postgres server.
type Store struct {
	db       *sql.DB
	table    string
	pkColumn string
}

// Open connects to dsn and returns a Store reading/writing table.
func Open(ctx context.Context, dsn, table, pkColumn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{db: db, table: table, pkColumn: pkColumn}, nil
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
	query, args := sqlstoreutil.BuildInsert(s.table, row, sqlstoreutil.Dollar)
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
	query, args := sqlstoreutil.BuildUpdate(s.table, s.pkColumn, pk, delta, sqlstoreutil.Dollar)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s pk=%s: %w", s.table, pk, err)
	}
	return sqlstoreutil.CheckRowsAffected(res, s.table, pk)
}

func (s *Store) Delete(ctx context.Context, pk string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", s.table, s.pkColumn)
	_, err := s.db.ExecContext(ctx, query, pk)
	if err != nil {
		return fmt.Errorf("delete %s pk=%s: %w", s.table, pk, err)
	}
	return nil
}

func (s *Store) Schema(ctx context.Context) (map[string]string, error) {
	const query = `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_name = $1`
	rows, err := s.db.QueryContext(ctx, query, s.table)
	if err != nil {
		return nil, fmt.Errorf("schema for %s: %w", s.table, err)
	}
	defer rows.Close()

	schema := map[string]string{}
	for rows.Next() {
		var name, dataType string
		if err := rows.Scan(&name, &dataType); err != nil {
			return nil, fmt.Errorf("scan schema row: %w", err)
		}
		schema[name] = strings.ToLower(dataType)
	}
	return schema, rows.Err()
}

var _ syncengine.TableStore = (*Store)(nil)
