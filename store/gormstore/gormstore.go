// Package gormstore adapts a MySQL table to syncengine.TableStore via
// GORM, for callers that already standardize on GORM for the database
// side instead of talking to database/sql directly.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tievenr/sheetsql-sync/pkg/syncengine"
)

// errNoMatchingRow means an UPDATE matched zero rows for the given
// primary key — the row doesn't exist on this peer.
var errNoMatchingRow = errors.New("no row matched primary key")

// Store is the database-side peer backed by GORM's raw-SQL row scanning —
// the sync engine's rows are untyped (column name -> Cell), so there is no
// static model to hand GORM; it is used here purely as the connection and
// query-execution layer, in the style of a typed ORM reduced to its SQL
// plumbing.
type Store struct {
	db       *gorm.DB
	table    string
	pkColumn string
}

// Open connects to dsn via GORM's MySQL driver.
func Open(dsn, table, pkColumn string) (*Store, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("gorm open mysql: %w", err)
	}
	return &Store{db: db, table: table, pkColumn: pkColumn}, nil
}

func (s *Store) ReadAll(ctx context.Context) (syncengine.Snapshot, error) {
	var rows []map[string]any
	if err := s.db.WithContext(ctx).Table(s.table).Find(&rows).Error; err != nil {
		return syncengine.Snapshot{}, fmt.Errorf("read all from %s: %w", s.table, err)
	}

	var columns []string
	out := make([]syncengine.Row, 0, len(rows))
	for _, raw := range rows {
		if columns == nil {
			columns = make([]string, 0, len(raw))
			for col := range raw {
				columns = append(columns, col)
			}
		}
		cells := make(map[string]syncengine.Cell, len(raw))
		for col, v := range raw {
			cells[col] = cellFromGormValue(v)
		}
		out = append(out, syncengine.NewRow(columns, cells))
	}
	return syncengine.Snapshot{Columns: columns, Rows: out}, nil
}

func (s *Store) Insert(ctx context.Context, row syncengine.Row) error {
	values := map[string]any{}
	for _, col := range row.Columns {
		values[col] = cellArg(row.Get(col))
	}
	if err := s.db.WithContext(ctx).Table(s.table).Create(values).Error; err != nil {
		return fmt.Errorf("insert into %s: %w", s.table, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, pk string, delta syncengine.Row) error {
	if len(delta.Columns) == 0 {
		return nil
	}
	values := map[string]any{}
	for _, col := range delta.Columns {
		values[col] = cellArg(delta.Get(col))
	}
	tx := s.db.WithContext(ctx).Table(s.table).
		Where(fmt.Sprintf("%s = ?", s.pkColumn), pk).
		Updates(values)
	if tx.Error != nil {
		return fmt.Errorf("update %s pk=%s: %w", s.table, pk, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("update %s pk=%s: %w", s.table, pk, errNoMatchingRow)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, pk string) error {
	err := s.db.WithContext(ctx).Table(s.table).
		Where(fmt.Sprintf("%s = ?", s.pkColumn), pk).
		Delete(map[string]any{}).Error
	if err != nil {
		return fmt.Errorf("delete %s pk=%s: %w", s.table, pk, err)
	}
	return nil
}

func (s *Store) Schema(ctx context.Context) (map[string]string, error) {
	types, err := s.db.WithContext(ctx).Migrator().ColumnTypes(s.table)
	if err != nil {
		return nil, fmt.Errorf("schema for %s: %w", s.table, err)
	}
	schema := make(map[string]string, len(types))
	for _, t := range types {
		schema[t.Name()] = t.DatabaseTypeName()
	}
	return schema, nil
}

func cellFromGormValue(v any) syncengine.Cell {
	switch val := v.(type) {
	case nil:
		return syncengine.NullCell
	case []byte:
		return syncengine.TextCell(string(val))
	case string:
		return syncengine.TextCell(val)
	case int64:
		return syncengine.NumberCell(float64(val))
	case float64:
		return syncengine.NumberCell(val)
	case bool:
		return syncengine.BoolCell(val)
	default:
		return syncengine.TextCell(fmt.Sprintf("%v", val))
	}
}

func cellArg(c syncengine.Cell) any {
	if c.IsNull() {
		return nil
	}
	return c.Raw
}

var _ syncengine.TableStore = (*Store)(nil)
