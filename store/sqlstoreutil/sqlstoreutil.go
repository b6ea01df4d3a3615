// Package sqlstoreutil holds the database/sql plumbing shared by the
// mysqlstore, pgstore, and sqlitestore adapters: scanning a *sql.Rows into
// a syncengine.Snapshot, and building the INSERT/UPDATE statements each
// adapter's Store methods execute. DELETE statements are written by each
// adapter itself.
package sqlstoreutil

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tievenr/sheetsql-sync/pkg/syncengine"
)

// ErrNoMatchingRow means an UPDATE statement matched zero rows for the
// given primary key — the row doesn't exist on this peer.
var ErrNoMatchingRow = errors.New("no row matched primary key")

// CheckRowsAffected inspects res and returns ErrNoMatchingRow, wrapped
// with table/pk context, when the statement matched zero rows.
func CheckRowsAffected(res sql.Result, table, pk string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %s pk=%s: %w", table, pk, err)
	}
	if n == 0 {
		return fmt.Errorf("update %s pk=%s: %w", table, pk, ErrNoMatchingRow)
	}
	return nil
}

// ScanSnapshot consumes rows to completion and projects every value into a
// syncengine.Cell using the concrete Go type the driver returned.
func ScanSnapshot(rows *sql.Rows) (syncengine.Snapshot, error) {
	columns, err := rows.Columns()
	if err != nil {
		return syncengine.Snapshot{}, fmt.Errorf("columns: %w", err)
	}

	var out []syncengine.Row
	for rows.Next() {
		values := make([]any, len(columns))
		scanArgs := make([]any, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return syncengine.Snapshot{}, fmt.Errorf("scan row: %w", err)
		}

		cells := make(map[string]syncengine.Cell, len(columns))
		for i, col := range columns {
			cells[col] = cellFromDriverValue(values[i])
		}
		out = append(out, syncengine.NewRow(columns, cells))
	}
	if err := rows.Err(); err != nil {
		return syncengine.Snapshot{}, fmt.Errorf("row iteration: %w", err)
	}

	return syncengine.Snapshot{Columns: columns, Rows: out, CapturedAt: time.Now()}, nil
}

func cellFromDriverValue(v any) syncengine.Cell {
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
	case time.Time:
		return syncengine.TimestampCell(val)
	default:
		return syncengine.TextCell(fmt.Sprintf("%v", val))
	}
}

// Placeholder renders the i-th (0-based) bind placeholder for a dialect:
// "?" for MySQL/SQLite regardless of i, "$N" (1-based) for Postgres.
type Placeholder func(i int) string

// QuestionMark is the MySQL/SQLite placeholder style.
func QuestionMark(i int) string { return "?" }

// Dollar is the Postgres placeholder style.
func Dollar(i int) string { return "$" + strconv.Itoa(i+1) }

// BuildInsert renders "INSERT INTO table (cols...) VALUES (phs...)" over
// row's declared columns, in order, and returns the matching bind args.
func BuildInsert(table string, row syncengine.Row, ph Placeholder) (string, []any) {
	cols := row.Columns
	args := make([]any, len(cols))
	phs := make([]string, len(cols))
	for i, col := range cols {
		args[i] = cellArg(row.Get(col))
		phs[i] = ph(i)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(phs, ", "))
	return query, args
}

// BuildUpdate renders "UPDATE table SET c1 = ph, ... WHERE pkColumn = ph"
// over delta's declared columns, and returns the matching bind args with
// the primary key value appended last.
func BuildUpdate(table, pkColumn, pk string, delta syncengine.Row, ph Placeholder) (string, []any) {
	cols := delta.Columns
	setClauses := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		setClauses[i] = fmt.Sprintf("%s = %s", col, ph(i))
		args = append(args, cellArg(delta.Get(col)))
	}
	wherePh := ph(len(cols))
	args = append(args, pk)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		table, strings.Join(setClauses, ", "), pkColumn, wherePh)
	return query, args
}

// cellArg renders a Cell as the value passed to database/sql for binding.
// Cells carry their own canonical string form for cross-peer diffing, but
// the database side still wants its native type so numeric/boolean
// columns round-trip without an implicit string cast at the driver layer.
func cellArg(c syncengine.Cell) any {
	if c.IsNull() {
		return nil
	}
	return c.Raw
}
