package syncengine

import "time"

// TimestampLayout is the canonical format the orchestrator stamps when it
// synthesizes a last_modified value for the spreadsheet side.
const TimestampLayout = "2006-01-02 15:04:05"

// Row is an ordered mapping from column name to cell value. Column order
// is preserved because peers like the spreadsheet adapter care about
// position; lookups elsewhere are always by name.
type Row struct {
	Columns []string
	Cells   map[string]Cell
}

// NewRow builds a Row from an ordered column list and a name->Cell map.
// Columns present in cells but absent from the column list are dropped —
// callers are expected to keep the two consistent.
func NewRow(columns []string, cells map[string]Cell) Row {
	return Row{Columns: columns, Cells: cells}
}

// Get returns the cell for a column, or NullCell if the column is absent
// from this row — a missing cell compares as the empty string.
func (r Row) Get(column string) Cell {
	if r.Cells == nil {
		return NullCell
	}
	c, ok := r.Cells[column]
	if !ok {
		return NullCell
	}
	return c
}

// Clone returns an independent copy of the row so callers can mutate the
// copy (e.g. to stamp a timestamp) without aliasing a snapshot's row.
func (r Row) Clone() Row {
	cells := make(map[string]Cell, len(r.Cells))
	for k, v := range r.Cells {
		cells[k] = v
	}
	columns := make([]string, len(r.Columns))
	copy(columns, r.Columns)
	return Row{Columns: columns, Cells: cells}
}

// Snapshot is the full observed state of one table on one peer, captured
// at a specific wall-clock instant.
type Snapshot struct {
	Columns    []string
	Rows       []Row
	CapturedAt time.Time
}

// EmptySnapshot returns a zero-row snapshot with no declared columns; this
// is a legal baseline before the initial sync has run.
func EmptySnapshot() Snapshot {
	return Snapshot{}
}

// HasColumn reports whether the named column is declared on this snapshot.
func (s Snapshot) HasColumn(column string) bool {
	for _, c := range s.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// IndexByPK builds a pk-string -> Row lookup over the snapshot's rows,
// using pkColumn's canonical string projection as the key. When a primary
// key repeats, the first occurrence wins and every subsequent repeat is
// returned in dupes — duplicates are reported, never rejected outright.
func (s Snapshot) IndexByPK(pkColumn string) (byPK map[string]Row, order []string, dupes []string) {
	byPK = make(map[string]Row, len(s.Rows))
	order = make([]string, 0, len(s.Rows))
	for _, row := range s.Rows {
		pk := row.Get(pkColumn).String()
		if _, seen := byPK[pk]; seen {
			dupes = append(dupes, pk)
			continue
		}
		byPK[pk] = row
		order = append(order, pk)
	}
	return byPK, order, dupes
}
