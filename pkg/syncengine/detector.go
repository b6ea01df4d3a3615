package syncengine

// Detector computes the list of changes between two snapshots of the same
// peer. It is stateless across calls; PKColumn is fixed at construction
// since both peers are configured with the same primary-key column name.
type Detector struct {
	PKColumn string
	Logger   Logger
}

// NewDetector builds a Detector for the given primary-key column. A nil
// logger falls back to NopLogger.
func NewDetector(pkColumn string, logger Logger) *Detector {
	if logger == nil {
		logger = NopLogger{}
	}
	return &Detector{PKColumn: pkColumn, Logger: logger}
}

// Detect computes the Change list between old and next, tagging every
// change with origin, plus one DuplicatePrimaryKeyWarning per repeated
// primary key in each snapshot. old or next may be the zero Snapshot.
//
// Algorithm:
//  1. a snapshot that has rows must declare the PK column, else
//     SchemaError; a zero-row snapshot is accepted without one.
//  2. extract PK sets via the string projection of the PK cell.
//  3. PKs only in old -> DELETE.
//  4. PKs only in new -> INSERT with the full row as payload.
//  5. PKs in both -> per-column string diff; non-empty diff -> UPDATE
//     with only the changed columns; empty diff emits nothing.
//  6. a PK repeated within a snapshot is warned about once per snapshot
//     and the first occurrence is used; processing continues.
func (d *Detector) Detect(old, next Snapshot, origin Origin) ([]Change, []*DuplicatePrimaryKeyWarning, error) {
	if len(old.Rows) > 0 && !old.HasColumn(d.PKColumn) {
		return nil, nil, NewSchemaError(origin, d.PKColumn)
	}
	if len(next.Rows) > 0 && !next.HasColumn(d.PKColumn) {
		return nil, nil, NewSchemaError(origin, d.PKColumn)
	}

	oldByPK, _, oldDupes := old.IndexByPK(d.PKColumn)
	newByPK, newOrder, newDupes := next.IndexByPK(d.PKColumn)

	var warnings []*DuplicatePrimaryKeyWarning
	oldWarned := map[string]bool{}
	for _, pk := range oldDupes {
		if oldWarned[pk] {
			continue
		}
		oldWarned[pk] = true
		d.Logger.Warn("duplicate_primary_key", "origin", origin, "snapshot", "old", "pk", pk)
		warnings = append(warnings, NewDuplicatePrimaryKeyWarning(origin, pk))
	}
	newWarned := map[string]bool{}
	for _, pk := range newDupes {
		if newWarned[pk] {
			continue
		}
		newWarned[pk] = true
		d.Logger.Warn("duplicate_primary_key", "origin", origin, "snapshot", "new", "pk", pk)
		warnings = append(warnings, NewDuplicatePrimaryKeyWarning(origin, pk))
	}

	var changes []Change
	var inserts, updates, deletes int

	for pk := range oldByPK {
		if _, stillPresent := newByPK[pk]; stillPresent {
			continue
		}
		changes = append(changes, Change{
			Operation:  OpDelete,
			PrimaryKey: pk,
			Payload:    Row{},
			ObservedAt: next.CapturedAt,
			Origin:     origin,
		})
		deletes++
	}

	// Iterate newOrder, not the map, so output order is stable for a given
	// snapshot even though the overall change order is otherwise unspecified.
	for _, pk := range newOrder {
		newRow := newByPK[pk]
		oldRow, existedBefore := oldByPK[pk]

		if !existedBefore {
			changes = append(changes, Change{
				Operation:  OpInsert,
				PrimaryKey: pk,
				Payload:    newRow.Clone(),
				ObservedAt: next.CapturedAt,
				Origin:     origin,
			})
			inserts++
			continue
		}

		delta := diffRows(oldRow, newRow, next.Columns)
		if len(delta.Columns) == 0 {
			continue
		}
		changes = append(changes, Change{
			Operation:  OpUpdate,
			PrimaryKey: pk,
			Payload:    delta,
			ObservedAt: next.CapturedAt,
			Origin:     origin,
		})
		updates++
	}

	d.Logger.Info("changes_detected", "origin", origin, "inserts", inserts, "updates", updates, "deletes", deletes)

	return changes, warnings, nil
}

// diffRows returns a Row containing only the columns whose string-cast
// value differs between old and new.
func diffRows(old, next Row, columns []string) Row {
	cells := make(map[string]Cell)
	var cols []string
	for _, col := range columns {
		oldVal := old.Get(col).String()
		newVal := next.Get(col).String()
		if oldVal != newVal {
			cells[col] = next.Get(col)
			cols = append(cols, col)
		}
	}
	return Row{Columns: cols, Cells: cells}
}
