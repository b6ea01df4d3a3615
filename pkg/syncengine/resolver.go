package syncengine

import "time"

// timestampLayouts are the tolerant formats accepted for the configured
// timestamp column: "YYYY-MM-DD HH:MM:SS[.ffffff]" and the same with a T
// separator.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &TimestampParseError{Value: value}
}

// Resolver pairs per-key changes across the two sides and applies
// last-write-wins by timestamp. It is stateless per call; the cumulative
// conflict counter lives on the orchestrator, not here.
type Resolver struct {
	TimestampColumn string
	Logger          Logger
}

// NewResolver builds a Resolver keyed on the given timestamp column. A nil
// logger falls back to NopLogger.
func NewResolver(timestampColumn string, logger Logger) *Resolver {
	if logger == nil {
		logger = NopLogger{}
	}
	return &Resolver{TimestampColumn: timestampColumn, Logger: logger}
}

// Resolve pairs sheetChanges and dbChanges by primary key. Changes present
// on only one side pass through unchanged to the opposite side's output.
// Changes present on both sides ("conflicting") are resolved by
// last-write-wins on the timestamp column; ties and missing/unparseable
// timestamps favor the database. It returns (forDB, forSheet) — the
// changes to apply to the database and to the spreadsheet respectively —
// plus the number of conflicts resolved.
func (r *Resolver) Resolve(sheetChanges, dbChanges []Change) (forDB, forSheet []Change, conflicts int) {
	sheetByPK := indexByPK(sheetChanges)
	dbByPK := indexByPK(dbChanges)

	for _, c := range sheetChanges {
		if _, conflicted := dbByPK[c.PrimaryKey]; !conflicted {
			forDB = append(forDB, c)
		}
	}
	for _, c := range dbChanges {
		if _, conflicted := sheetByPK[c.PrimaryKey]; !conflicted {
			forSheet = append(forSheet, c)
		}
	}

	for pk, sheetChange := range sheetByPK {
		dbChange, isConflict := dbByPK[pk]
		if !isConflict {
			continue
		}
		conflicts++

		sheetRaw := sheetChange.Payload.Get(r.TimestampColumn).String()
		dbRaw := dbChange.Payload.Get(r.TimestampColumn).String()

		if sheetRaw == "" || dbRaw == "" {
			r.Logger.Warn("conflict_missing_timestamp", "pk", pk,
				"sheet_timestamp", sheetRaw, "db_timestamp", dbRaw, "winner", "db",
				"discarded_payload", sheetChange.Payload)
			forSheet = append(forSheet, dbChange)
			continue
		}

		sheetTS, sheetErr := parseTimestamp(sheetRaw)
		dbTS, dbErr := parseTimestamp(dbRaw)
		if sheetErr != nil || dbErr != nil {
			r.Logger.Warn("conflict_unparseable_timestamp", "pk", pk,
				"sheet_timestamp", sheetRaw, "db_timestamp", dbRaw, "winner", "db",
				"discarded_payload", sheetChange.Payload)
			forSheet = append(forSheet, dbChange)
			continue
		}

		// Ties go to the database.
		if dbTS.Equal(sheetTS) || dbTS.After(sheetTS) {
			r.Logger.Warn("conflict_resolved", "pk", pk, "winner", "db",
				"db_timestamp", dbRaw, "sheet_timestamp", sheetRaw,
				"discarded_payload", sheetChange.Payload)
			forSheet = append(forSheet, dbChange)
		} else {
			r.Logger.Warn("conflict_resolved", "pk", pk, "winner", "sheet",
				"db_timestamp", dbRaw, "sheet_timestamp", sheetRaw,
				"discarded_payload", dbChange.Payload)
			forDB = append(forDB, sheetChange)
		}
	}

	return forDB, forSheet, conflicts
}

func indexByPK(changes []Change) map[string]Change {
	m := make(map[string]Change, len(changes))
	for _, c := range changes {
		m[c.PrimaryKey] = c
	}
	return m
}
