package syncengine

import "context"

// TableStore is the peer adapter contract the core depends on. Both
// peers — the database side and the spreadsheet side — implement it; the
// core never knows which concrete adapter it is talking to.
type TableStore interface {
	// ReadAll returns every row, with every column, currently visible on
	// the peer. An empty snapshot is legal.
	ReadAll(ctx context.Context) (Snapshot, error)

	// Insert adds a new row. The caller (the orchestrator) is responsible
	// for primary-key uniqueness; adapters are not required to check it.
	Insert(ctx context.Context, row Row) error

	// Update applies delta to the row identified by pk, touching only the
	// columns present in delta. Implementations silently no-op if pk is
	// absent on the spreadsheet side; the database side returns an error.
	Update(ctx context.Context, pk string, delta Row) error

	// Delete removes the row identified by pk. If the row is already
	// absent it returns nil without error; the adapters in this module
	// log nothing in that case.
	Delete(ctx context.Context, pk string) error

	// Schema returns the declared column -> type mapping. Informational
	// only; never on the hot path of a sync cycle.
	Schema(ctx context.Context) (map[string]string, error)
}
