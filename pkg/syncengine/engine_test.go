package syncengine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tievenr/sheetsql-sync/pkg/clock"
)

// errFakeNoMatchingRow mirrors the real peer adapters' "UPDATE matched zero
// rows" behavior so engine tests see the same not-found failure mode.
var errFakeNoMatchingRow = errors.New("no row matched primary key")

// fakeStore is an in-memory TableStore used to drive the engine under test
// without a real database or spreadsheet.
type fakeStore struct {
	mu      sync.Mutex
	pkCol   string
	columns []string
	rows    map[string]Row

	readErr   error
	insertErr error
	updateErr error
	deleteErr error
}

func newFakeStore(pkCol string, columns []string) *fakeStore {
	return &fakeStore{pkCol: pkCol, columns: columns, rows: map[string]Row{}}
}

func (f *fakeStore) seed(rows ...Row) *fakeStore {
	for _, r := range rows {
		f.rows[r.Get(f.pkCol).String()] = r
	}
	return f
}

func (f *fakeStore) ReadAll(ctx context.Context) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return Snapshot{}, f.readErr
	}
	out := make([]Row, 0, len(f.rows))
	for _, r := range f.rows {
		out = append(out, r.Clone())
	}
	return Snapshot{Columns: f.columns, Rows: out, CapturedAt: time.Now()}, nil
}

func (f *fakeStore) Insert(ctx context.Context, row Row) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.rows[row.Get(f.pkCol).String()] = row.Clone()
	return nil
}

func (f *fakeStore) Update(ctx context.Context, pk string, delta Row) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	existing, ok := f.rows[pk]
	if !ok {
		return fmt.Errorf("update pk=%s: %w", pk, errFakeNoMatchingRow)
	}
	merged := existing.Clone()
	for _, col := range delta.Columns {
		merged.Cells[col] = delta.Get(col)
	}
	f.rows[pk] = merged
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, pk string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.rows, pk)
	return nil
}

func (f *fakeStore) Schema(ctx context.Context) (map[string]string, error) {
	return nil, nil
}

func fakeRow(pk, email, ts string) Row {
	return Row{
		Columns: []string{"id", "email", "last_modified"},
		Cells: map[string]Cell{
			"id":            TextCell(pk),
			"email":         TextCell(email),
			"last_modified": TextCell(ts),
		},
	}
}

func testEngine(db, sheet *fakeStore) (*Engine, *clock.Mock) {
	mockClock := clock.NewMock(time.Date(2026, 1, 14, 10, 0, 0, 0, time.UTC))
	cfg := DefaultEngineConfig()
	cfg.SyncInterval = time.Millisecond
	e := NewEngine(cfg, db, sheet, mockClock, nil)
	return e, mockClock
}

func TestEngineInitialSyncDBSeedsSheet(t *testing.T) {
	cols := []string{"id", "email", "last_modified"}
	db := newFakeStore("id", cols).seed(fakeRow("1", "a@x.com", "2026-01-14 09:00:00"))
	sheet := newFakeStore("id", cols)

	e, _ := testEngine(db, sheet)
	require.NoError(t, e.initialSync(context.Background()))

	snap, err := sheet.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, "a@x.com", snap.Rows[0].Get("email").String())

	_, ok := e.baselines.Baseline(OriginDB)
	assert.True(t, ok)
	_, ok = e.baselines.Baseline(OriginSheet)
	assert.True(t, ok)
}

func TestEngineInitialSyncSheetSeedsDB(t *testing.T) {
	cols := []string{"id", "email", "last_modified"}
	db := newFakeStore("id", cols)
	sheet := newFakeStore("id", cols).seed(fakeRow("7", "b@x.com", "2026-01-14 09:00:00"))

	e, _ := testEngine(db, sheet)
	e.cfg.InitialSyncSource = OriginSheet
	require.NoError(t, e.initialSync(context.Background()))

	snap, err := db.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, "b@x.com", snap.Rows[0].Get("email").String())
}

func TestEngineRunCycleDetectsAndAppliesInsert(t *testing.T) {
	cols := []string{"id", "email", "last_modified"}
	db := newFakeStore("id", cols)
	sheet := newFakeStore("id", cols)

	e, _ := testEngine(db, sheet)
	require.NoError(t, e.initialSync(context.Background()))

	db.rows["2"] = fakeRow("2", "new@x.com", "2026-01-14 10:00:00")

	require.NoError(t, e.runCycle(context.Background()))

	snap, _ := sheet.ReadAll(context.Background())
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, "new@x.com", snap.Rows[0].Get("email").String())
	assert.Equal(t, int64(1), e.Status().CycleCount)
}

// A cycle run against an already-converged pair of peers is a fixed point:
// it detects nothing and applies nothing.
func TestEngineConvergedCycleIsFixedPoint(t *testing.T) {
	cols := []string{"id", "email", "last_modified"}
	db := newFakeStore("id", cols).seed(fakeRow("1", "a@x.com", "2026-01-14 09:00:00"))
	sheet := newFakeStore("id", cols)

	e, _ := testEngine(db, sheet)
	require.NoError(t, e.initialSync(context.Background()))
	require.NoError(t, e.runCycle(context.Background()))

	dbBefore, _ := db.ReadAll(context.Background())
	sheetBefore, _ := sheet.ReadAll(context.Background())

	require.NoError(t, e.runCycle(context.Background()))

	dbAfter, _ := db.ReadAll(context.Background())
	sheetAfter, _ := sheet.ReadAll(context.Background())
	assert.Equal(t, len(dbBefore.Rows), len(dbAfter.Rows))
	assert.Equal(t, len(sheetBefore.Rows), len(sheetAfter.Rows))
	assert.Equal(t, int64(2), e.Status().CycleCount)
}

func TestEngineRunCycleAbortsOnPeerReadError(t *testing.T) {
	cols := []string{"id", "email", "last_modified"}
	db := newFakeStore("id", cols)
	sheet := newFakeStore("id", cols)

	e, _ := testEngine(db, sheet)
	require.NoError(t, e.initialSync(context.Background()))

	baselineBefore, _ := e.baselines.Baseline(OriginDB)
	db.readErr = assert.AnError

	err := e.runCycle(context.Background())
	require.Error(t, err)
	var readErr *PeerReadError
	require.ErrorAs(t, err, &readErr)

	baselineAfter, _ := e.baselines.Baseline(OriginDB)
	assert.Equal(t, len(baselineBefore.Rows), len(baselineAfter.Rows))
}

func TestEngineRunCycleAbortsOnPeerWriteError(t *testing.T) {
	cols := []string{"id", "email", "last_modified"}
	db := newFakeStore("id", cols)
	sheet := newFakeStore("id", cols)

	e, _ := testEngine(db, sheet)
	require.NoError(t, e.initialSync(context.Background()))

	db.rows["9"] = fakeRow("9", "fresh@x.com", "2026-01-14 10:00:00")
	sheet.insertErr = assert.AnError

	err := e.runCycle(context.Background())
	require.Error(t, err)
	var writeErr *PeerWriteError
	require.ErrorAs(t, err, &writeErr)
}

func TestEngineRunCycleAbortsOnUpdateToMissingRow(t *testing.T) {
	cols := []string{"id", "email", "last_modified"}
	db := newFakeStore("id", cols).seed(fakeRow("1", "a@x.com", "2026-01-14 09:00:00"))
	sheet := newFakeStore("id", cols)

	e, _ := testEngine(db, sheet)
	require.NoError(t, e.initialSync(context.Background()))
	require.NoError(t, e.runCycle(context.Background()))

	// Simulate the row having been removed from the sheet out-of-band (not
	// through Delete, so the engine's baseline still reflects it present),
	// then change the db row so the next cycle detects an UPDATE destined
	// for the sheet side against a primary key that no longer exists there.
	delete(sheet.rows, "1")
	db.rows["1"] = fakeRow("1", "a-changed@x.com", "2026-01-14 11:00:00")

	err := e.runCycle(context.Background())
	require.Error(t, err)
	var writeErr *PeerWriteError
	require.ErrorAs(t, err, &writeErr)
	assert.True(t, errors.Is(writeErr, errFakeNoMatchingRow))
}

func TestEngineStartStopLifecycle(t *testing.T) {
	cols := []string{"id", "email", "last_modified"}
	db := newFakeStore("id", cols).seed(fakeRow("1", "a@x.com", "2026-01-14 09:00:00"))
	sheet := newFakeStore("id", cols)

	e, mockClock := testEngine(db, sheet)
	mockClock.SetSleepHook(func(d time.Duration) {})

	require.NoError(t, e.Start(context.Background()))
	assert.True(t, e.Status().Running)

	e.Stop()
	assert.False(t, e.Status().Running)

	// Stop is idempotent.
	e.Stop()
	assert.False(t, e.Status().Running)
}

func TestEngineStartFailsWhenInitialSyncFails(t *testing.T) {
	cols := []string{"id", "email", "last_modified"}
	db := newFakeStore("id", cols)
	db.readErr = assert.AnError
	sheet := newFakeStore("id", cols)

	e, _ := testEngine(db, sheet)
	err := e.Start(context.Background())
	require.Error(t, err)
	assert.False(t, e.Status().Running)
}

func TestEngineStopBeforeStartIsNoop(t *testing.T) {
	cols := []string{"id", "email", "last_modified"}
	e, _ := testEngine(newFakeStore("id", cols), newFakeStore("id", cols))
	e.Stop()
	assert.False(t, e.Status().Running)
}
