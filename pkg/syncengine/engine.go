package syncengine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tievenr/sheetsql-sync/pkg/clock"
)

// EngineConfig carries the orchestrator's tunable knobs. It is an explicit
// value threaded through the constructor — there is no package-level
// mutable configuration.
type EngineConfig struct {
	PrimaryKeyColumn  string
	TimestampColumn   string
	SyncInterval      time.Duration
	InitialSyncSource Origin
}

// DefaultEngineConfig returns the built-in defaults: id, last_modified, 5s,
// DB-seeds-sheet.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		PrimaryKeyColumn:  "id",
		TimestampColumn:   "last_modified",
		SyncInterval:      5 * time.Second,
		InitialSyncSource: OriginDB,
	}
}

// Engine orchestrates one cycle: fetch -> detect -> resolve -> apply ->
// commit snapshots. Scheduling is single-threaded cooperative — exactly
// one cycle runs at any instant, driven by a loop goroutine that
// alternates runCycle and an interruptible sleep. Status is safe to read
// concurrently from a control surface while the loop runs.
type Engine struct {
	cfg   EngineConfig
	db    TableStore
	sheet TableStore

	detector  *Detector
	resolver  *Resolver
	baselines *BaselineStore
	clock     clock.Clock
	logger    Logger

	mu      sync.Mutex
	status  Status
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewEngine wires the core against its two peer adapters. clk and logger
// default to clock.System{} and NopLogger when nil.
func NewEngine(cfg EngineConfig, db, sheet TableStore, clk clock.Clock, logger Logger) *Engine {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = NopLogger{}
	}
	return &Engine{
		cfg:       cfg,
		db:        db,
		sheet:     sheet,
		detector:  NewDetector(cfg.PrimaryKeyColumn, logger),
		resolver:  NewResolver(cfg.TimestampColumn, logger),
		baselines: NewBaselineStore(),
		clock:     clk,
		logger:    logger,
	}
}

// Status returns a point-in-time copy of the engine's state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Start performs the initial sync, then spawns the cycle+sleep loop on
// its own goroutine and returns. A failure during the initial sync is
// fatal and is returned synchronously; the loop never starts.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.status.Running {
		e.mu.Unlock()
		e.logger.Warn("sync_already_running")
		return nil
	}
	e.status.Running = true
	e.mu.Unlock()

	if err := e.initialSync(ctx); err != nil {
		e.mu.Lock()
		e.status.Running = false
		e.status.LastError = err.Error()
		e.mu.Unlock()
		e.logger.Error("initial_sync_failed", "error", err)
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancel = cancel
	e.stopped = make(chan struct{})
	e.mu.Unlock()

	go e.loop(loopCtx)
	return nil
}

// Stop requests graceful termination: cancellation is observed at the
// loop head and at the inter-cycle sleep, never mid-cycle. Stop blocks
// until the in-flight cycle, if any, has finished. Idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel := e.cancel
	stopped := e.stopped
	wasRunning := e.status.Running
	e.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	if wasRunning && stopped != nil {
		<-stopped
	}

	e.mu.Lock()
	e.status.Running = false
	cycles := e.status.CycleCount
	conflicts := e.status.ConflictsResolved
	e.mu.Unlock()

	e.logger.Info("sync_engine_stopping", "total_cycles", cycles, "conflicts_resolved", conflicts)
}

func (e *Engine) loop(ctx context.Context) {
	defer close(e.stopped)
	for {
		select {
		case <-ctx.Done():
			e.mu.Lock()
			e.status.Running = false
			e.mu.Unlock()
			return
		default:
		}

		// The cycle runs on a context that Stop cannot cancel, so peer calls
		// already in flight are never aborted mid-cycle.
		if err := e.runCycle(context.WithoutCancel(ctx)); err != nil {
			e.mu.Lock()
			e.status.Running = false
			e.status.LastError = err.Error()
			e.mu.Unlock()
			e.logger.Error("sync_engine_error", "error", err)
			return
		}

		e.clock.Sleep(ctx, e.cfg.SyncInterval)
	}
}

// initialSync performs the one-off unidirectional bulk copy that
// establishes matching baselines.
func (e *Engine) initialSync(ctx context.Context) error {
	source := e.cfg.InitialSyncSource
	target := source.Opposite()

	sourceStore, targetStore := e.db, e.sheet
	if source == OriginSheet {
		sourceStore, targetStore = e.sheet, e.db
	}

	e.logger.Info("initial_sync_start", "source", source, "target", target)

	snap, err := sourceStore.ReadAll(ctx)
	if err != nil {
		return NewPeerReadError(source, err)
	}

	if err := overwriteAll(ctx, targetStore, snap, e.cfg.PrimaryKeyColumn); err != nil {
		return NewPeerWriteError(target, OpInsert, "", err)
	}

	snap.CapturedAt = e.clock.Now()
	e.baselines.Install(OriginDB, snap)
	e.baselines.Install(OriginSheet, snap)

	e.logger.Info("initial_sync_complete", "source", source, "rows", len(snap.Rows))
	return nil
}

// overwriteAll clears target's current rows and inserts every row of
// source, so a re-run of initial sync is idempotent.
func overwriteAll(ctx context.Context, target TableStore, source Snapshot, pkColumn string) error {
	existing, err := target.ReadAll(ctx)
	if err != nil {
		return err
	}
	for _, row := range existing.Rows {
		if err := target.Delete(ctx, row.Get(pkColumn).String()); err != nil {
			return err
		}
	}
	for _, row := range source.Rows {
		if err := target.Insert(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

// runCycle performs one fetch -> detect -> resolve -> apply -> commit
// iteration. It returns nil only when every step up to and including
// baseline commit succeeded.
func (e *Engine) runCycle(ctx context.Context) error {
	cycleID := uuid.NewString()
	e.logger.Info("cycle_start", "cycle_id", cycleID)

	dbNow, err := e.db.ReadAll(ctx)
	if err != nil {
		return NewPeerReadError(OriginDB, err)
	}
	sheetNow, err := e.sheet.ReadAll(ctx)
	if err != nil {
		return NewPeerReadError(OriginSheet, err)
	}

	dbBaseline, _ := e.baselines.Baseline(OriginDB)
	sheetBaseline, _ := e.baselines.Baseline(OriginSheet)

	dbChanges, dbDupes, err := e.detector.Detect(dbBaseline, dbNow, OriginDB)
	if err != nil {
		return err
	}
	sheetChanges, sheetDupes, err := e.detector.Detect(sheetBaseline, sheetNow, OriginSheet)
	if err != nil {
		return err
	}

	dbChanges = enrichTimestamps(dbChanges, dbNow, e.cfg.PrimaryKeyColumn, e.cfg.TimestampColumn)
	sheetChanges = enrichTimestamps(sheetChanges, sheetNow, e.cfg.PrimaryKeyColumn, e.cfg.TimestampColumn)

	forDB, forSheet, conflicts := e.resolver.Resolve(sheetChanges, dbChanges)

	// forDB is fully applied before forSheet begins.
	if err := e.apply(ctx, e.db, OriginDB, forDB, cycleID); err != nil {
		return err
	}
	if err := e.apply(ctx, e.sheet, OriginSheet, forSheet, cycleID); err != nil {
		return err
	}

	e.baselines.Install(OriginDB, dbNow)
	e.baselines.Install(OriginSheet, sheetNow)

	e.mu.Lock()
	e.status.CycleCount++
	e.status.LastCycleAt = e.clock.Now()
	e.status.ConflictsResolved += int64(conflicts)
	e.status.DuplicatePrimaryKeys += int64(len(dbDupes) + len(sheetDupes))
	e.mu.Unlock()

	e.logger.Info("cycle_complete", "cycle_id", cycleID,
		"for_db", len(forDB), "for_sheet", len(forSheet), "conflicts", conflicts)
	return nil
}

// enrichTimestamps fills in the timestamp column from the current
// snapshot for INSERT/UPDATE changes, since an UPDATE's delta payload may
// omit it when the timestamp itself didn't change.
func enrichTimestamps(changes []Change, now Snapshot, pkColumn, tsColumn string) []Change {
	index, _, _ := now.IndexByPK(pkColumn)
	out := make([]Change, len(changes))
	for i, c := range changes {
		if c.Operation == OpDelete {
			out[i] = c
			continue
		}
		row, ok := index[c.PrimaryKey]
		if !ok {
			out[i] = c
			continue
		}
		tsCell := row.Get(tsColumn)
		if tsCell.IsNull() {
			out[i] = c
			continue
		}
		out[i] = c.WithColumn(tsColumn, tsCell)
	}
	return out
}

// apply applies changes, in order, to store (peer). Applying to the
// spreadsheet side stamps last_modified to the current wall clock when
// the payload doesn't already carry one.
func (e *Engine) apply(ctx context.Context, store TableStore, peer Origin, changes []Change, cycleID string) error {
	for _, c := range changes {
		payload := c.Payload
		if peer == OriginSheet && (c.Operation == OpInsert || c.Operation == OpUpdate) {
			payload = stampIfMissing(payload, e.cfg.TimestampColumn, e.clock.Now())
		}

		var err error
		switch c.Operation {
		case OpInsert:
			err = store.Insert(ctx, payload)
		case OpUpdate:
			err = store.Update(ctx, c.PrimaryKey, payload)
		case OpDelete:
			err = store.Delete(ctx, c.PrimaryKey)
		}

		if err != nil {
			e.logger.Error("change_apply_failed", "cycle_id", cycleID,
				"operation", c.Operation, "pk", c.PrimaryKey, "peer", peer, "error", err)
			return NewPeerWriteError(peer, c.Operation, c.PrimaryKey, err)
		}
		e.logger.Info("change_applied", "cycle_id", cycleID,
			"operation", c.Operation, "pk", c.PrimaryKey, "peer", peer)
	}
	return nil
}

func stampIfMissing(payload Row, tsColumn string, now time.Time) Row {
	if !payload.Get(tsColumn).IsNull() {
		return payload
	}
	clone := payload.Clone()
	if _, has := clone.Cells[tsColumn]; !has {
		clone.Columns = append(clone.Columns, tsColumn)
	}
	clone.Cells[tsColumn] = TextCell(now.Format(TimestampLayout))
	return clone
}
