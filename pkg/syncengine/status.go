package syncengine

import "time"

// Status is a point-in-time copy of the engine's observable state.
// Engine.Status() returns this by value — callers never see a pointer
// into state the loop is concurrently mutating.
type Status struct {
	Running              bool
	CycleCount           int64
	LastCycleAt          time.Time
	ConflictsResolved    int64
	DuplicatePrimaryKeys int64
	LastError            string
}
