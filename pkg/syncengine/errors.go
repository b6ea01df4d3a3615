package syncengine

import "fmt"

// SchemaError means a snapshot is missing the configured primary-key
// column. Fatal for the cycle; the engine stops.
type SchemaError struct {
	Peer   Origin
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("primary key column %q not found on %s snapshot", e.Column, e.Peer)
}

// NewSchemaError builds a SchemaError for the given peer/column.
func NewSchemaError(peer Origin, column string) *SchemaError {
	return &SchemaError{Peer: peer, Column: column}
}

// PeerReadError wraps a failed TableStore.ReadAll. Aborts the current
// cycle; baselines are left untouched.
type PeerReadError struct {
	Peer Origin
	Err  error
}

func (e *PeerReadError) Error() string {
	return fmt.Sprintf("read from %s failed: %v", e.Peer, e.Err)
}

func (e *PeerReadError) Unwrap() error { return e.Err }

func NewPeerReadError(peer Origin, err error) *PeerReadError {
	return &PeerReadError{Peer: peer, Err: err}
}

// PeerWriteError wraps a failed apply (Insert/Update/Delete) against a
// peer mid-cycle. Same abort policy as PeerReadError; any already-applied
// writes to the other peer stay visible and reconverge on a later cycle.
type PeerWriteError struct {
	Peer      Origin
	Operation Operation
	PK        string
	Err       error
}

func (e *PeerWriteError) Error() string {
	return fmt.Sprintf("apply %s pk=%s to %s failed: %v", e.Operation, e.PK, e.Peer, e.Err)
}

func (e *PeerWriteError) Unwrap() error { return e.Err }

func NewPeerWriteError(peer Origin, op Operation, pk string, err error) *PeerWriteError {
	return &PeerWriteError{Peer: peer, Operation: op, PK: pk, Err: err}
}

// TimestampParseError means the configured timestamp column could not be
// parsed with any of the tolerated layouts. Handled locally by the
// resolver — it never escapes to the orchestrator — the database side
// wins and a warning is logged.
type TimestampParseError struct {
	Value string
}

func (e *TimestampParseError) Error() string {
	return fmt.Sprintf("unable to parse timestamp %q", e.Value)
}

// DuplicatePrimaryKeyWarning means a peer's snapshot contained the same
// primary key more than once. Non-fatal: the detector keeps the first
// occurrence and continues. Returned alongside Detector.Detect's changes
// so the orchestrator can surface it via Status rather than only logging it.
type DuplicatePrimaryKeyWarning struct {
	Origin Origin
	PK     string
}

func (e *DuplicatePrimaryKeyWarning) Error() string {
	return fmt.Sprintf("duplicate primary key %q in %s snapshot", e.PK, e.Origin)
}

func NewDuplicatePrimaryKeyWarning(origin Origin, pk string) *DuplicatePrimaryKeyWarning {
	return &DuplicatePrimaryKeyWarning{Origin: origin, PK: pk}
}
