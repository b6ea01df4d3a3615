package syncengine

import (
	"errors"
	"testing"
)

func TestSchemaErrorMessage(t *testing.T) {
	err := NewSchemaError(OriginDB, "id")
	if err.Error() != `primary key column "id" not found on DB snapshot` {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestPeerReadErrorUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewPeerReadError(OriginSheet, cause)

	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to find the wrapped cause")
	}
	if err.Error() != "read from SHEET failed: connection refused" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestPeerWriteErrorUnwraps(t *testing.T) {
	cause := errors.New("duplicate key")
	err := NewPeerWriteError(OriginDB, OpInsert, "7", cause)

	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to find the wrapped cause")
	}
	if err.Error() != "apply INSERT pk=7 to DB failed: duplicate key" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestTimestampParseErrorMessage(t *testing.T) {
	err := &TimestampParseError{Value: "not-a-date"}
	if err.Error() != `unable to parse timestamp "not-a-date"` {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestDuplicatePrimaryKeyWarningMessage(t *testing.T) {
	err := NewDuplicatePrimaryKeyWarning(OriginDB, "7")
	if err.Error() != `duplicate primary key "7" in DB snapshot` {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}
