package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tievenr/sheetsql-sync/pkg/syncengine"
)

func row(id, name string) syncengine.Row {
	return syncengine.NewRow([]string{"id", "name"}, map[string]syncengine.Cell{
		"id":   syncengine.TextCell(id),
		"name": syncengine.TextCell(name),
	})
}

func TestMemstoreInsertThenReadAll(t *testing.T) {
	s := New("id", []string{"id", "name"})
	require.NoError(t, s.Insert(context.Background(), row("1", "alice")))

	snap, err := s.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, "alice", snap.Rows[0].Get("name").String())
}

func TestMemstoreUpdateMergesColumns(t *testing.T) {
	s := New("id", []string{"id", "name"}).Seed(row("1", "alice"))
	delta := syncengine.NewRow([]string{"name"}, map[string]syncengine.Cell{"name": syncengine.TextCell("alicia")})

	require.NoError(t, s.Update(context.Background(), "1", delta))

	snap, _ := s.ReadAll(context.Background())
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, "alicia", snap.Rows[0].Get("name").String())
}

func TestMemstoreUpdateMissingPKErrors(t *testing.T) {
	s := New("id", []string{"id", "name"})
	delta := syncengine.NewRow([]string{"name"}, map[string]syncengine.Cell{"name": syncengine.TextCell("x")})

	err := s.Update(context.Background(), "missing", delta)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoMatchingRow))
}

func TestMemstoreDelete(t *testing.T) {
	s := New("id", []string{"id", "name"}).Seed(row("1", "alice"), row("2", "bob"))
	require.NoError(t, s.Delete(context.Background(), "1"))

	snap, _ := s.ReadAll(context.Background())
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, "bob", snap.Rows[0].Get("name").String())
}

func TestMemstoreSchema(t *testing.T) {
	s := New("id", []string{"id", "name"})
	s.SetSchema(map[string]string{"id": "text", "name": "text"})

	schema, err := s.Schema(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "text", schema["id"])
}
