package obslog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tievenr/sheetsql-sync/pkg/syncengine"
)

var _ syncengine.Logger = (*Logger)(nil)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelInfo, ParseLevel("info"))
	assert.Equal(t, LevelWarn, ParseLevel("warn"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("something-unknown"))
}

func TestLoggerWritesToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.log")
	l := New(LevelInfo, path)

	l.Info("cycle_complete", "cycle_id", "abc", "for_db", 2)
	l.Warn("conflict_resolved", "pk", "7")
	l.Error("peer_read_failed", "peer", "DB")

	assert.FileExists(t, path)
}

func TestLoggerSuppressesBelowMinLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.log")
	l := New(LevelError, path)

	l.Info("should_not_appear")
	l.Warn("should_not_appear_either")
	l.Error("this_one_appears")

	assert.FileExists(t, path)
	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.NotContains(t, string(data), "should_not_appear")
	assert.Contains(t, string(data), "this_one_appears")
}
