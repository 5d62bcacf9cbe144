package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(buf *bytes.Buffer, level Level) Logger {
	return NewLogger(&Config{
		Level:       level,
		ServiceName: "recap-test",
		JSONFormat:  true,
		Output:      buf,
	})
}

func parseLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, LevelInfo)

	log.Info("sync started", F("principal", "alice@example.com"), F("events", 42))

	entry := parseLine(t, &buf)
	assert.Equal(t, "sync started", entry["message"])
	assert.Equal(t, "alice@example.com", entry["principal"])
	assert.Equal(t, float64(42), entry["events"])
	assert.Equal(t, "recap-test", entry["service_name"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, LevelWarn)

	log.Debug("should be dropped")
	log.Info("should be dropped")
	assert.Zero(t, buf.Len())

	log.Warn("kept")
	assert.NotZero(t, buf.Len())
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, LevelInfo)

	child := log.With(F("organizer", "bob@example.com"))
	child.Info("resolved")

	entry := parseLine(t, &buf)
	assert.Equal(t, "bob@example.com", entry["organizer"])
}

func TestLogger_ErrField(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, LevelInfo)

	log.Error("probe failed", Err(errors.New("boom")))

	entry := parseLine(t, &buf)
	assert.Equal(t, "boom", entry["error"])
}

func TestLogger_WithContext(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, LevelInfo)

	ctx := context.WithValue(context.Background(), SyncRunIDKey, "run-123")
	log.WithContext(ctx).Info("pass complete")

	entry := parseLine(t, &buf)
	assert.Equal(t, "run-123", entry["sync_run_id"])
}

func TestNopLogger_Discards(t *testing.T) {
	log := NewNopLogger()
	log.Info("nothing happens")
	assert.Same(t, log, log.With(F("k", "v")))
}
