package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/recap-cli/config"
	"github.com/otherjamesbrown/recap-cli/pkg/meetingsync"
)

func resetSyncFlags() {
	syncPrincipal = ""
	syncDays = 0
	syncFrom = ""
	syncTo = ""
	syncRole = "all"
	syncRequireTranscript = false
	syncLimit = 0
	syncMaxEvents = 0
	syncConcurrency = 0
	syncOutput = ""
}

func TestBuildSyncOptionsDefaults(t *testing.T) {
	resetSyncFlags()
	t.Cleanup(resetSyncFlags)

	cfg := config.DefaultConfig()
	cfg.Graph.Principal = "alice@example.com"

	opts, err := buildSyncOptions(cfg)
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", opts.Principal)
	assert.Equal(t, meetingsync.RoleAll, opts.Role)
	assert.Equal(t, cfg.Sync.MaxEvents, opts.MaxEvents)
	assert.Equal(t, cfg.Sync.OrganizerConcurrency, opts.OrganizerConcurrency)

	window := opts.WindowEnd.Sub(opts.WindowStart)
	assert.InDelta(t, float64(config.DefaultWindowDays), window.Hours()/24, 1)
}

func TestBuildSyncOptionsFlagsWin(t *testing.T) {
	resetSyncFlags()
	t.Cleanup(resetSyncFlags)

	syncPrincipal = "bob@example.com"
	syncDays = 7
	syncRole = "organizer"
	syncRequireTranscript = true
	syncLimit = 10

	cfg := config.DefaultConfig()
	cfg.Graph.Principal = "alice@example.com"

	opts, err := buildSyncOptions(cfg)
	require.NoError(t, err)

	assert.Equal(t, "bob@example.com", opts.Principal)
	assert.Equal(t, meetingsync.RoleOrganizer, opts.Role)
	assert.True(t, opts.RequireTranscript)
	assert.Equal(t, 10, opts.Limit)

	window := opts.WindowEnd.Sub(opts.WindowStart)
	assert.InDelta(t, 7*24, window.Hours(), 1)
}

func TestBuildSyncOptionsExplicitWindow(t *testing.T) {
	resetSyncFlags()
	t.Cleanup(resetSyncFlags)

	syncPrincipal = "alice@example.com"
	syncFrom = "2025-01-01"
	syncTo = "2025-03-01"

	opts, err := buildSyncOptions(config.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), opts.WindowStart)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), opts.WindowEnd)
}

func TestBuildSyncOptionsRequiresPrincipal(t *testing.T) {
	resetSyncFlags()
	t.Cleanup(resetSyncFlags)

	_, err := buildSyncOptions(config.DefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "principal")
}

func TestBuildSyncOptionsRejectsBadDates(t *testing.T) {
	resetSyncFlags()
	t.Cleanup(resetSyncFlags)

	syncPrincipal = "alice@example.com"
	syncFrom = "January 1st"

	_, err := buildSyncOptions(config.DefaultConfig())
	require.Error(t, err)
}

func TestNewSyncCommandStructure(t *testing.T) {
	cmd := NewSyncCommand()
	assert.Equal(t, "sync", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("principal"))
	assert.NotNil(t, cmd.Flags().Lookup("days"))
	assert.NotNil(t, cmd.Flags().Lookup("role"))
	assert.NotNil(t, cmd.Flags().Lookup("require-transcript"))
	assert.NotNil(t, cmd.Flags().Lookup("output"))
}

func TestRenderSyncResultFormats(t *testing.T) {
	resetSyncFlags()
	t.Cleanup(resetSyncFlags)

	result := &meetingsync.Result{RunID: "run-1"}

	for _, format := range []string{"", "json", "yaml"} {
		syncOutput = format
		require.NoError(t, renderSyncResult(config.DefaultConfig(), result))
	}
}
