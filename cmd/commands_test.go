package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMeetingsCommandStructure(t *testing.T) {
	cmd := NewMeetingsCommand()
	assert.Equal(t, "meetings", cmd.Use)

	list, _, err := cmd.Find([]string{"list"})
	require.NoError(t, err)
	assert.NotNil(t, list.Flags().Lookup("with-transcript"))
	assert.NotNil(t, list.Flags().Lookup("organizer"))
	assert.NotNil(t, list.Flags().Lookup("limit"))
}

func TestNewDbCommandStructure(t *testing.T) {
	cmd := NewDbCommand()
	assert.Equal(t, "db", cmd.Use)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("migrations"))

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Use] = true
	}
	assert.True(t, names["migrate"])
	assert.True(t, names["status"])
}

func TestNewAuthCommandStructure(t *testing.T) {
	cmd := NewAuthCommand()
	assert.Equal(t, "auth", cmd.Use)

	set, _, err := cmd.Find([]string{"set"})
	require.NoError(t, err)
	assert.NotNil(t, set.Flags().Lookup("tenant-id"))
	assert.NotNil(t, set.Flags().Lookup("client-id"))
	assert.NotNil(t, set.Flags().Lookup("client-secret"))
	assert.NotNil(t, set.Flags().Lookup("refresh-token"))

	_, _, err = cmd.Find([]string{"show"})
	require.NoError(t, err)
	_, _, err = cmd.Find([]string{"clear"})
	require.NoError(t, err)
}

func TestNewVersionCommandStructure(t *testing.T) {
	cmd := NewVersionCommand()
	assert.Equal(t, "version", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("output"))
}
