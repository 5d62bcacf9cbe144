package meetingsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterOnlineMeetings(t *testing.T) {
	events := []CalendarEvent{
		{ID: "flagged", IsOnlineMeeting: true},
		{ID: "url-only", JoinURL: "https://conf.example.com/j/1"},
		{ID: "plain"},
	}

	online := filterOnlineMeetings(events)
	require.Len(t, online, 2)
	assert.Equal(t, "flagged", online[0].ID)
	assert.Equal(t, "url-only", online[1].ID)
}

func TestGroupByOrganizer(t *testing.T) {
	events := []CalendarEvent{
		{ID: "a1", OrganizerEmail: "Alice@Example.com"},
		{ID: "a2", OrganizerEmail: "alice@example.com"},
		{ID: "b1", OrganizerEmail: "bob@example.com"},
		{ID: "orphan"},
	}

	groups, dropped := groupByOrganizer(events)
	assert.Equal(t, 1, dropped)
	require.Len(t, groups, 2)
	assert.Len(t, groups["alice@example.com"], 2)
	assert.Len(t, groups["bob@example.com"], 1)
}
