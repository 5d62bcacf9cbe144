package storage

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/recap-cli/pkg/meetingsync"
)

func TestParticipantRows(t *testing.T) {
	event := &meetingsync.CalendarEvent{
		OrganizerEmail: "Alice@Example.com",
		OrganizerName:  "Alice",
		Attendees: []meetingsync.Attendee{
			{Email: "bob@example.com", Name: "Bob", ResponseStatus: "accepted", Present: true},
			{Email: "ALICE@example.com", Name: "Alice A.", ResponseStatus: "accepted", Present: true}, // organizer listed again
			{Email: "carol@example.com", ResponseStatus: "tentative"},
			{Email: ""},
		},
	}

	rows := participantRows(event)
	require.Len(t, rows, 3)

	assert.Equal(t, "alice@example.com", rows[0].email)
	assert.Equal(t, RoleOrganizer, rows[0].role)
	assert.Equal(t, "Alice", rows[0].name)
	// The duplicate attendee entry contributes the organizer's signals.
	assert.Equal(t, "accepted", rows[0].response)
	assert.True(t, rows[0].present)

	assert.Equal(t, "bob@example.com", rows[1].email)
	assert.Equal(t, RoleAttendee, rows[1].role)
	assert.Equal(t, "accepted", rows[1].response)
	assert.True(t, rows[1].present)

	assert.Equal(t, "carol@example.com", rows[2].email)
	assert.Equal(t, "tentative", rows[2].response)
	assert.False(t, rows[2].present)
}

func TestParticipantRowsNoOrganizer(t *testing.T) {
	event := &meetingsync.CalendarEvent{
		Attendees: []meetingsync.Attendee{{Email: "bob@example.com"}},
	}

	rows := participantRows(event)
	require.Len(t, rows, 1)
	assert.Equal(t, RoleAttendee, rows[0].role)
}

func TestTranscriptPayload(t *testing.T) {
	payload, err := transcriptPayload(nil)
	require.NoError(t, err)
	assert.Nil(t, payload)

	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	payload, err = transcriptPayload([]meetingsync.TranscriptDescriptor{
		{ID: "tr-1", CreatedAt: created},
	})
	require.NoError(t, err)
	require.NotNil(t, payload)

	var decoded []meetingsync.TranscriptDescriptor
	require.NoError(t, json.Unmarshal(payload.([]byte), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "tr-1", decoded[0].ID)
	assert.True(t, created.Equal(decoded[0].CreatedAt))
}
