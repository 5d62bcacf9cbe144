package graph

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventPage = `{
	"value": [
		{
			"id": "evt-1",
			"subject": "Weekly Review",
			"start": {"dateTime": "2025-06-02T09:00:00.0000000", "timeZone": "UTC"},
			"end": {"dateTime": "2025-06-02T10:00:00.0000000", "timeZone": "UTC"},
			"organizer": {"emailAddress": {"name": "Alice", "address": "alice@example.com"}},
			"attendees": [
				{"emailAddress": {"name": "Bob", "address": "bob@example.com"}, "status": {"response": "accepted"}},
				{"emailAddress": {}, "status": {}}
			],
			"isOnlineMeeting": true,
			"onlineMeeting": {"joinUrl": "https://teams.example.com/l/meetup-join/19%3ameeting_abc"}
		}
	]
}`

func TestListEvents(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/users/alice@example.com/calendarView")
		q := r.URL.Query()
		assert.Equal(t, "2025-06-01T00:00:00Z", q.Get("startDateTime"))
		assert.NotEmpty(t, q.Get("$select"))
		w.Write([]byte(eventPage))
	}))

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	events, next, err := client.ListEvents(context.Background(), "alice@example.com", start, end, "")
	require.NoError(t, err)
	assert.Empty(t, next)
	require.Len(t, events, 1)

	e := events[0]
	assert.Equal(t, "evt-1", e.ID)
	assert.Equal(t, "Weekly Review", e.Subject)
	assert.Equal(t, time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC), e.Start)
	assert.Equal(t, "alice@example.com", e.OrganizerEmail)
	assert.Equal(t, "Alice", e.OrganizerName)
	assert.True(t, e.IsOnlineMeeting)
	assert.Equal(t, "https://teams.example.com/l/meetup-join/19%3ameeting_abc", e.JoinURL)

	// The attendee with no address is dropped.
	require.Len(t, e.Attendees, 1)
	assert.Equal(t, "bob@example.com", e.Attendees[0].Email)
	assert.Equal(t, "accepted", e.Attendees[0].ResponseStatus)
}

func TestListEventsFollowsCursor(t *testing.T) {
	var serverURL string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.Write([]byte(`{"value":[{"id":"evt-2"}]}`))
			return
		}
		fmt.Fprintf(w, `{"value":[{"id":"evt-1"}],"@odata.nextLink":"%s/users/me/calendarView?page=2"}`, serverURL)
	})
	client, server := newTestClient(t, handler)
	serverURL = server.URL

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	events, next, err := client.ListEvents(context.Background(), "me", start, end, "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NotEmpty(t, next)

	events, next, err = client.ListEvents(context.Background(), "me", start, end, next)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "evt-2", events[0].ID)
	assert.Empty(t, next)
}

func TestParseGraphTime(t *testing.T) {
	parsed := parseGraphTime(dateTimeTimeZone{DateTime: "2025-06-02T09:30:15.1234567", TimeZone: "UTC"})
	assert.Equal(t, time.Date(2025, 6, 2, 9, 30, 15, 123456700, time.UTC), parsed)

	parsed = parseGraphTime(dateTimeTimeZone{DateTime: "2025-06-02T09:30:15Z"})
	assert.Equal(t, time.Date(2025, 6, 2, 9, 30, 15, 0, time.UTC), parsed)

	assert.True(t, parseGraphTime(dateTimeTimeZone{}).IsZero())
	assert.True(t, parseGraphTime(dateTimeTimeZone{DateTime: "junk"}).IsZero())
}
