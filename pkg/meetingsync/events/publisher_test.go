package events

import (
	"testing"
	"time"

	"github.com/otherjamesbrown/recap-cli/pkg/meetingsync"
)

func TestBaseEvent(t *testing.T) {
	event := NewBaseEvent("test.event")

	if event.EventType != "test.event" {
		t.Errorf("unexpected event type: %s", event.EventType)
	}
	if event.Source != "recap" {
		t.Errorf("unexpected source: %s", event.Source)
	}
	if event.Version != "1.0" {
		t.Errorf("unexpected version: %s", event.Version)
	}
	if event.Timestamp.IsZero() {
		t.Error("timestamp should not be zero")
	}
}

func TestMeetingSyncedEvent(t *testing.T) {
	event := MeetingSyncedEvent{
		BaseEvent:      NewBaseEvent("meeting.synced"),
		MeetingID:      42,
		EventID:        "evt-1",
		ResourceID:     "om-1",
		OrganizerEmail: "alice@example.com",
		HasTranscript:  true,
		AttendeeCount:  3,
	}

	if event.MeetingID != 42 {
		t.Errorf("unexpected meeting id: %d", event.MeetingID)
	}
	if event.EventType != "meeting.synced" {
		t.Errorf("unexpected event type: %s", event.EventType)
	}
}

func TestSyncCompletedEventDuration(t *testing.T) {
	run := &meetingsync.SyncRun{
		ID:        "run-1",
		Principal: "alice@example.com",
		Status:    meetingsync.RunStatusCompleted,
		Counters: meetingsync.Counters{
			EventsFetched:  10,
			OnlineMeetings: 6,
			Duration:       90 * time.Second,
		},
	}

	event := SyncCompletedEvent{
		BaseEvent:       NewBaseEvent("sync.completed"),
		RunID:           run.ID,
		Principal:       run.Principal,
		Status:          run.Status,
		EventsFetched:   run.Counters.EventsFetched,
		OnlineMeetings:  run.Counters.OnlineMeetings,
		DurationSeconds: run.Counters.Duration.Seconds(),
	}

	if event.DurationSeconds != 90 {
		t.Errorf("unexpected duration: %f", event.DurationSeconds)
	}
	if event.Status != "completed" {
		t.Errorf("unexpected status: %s", event.Status)
	}
}
