// Package meetingsync reconciles online-meeting calendar events from a remote
// scheduling service into the local store.
//
// The remote service exposes no stable foreign key between a calendar event and
// its conferencing resource; the link is inferred from the shared join URL using
// an ordered pair of heuristics (exact match, then query-stripped prefix match).
// A sync pass fans out across organizers and meetings, probes each resolved
// resource for transcripts, and upserts the results so that re-running a pass
// never duplicates rows.
package meetingsync

import (
	"context"
	"time"
)

// Attendee is an invitee on a calendar event.
type Attendee struct {
	Email          string `json:"email"`
	Name           string `json:"name,omitempty"`
	ResponseStatus string `json:"response_status,omitempty"`
	// Present records whether the provider observed this person in the
	// meeting. False when the provider exposes no attendance signal.
	Present bool `json:"present,omitempty"`
}

// CalendarEvent is a calendar entry fetched from the remote service.
// Transient: it is consumed to produce a persisted meeting, never stored verbatim.
type CalendarEvent struct {
	ID              string     `json:"id"`
	Subject         string     `json:"subject"`
	Start           time.Time  `json:"start"`
	End             time.Time  `json:"end"`
	OrganizerEmail  string     `json:"organizer_email"`
	OrganizerName   string     `json:"organizer_name,omitempty"`
	Attendees       []Attendee `json:"attendees,omitempty"`
	JoinURL         string     `json:"join_url,omitempty"`
	IsOnlineMeeting bool       `json:"is_online_meeting"`
}

// TranscriptDescriptor is a lightweight record describing an available machine
// transcript for a conferencing resource.
type TranscriptDescriptor struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	ContentURL string    `json:"content_url"`
}

// Availability sources recorded on persisted meetings.
const (
	SourceTranscriptProbe = "transcript_probe"
	SourceNone            = "none"
)

// CalendarProvider lists calendar events for a principal with cursor pagination.
type CalendarProvider interface {
	// ListEvents returns one page of events in [start, end) plus the cursor for
	// the next page, or an empty cursor when the provider is exhausted.
	ListEvents(ctx context.Context, principal string, start, end time.Time, cursor string) ([]CalendarEvent, string, error)
}

// ConferencingProvider resolves conferencing resources by join URL.
type ConferencingProvider interface {
	// FindResourceByJoinURL returns the conferencing-resource ID whose join URL
	// equals urlOrPrefix (exact) or starts with it (prefix). Absence is reported
	// as errors.ErrNotFound.
	FindResourceByJoinURL(ctx context.Context, organizerID, urlOrPrefix string, exact bool) (string, error)
}

// TranscriptProvider lists transcript descriptors for a conferencing resource.
type TranscriptProvider interface {
	// ListTranscripts returns the available transcripts, possibly empty.
	// A resource without transcript capability is reported as errors.ErrNotFound.
	ListTranscripts(ctx context.Context, organizerID, resourceID string) ([]TranscriptDescriptor, error)
}

// MeetingObservation is everything a single sync pass learned about one event.
type MeetingObservation struct {
	Event         CalendarEvent
	ResourceID    string
	HasTranscript bool
	Source        string
	Transcripts   []TranscriptDescriptor
}

// Reconciler upserts one observed meeting and its participants into the store.
type Reconciler interface {
	// ReconcileMeeting returns the persisted meeting's row ID. Calling it twice
	// with the same observation must not create additional rows.
	ReconcileMeeting(ctx context.Context, obs *MeetingObservation) (int64, error)
}

// RunStore records sync-pass bookkeeping rows.
type RunStore interface {
	StartRun(ctx context.Context, run *SyncRun) error
	CompleteRun(ctx context.Context, run *SyncRun) error
}

// Publisher emits downstream notifications for persisted meetings.
type Publisher interface {
	MeetingSynced(ctx context.Context, meetingID int64, m *MatchedMeeting) error
	SyncCompleted(ctx context.Context, run *SyncRun) error
}

// RoleFilter restricts the matched set by the principal's role on the event.
type RoleFilter string

const (
	RoleAll       RoleFilter = "all"
	RoleOrganizer RoleFilter = "organizer"
	RoleAttendee  RoleFilter = "attendee"
)

// IsValid reports whether the role filter is a known value.
func (r RoleFilter) IsValid() bool {
	switch r {
	case RoleAll, RoleOrganizer, RoleAttendee:
		return true
	}
	return false
}

// Options configures a single sync pass.
type Options struct {
	// Principal is the viewer whose calendar window is synced. Required.
	Principal string

	// WindowStart and WindowEnd bound the calendar window. Zero values default
	// to the trailing DefaultWindowDays ending now.
	WindowStart time.Time
	WindowEnd   time.Time

	// MaxEvents caps the total number of fetched events (default DefaultMaxEvents).
	MaxEvents int

	// Role keeps only events where the principal holds the given role.
	Role RoleFilter

	// RequireTranscript drops meetings without transcript evidence.
	RequireTranscript bool

	// Limit truncates the matched set after filtering. Zero means no limit.
	Limit int

	// OrganizerConcurrency and MeetingConcurrency size the two worker pools.
	OrganizerConcurrency int
	MeetingConcurrency   int
}

// Defaults for Options.
const (
	DefaultWindowDays           = 365
	DefaultMaxEvents            = 2000
	DefaultOrganizerConcurrency = 4
	DefaultMeetingConcurrency   = 4
)

// MatchedMeeting is one reconciled meeting in a sync result.
type MatchedMeeting struct {
	EventID        string                 `json:"event_id"`
	Title          string                 `json:"title"`
	Start          time.Time              `json:"start"`
	End            time.Time              `json:"end"`
	OrganizerEmail string                 `json:"organizer_email"`
	Attendees      []Attendee             `json:"attendees,omitempty"`
	JoinURL        string                 `json:"join_url"`
	ResourceID     string                 `json:"resource_id,omitempty"`
	HasTranscript  bool                   `json:"has_transcript"`
	Transcripts    []TranscriptDescriptor `json:"transcripts,omitempty"`
	MeetingID      int64                  `json:"meeting_id,omitempty"`
}

// Counters summarizes what a sync pass saw. Partial success is the normal
// terminal state: failures appear here, not as a failed pass.
type Counters struct {
	EventsFetched     int           `json:"events_fetched"`
	OnlineMeetings    int           `json:"online_meetings"`
	Organizers        int           `json:"organizers"`
	MissingOrganizer  int           `json:"missing_organizer"`
	WithTranscript    int           `json:"with_transcript"`
	Unresolved        int           `json:"unresolved"`
	OrganizerFailures int           `json:"organizer_failures"`
	PersistFailures   int           `json:"persist_failures"`
	Duration          time.Duration `json:"duration"`
}

// SyncRun is the bookkeeping record for one pass.
type SyncRun struct {
	ID          string    `json:"id"`
	Principal   string    `json:"principal"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Status      string    `json:"status"`
	Counters    Counters  `json:"counters"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// Sync-run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Result is the outcome of a sync pass.
type Result struct {
	RunID    string           `json:"run_id"`
	Meetings []MatchedMeeting `json:"meetings"`
	Counters Counters         `json:"counters"`
}
