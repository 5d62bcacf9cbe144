// Package storage provides database operations for meeting sync.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/otherjamesbrown/recap-cli/pkg/logging"
	"github.com/otherjamesbrown/recap-cli/pkg/meetingsync"
)

// Participant roles on a meeting.
const (
	RoleOrganizer = "organizer"
	RoleAttendee  = "attendee"
)

// Meeting is a persisted meeting row.
type Meeting struct {
	ID                 int64
	ExternalEventID    string
	OnlineMeetingID    string
	Title              string
	StartsAt           time.Time
	EndsAt             time.Time
	OrganizerEmail     string
	JoinURL            string
	HasTranscript      bool
	HasRecording       bool
	AvailabilitySource string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Repository provides database operations for meeting sync. It implements
// meetingsync.Reconciler and meetingsync.RunStore.
type Repository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewRepository creates a new meeting sync repository.
func NewRepository(pool *pgxpool.Pool, logger logging.Logger) *Repository {
	return &Repository{
		pool:   pool,
		logger: logger.With(logging.F("component", "meeting_repository")),
	}
}

// ReconcileMeeting upserts one observed meeting and its participants inside a
// single transaction and returns the meeting row ID. The natural keys are the
// conferencing-resource ID when known and the external event ID otherwise, so
// re-running a pass updates rows in place instead of duplicating them.
func (r *Repository) ReconcileMeeting(ctx context.Context, obs *meetingsync.MeetingObservation) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	meetingID, err := r.upsertMeeting(ctx, tx, obs)
	if err != nil {
		return 0, err
	}

	if err := r.upsertParticipants(ctx, tx, meetingID, &obs.Event); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit reconcile: %w", err)
	}

	r.logger.Debug("Meeting reconciled",
		logging.F("meeting_id", meetingID),
		logging.F("event_id", obs.Event.ID),
		logging.F("resource_id", obs.ResourceID))

	return meetingID, nil
}

// upsertMeeting finds the existing row by resource ID then event ID, and
// inserts or updates accordingly.
func (r *Repository) upsertMeeting(ctx context.Context, tx pgx.Tx, obs *meetingsync.MeetingObservation) (int64, error) {
	existingID, err := findMeetingID(ctx, tx, obs.ResourceID, obs.Event.ID)
	if err != nil {
		return 0, err
	}

	payloadJSON, err := transcriptPayload(obs.Transcripts)
	if err != nil {
		return 0, err
	}

	// online_meeting_id is nullable; an unresolved event stores NULL so the
	// unique index ignores it.
	var resourceID interface{}
	if obs.ResourceID != "" {
		resourceID = obs.ResourceID
	}

	organizer := meetingsync.NormalizeEmail(obs.Event.OrganizerEmail)

	if existingID != 0 {
		query := `
			UPDATE meetings SET
				external_event_id = $2,
				online_meeting_id = COALESCE($3, online_meeting_id),
				title = $4,
				starts_at = $5,
				ends_at = $6,
				organizer_email = $7,
				join_url = $8,
				has_transcript = $9,
				availability_source = $10,
				transcript_payload = $11,
				updated_at = NOW()
			WHERE id = $1
		`
		_, err = tx.Exec(ctx, query,
			existingID,
			obs.Event.ID,
			resourceID,
			obs.Event.Subject,
			obs.Event.Start,
			obs.Event.End,
			organizer,
			obs.Event.JoinURL,
			obs.HasTranscript,
			obs.Source,
			payloadJSON,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to update meeting: %w", err)
		}
		return existingID, nil
	}

	query := `
		INSERT INTO meetings (
			external_event_id, online_meeting_id, title,
			starts_at, ends_at, organizer_email, join_url,
			has_transcript, availability_source, transcript_payload,
			created_at, updated_at
		) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7,
			$8, $9, $10,
			NOW(), NOW()
		)
		RETURNING id
	`

	var meetingID int64
	err = tx.QueryRow(ctx, query,
		obs.Event.ID,
		resourceID,
		obs.Event.Subject,
		obs.Event.Start,
		obs.Event.End,
		organizer,
		obs.Event.JoinURL,
		obs.HasTranscript,
		obs.Source,
		payloadJSON,
	).Scan(&meetingID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert meeting: %w", err)
	}

	return meetingID, nil
}

// findMeetingID looks up an existing meeting, preferring the resource ID over
// the event ID: a rescheduled event keeps its conferencing resource even when
// the calendar assigns it a fresh event ID.
func findMeetingID(ctx context.Context, tx pgx.Tx, resourceID, eventID string) (int64, error) {
	var id int64

	if resourceID != "" {
		err := tx.QueryRow(ctx,
			`SELECT id FROM meetings WHERE online_meeting_id = $1`, resourceID).Scan(&id)
		if err == nil {
			return id, nil
		}
		if err != pgx.ErrNoRows {
			return 0, fmt.Errorf("failed to look up meeting by resource: %w", err)
		}
	}

	err := tx.QueryRow(ctx,
		`SELECT id FROM meetings WHERE external_event_id = $1`, eventID).Scan(&id)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up meeting by event: %w", err)
	}
	return id, nil
}

// participantRow is one person to link to a meeting.
type participantRow struct {
	email    string
	name     string
	role     string
	response string
	present  bool
}

// participantRows flattens an event's organizer and attendees into rows keyed
// by normalized email. The organizer wins when they also appear as an attendee,
// but their attendee entry still contributes the response and presence signals.
func participantRows(event *meetingsync.CalendarEvent) []participantRow {
	index := make(map[string]int)
	var rows []participantRow

	if organizer := meetingsync.NormalizeEmail(event.OrganizerEmail); organizer != "" {
		index[organizer] = len(rows)
		rows = append(rows, participantRow{
			email: organizer,
			name:  event.OrganizerName,
			role:  RoleOrganizer,
		})
	}

	for _, a := range event.Attendees {
		email := meetingsync.NormalizeEmail(a.Email)
		if email == "" {
			continue
		}
		if i, ok := index[email]; ok {
			if rows[i].response == "" {
				rows[i].response = a.ResponseStatus
			}
			rows[i].present = rows[i].present || a.Present
			continue
		}
		index[email] = len(rows)
		rows = append(rows, participantRow{
			email:    email,
			name:     a.Name,
			role:     RoleAttendee,
			response: a.ResponseStatus,
			present:  a.Present,
		})
	}

	return rows
}

// upsertParticipants links the event's people to the meeting. Participants are
// global rows keyed by email; the join table carries the per-meeting role.
func (r *Repository) upsertParticipants(ctx context.Context, tx pgx.Tx, meetingID int64, event *meetingsync.CalendarEvent) error {
	for _, row := range participantRows(event) {
		var participantID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO participants (email, display_name, created_at, updated_at)
			VALUES ($1, $2, NOW(), NOW())
			ON CONFLICT (email) DO UPDATE SET
				display_name = CASE
					WHEN EXCLUDED.display_name <> '' THEN EXCLUDED.display_name
					ELSE participants.display_name
				END,
				updated_at = NOW()
			RETURNING id
		`, row.email, row.name).Scan(&participantID)
		if err != nil {
			return fmt.Errorf("failed to upsert participant %s: %w", row.email, err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO meeting_participants (meeting_id, participant_id, role, response_status, present, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
			ON CONFLICT (meeting_id, participant_id) DO UPDATE SET
				role = EXCLUDED.role,
				response_status = EXCLUDED.response_status,
				present = EXCLUDED.present,
				updated_at = NOW()
		`, meetingID, participantID, row.role, row.response, row.present)
		if err != nil {
			return fmt.Errorf("failed to link participant %s: %w", row.email, err)
		}
	}

	return nil
}

// transcriptPayload serializes descriptors for the JSONB column, NULL when
// there are none.
func transcriptPayload(transcripts []meetingsync.TranscriptDescriptor) (interface{}, error) {
	if len(transcripts) == 0 {
		return nil, nil
	}
	payload, err := json.Marshal(transcripts)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transcript payload: %w", err)
	}
	return payload, nil
}
