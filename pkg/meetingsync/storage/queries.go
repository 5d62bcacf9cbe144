package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/otherjamesbrown/recap-cli/pkg/errors"
)

// ListFilter narrows ListMeetings results.
type ListFilter struct {
	WithTranscript bool
	Organizer      string
	Limit          int
}

const meetingColumns = `
	id, external_event_id, COALESCE(online_meeting_id, ''), title,
	COALESCE(starts_at, 'epoch'::timestamptz), COALESCE(ends_at, 'epoch'::timestamptz),
	organizer_email, join_url, has_transcript, has_recording,
	availability_source, created_at, updated_at
`

func scanMeeting(row pgx.Row) (*Meeting, error) {
	var m Meeting
	err := row.Scan(
		&m.ID, &m.ExternalEventID, &m.OnlineMeetingID, &m.Title,
		&m.StartsAt, &m.EndsAt,
		&m.OrganizerEmail, &m.JoinURL, &m.HasTranscript, &m.HasRecording,
		&m.AvailabilitySource, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMeetingByEventID returns the meeting for an external event ID, or
// errors.ErrNotFound.
func (r *Repository) GetMeetingByEventID(ctx context.Context, eventID string) (*Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE external_event_id = $1`
	m, err := scanMeeting(r.pool.QueryRow(ctx, query, eventID))
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("meeting for event %s: %w", eventID, errors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meeting by event: %w", err)
	}
	return m, nil
}

// GetMeetingByResourceID returns the meeting for a conferencing-resource ID,
// or errors.ErrNotFound.
func (r *Repository) GetMeetingByResourceID(ctx context.Context, resourceID string) (*Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE online_meeting_id = $1`
	m, err := scanMeeting(r.pool.QueryRow(ctx, query, resourceID))
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("meeting for resource %s: %w", resourceID, errors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meeting by resource: %w", err)
	}
	return m, nil
}

// ListMeetings returns persisted meetings, newest first.
func (r *Repository) ListMeetings(ctx context.Context, filter ListFilter) ([]*Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE 1=1`
	var args []interface{}

	if filter.WithTranscript {
		query += ` AND has_transcript`
	}
	if filter.Organizer != "" {
		args = append(args, filter.Organizer)
		query += fmt.Sprintf(` AND organizer_email = $%d`, len(args))
	}

	query += ` ORDER BY starts_at DESC NULLS LAST, id DESC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	defer rows.Close()

	var meetings []*Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meeting: %w", err)
		}
		meetings = append(meetings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read meetings: %w", err)
	}

	return meetings, nil
}

// CountMeetings returns the number of persisted meetings.
func (r *Repository) CountMeetings(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM meetings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count meetings: %w", err)
	}
	return count, nil
}
