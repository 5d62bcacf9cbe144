package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/otherjamesbrown/recap-cli/pkg/meetingsync"
)

// StartRun inserts the bookkeeping row for a pass that just began.
func (r *Repository) StartRun(ctx context.Context, run *meetingsync.SyncRun) error {
	query := `
		INSERT INTO sync_runs (id, principal, window_start, window_end, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		run.ID, run.Principal, run.WindowStart, run.WindowEnd, run.Status, run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to start sync run: %w", err)
	}
	return nil
}

// CompleteRun records the terminal status and counters for a pass.
func (r *Repository) CompleteRun(ctx context.Context, run *meetingsync.SyncRun) error {
	query := `
		UPDATE sync_runs SET
			status = $2,
			events_fetched = $3,
			online_meetings = $4,
			organizers = $5,
			missing_organizer = $6,
			with_transcript = $7,
			unresolved = $8,
			organizer_failures = $9,
			persist_failures = $10,
			duration_ms = $11,
			completed_at = $12
		WHERE id = $1
	`
	c := run.Counters
	_, err := r.pool.Exec(ctx, query,
		run.ID, run.Status,
		c.EventsFetched, c.OnlineMeetings, c.Organizers, c.MissingOrganizer,
		c.WithTranscript, c.Unresolved, c.OrganizerFailures, c.PersistFailures,
		c.Duration.Milliseconds(), run.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to complete sync run: %w", err)
	}
	return nil
}

// LastRun returns the most recent sync run for a principal, or nil when the
// principal has never synced.
func (r *Repository) LastRun(ctx context.Context, principal string) (*meetingsync.SyncRun, error) {
	query := `
		SELECT id, principal, window_start, window_end, status,
			events_fetched, online_meetings, organizers, missing_organizer,
			with_transcript, unresolved, organizer_failures, persist_failures,
			started_at, COALESCE(completed_at, 'epoch'::timestamptz)
		FROM sync_runs
		WHERE principal = $1
		ORDER BY started_at DESC
		LIMIT 1
	`
	var run meetingsync.SyncRun
	err := r.pool.QueryRow(ctx, query, principal).Scan(
		&run.ID, &run.Principal, &run.WindowStart, &run.WindowEnd, &run.Status,
		&run.Counters.EventsFetched, &run.Counters.OnlineMeetings,
		&run.Counters.Organizers, &run.Counters.MissingOrganizer,
		&run.Counters.WithTranscript, &run.Counters.Unresolved,
		&run.Counters.OrganizerFailures, &run.Counters.PersistFailures,
		&run.StartedAt, &run.CompletedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last sync run: %w", err)
	}
	return &run, nil
}
