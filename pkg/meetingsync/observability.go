package meetingsync

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the name of the tracer for sync operations.
const TracerName = "meetingsync"

// Span attribute keys.
const (
	attrPrincipal = "principal"
	attrRunID     = "sync_run_id"
	attrOrganizer = "organizer"
	attrEvents    = "events"
	attrMeetings  = "meetings"
)

// Span names.
const (
	spanSyncPass     = "meetingsync.pass"
	spanFetchEvents  = "meetingsync.fetch_events"
	spanResolveProbe = "meetingsync.resolve_probe"
	spanPersist      = "meetingsync.persist"
)

// tracer wraps the otel tracer with sync-specific span constructors.
type tracer struct {
	t trace.Tracer
}

func newTracer() *tracer {
	return &tracer{t: otel.Tracer(TracerName)}
}

// startPassSpan starts the root span for one sync pass.
func (t *tracer) startPassSpan(ctx context.Context, principal, runID string) (context.Context, trace.Span) {
	return t.t.Start(ctx, spanSyncPass,
		trace.WithAttributes(
			attribute.String(attrPrincipal, principal),
			attribute.String(attrRunID, runID),
		),
	)
}

// startFetchSpan starts a span for the paginated event fetch.
func (t *tracer) startFetchSpan(ctx context.Context) (context.Context, trace.Span) {
	return t.t.Start(ctx, spanFetchEvents)
}

// startOrganizerSpan starts a span for one organizer group's resolve+probe.
func (t *tracer) startOrganizerSpan(ctx context.Context, organizer string, meetings int) (context.Context, trace.Span) {
	return t.t.Start(ctx, spanResolveProbe,
		trace.WithAttributes(
			attribute.String(attrOrganizer, organizer),
			attribute.Int(attrMeetings, meetings),
		),
	)
}

// startPersistSpan starts a span for the sequential persistence phase.
func (t *tracer) startPersistSpan(ctx context.Context, meetings int) (context.Context, trace.Span) {
	return t.t.Start(ctx, spanPersist,
		trace.WithAttributes(attribute.Int(attrMeetings, meetings)),
	)
}

// recordEventCount annotates a span with the number of events it covered.
func recordEventCount(span trace.Span, n int) {
	span.SetAttributes(attribute.Int(attrEvents, n))
}

// endSpan records err on the span (if any) and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
