package meetingsync

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/otherjamesbrown/recap-cli/pkg/errors"
	"github.com/otherjamesbrown/recap-cli/pkg/logging"
)

// Orchestrator drives one reconciliation pass: fetch, filter, group, parallel
// resolve+probe, match-back, filter, persist, report. It is the only component
// holding cross-cutting control flow and concurrency policy.
type Orchestrator struct {
	calendar   CalendarProvider
	resolver   *Resolver
	prober     *Prober
	reconciler Reconciler
	runs       RunStore  // optional
	publisher  Publisher // optional
	logger     logging.Logger
	metrics    *Metrics // optional
	tracer     *tracer
}

// OrchestratorConfig wires an Orchestrator's collaborators.
type OrchestratorConfig struct {
	Calendar     CalendarProvider
	Conferencing ConferencingProvider
	Transcripts  TranscriptProvider
	Reconciler   Reconciler
	Runs         RunStore
	Publisher    Publisher
	Logger       logging.Logger
	Metrics      *Metrics
}

// NewOrchestrator creates an Orchestrator. Calendar, Conferencing, Transcripts
// and Reconciler are required; Runs, Publisher and Metrics may be nil.
func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if cfg.Calendar == nil {
		return nil, fmt.Errorf("%w: calendar provider is required", errors.ErrValidation)
	}
	if cfg.Conferencing == nil {
		return nil, fmt.Errorf("%w: conferencing provider is required", errors.ErrValidation)
	}
	if cfg.Transcripts == nil {
		return nil, fmt.Errorf("%w: transcript provider is required", errors.ErrValidation)
	}
	if cfg.Reconciler == nil {
		return nil, fmt.Errorf("%w: reconciler is required", errors.ErrValidation)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &Orchestrator{
		calendar:   cfg.Calendar,
		resolver:   NewResolver(cfg.Conferencing, logger),
		prober:     NewProber(cfg.Transcripts, logger),
		reconciler: cfg.Reconciler,
		runs:       cfg.Runs,
		publisher:  cfg.Publisher,
		logger:     logger.With(logging.F("component", "orchestrator")),
		metrics:    cfg.Metrics,
		tracer:     newTracer(),
	}, nil
}

// matchedEntry pairs a matched meeting with its source event so the
// persistence phase can reconstruct the full observation.
type matchedEntry struct {
	event   CalendarEvent
	meeting MatchedMeeting
}

// Sync runs one reconciliation pass for the principal in opts. Partial failure
// is the normal terminal state: scoped failures surface in the counters, and
// only credential or event-fetch failures fail the pass itself. Re-invoking
// Sync with unchanged remote data is a row-count no-op by construction.
func (o *Orchestrator) Sync(ctx context.Context, opts Options) (*Result, error) {
	if err := normalizeOptions(&opts); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	ctx = context.WithValue(ctx, logging.SyncRunIDKey, runID)
	logger := o.logger.WithContext(ctx)

	ctx, span := o.tracer.startPassSpan(ctx, opts.Principal, runID)

	run := &SyncRun{
		ID:          runID,
		Principal:   opts.Principal,
		WindowStart: opts.WindowStart,
		WindowEnd:   opts.WindowEnd,
		Status:      RunStatusRunning,
		StartedAt:   time.Now().UTC(),
	}
	if o.runs != nil {
		if err := o.runs.StartRun(ctx, run); err != nil {
			logger.Warn("failed to record sync run start", logging.Err(err))
		}
	}

	started := time.Now()
	logger.Info("sync pass started",
		logging.F("principal", opts.Principal),
		logging.F("window_start", opts.WindowStart),
		logging.F("window_end", opts.WindowEnd))

	// Step 1: fetch. A failure here is fatal: nothing has been persisted yet
	// and the pass cannot proceed without events.
	fetchCtx, fetchSpan := o.tracer.startFetchSpan(ctx)
	events, err := o.fetchWindow(fetchCtx, opts.Principal, opts.WindowStart, opts.WindowEnd, opts.MaxEvents)
	recordEventCount(fetchSpan, len(events))
	endSpan(fetchSpan, err)
	if err != nil {
		o.failRun(ctx, run, started, logger)
		endSpan(span, err)
		return nil, err
	}

	var counters Counters
	counters.EventsFetched = len(events)

	// Steps 2-3: filter to online meetings and group by organizer.
	online := filterOnlineMeetings(events)
	counters.OnlineMeetings = len(online)

	groups, missingOrganizer := groupByOrganizer(online)
	counters.Organizers = len(groups)
	counters.MissingOrganizer = missingOrganizer

	// Step 4: parallel resolve+probe across organizers, fan-in to the
	// join-key outcome cache.
	cache, failedOrganizers := o.resolveAndProbe(ctx, groups, opts, &counters, logger)

	// Step 5: match every retained event back to its outcome.
	entries := o.matchBack(online, cache, failedOrganizers)
	for i := range entries {
		if entries[i].meeting.HasTranscript {
			counters.WithTranscript++
		}
	}

	// Step 6: caller filters, after matching so counters reflect ground truth.
	entries = applyFilters(entries, opts)

	// Step 7: sequential persistence; per-meeting failures do not abort.
	persistCtx, persistSpan := o.tracer.startPersistSpan(ctx, len(entries))
	meetings := o.persist(persistCtx, entries, &counters, logger)
	endSpan(persistSpan, nil)

	// Step 8: report.
	counters.Duration = time.Since(started)
	o.metrics.observe(&counters)

	run.Status = RunStatusCompleted
	run.Counters = counters
	run.CompletedAt = time.Now().UTC()
	if o.runs != nil {
		if err := o.runs.CompleteRun(ctx, run); err != nil {
			logger.Warn("failed to record sync run completion", logging.Err(err))
		}
	}
	if o.publisher != nil {
		if err := o.publisher.SyncCompleted(ctx, run); err != nil {
			logger.Warn("failed to publish sync completion", logging.Err(err))
		}
	}

	logger.Info("sync pass completed",
		logging.F("events_fetched", counters.EventsFetched),
		logging.F("online_meetings", counters.OnlineMeetings),
		logging.F("organizers", counters.Organizers),
		logging.F("with_transcript", counters.WithTranscript),
		logging.F("organizer_failures", counters.OrganizerFailures),
		logging.F("persist_failures", counters.PersistFailures),
		logging.F("duration", counters.Duration))

	endSpan(span, nil)

	return &Result{
		RunID:    runID,
		Meetings: meetings,
		Counters: counters,
	}, nil
}

// normalizeOptions validates opts and applies defaults in place.
func normalizeOptions(opts *Options) error {
	if strings.TrimSpace(opts.Principal) == "" {
		return fmt.Errorf("%w: principal is required", errors.ErrValidation)
	}
	if opts.Role == "" {
		opts.Role = RoleAll
	}
	if !opts.Role.IsValid() {
		return fmt.Errorf("%w: invalid role filter %q", errors.ErrValidation, opts.Role)
	}
	if opts.WindowEnd.IsZero() {
		opts.WindowEnd = time.Now().UTC()
	}
	if opts.WindowStart.IsZero() {
		opts.WindowStart = opts.WindowEnd.AddDate(0, 0, -DefaultWindowDays)
	}
	if !opts.WindowStart.Before(opts.WindowEnd) {
		return fmt.Errorf("%w: window start must precede window end", errors.ErrValidation)
	}
	if opts.MaxEvents <= 0 {
		opts.MaxEvents = DefaultMaxEvents
	}
	if opts.OrganizerConcurrency <= 0 {
		opts.OrganizerConcurrency = DefaultOrganizerConcurrency
	}
	if opts.MeetingConcurrency <= 0 {
		opts.MeetingConcurrency = DefaultMeetingConcurrency
	}
	if opts.Limit < 0 {
		opts.Limit = 0
	}
	return nil
}

// fetchWindow pages through the calendar until provider exhaustion or the
// event ceiling.
func (o *Orchestrator) fetchWindow(ctx context.Context, principal string, start, end time.Time, maxEvents int) ([]CalendarEvent, error) {
	var all []CalendarEvent
	cursor := ""
	for {
		events, next, err := o.calendar.ListEvents(ctx, principal, start, end, cursor)
		if err != nil {
			return nil, fmt.Errorf("fetching calendar events for %s: %w", principal, err)
		}
		all = append(all, events...)

		if len(all) >= maxEvents {
			o.logger.Warn("event ceiling reached, truncating fetch",
				logging.F("principal", principal),
				logging.F("max_events", maxEvents))
			all = all[:maxEvents]
			break
		}
		if next == "" {
			break
		}
		cursor = next
	}
	return all, nil
}

// organizerWork is one unit of fan-out across organizers.
type organizerWork struct {
	organizer string
	events    []CalendarEvent
}

// resolveAndProbe runs the two-level fan-out and assembles the join-key
// outcome cache in a single collector, so no shared map needs locking.
// It returns the cache plus the set of organizers whose group failed.
func (o *Orchestrator) resolveAndProbe(
	ctx context.Context,
	groups map[string][]CalendarEvent,
	opts Options,
	counters *Counters,
	logger logging.Logger,
) (map[string]meetingOutcome, map[string]bool) {
	cache := make(map[string]meetingOutcome)
	failed := make(map[string]bool)
	if len(groups) == 0 {
		return cache, failed
	}

	workCh := make(chan organizerWork, len(groups))
	resultsCh := make(chan organizerOutcome, len(groups))

	var wg sync.WaitGroup
	for i := 0; i < opts.OrganizerConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for work := range workCh {
				resultsCh <- o.processOrganizer(ctx, work, opts.MeetingConcurrency)
			}
		}()
	}

	for organizer, events := range groups {
		workCh <- organizerWork{organizer: organizer, events: events}
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	// Single collector: each join key is written exactly once.
	for oc := range resultsCh {
		if oc.err != nil {
			// Organizer-scoped boundary: log with context, count, continue
			// with all other organizers.
			counters.OrganizerFailures++
			failed[oc.organizer] = true
			logger.Error("organizer group failed",
				logging.F("organizer", oc.organizer),
				logging.Err(oc.err))
			continue
		}
		for _, mo := range oc.meetings {
			switch mo.status {
			case outcomeResolved:
				cache[mo.joinKey] = mo
			case outcomeUnresolved:
				counters.Unresolved++
				logger.Debug("no conferencing resource for join URL",
					logging.F("organizer", oc.organizer),
					logging.F("join_key", mo.joinKey))
			}
		}
	}

	return cache, failed
}

// joinKeyWork is one unit of fan-out within an organizer group: a unique
// normalized join key and a representative raw URL to resolve with.
type joinKeyWork struct {
	key string
	url string
}

// processOrganizer resolves and probes every distinct join key in one
// organizer's group. Any hard resolve/probe error fails the whole group.
func (o *Orchestrator) processOrganizer(ctx context.Context, work organizerWork, concurrency int) organizerOutcome {
	ctx, span := o.tracer.startOrganizerSpan(ctx, work.organizer, len(work.events))

	// Recurring series share a join URL; resolve each distinct key once.
	seen := make(map[string]bool)
	var keys []joinKeyWork
	for _, e := range work.events {
		key := NormalizeJoinKey(e.JoinURL)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, joinKeyWork{key: key, url: e.JoinURL})
	}

	outcome := organizerOutcome{organizer: work.organizer}
	if len(keys) == 0 {
		endSpan(span, nil)
		return outcome
	}

	workCh := make(chan joinKeyWork, len(keys))
	resultsCh := make(chan meetingOutcome, len(keys))

	if concurrency > len(keys) {
		concurrency = len(keys)
	}

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for kw := range workCh {
				resultsCh <- o.resolveAndProbeOne(ctx, work.organizer, kw)
			}
		}()
	}

	for _, kw := range keys {
		workCh <- kw
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	for mo := range resultsCh {
		if mo.status == outcomeFailed && outcome.err == nil {
			outcome.err = mo.err
		}
		outcome.meetings = append(outcome.meetings, mo)
	}

	if outcome.err != nil {
		// The group boundary owns the failure: none of this organizer's
		// outcomes reach the cache.
		outcome.meetings = nil
	}

	endSpan(span, outcome.err)
	return outcome
}

// resolveAndProbeOne resolves a single join key and probes for transcripts.
func (o *Orchestrator) resolveAndProbeOne(ctx context.Context, organizer string, kw joinKeyWork) meetingOutcome {
	if ctx.Err() != nil {
		return meetingOutcome{joinKey: kw.key, status: outcomeFailed, err: ctx.Err()}
	}

	resourceID, err := o.resolver.Resolve(ctx, organizer, kw.url)
	if err != nil {
		if errors.IsNotFound(err) {
			return meetingOutcome{joinKey: kw.key, status: outcomeUnresolved}
		}
		return meetingOutcome{joinKey: kw.key, status: outcomeFailed, err: err}
	}

	transcripts, err := o.prober.Probe(ctx, organizer, resourceID)
	if err != nil {
		return meetingOutcome{joinKey: kw.key, status: outcomeFailed, err: err}
	}

	return meetingOutcome{
		joinKey:     kw.key,
		resourceID:  resourceID,
		transcripts: transcripts,
		status:      outcomeResolved,
	}
}

// matchBack pairs every retained event with its cached outcome. Lookups try
// the exact normalized key and then trailing-slash-insensitive variants; a
// missing cache entry means "no transcript evidence", not an error. Events of
// failed organizer groups are excluded entirely.
func (o *Orchestrator) matchBack(
	online []CalendarEvent,
	cache map[string]meetingOutcome,
	failedOrganizers map[string]bool,
) []matchedEntry {
	entries := make([]matchedEntry, 0, len(online))

	for _, e := range online {
		organizer := NormalizeEmail(e.OrganizerEmail)
		if organizer == "" || failedOrganizers[organizer] {
			continue
		}

		mm := MatchedMeeting{
			EventID:        e.ID,
			Title:          e.Subject,
			Start:          e.Start,
			End:            e.End,
			OrganizerEmail: organizer,
			Attendees:      e.Attendees,
			JoinURL:        e.JoinURL,
		}

		if mo, ok := lookupOutcome(cache, NormalizeJoinKey(e.JoinURL)); ok {
			mm.ResourceID = mo.resourceID
			mm.Transcripts = mo.transcripts
			mm.HasTranscript = len(mo.transcripts) > 0
		}

		entries = append(entries, matchedEntry{event: e, meeting: mm})
	}

	return entries
}

// lookupOutcome tries the exact key and then the trailing-slash variants.
func lookupOutcome(cache map[string]meetingOutcome, key string) (meetingOutcome, bool) {
	if key == "" {
		return meetingOutcome{}, false
	}
	if mo, ok := cache[key]; ok {
		return mo, true
	}
	if mo, ok := cache[joinKeyVariant(key)]; ok {
		return mo, true
	}
	if trimmed := strings.TrimSuffix(key, "/"); trimmed != key {
		if mo, ok := cache[trimmed]; ok {
			return mo, true
		}
	}
	return meetingOutcome{}, false
}

// applyFilters applies the caller's role, transcript and limit filters.
func applyFilters(entries []matchedEntry, opts Options) []matchedEntry {
	principal := NormalizeEmail(opts.Principal)
	filtered := make([]matchedEntry, 0, len(entries))

	for _, entry := range entries {
		switch opts.Role {
		case RoleOrganizer:
			if entry.meeting.OrganizerEmail != principal {
				continue
			}
		case RoleAttendee:
			if entry.meeting.OrganizerEmail == principal {
				continue
			}
		}

		if opts.RequireTranscript && !entry.meeting.HasTranscript {
			continue
		}

		filtered = append(filtered, entry)
		if opts.Limit > 0 && len(filtered) >= opts.Limit {
			break
		}
	}

	return filtered
}

// persist upserts each surviving meeting sequentially. Meeting-scoped
// boundary: a write failure is logged with the event ID and counted, and the
// remaining meetings still persist.
func (o *Orchestrator) persist(ctx context.Context, entries []matchedEntry, counters *Counters, logger logging.Logger) []MatchedMeeting {
	meetings := make([]MatchedMeeting, 0, len(entries))

	for _, entry := range entries {
		obs := &MeetingObservation{
			Event:         entry.event,
			ResourceID:    entry.meeting.ResourceID,
			HasTranscript: entry.meeting.HasTranscript,
			Source:        SourceNone,
			Transcripts:   entry.meeting.Transcripts,
		}
		if entry.meeting.ResourceID != "" {
			obs.Source = SourceTranscriptProbe
		}

		meetingID, err := o.reconciler.ReconcileMeeting(ctx, obs)
		if err != nil {
			counters.PersistFailures++
			logger.Error("failed to persist meeting",
				logging.F("event_id", entry.event.ID),
				logging.Err(err))
			meetings = append(meetings, entry.meeting)
			continue
		}

		entry.meeting.MeetingID = meetingID
		if o.publisher != nil {
			if err := o.publisher.MeetingSynced(ctx, meetingID, &entry.meeting); err != nil {
				logger.Warn("failed to publish meeting event",
					logging.F("meeting_id", meetingID),
					logging.Err(err))
			}
		}
		meetings = append(meetings, entry.meeting)
	}

	return meetings
}

// failRun marks the bookkeeping row failed after a fatal error.
func (o *Orchestrator) failRun(ctx context.Context, run *SyncRun, started time.Time, logger logging.Logger) {
	if o.runs == nil {
		return
	}
	run.Status = RunStatusFailed
	run.Counters.Duration = time.Since(started)
	run.CompletedAt = time.Now().UTC()
	if err := o.runs.CompleteRun(ctx, run); err != nil {
		logger.Warn("failed to record sync run failure", logging.Err(err))
	}
}
