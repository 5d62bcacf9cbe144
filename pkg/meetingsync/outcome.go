package meetingsync

// outcomeStatus tags the result of one resolve+probe attempt. The three error
// scopes (pass, organizer, meeting) are explicit values rather than
// control-flow side effects, so boundaries swallow exactly what they own.
type outcomeStatus string

const (
	// outcomeResolved means the join key resolved to a resource and the
	// transcript probe completed (its list may still be empty).
	outcomeResolved outcomeStatus = "resolved"

	// outcomeUnresolved means neither matching heuristic found a resource.
	// An expected branch: the event is skipped for this pass, not failed.
	outcomeUnresolved outcomeStatus = "unresolved"

	// outcomeFailed means resolve or probe hit a real error. The failure is
	// caught at the organizer boundary.
	outcomeFailed outcomeStatus = "failed"
)

// meetingOutcome is the per-join-key result collected by the fan-in stage.
type meetingOutcome struct {
	joinKey     string
	resourceID  string
	transcripts []TranscriptDescriptor
	status      outcomeStatus
	err         error
}

// organizerOutcome aggregates one organizer group's meeting outcomes. A set
// err means the whole group failed and none of its outcomes enter the cache.
type organizerOutcome struct {
	organizer string
	meetings  []meetingOutcome
	err       error
}
