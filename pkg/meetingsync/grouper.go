package meetingsync

// isOnlineMeeting reports whether an event corresponds to an online meeting:
// either the provider flagged it or it carries a join URL.
func isOnlineMeeting(e *CalendarEvent) bool {
	return e.IsOnlineMeeting || e.JoinURL != ""
}

// filterOnlineMeetings keeps only events that correspond to online meetings.
func filterOnlineMeetings(events []CalendarEvent) []CalendarEvent {
	online := make([]CalendarEvent, 0, len(events))
	for _, e := range events {
		if isOnlineMeeting(&e) {
			online = append(online, e)
		}
	}
	return online
}

// groupByOrganizer partitions events by normalized organizer email, the unit
// of parallel work in a sync pass. Events with no organizer email cannot be
// resolved and are dropped; the returned count reports how many.
func groupByOrganizer(events []CalendarEvent) (groups map[string][]CalendarEvent, dropped int) {
	groups = make(map[string][]CalendarEvent)
	for _, e := range events {
		organizer := NormalizeEmail(e.OrganizerEmail)
		if organizer == "" {
			dropped++
			continue
		}
		groups[organizer] = append(groups[organizer], e)
	}
	return groups, dropped
}
