package graph

import (
	"time"

	"github.com/otherjamesbrown/recap-cli/pkg/meetingsync"
)

// odataList is the generic paged collection envelope.
type odataList[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"@odata.nextLink,omitempty"`
}

// dateTimeTimeZone is the API's split timestamp representation.
type dateTimeTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// emailAddress is a name/address pair.
type emailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
}

type recipient struct {
	EmailAddress emailAddress `json:"emailAddress"`
}

type attendee struct {
	EmailAddress emailAddress `json:"emailAddress"`
	Status       struct {
		Response string `json:"response,omitempty"`
	} `json:"status"`
}

type onlineMeetingInfo struct {
	JoinURL string `json:"joinUrl,omitempty"`
}

// event is a calendar event as returned by the calendarView endpoint.
type event struct {
	ID              string            `json:"id"`
	Subject         string            `json:"subject"`
	Start           dateTimeTimeZone  `json:"start"`
	End             dateTimeTimeZone  `json:"end"`
	Organizer       recipient         `json:"organizer"`
	Attendees       []attendee        `json:"attendees,omitempty"`
	IsOnlineMeeting bool              `json:"isOnlineMeeting"`
	OnlineMeeting   onlineMeetingInfo `json:"onlineMeeting"`
}

// onlineMeeting is a conferencing resource.
type onlineMeeting struct {
	ID      string `json:"id"`
	JoinURL string `json:"joinWebUrl,omitempty"`
	Subject string `json:"subject,omitempty"`
}

// callTranscript describes a machine transcript attached to an online meeting.
type callTranscript struct {
	ID              string    `json:"id"`
	CreatedDateTime time.Time `json:"createdDateTime"`
	ContentURL      string    `json:"transcriptContentUrl,omitempty"`
}

// graphTimeLayout is the fractional-seconds layout used by dateTimeTimeZone
// values. The API omits the zone suffix; the timeZone field carries it, and
// requests pin it to UTC via the Prefer header.
const graphTimeLayout = "2006-01-02T15:04:05.9999999"

// parseGraphTime parses a dateTimeTimeZone assuming UTC.
func parseGraphTime(v dateTimeTimeZone) time.Time {
	if v.DateTime == "" {
		return time.Time{}
	}
	if t, err := time.Parse(graphTimeLayout, v.DateTime); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse(time.RFC3339, v.DateTime); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

// toCalendarEvent converts a wire event to the sync representation.
func toCalendarEvent(e event) meetingsync.CalendarEvent {
	out := meetingsync.CalendarEvent{
		ID:              e.ID,
		Subject:         e.Subject,
		Start:           parseGraphTime(e.Start),
		End:             parseGraphTime(e.End),
		OrganizerEmail:  e.Organizer.EmailAddress.Address,
		OrganizerName:   e.Organizer.EmailAddress.Name,
		JoinURL:         e.OnlineMeeting.JoinURL,
		IsOnlineMeeting: e.IsOnlineMeeting,
	}
	for _, a := range e.Attendees {
		if a.EmailAddress.Address == "" {
			continue
		}
		out.Attendees = append(out.Attendees, meetingsync.Attendee{
			Email:          a.EmailAddress.Address,
			Name:           a.EmailAddress.Name,
			ResponseStatus: a.Status.Response,
		})
	}
	return out
}

// toTranscriptDescriptor converts a wire transcript to the sync representation.
func toTranscriptDescriptor(t callTranscript) meetingsync.TranscriptDescriptor {
	return meetingsync.TranscriptDescriptor{
		ID:         t.ID,
		CreatedAt:  t.CreatedDateTime,
		ContentURL: t.ContentURL,
	}
}
