package graph

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/otherjamesbrown/recap-cli/pkg/meetingsync"
)

// calendarPageSize is the requested page size for calendarView queries.
const calendarPageSize = 100

// ListEvents returns one page of calendar events for the principal in
// [start, end), plus the cursor for the next page. The cursor is the opaque
// next-page link returned by the API. Implements meetingsync.CalendarProvider.
func (c *Client) ListEvents(ctx context.Context, principal string, start, end time.Time, cursor string) ([]meetingsync.CalendarEvent, string, error) {
	requestURL := cursor
	if requestURL == "" {
		query := url.Values{
			"startDateTime": {start.UTC().Format(time.RFC3339)},
			"endDateTime":   {end.UTC().Format(time.RFC3339)},
			"$top":          {fmt.Sprintf("%d", calendarPageSize)},
			"$orderby":      {"start/dateTime"},
			"$select":       {"id,subject,start,end,organizer,attendees,isOnlineMeeting,onlineMeeting"},
		}
		requestURL = fmt.Sprintf("/users/%s/calendarView?%s", url.PathEscape(principal), query.Encode())
	}

	var page odataList[event]
	if err := c.getJSON(ctx, requestURL, &page); err != nil {
		return nil, "", fmt.Errorf("listing calendar view: %w", err)
	}

	events := make([]meetingsync.CalendarEvent, 0, len(page.Value))
	for _, e := range page.Value {
		events = append(events, toCalendarEvent(e))
	}

	return events, page.NextLink, nil
}
