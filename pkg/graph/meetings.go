package graph

import (
	"context"
	"fmt"
	"net/url"

	"github.com/otherjamesbrown/recap-cli/pkg/errors"
)

// FindResourceByJoinURL returns the ID of the organizer's online meeting whose
// join URL equals urlOrPrefix (exact) or starts with it (prefix). The API only
// lets an organizer query their own meetings, which is why lookups carry the
// organizer. Absence is reported as errors.ErrNotFound. Implements
// meetingsync.ConferencingProvider.
func (c *Client) FindResourceByJoinURL(ctx context.Context, organizerID, urlOrPrefix string, exact bool) (string, error) {
	var filter string
	if exact {
		filter = fmt.Sprintf("joinWebUrl eq '%s'", escapeODataString(urlOrPrefix))
	} else {
		filter = fmt.Sprintf("startswith(joinWebUrl,'%s')", escapeODataString(urlOrPrefix))
	}

	query := url.Values{"$filter": {filter}}
	requestURL := fmt.Sprintf("/users/%s/onlineMeetings?%s", url.PathEscape(organizerID), query.Encode())

	var page odataList[onlineMeeting]
	if err := c.getJSON(ctx, requestURL, &page); err != nil {
		return "", fmt.Errorf("finding online meeting: %w", err)
	}

	if len(page.Value) == 0 {
		return "", errors.ErrNotFound
	}
	return page.Value[0].ID, nil
}

// OnlineMeetingJoinURL fetches the stored join URL of a conferencing resource.
func (c *Client) OnlineMeetingJoinURL(ctx context.Context, organizerID, resourceID string) (string, error) {
	requestURL := fmt.Sprintf("/users/%s/onlineMeetings/%s",
		url.PathEscape(organizerID), url.PathEscape(resourceID))

	var m onlineMeeting
	if err := c.getJSON(ctx, requestURL, &m); err != nil {
		return "", fmt.Errorf("getting online meeting %s: %w", resourceID, err)
	}
	return m.JoinURL, nil
}
