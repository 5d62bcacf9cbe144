package graph

import (
	"context"
	"fmt"
	"net/url"

	"github.com/otherjamesbrown/recap-cli/pkg/errors"
	"github.com/otherjamesbrown/recap-cli/pkg/meetingsync"
)

// ListTranscripts returns the transcript descriptors available for a
// conferencing resource, possibly empty. The API answers 404 for an unknown
// resource and 403 for one without transcript capability; both mean "no
// transcripts here" and surface as errors.ErrNotFound for the caller to
// normalize. Implements meetingsync.TranscriptProvider.
func (c *Client) ListTranscripts(ctx context.Context, organizerID, resourceID string) ([]meetingsync.TranscriptDescriptor, error) {
	requestURL := fmt.Sprintf("/users/%s/onlineMeetings/%s/transcripts",
		url.PathEscape(organizerID), url.PathEscape(resourceID))

	var page odataList[callTranscript]
	if err := c.getJSON(ctx, requestURL, &page); err != nil {
		if errors.IsForbidden(err) {
			return nil, fmt.Errorf("%w: resource %s has no transcript capability", errors.ErrNotFound, resourceID)
		}
		return nil, err
	}

	descriptors := make([]meetingsync.TranscriptDescriptor, 0, len(page.Value))
	for _, t := range page.Value {
		descriptors = append(descriptors, toTranscriptDescriptor(t))
	}
	return descriptors, nil
}

// TranscriptContent downloads a transcript's content in WebVTT form, suitable
// for the transcript parser.
func (c *Client) TranscriptContent(ctx context.Context, organizerID, resourceID, transcriptID string) ([]byte, error) {
	requestURL := fmt.Sprintf("/users/%s/onlineMeetings/%s/transcripts/%s/content?$format=text/vtt",
		url.PathEscape(organizerID), url.PathEscape(resourceID), url.PathEscape(transcriptID))

	body, err := c.get(ctx, requestURL, "text/vtt")
	if err != nil {
		return nil, fmt.Errorf("downloading transcript %s: %w", transcriptID, err)
	}
	return body, nil
}
