package meetingsync

import (
	"context"
	"fmt"

	"github.com/otherjamesbrown/recap-cli/pkg/errors"
	"github.com/otherjamesbrown/recap-cli/pkg/logging"
)

// Prober asks whether a transcript exists for a resolved conferencing resource.
// The caller only cares about presence or absence: an empty transcript
// collection and "resource has no transcript capability" both normalize to an
// empty list. Other provider errors propagate as probe failures.
type Prober struct {
	transcripts TranscriptProvider
	logger      logging.Logger
}

// NewProber creates a Prober backed by the given transcript provider.
func NewProber(transcripts TranscriptProvider, logger logging.Logger) *Prober {
	return &Prober{
		transcripts: transcripts,
		logger:      logger.With(logging.F("component", "prober")),
	}
}

// Probe returns the transcript descriptors for the resource, possibly empty.
func (p *Prober) Probe(ctx context.Context, organizerID, resourceID string) ([]TranscriptDescriptor, error) {
	descriptors, err := p.transcripts.ListTranscripts(ctx, organizerID, resourceID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing transcripts for resource %s: %w", resourceID, err)
	}
	return descriptors, nil
}
