package meetingsync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/recap-cli/pkg/logging"
)

func TestProberReturnsDescriptors(t *testing.T) {
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	transcripts := &fakeTranscripts{byResource: map[string][]TranscriptDescriptor{
		"om-1": {{ID: "tr-1", CreatedAt: created}, {ID: "tr-2", CreatedAt: created.Add(time.Hour)}},
	}}
	prober := NewProber(transcripts, logging.NewNopLogger())

	descriptors, err := prober.Probe(context.Background(), "alice@example.com", "om-1")
	require.NoError(t, err)
	require.Len(t, descriptors, 2)
	assert.Equal(t, "tr-1", descriptors[0].ID)
}

func TestProberNormalizesAbsence(t *testing.T) {
	prober := NewProber(&fakeTranscripts{}, logging.NewNopLogger())

	descriptors, err := prober.Probe(context.Background(), "alice@example.com", "om-missing")
	require.NoError(t, err)
	assert.Empty(t, descriptors)
}

func TestProberPropagatesHardErrors(t *testing.T) {
	prober := NewProber(&fakeTranscripts{err: assert.AnError}, logging.NewNopLogger())

	_, err := prober.Probe(context.Background(), "alice@example.com", "om-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}
