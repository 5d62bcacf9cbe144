package transcript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleVTT = `WEBVTT

00:00:05.579 --> 00:00:06.858
<v Alice Smith>Hello everyone.</v>

00:00:07.100 --> 00:00:09.420
<v Bob Jones>Morning, Alice.</v>

00:00:10.000 --> 00:00:12.500
<v Alice Smith>Let's get started with the roadmap.</v>
`

func TestParseVTT_VoiceTaggedSegments(t *testing.T) {
	result, err := ParseVTT(strings.NewReader(sampleVTT))
	require.NoError(t, err)

	require.Len(t, result.Segments, 3)

	first := result.Segments[0]
	assert.Equal(t, "Alice Smith", first.Speaker)
	assert.Equal(t, "Hello everyone.", first.Text)
	assert.Equal(t, 5579, first.StartMs)
	assert.Equal(t, 6858, first.EndMs)

	assert.Equal(t, "Bob Jones", result.Segments[1].Speaker)
	assert.Equal(t, []string{"Alice Smith", "Bob Jones"}, result.Speakers)
	assert.Equal(t, 12, result.DurationSeconds)
	assert.Equal(t, "Hello everyone. Morning, Alice. Let's get started with the roadmap.", result.FullText)
}

func TestParseVTT_CueIdentifiersAndMultiline(t *testing.T) {
	input := `WEBVTT

7d1f4c2e-0001
00:00:01.000 --> 00:00:03.000
<v Carol>First line
continues here.</v>
`
	result, err := ParseVTT(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, result.Segments, 1)
	assert.Equal(t, "Carol", result.Segments[0].Speaker)
	assert.Equal(t, "First line continues here.", result.Segments[0].Text)
}

func TestParseVTT_NoSpeakerTags(t *testing.T) {
	input := `WEBVTT

00:00:01.000 --> 00:00:02.000
Plain caption text.
`
	result, err := ParseVTT(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, result.Segments, 1)
	assert.Empty(t, result.Segments[0].Speaker)
	assert.Equal(t, "Plain caption text.", result.Segments[0].Text)
	assert.Empty(t, result.Speakers)
}

func TestParseVTT_HourlessTimestamps(t *testing.T) {
	input := `WEBVTT

01:05.250 --> 01:07.000
<v Dave>Short form.</v>
`
	result, err := ParseVTT(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, result.Segments, 1)
	assert.Equal(t, 65250, result.Segments[0].StartMs)
	assert.Equal(t, 67000, result.Segments[0].EndMs)
}

func TestParseVTT_SkipsNotesAndEmptyCues(t *testing.T) {
	input := `WEBVTT

NOTE confidence metadata

00:00:01.000 --> 00:00:02.000

00:00:03.000 --> 00:00:04.000
<v Erin>Kept.</v>
`
	result, err := ParseVTT(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, result.Segments, 1)
	assert.Equal(t, "Kept.", result.Segments[0].Text)
}

func TestParseVTT_Empty(t *testing.T) {
	result, err := ParseVTT(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, result.Segments)
	assert.Zero(t, result.DurationSeconds)
}

func TestParseVTT_StripsResidualMarkup(t *testing.T) {
	input := `WEBVTT

00:00:01.000 --> 00:00:02.000
<v Frank><c.highlight>Styled</c> text.</v>
`
	result, err := ParseVTT(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, result.Segments, 1)
	assert.Equal(t, "Styled text.", result.Segments[0].Text)
}
