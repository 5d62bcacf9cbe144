package transcript

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// VTT parsing regular expressions
var (
	// Matches timestamp line: 00:00:05.579 --> 00:00:06.858
	// Hours are optional in WebVTT (05.579 --> 06.858 with MM:SS is legal).
	vttTimestampRegex = regexp.MustCompile(`^(\d{2}:)?(\d{2}):(\d{2})\.(\d{3})\s+-->\s+(\d{2}:)?(\d{2}):(\d{2})\.(\d{3})`)

	// Matches a voice span: <v Speaker Name>text</v>
	vttVoiceRegex = regexp.MustCompile(`<v\s+([^>]*)>(.*?)(?:</v>)?$`)

	// Matches any leftover markup tags like <c> or </v>.
	vttTagRegex = regexp.MustCompile(`</?[^>]+>`)
)

// ParseVTT parses a WebVTT caption track, as produced for online-meeting
// transcripts, into ordered timed segments. Speaker names come from <v> voice
// spans; cues without a voice span produce segments with an empty speaker.
func ParseVTT(r io.Reader) (*Result, error) {
	scanner := bufio.NewScanner(r)
	result := &Result{
		Segments: make([]Segment, 0),
		Speakers: make([]string, 0),
	}

	speakerSet := make(map[string]bool)
	var textBuilder strings.Builder

	var current *Segment
	var lastEndMs int

	flush := func() {
		if current != nil && current.Text != "" {
			result.Segments = append(result.Segments, *current)
			if textBuilder.Len() > 0 {
				textBuilder.WriteString(" ")
			}
			textBuilder.WriteString(current.Text)
		}
		current = nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Blank lines terminate a cue. Skip the header and NOTE blocks.
		if line == "" {
			flush()
			continue
		}
		if line == "WEBVTT" || strings.HasPrefix(line, "WEBVTT ") || strings.HasPrefix(line, "NOTE") {
			continue
		}

		if matches := vttTimestampRegex.FindStringSubmatch(line); matches != nil {
			flush()

			startMs := timestampMs(matches[1], matches[2], matches[3], matches[4])
			endMs := timestampMs(matches[5], matches[6], matches[7], matches[8])

			current = &Segment{StartMs: startMs, EndMs: endMs}
			if endMs > lastEndMs {
				lastEndMs = endMs
			}
			continue
		}

		// Cue identifiers precede the timestamp line; without a current
		// segment there is nothing to attach text to.
		if current == nil {
			continue
		}

		speaker, text := parseCueText(line)
		if speaker != "" {
			current.Speaker = speaker
			if !speakerSet[speaker] {
				speakerSet[speaker] = true
				result.Speakers = append(result.Speakers, speaker)
			}
		}

		if text != "" {
			if current.Text != "" {
				current.Text += " "
			}
			current.Text += text
		}
	}

	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	result.DurationSeconds = lastEndMs / 1000
	result.FullText = textBuilder.String()

	return result, nil
}

// parseCueText extracts the speaker from a <v> voice span and strips any
// remaining markup from the payload text.
func parseCueText(line string) (speaker, text string) {
	if matches := vttVoiceRegex.FindStringSubmatch(line); matches != nil {
		speaker = strings.TrimSpace(matches[1])
		text = matches[2]
	} else {
		text = line
	}

	text = vttTagRegex.ReplaceAllString(text, "")
	return speaker, strings.TrimSpace(text)
}

// timestampMs converts captured timestamp parts to milliseconds. The hours
// group includes a trailing colon when present.
func timestampMs(hours, minutes, seconds, millis string) int {
	h := 0
	if hours != "" {
		h, _ = strconv.Atoi(strings.TrimSuffix(hours, ":"))
	}
	m, _ := strconv.Atoi(minutes)
	s, _ := strconv.Atoi(seconds)
	ms, _ := strconv.Atoi(millis)

	return h*3600000 + m*60000 + s*1000 + ms
}
