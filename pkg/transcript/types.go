// Package transcript parses machine-generated caption tracks for online meetings.
package transcript

// Segment represents a single timed block of a caption track.
type Segment struct {
	Speaker string `json:"speaker,omitempty"`
	Text    string `json:"text"`
	StartMs int    `json:"start_ms"`
	EndMs   int    `json:"end_ms"`
}

// Result is the outcome of parsing a caption track.
type Result struct {
	Segments        []Segment `json:"segments"`
	Speakers        []string  `json:"speakers"`
	DurationSeconds int       `json:"duration_seconds"`
	FullText        string    `json:"full_text"`
}
