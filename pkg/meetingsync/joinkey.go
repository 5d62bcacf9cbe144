package meetingsync

import (
	"strings"

	"golang.org/x/text/cases"
)

var caseFolder = cases.Fold()

// NormalizeJoinKey canonicalizes a conferencing join URL into the key used to
// correlate independently fetched events and probe results: case-folded, query
// string stripped, a single trailing slash trimmed. An empty input yields an
// empty key. The key is string-based because the remote APIs expose no shared
// surrogate key between a calendar event and its conferencing resource.
func NormalizeJoinKey(joinURL string) string {
	key := strings.TrimSpace(joinURL)
	if key == "" {
		return ""
	}

	key = caseFolder.String(key)

	if i := strings.IndexByte(key, '?'); i >= 0 {
		key = key[:i]
	}

	key = strings.TrimSuffix(key, "/")

	return key
}

// joinKeyVariant returns the trailing-slash-insensitive second-chance lookup
// key for a normalized key: the variant with a trailing slash appended.
// NormalizeJoinKey already trims one slash, so the variant covers cache entries
// written from URLs that carried a doubled slash.
func joinKeyVariant(key string) string {
	if key == "" {
		return ""
	}
	return key + "/"
}

// NormalizeEmail canonicalizes an email address for identity comparison:
// trimmed and case-folded. Participant rows are keyed on this form.
func NormalizeEmail(email string) string {
	return caseFolder.String(strings.TrimSpace(email))
}

// stripQuery returns the join URL with its query string removed, preserving
// the original casing. Used to build the prefix-match probe.
func stripQuery(joinURL string) string {
	if i := strings.IndexByte(joinURL, '?'); i >= 0 {
		return joinURL[:i]
	}
	return joinURL
}
