package graph

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/recap-cli/pkg/errors"
)

func TestFindResourceByJoinURLExact(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/users/alice@example.com/onlineMeetings")
		assert.Equal(t, "joinWebUrl eq 'https://teams.example.com/j/1'", r.URL.Query().Get("$filter"))
		w.Write([]byte(`{"value":[{"id":"om-1","joinWebUrl":"https://teams.example.com/j/1"}]}`))
	}))

	id, err := client.FindResourceByJoinURL(context.Background(), "alice@example.com", "https://teams.example.com/j/1", true)
	require.NoError(t, err)
	assert.Equal(t, "om-1", id)
}

func TestFindResourceByJoinURLPrefix(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "startswith(joinWebUrl,'https://teams.example.com/j/2')", r.URL.Query().Get("$filter"))
		w.Write([]byte(`{"value":[{"id":"om-2"}]}`))
	}))

	id, err := client.FindResourceByJoinURL(context.Background(), "alice@example.com", "https://teams.example.com/j/2", false)
	require.NoError(t, err)
	assert.Equal(t, "om-2", id)
}

func TestFindResourceByJoinURLEscapesQuotes(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "joinWebUrl eq 'https://teams.example.com/j/o''brien'", r.URL.Query().Get("$filter"))
		w.Write([]byte(`{"value":[]}`))
	}))

	_, err := client.FindResourceByJoinURL(context.Background(), "a@b.c", "https://teams.example.com/j/o'brien", true)
	assert.True(t, errors.IsNotFound(err))
}

func TestFindResourceByJoinURLEmptyResult(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[]}`))
	}))

	_, err := client.FindResourceByJoinURL(context.Background(), "a@b.c", "https://teams.example.com/j/none", true)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestListTranscripts(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/users/alice@example.com/onlineMeetings/om-1/transcripts")
		w.Write([]byte(`{"value":[
			{"id":"tr-1","createdDateTime":"2025-06-02T10:05:00Z","transcriptContentUrl":"https://graph.example.com/tr-1/content"}
		]}`))
	}))

	descriptors, err := client.ListTranscripts(context.Background(), "alice@example.com", "om-1")
	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	assert.Equal(t, "tr-1", descriptors[0].ID)
	assert.Equal(t, "https://graph.example.com/tr-1/content", descriptors[0].ContentURL)
	assert.False(t, descriptors[0].CreatedAt.IsZero())
}

func TestListTranscriptsPropagatesNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.ListTranscripts(context.Background(), "a@b.c", "om-none")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestListTranscriptsNormalizesForbidden(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":"Forbidden","message":"Transcription is not enabled for this meeting type."}}`))
	}))

	// A resource without transcript capability answers 403. That is absence,
	// not an auth failure, so it must not escalate past the prober.
	_, err := client.ListTranscripts(context.Background(), "a@b.c", "om-channel")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.False(t, errors.IsForbidden(err))
}

func TestTranscriptContent(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/transcripts/tr-1/content")
		assert.Equal(t, "text/vtt", r.URL.Query().Get("$format"))
		w.Write([]byte("WEBVTT\n\n00:00:01.000 --> 00:00:02.000\n<v Alice>Hello</v>\n"))
	}))

	content, err := client.TranscriptContent(context.Background(), "alice@example.com", "om-1", "tr-1")
	require.NoError(t, err)
	assert.Contains(t, string(content), "WEBVTT")
}
