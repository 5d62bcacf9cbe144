package graph

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/recap-cli/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		BaseURL: server.URL,
		Tokens:  StaticTokenSource("test-token"),
	})
	require.NoError(t, err)
	return client, server
}

func TestNewClientRequiresTokens(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestClientSendsAuthHeader(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, `outlook.timezone="UTC"`, r.Header.Get("Prefer"))
		w.Write([]byte(`{"value":[]}`))
	}))

	var page odataList[event]
	require.NoError(t, client.getJSON(context.Background(), "/users/me/calendarView", &page))
}

func TestClientStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"unauthorized", http.StatusUnauthorized, errors.IsUnauthorized},
		{"forbidden", http.StatusForbidden, errors.IsForbidden},
		{"not found", http.StatusNotFound, errors.IsNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":{"code":"TestError","message":"nope"}}`))
			}))

			var out map[string]interface{}
			err := client.getJSON(context.Background(), "/whatever", &out)
			require.Error(t, err)
			assert.True(t, tt.check(err))
		})
	}
}

func TestClientRetriesThrottling(t *testing.T) {
	attempts := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"value":[]}`))
	}))

	var page odataList[event]
	require.NoError(t, client.getJSON(context.Background(), "/users/me/calendarView", &page))
	assert.Equal(t, 2, attempts)
}

func TestClientGivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		BaseURL:    server.URL,
		Tokens:     StaticTokenSource("test-token"),
		MaxRetries: 2,
	})
	require.NoError(t, err)

	var out map[string]interface{}
	err = client.getJSON(context.Background(), "/whatever", &out)
	require.Error(t, err)
	assert.True(t, errors.IsRateLimited(err))
	assert.Equal(t, 3, attempts)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, DefaultRetryAfter, parseRetryAfter(""))
	assert.Equal(t, DefaultRetryAfter, parseRetryAfter("soon"))
	assert.Equal(t, 5*time.Second, parseRetryAfter("5"))
	assert.Equal(t, maxRetryAfter, parseRetryAfter("3600"))
}

func TestEscapeODataString(t *testing.T) {
	assert.Equal(t, "plain", escapeODataString("plain"))
	assert.Equal(t, "o''brien", escapeODataString("o'brien"))
}

func TestAPIErrorMessage(t *testing.T) {
	msg := apiErrorMessage([]byte(`{"error":{"code":"Throttled","message":"slow down"}}`))
	assert.Equal(t, "Throttled: slow down", msg)

	msg = apiErrorMessage([]byte("plain text failure"))
	assert.Equal(t, "plain text failure", msg)
}
