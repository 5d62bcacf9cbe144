package meetingsync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/recap-cli/pkg/errors"
	"github.com/otherjamesbrown/recap-cli/pkg/logging"
)

func TestResolverExactMatchWins(t *testing.T) {
	conferencing := &fakeConferencing{
		exact: map[string]string{
			"https://conf.example.com/j/1?p=x": "om-exact",
		},
		prefix: map[string]string{
			"https://conf.example.com/j/1": "om-prefix",
		},
	}
	resolver := NewResolver(conferencing, logging.NewNopLogger())

	id, err := resolver.Resolve(context.Background(), "alice@example.com", "https://conf.example.com/j/1?p=x")
	require.NoError(t, err)
	assert.Equal(t, "om-exact", id)
}

func TestResolverFallsBackToPrefix(t *testing.T) {
	conferencing := &fakeConferencing{
		prefix: map[string]string{
			"https://conf.example.com/j/1": "om-prefix",
		},
	}
	resolver := NewResolver(conferencing, logging.NewNopLogger())

	// Exact misses because the stored URL gained extra query parameters.
	id, err := resolver.Resolve(context.Background(), "alice@example.com", "https://conf.example.com/j/1?p=stale")
	require.NoError(t, err)
	assert.Equal(t, "om-prefix", id)

	// No query string on the event URL either: the prefix probe still runs.
	id, err = resolver.Resolve(context.Background(), "alice@example.com", "https://conf.example.com/j/1")
	require.NoError(t, err)
	assert.Equal(t, "om-prefix", id)
}

func TestResolverNotFound(t *testing.T) {
	resolver := NewResolver(&fakeConferencing{}, logging.NewNopLogger())

	_, err := resolver.Resolve(context.Background(), "alice@example.com", "https://conf.example.com/j/unknown")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	_, err = resolver.Resolve(context.Background(), "alice@example.com", "")
	assert.True(t, errors.IsNotFound(err))
}

func TestResolverPropagatesHardErrors(t *testing.T) {
	conferencing := &fakeConferencing{
		failFor: map[string]error{"alice@example.com": errors.ErrForbidden},
	}
	resolver := NewResolver(conferencing, logging.NewNopLogger())

	_, err := resolver.Resolve(context.Background(), "alice@example.com", "https://conf.example.com/j/1")
	require.Error(t, err)
	assert.True(t, errors.IsForbidden(err))
	assert.False(t, errors.IsNotFound(err))
}
