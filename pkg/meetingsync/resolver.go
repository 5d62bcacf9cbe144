package meetingsync

import (
	"context"
	"fmt"

	"github.com/otherjamesbrown/recap-cli/pkg/errors"
	"github.com/otherjamesbrown/recap-cli/pkg/logging"
)

// Resolver infers the conferencing-resource ID for a calendar event from its
// join URL. The remote system sometimes mutates the query string of a join URL
// between event creation and resource creation, so exact match alone misses
// real matches; a query-stripped prefix match recovers most of those while the
// full un-queried path bounds false positives. The heuristic order is part of
// the contract: exact always wins.
type Resolver struct {
	conferencing ConferencingProvider
	logger       logging.Logger
}

// NewResolver creates a Resolver backed by the given conferencing provider.
func NewResolver(conferencing ConferencingProvider, logger logging.Logger) *Resolver {
	return &Resolver{
		conferencing: conferencing,
		logger:       logger.With(logging.F("component", "resolver")),
	}
}

// Resolve returns the conferencing-resource ID for the organizer's join URL,
// or errors.ErrNotFound when neither heuristic matches. Not finding a resource
// is an expected branch for this sync pass, not a failure.
func (r *Resolver) Resolve(ctx context.Context, organizerID, joinURL string) (string, error) {
	if joinURL == "" {
		return "", errors.ErrNotFound
	}

	// Step 1: exact join-URL equality.
	resourceID, err := r.conferencing.FindResourceByJoinURL(ctx, organizerID, joinURL, true)
	if err == nil {
		return resourceID, nil
	}
	if !errors.IsNotFound(err) {
		return "", fmt.Errorf("exact join-URL lookup: %w", err)
	}

	// Step 2: query-stripped prefix match. Even when the event URL carries no
	// query string this is not redundant: the stored resource URL may have
	// grown extra parameters, which startswith still matches.
	prefix := stripQuery(joinURL)
	resourceID, err = r.conferencing.FindResourceByJoinURL(ctx, organizerID, prefix, false)
	if err == nil {
		r.logger.Debug("resolved via prefix match",
			logging.F("organizer", organizerID),
			logging.F("prefix", prefix))
		return resourceID, nil
	}
	if !errors.IsNotFound(err) {
		return "", fmt.Errorf("prefix join-URL lookup: %w", err)
	}

	return "", errors.ErrNotFound
}
