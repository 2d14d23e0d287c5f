// Package store defines the persistence collaborator used to keep decoded
// activity summaries between ingestion and matching, plus an in-memory
// implementation with TTL expiry.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/pedalsmith/fitlink"
)

// ErrNotFound is returned by Get when no live document has the given key.
var ErrNotFound = errors.New("store: summary not found")

// DefaultTTL is the expiry applied when Set is called with a zero TTL.
// Summaries only need to outlive the matching window.
const DefaultTTL = 48 * time.Hour

// Query selects summaries by owner, source vendor, and start-time range.
// Zero-valued fields are unconstrained; an empty Sources slice matches every
// vendor partition.
type Query struct {
	UserID      string
	Sources     []string
	StartAfter  time.Time
	StartBefore time.Time
}

func (q Query) matches(s fitlink.Summary) bool {
	if q.UserID != "" && s.UserID != q.UserID {
		return false
	}
	if len(q.Sources) > 0 {
		found := false
		for _, src := range q.Sources {
			if s.Source == src {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !q.StartAfter.IsZero() && s.StartTime.Before(q.StartAfter) {
		return false
	}
	if !q.StartBefore.IsZero() && s.StartTime.After(q.StartBefore) {
		return false
	}
	return true
}

// Store is the persistence surface the matcher and the ingest daemon depend
// on. Implementations must be safe for concurrent use.
type Store interface {
	// Search returns every live summary matching the query, ordered by
	// start time ascending.
	Search(ctx context.Context, q Query) ([]fitlink.Summary, error)

	// Get fetches one summary by key, or ErrNotFound.
	Get(ctx context.Context, key string) (fitlink.Summary, error)

	// Set persists a summary under key with the given expiry. An empty key
	// gets a generated one; a zero ttl means DefaultTTL. Returns the key the
	// summary was stored under.
	Set(ctx context.Context, key string, s fitlink.Summary, ttl time.Duration) (string, error)
}
