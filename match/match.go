// Package match correlates externally-sourced activities with previously
// decoded and stored FIT summaries by start-time window and duration
// tolerance.
package match

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/pedalsmith/fitlink"
	"github.com/pedalsmith/fitlink/store"
)

// SourceFilter scopes a match to one vendor partition, or to the union of
// both.
type SourceFilter string

const (
	SourceAny    SourceFilter = "any"
	SourceGarmin SourceFilter = "garmin"
	SourceWahoo  SourceFilter = "wahoo"
)

// ErrNoMatch means no stored summary satisfied both the start window and the
// duration tolerance. It is an expected outcome, not a failure.
var ErrNoMatch = errors.New("match: no matching summary")

const (
	// startWindow bounds the start-time search to the target start ±1 minute.
	startWindow = time.Minute
	// durationTolerance is how far a candidate's total time may stray from
	// the target duration.
	durationTolerance = 60 * time.Second
	// defaultRetryDelay is the single fixed wait before the one retry that
	// covers ingestion lag.
	defaultRetryDelay = 10 * time.Second
)

// Activity is the externally-sourced target to correlate against.
type Activity struct {
	ID        string
	UserID    string
	StartTime time.Time
	Duration  time.Duration

	// Device is the activity's recorded device string. When a single-vendor
	// query comes back empty and this string names that vendor, the matcher
	// retries once after a fixed delay.
	Device string
}

// Matcher finds the stored summary belonging to an activity.
type Matcher struct {
	store      store.Store
	log        *slog.Logger
	retryDelay time.Duration
}

// New builds a Matcher over the given store.
func New(st store.Store, log *slog.Logger) *Matcher {
	if log == nil {
		log = slog.Default()
	}
	return &Matcher{store: st, log: log, retryDelay: defaultRetryDelay}
}

// Match returns the first stored summary for the activity's user whose start
// time lies within ±1 minute of the activity start and whose total time lies
// within ±60 seconds of the activity duration. Candidates outside the
// duration tolerance are logged and never selected.
func (m *Matcher) Match(ctx context.Context, act Activity, filter SourceFilter) (fitlink.Summary, error) {
	q := store.Query{
		UserID:      act.UserID,
		Sources:     sourcesFor(filter),
		StartAfter:  act.StartTime.Add(-startWindow),
		StartBefore: act.StartTime.Add(startWindow),
	}

	candidates, err := m.store.Search(ctx, q)
	if err != nil {
		return fitlink.Summary{}, err
	}

	if len(candidates) == 0 && m.shouldRetry(act, filter) {
		m.log.Info("no candidates yet, retrying once",
			"activity", act.ID, "source", string(filter), "delay", m.retryDelay)
		if err := sleepCtx(ctx, m.retryDelay); err != nil {
			return fitlink.Summary{}, err
		}
		candidates, err = m.store.Search(ctx, q)
		if err != nil {
			return fitlink.Summary{}, err
		}
	}

	want := act.Duration.Seconds()
	for _, cand := range candidates {
		diff := float64(cand.TotalTimeSeconds) - want
		if diff < 0 {
			diff = -diff
		}
		if diff <= durationTolerance.Seconds() {
			return cand, nil
		}
		m.log.Warn("candidate rejected on duration",
			"activity", act.ID,
			"candidate_seconds", cand.TotalTimeSeconds,
			"target_seconds", int64(want))
	}
	return fitlink.Summary{}, ErrNoMatch
}

// shouldRetry limits the retry to single-vendor queries whose target device
// string names that vendor. An "any" query already covered every partition.
func (m *Matcher) shouldRetry(act Activity, filter SourceFilter) bool {
	if filter == SourceAny || filter == "" {
		return false
	}
	return strings.Contains(strings.ToLower(act.Device), string(filter))
}

func sourcesFor(filter SourceFilter) []string {
	switch filter {
	case SourceGarmin, SourceWahoo:
		return []string{string(filter)}
	default:
		return []string{string(SourceGarmin), string(SourceWahoo)}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
