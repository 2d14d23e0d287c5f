// Package metrics provides Prometheus instrumentation for the fitlink
// ingest daemon.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the daemon's metrics on a private registry so default Go
// collector noise stays out of the scrape.
type Manager struct {
	registry *prometheus.Registry

	filesDecoded  prometheus.Counter
	decodeErrors  prometheus.Counter
	decodeWarns   prometheus.Counter
	decodeSeconds prometheus.Histogram

	summariesStored prometheus.Counter
	matchHits       prometheus.Counter
	matchMisses     prometheus.Counter
}

// New builds a Manager with all metrics registered.
func New() *Manager {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Manager{
		registry: reg,
		filesDecoded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fitlink",
			Name:      "files_decoded_total",
			Help:      "FIT files decoded successfully.",
		}),
		decodeErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fitlink",
			Name:      "decode_errors_total",
			Help:      "FIT files rejected with a fatal format error.",
		}),
		decodeWarns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fitlink",
			Name:      "decode_warnings_total",
			Help:      "Non-fatal integrity warnings across all decoded files.",
		}),
		decodeSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fitlink",
			Name:      "decode_duration_seconds",
			Help:      "Wall time of one decode plus aggregation pass.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		summariesStored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fitlink",
			Name:      "summaries_stored_total",
			Help:      "Summaries persisted to the store.",
		}),
		matchHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fitlink",
			Name:      "match_hits_total",
			Help:      "Activities matched to a stored summary.",
		}),
		matchMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fitlink",
			Name:      "match_misses_total",
			Help:      "Activities with no duration-tolerant candidate.",
		}),
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// FileDecoded records one successful decode with its duration and warning
// count.
func (m *Manager) FileDecoded(elapsed time.Duration, warnings int) {
	m.filesDecoded.Inc()
	m.decodeSeconds.Observe(elapsed.Seconds())
	m.decodeWarns.Add(float64(warnings))
}

// DecodeError records one fatally rejected file.
func (m *Manager) DecodeError() { m.decodeErrors.Inc() }

// SummaryStored records one persisted summary.
func (m *Manager) SummaryStored() { m.summariesStored.Inc() }

// MatchResult records one match attempt outcome.
func (m *Manager) MatchResult(hit bool) {
	if hit {
		m.matchHits.Inc()
		return
	}
	m.matchMisses.Inc()
}
