// Package config defines the fitlinkd process configuration and its loading
// order: built-in defaults, an optional YAML file, then environment
// variables.
package config

import "time"

// Config contains the ingest daemon configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile, when set, routes logs to a size-rotated file instead of
	// stderr.
	LogFile string `koanf:"log_file"`

	// Addr is the HTTP listen address for the metrics endpoint.
	Addr string `koanf:"addr"`

	// WatchDir is the directory scanned for incoming .fit files.
	WatchDir string `koanf:"watch_dir"`

	// ScanInterval is how often WatchDir is rescanned.
	ScanInterval time.Duration `koanf:"scan_interval"`

	// UserID and Source tag every summary decoded by this daemon instance.
	UserID string `koanf:"user_id"`
	Source string `koanf:"source"`

	// ActivitiesFile optionally points at a JSON file of externally-sourced
	// activities to match decoded summaries against.
	ActivitiesFile string `koanf:"activities_file"`

	// SummaryTTL is how long persisted summaries stay queryable.
	SummaryTTL time.Duration `koanf:"summary_ttl"`
}

// New returns the built-in defaults.
func New() *Config {
	return &Config{
		LogLevel:     "info",
		Addr:         ":9110",
		WatchDir:     "incoming",
		ScanInterval: 30 * time.Second,
		Source:       "garmin",
		SummaryTTL:   48 * time.Hour,
	}
}
