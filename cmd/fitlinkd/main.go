// Command fitlinkd watches a directory for incoming FIT files, decodes each
// into a tagged summary, persists it, and optionally correlates stored
// summaries against an externally-sourced activities file. Prometheus
// metrics are served over HTTP.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/pedalsmith/fitlink"
	"github.com/pedalsmith/fitlink/config"
	"github.com/pedalsmith/fitlink/match"
	"github.com/pedalsmith/fitlink/metrics"
	"github.com/pedalsmith/fitlink/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fitlinkd failed: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg)
	met := metrics.New()
	st := store.NewMemory()
	matcher := match.New(st, log)

	d := &daemon{
		cfg:     cfg,
		log:     log,
		metrics: met,
		store:   st,
		matcher: matcher,
		done:    make(map[string]struct{}),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", met.Handler())
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}
	go func() {
		log.Info("metrics listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", "err", err)
		}
	}()

	log.Info("watching for fit files",
		"dir", cfg.WatchDir, "interval", cfg.ScanInterval, "source", cfg.Source)
	d.run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	var out io.Writer = os.Stderr
	if cfg.LogFile != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		}
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}

type daemon struct {
	cfg     *config.Config
	log     *slog.Logger
	metrics *metrics.Manager
	store   store.Store
	matcher *match.Matcher

	// done tracks files already ingested this process lifetime so rescans
	// are idempotent.
	done map[string]struct{}
}

func (d *daemon) run(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.ScanInterval)
	defer ticker.Stop()

	d.scan(ctx)
	for {
		select {
		case <-ctx.Done():
			d.log.Info("shutting down")
			return
		case <-ticker.C:
			d.scan(ctx)
			d.matchActivities(ctx)
		}
	}
}

func (d *daemon) scan(ctx context.Context) {
	entries, err := os.ReadDir(d.cfg.WatchDir)
	if err != nil {
		d.log.Error("scan watch dir", "dir", d.cfg.WatchDir, "err", err)
		return
	}
	for _, e := range entries {
		if ctx.Err() != nil {
			return
		}
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".fit") {
			continue
		}
		path := filepath.Join(d.cfg.WatchDir, e.Name())
		if _, seen := d.done[path]; seen {
			continue
		}
		d.ingest(ctx, path)
		d.done[path] = struct{}{}
	}
}

func (d *daemon) ingest(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		d.log.Error("read fit file", "path", path, "err", err)
		return
	}

	summary := fitlink.Summary{UserID: d.cfg.UserID, Source: d.cfg.Source}
	began := time.Now()
	if err := fitlink.Summarize(data, &summary, d.log); err != nil {
		d.metrics.DecodeError()
		d.log.Error("decode fit file", "path", path, "err", err)
		return
	}
	d.metrics.FileDecoded(time.Since(began), len(summary.Warnings))

	key, err := d.store.Set(ctx, "", summary, d.cfg.SummaryTTL)
	if err != nil {
		d.log.Error("persist summary", "path", path, "err", err)
		return
	}
	d.metrics.SummaryStored()
	d.log.Info("summary stored",
		"path", path, "key", key,
		"distance_km", summary.DistanceKM, "total_s", summary.TotalTimeSeconds)
}

// matchActivities reads the configured activities file and reports, per
// activity, whether a stored summary correlates with it.
func (d *daemon) matchActivities(ctx context.Context) {
	if d.cfg.ActivitiesFile == "" {
		return
	}
	activities, err := loadActivities(d.cfg.ActivitiesFile)
	if err != nil {
		d.log.Error("load activities", "path", d.cfg.ActivitiesFile, "err", err)
		return
	}

	for _, act := range activities {
		summary, err := d.matcher.Match(ctx, act, match.SourceFilter(d.cfg.Source))
		switch {
		case errors.Is(err, match.ErrNoMatch):
			d.metrics.MatchResult(false)
			d.log.Info("no match", "activity", act.ID)
		case err != nil:
			d.log.Error("match activity", "activity", act.ID, "err", err)
		default:
			d.metrics.MatchResult(true)
			d.log.Info("matched",
				"activity", act.ID,
				"start", summary.StartTime, "total_s", summary.TotalTimeSeconds)
		}
	}
}

type activityFile struct {
	Activities []activityJSON `json:"activities"`
}

type activityJSON struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	StartTime       time.Time `json:"start_time"`
	DurationSeconds float64   `json:"duration_seconds"`
	Device          string    `json:"device"`
}

func loadActivities(path string) ([]match.Activity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f activityFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	out := make([]match.Activity, 0, len(f.Activities))
	for _, a := range f.Activities {
		out = append(out, match.Activity{
			ID:        a.ID,
			UserID:    a.UserID,
			StartTime: a.StartTime,
			Duration:  time.Duration(a.DurationSeconds * float64(time.Second)),
			Device:    a.Device,
		})
	}
	return out, nil
}
