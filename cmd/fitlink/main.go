package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pedalsmith/fitlink"
	"github.com/pedalsmith/fitlink/export"
)

func main() {
	var (
		fitPath = flag.String("fit", "", "Path to input .fit file")
		userID  = flag.String("user", "", "Owning user id to tag the summary with")
		source  = flag.String("source", "garmin", "Source vendor: garmin|wahoo")
		outPath = flag.String("parquet", "", "Optional parquet output path")
		verbose = flag.Bool("v", false, "Log decode warnings to stderr")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --fit ride.fit [--user u123] [--source garmin|wahoo] [--parquet out.parquet]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if strings.TrimSpace(*fitPath) == "" {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelError
	if *verbose {
		level = slog.LevelWarn
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	data, err := os.ReadFile(*fitPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fitlink failed: %v\n", err)
		os.Exit(1)
	}

	summary := fitlink.Summary{UserID: *userID, Source: *source}
	if err := fitlink.Summarize(data, &summary, log); err != nil {
		fmt.Fprintf(os.Stderr, "fitlink failed: %v\n", err)
		os.Exit(1)
	}

	if *outPath != "" {
		if err := export.WriteFile(*outPath, []fitlink.Summary{summary}); err != nil {
			fmt.Fprintf(os.Stderr, "fitlink failed: %v\n", err)
			os.Exit(1)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		fmt.Fprintf(os.Stderr, "fitlink failed: %v\n", err)
		os.Exit(1)
	}
}
