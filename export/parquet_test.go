package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pedalsmith/fitlink"
)

func sampleSummaries() []fitlink.Summary {
	tss := 50.0
	return []fitlink.Summary{
		{
			UserID:              "u1",
			Source:              "garmin",
			StartTime:           time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
			DistanceKM:          42.2,
			TotalTimeSeconds:    5400,
			TrainingStressScore: &tss,
			Devices:             []string{"garmin.edge530.12345"},
		},
		{
			UserID:           "u1",
			Source:           "wahoo",
			TotalTimeSeconds: 1800,
		},
	}
}

func TestMarshalProducesParquet(t *testing.T) {
	data, err := Marshal(sampleSummaries())
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty parquet output")
	}
	magic := []byte("PAR1")
	if !bytes.HasPrefix(data, magic) || !bytes.HasSuffix(data, magic) {
		t.Fatal("output is not framed as a parquet file")
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summaries.parquet")
	if err := WriteFile(path, sampleSummaries()); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat output: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("empty parquet file")
	}
}
