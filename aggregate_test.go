package fitlink

import (
	"reflect"
	"testing"
	"time"

	"github.com/pedalsmith/fitlink/decode"
	"github.com/pedalsmith/fitlink/profile"
)

var rideStart = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func summarize(t *testing.T, data []byte) Summary {
	t.Helper()
	var s Summary
	if err := Summarize(data, &s, discardLogger()); err != nil {
		t.Fatalf("Summarize error: %v", err)
	}
	return s
}

func TestSummarizeDistanceAndTime(t *testing.T) {
	var f fitFile
	f.def(0, 18,
		[3]byte{253, 4, 0x86},
		[3]byte{2, 4, 0x86},
		[3]byte{7, 4, 0x86},
		[3]byte{9, 4, 0x86},
	)
	// One hour session, 1000 m: elapsed is milliseconds, distance centimeters.
	f.data(0, cat(
		tsBytes(rideStart.Add(time.Hour)),
		tsBytes(rideStart),
		le32(3_600_000),
		le32(100_000),
	)...)

	s := summarize(t, f.encode())

	if s.DistanceKM != 1.0 {
		t.Fatalf("distance: got %v, want 1.0", s.DistanceKM)
	}
	if s.TotalTimeSeconds != 3600 {
		t.Fatalf("total time: got %d, want 3600", s.TotalTimeSeconds)
	}
	if !s.StartTime.Equal(rideStart) {
		t.Fatalf("start time: got %v, want %v", s.StartTime, rideStart)
	}
}

func TestSummarizePausedTime(t *testing.T) {
	var f fitFile
	f.def(0, 21,
		[3]byte{253, 4, 0x86},
		[3]byte{0, 1, 0x00},
		[3]byte{1, 1, 0x00},
	)
	f.data(0, cat(tsBytes(rideStart), []byte{0, 0})...)                      // timer start
	f.data(0, cat(tsBytes(rideStart.Add(100*time.Second)), []byte{0, 4})...) // stop_all
	f.data(0, cat(tsBytes(rideStart.Add(160*time.Second)), []byte{0, 0})...) // start again

	s := summarize(t, f.encode())

	if s.PausedTimeSeconds != 60 {
		t.Fatalf("paused time: got %v, want 60", s.PausedTimeSeconds)
	}
	if s.TotalTimeSeconds != 0 {
		t.Fatalf("paused time must not leak into total time, got %d", s.TotalTimeSeconds)
	}
}

func TestSummarizeFirstNonNullAcrossSessions(t *testing.T) {
	var f fitFile
	f.def(0, 18,
		[3]byte{2, 4, 0x86},
		[3]byte{35, 2, 0x84},
		[3]byte{36, 2, 0x84},
		[3]byte{24, 1, 0x02},
	)
	// First session carries TSS and training effect only; second carries
	// everything. TSS and effect must come from the first, intensity factor
	// from the second.
	f.data(0, cat(tsBytes(rideStart), le16(500), le16(0xFFFF), []byte{33})...)
	f.data(0, cat(tsBytes(rideStart.Add(time.Hour)), le16(800), le16(850), []byte{41})...)

	s := summarize(t, f.encode())

	if s.TrainingStressScore == nil || *s.TrainingStressScore != 50.0 {
		t.Fatalf("tss: got %v, want 50.0", s.TrainingStressScore)
	}
	if s.IntensityFactor == nil || *s.IntensityFactor != 0.85 {
		t.Fatalf("intensity factor: got %v, want 0.85", s.IntensityFactor)
	}
	if s.AerobicTrainingEffect == nil || *s.AerobicTrainingEffect != 3.3 {
		t.Fatalf("training effect: got %v, want 3.3", s.AerobicTrainingEffect)
	}
}

func TestSummarizeSmoothnessFirstSessionWins(t *testing.T) {
	var f fitFile
	f.def(0, 18,
		[3]byte{2, 4, 0x86},
		[3]byte{103, 1, 0x02},
		[3]byte{101, 1, 0x02},
	)
	// Raw values are halves: first session 75% smoothness, 90% torque;
	// second 50% and 80%. The first session's figures must stick.
	f.data(0, cat(tsBytes(rideStart), []byte{150, 180})...)
	f.data(0, cat(tsBytes(rideStart.Add(time.Hour)), []byte{100, 160})...)

	s := summarize(t, f.encode())

	if s.PedalSmoothness == nil || *s.PedalSmoothness != 75 {
		t.Fatalf("smoothness: got %v, want 75 (first session)", s.PedalSmoothness)
	}
	if s.TorqueEffectiveness == nil || *s.TorqueEffectiveness != 90 {
		t.Fatalf("torque effectiveness: got %v, want 90 (first session)", s.TorqueEffectiveness)
	}
}

func TestSummarizeSmoothnessSkipsEmptySessions(t *testing.T) {
	var f fitFile
	f.def(0, 18,
		[3]byte{2, 4, 0x86},
		[3]byte{103, 1, 0x02},
	)
	// First session reports no smoothness at all; the figure comes from the
	// first session that has one.
	f.data(0, cat(tsBytes(rideStart), []byte{0xFF})...)
	f.data(0, cat(tsBytes(rideStart.Add(time.Hour)), []byte{100})...)

	s := summarize(t, f.encode())

	if s.PedalSmoothness == nil || *s.PedalSmoothness != 50 {
		t.Fatalf("smoothness: got %v, want 50", s.PedalSmoothness)
	}
}

func TestSummarizePedalBalance(t *testing.T) {
	build := func(raw uint16) []byte {
		var f fitFile
		f.def(0, 18,
			[3]byte{2, 4, 0x86},
			[3]byte{87, 2, 0x84},
		)
		f.data(0, cat(tsBytes(rideStart), le16(raw))...)
		return f.encode()
	}

	s := summarize(t, build(6000))
	if s.PedalBalance != "L 40% / R 60%" {
		t.Fatalf("balance: got %q, want %q", s.PedalBalance, "L 40% / R 60%")
	}

	s = summarize(t, build(10500))
	if s.PedalBalance != "" {
		t.Fatalf("out-of-range balance must be absent, got %q", s.PedalBalance)
	}

	// Bit 15 flags the calculation side and must not defeat the range check.
	s = summarize(t, build(0x8000 | 6000))
	if s.PedalBalance != "L 40% / R 60%" {
		t.Fatalf("flagged balance: got %q, want %q", s.PedalBalance, "L 40% / R 60%")
	}
}

func TestSummarizeDerivedMetrics(t *testing.T) {
	var f fitFile
	f.def(0, 18,
		[3]byte{2, 4, 0x86},
		[3]byte{103, 1, 0x02},
		[3]byte{104, 1, 0x02},
		[3]byte{188, 1, 0x00},
	)
	// Smoothness raw halves: 150 -> 75%, 140 -> 70%; mean 72.5 rounds to 73.
	f.data(0, cat(tsBytes(rideStart), []byte{150, 140, 4})...)

	s := summarize(t, f.encode())

	if s.PedalSmoothness == nil || *s.PedalSmoothness != 73 {
		t.Fatalf("smoothness: got %v, want 73", s.PedalSmoothness)
	}
	if s.PrimaryBenefit != "Threshold" {
		t.Fatalf("primary benefit: got %q, want Threshold", s.PrimaryBenefit)
	}
}

func TestSummarizeNames(t *testing.T) {
	var f fitFile
	f.def(0, 12, [3]byte{3, 16, 0x07})
	f.def(1, 26, [3]byte{4, 16, 0x07})

	sport := make([]byte, 16)
	copy(sport, "Road\x00")
	f.data(0, sport...)
	copy(sport, "Gravel\x00")
	f.data(0, sport...)

	wkt := make([]byte, 16)
	copy(wkt, "3x10 Threshold\x00")
	f.data(1, wkt...)

	s := summarize(t, f.encode())

	if s.SportProfileName != "Gravel" {
		t.Fatalf("sport profile: got %q, want last non-empty name", s.SportProfileName)
	}
	if s.WorkoutName != "3x10 Threshold" {
		t.Fatalf("workout name: got %q", s.WorkoutName)
	}
}

func TestSummarizeDeterministic(t *testing.T) {
	var f fitFile
	f.def(0, 18,
		[3]byte{2, 4, 0x86},
		[3]byte{7, 4, 0x86},
		[3]byte{9, 4, 0x86},
	)
	f.data(0, cat(tsBytes(rideStart), le32(1_800_000), le32(2_500_000))...)
	data := f.encode()

	first := summarize(t, data)
	second := summarize(t, data)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("summaries differ across decodes:\n%+v\n%+v", first, second)
	}
}

func TestSummarizeFatalLeavesSummaryUntouched(t *testing.T) {
	dst := Summary{UserID: "u1", Source: "garmin"}
	err := Summarize([]byte{0x01, 0x02}, &dst, discardLogger())
	if err == nil {
		t.Fatal("expected fatal format error")
	}
	want := Summary{UserID: "u1", Source: "garmin"}
	if !reflect.DeepEqual(dst, want) {
		t.Fatalf("destination mutated on fatal error: %+v", dst)
	}
}

func TestSummarizeNilDestination(t *testing.T) {
	if err := Summarize(nil, nil, nil); err != ErrNilSummary {
		t.Fatalf("got %v, want ErrNilSummary", err)
	}
}

func TestCollectorKeepsLatestUnrecognizedKind(t *testing.T) {
	c := newCollector()
	c.add(decode.Message{Kind: profile.KindUnknown, Name: "global_9999",
		Fields: map[string]any{"field_0": uint64(1)}})
	c.add(decode.Message{Kind: profile.KindUnknown, Name: "global_9999",
		Fields: map[string]any{"field_0": uint64(2)}})

	kept, ok := c.latest["global_9999"]
	if !ok {
		t.Fatal("unrecognized kind not retained")
	}
	if v, ok := kept.Uint("field_0"); !ok || v != 2 {
		t.Fatalf("most recent message must win: %v", kept.Fields)
	}
}
