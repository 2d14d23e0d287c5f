package fitlink

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/pedalsmith/fitlink/decode"
	"github.com/pedalsmith/fitlink/profile"
)

// ErrNilSummary is returned when Summarize is handed a nil destination.
var ErrNilSummary = errors.New("nil summary destination")

// Summarize decodes one FIT buffer and fills dst with the aggregated
// activity summary. Ownership tags already set on dst are preserved. On a
// fatal format error dst is left untouched; non-fatal integrity problems end
// up in dst.Warnings and the partial summary is still produced.
func Summarize(data []byte, dst *Summary, log *slog.Logger) error {
	if dst == nil {
		return ErrNilSummary
	}
	if log == nil {
		log = slog.Default()
	}

	dec, err := decode.New(data, log)
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}

	col := newCollector()
	for {
		msg, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("summarize: %w", err)
		}
		col.add(msg)
	}

	col.finalize(dst)
	dst.Warnings = dec.Warnings()
	return nil
}

// collector accumulates decoded messages into typed buckets. One collector
// per file; it is not safe for concurrent use.
type collector struct {
	sessions          []decode.Message
	laps              []decode.Message
	events            []decode.Message
	workouts          []decode.Message
	workoutSteps      []decode.Message
	deviceInfos       []decode.Message
	sports            []decode.Message
	fileIDs           []decode.Message
	coursePoints      []decode.Message
	softwares         []decode.Message
	monitorings       []decode.Message
	monitoringInfos   []decode.Message
	lengths           []decode.Message
	stressLevels      []decode.Message
	fieldDescriptions []decode.Message
	developerDataIDs  []decode.Message
	diveGases         []decode.Message

	// latest keeps the single most recent message of each unrecognized kind
	// under its stable name, so nothing decodable is silently lost.
	latest map[string]decode.Message

	// records and definitions are counted, not stored: a long ride carries
	// tens of thousands of record samples and the summary needs none of them.
	records     int
	definitions int

	paused   float64
	lastStop time.Time
}

func newCollector() *collector {
	return &collector{latest: make(map[string]decode.Message)}
}

func (c *collector) add(msg decode.Message) {
	switch msg.Kind {
	case profile.KindSession:
		c.sessions = append(c.sessions, msg)
	case profile.KindLap:
		c.laps = append(c.laps, msg)
	case profile.KindEvent:
		c.events = append(c.events, msg)
		c.trackTimer(msg)
	case profile.KindWorkout:
		c.workouts = append(c.workouts, msg)
	case profile.KindWorkoutStep:
		c.workoutSteps = append(c.workoutSteps, msg)
	case profile.KindDeviceInfo:
		c.deviceInfos = append(c.deviceInfos, msg)
	case profile.KindSport:
		c.sports = append(c.sports, msg)
	case profile.KindFileID:
		c.fileIDs = append(c.fileIDs, msg)
	case profile.KindCoursePoint:
		c.coursePoints = append(c.coursePoints, msg)
	case profile.KindSoftware:
		c.softwares = append(c.softwares, msg)
	case profile.KindMonitoring:
		c.monitorings = append(c.monitorings, msg)
	case profile.KindMonitoringInfo:
		c.monitoringInfos = append(c.monitoringInfos, msg)
	case profile.KindLength:
		c.lengths = append(c.lengths, msg)
	case profile.KindStressLevel:
		c.stressLevels = append(c.stressLevels, msg)
	case profile.KindFieldDescription:
		c.fieldDescriptions = append(c.fieldDescriptions, msg)
	case profile.KindDeveloperDataID:
		c.developerDataIDs = append(c.developerDataIDs, msg)
	case profile.KindDiveGas:
		c.diveGases = append(c.diveGases, msg)
	case profile.KindRecord:
		c.records++
	case profile.KindDefinition:
		c.definitions++
	default:
		c.latest[msg.Name] = msg
	}
}

// trackTimer accumulates paused time from timer events: a stop or stop_all
// opens a pause, the next start closes it.
func (c *collector) trackTimer(msg decode.Message) {
	event, ok := msg.Uint(profile.FieldEvent)
	if !ok || event != profile.EventTimer {
		return
	}
	eventType, ok := msg.Uint(profile.FieldEventType)
	if !ok {
		return
	}
	ts, ok := msg.Timestamp()
	if !ok {
		return
	}

	switch eventType {
	case profile.EventTypeStop, profile.EventTypeStopAll:
		c.lastStop = ts
	case profile.EventTypeStart:
		if !c.lastStop.IsZero() {
			if gap := ts.Sub(c.lastStop).Seconds(); gap > 0 {
				c.paused += gap
			}
			c.lastStop = time.Time{}
		}
	}
}

// finalize reduces the buckets into the destination summary. Session-level
// metrics come only from session messages; a file with zero sessions yields
// an empty summary with only device and workout metadata.
func (c *collector) finalize(dst *Summary) {
	dst.PausedTimeSeconds = round1(c.paused)

	c.fillWorkout(dst)
	c.fillSport(dst)
	c.fillDevices(dst)

	if len(c.sessions) == 0 {
		return
	}

	var distance, elapsed float64
	for _, s := range c.sessions {
		if v, ok := s.Float(profile.FieldTotalDistance); ok {
			distance += v
		}
		if v, ok := s.Float(profile.FieldTotalElapsedTime); ok {
			elapsed += v
		}
	}
	dst.DistanceKM = round1(distance / 1000)
	dst.TotalTimeSeconds = int64(math.Round(elapsed))

	if ts, ok := c.sessions[0].Fields[profile.FieldStartTime].(time.Time); ok {
		dst.StartTime = ts
	} else if ts, ok := c.sessions[0].Timestamp(); ok {
		dst.StartTime = ts
	}

	dst.IntensityFactor = c.firstFloat(profile.FieldIntensityFactor, roundNone)
	dst.TrainingStressScore = c.firstFloat(profile.FieldTrainingStressScore, roundNone)
	dst.TrainingLoad = c.firstFloat(profile.FieldTrainingLoadPeak, round0)
	dst.AerobicTrainingEffect = c.firstFloat(profile.FieldTotalTrainingEffect, roundNone)
	dst.AnaerobicTrainingEffect = c.firstFloat(profile.FieldAnaerobicTrainingEffect, roundNone)
	dst.PedalSmoothness = c.sessionMean(round0,
		profile.FieldLeftPedalSmoothness,
		profile.FieldRightPedalSmoothness,
		profile.FieldCombinedPedalSmoothness,
	)
	dst.TorqueEffectiveness = c.sessionMean(round0,
		profile.FieldLeftTorqueEffectiveness,
		profile.FieldRightTorqueEffectiveness,
	)
	dst.PedalBalance = c.pedalBalance()
	dst.PrimaryBenefit = c.primaryBenefit()
}

// firstFloat returns the first non-absent value of the named session field,
// scanning sessions in file order.
func (c *collector) firstFloat(name string, round func(float64) float64) *float64 {
	for _, s := range c.sessions {
		if v, ok := s.Float(name); ok {
			v = round(v)
			return &v
		}
	}
	return nil
}

// sessionMean scans sessions in file order and, from the first one where any
// of the named sub-fields is present, returns the mean of the present
// values. Later sessions never overwrite the figure; a session without any
// of the sub-fields is passed over entirely.
func (c *collector) sessionMean(round func(float64) float64, names ...string) *float64 {
	for _, s := range c.sessions {
		var total float64
		var count int
		for _, name := range names {
			if v, ok := s.Float(name); ok {
				total += v
				count++
			}
		}
		if count > 0 {
			v := round(total / float64(count))
			return &v
		}
	}
	return nil
}

// pedalBalance formats the first session left/right balance. Bit 15 flags
// which side the value refers to and is stripped before the validity check;
// values above 100.00% are treated as absent.
func (c *collector) pedalBalance() string {
	for _, s := range c.sessions {
		raw, ok := s.Uint(profile.FieldLeftRightBalance)
		if !ok {
			continue
		}
		masked := raw & 0x7FFF
		if masked > 10000 {
			continue
		}
		right := float64(masked) / 100
		return fmt.Sprintf("L %.0f%% / R %.0f%%", 100-right, right)
	}
	return ""
}

// primaryBenefit decodes the session primary-benefit code, passing unknown
// codes through as their decimal value.
func (c *collector) primaryBenefit() string {
	for _, s := range c.sessions {
		code, ok := s.Uint(profile.FieldPrimaryBenefit)
		if !ok {
			continue
		}
		if code <= math.MaxUint8 {
			if name := profile.PrimaryBenefitName(uint8(code)); name != "" {
				return name
			}
		}
		return fmt.Sprintf("%d", code)
	}
	return ""
}

func (c *collector) fillWorkout(dst *Summary) {
	for _, w := range c.workouts {
		if name, ok := w.Str(profile.FieldWorkoutName); ok && dst.WorkoutName == "" {
			dst.WorkoutName = cleanText(name)
		}
	}
	var notes []string
	for _, step := range c.workoutSteps {
		if note, ok := step.Str(profile.FieldNotes); ok {
			if n := cleanText(note); n != "" {
				notes = append(notes, n)
			}
		}
	}
	dst.WorkoutNotes = strings.Join(notes, "\n")
}

// fillSport keeps the last non-empty sport profile name. Head units emit
// several sport messages and the final one reflects the active profile.
func (c *collector) fillSport(dst *Summary) {
	for _, sp := range c.sports {
		if name, ok := sp.Str(profile.FieldSportName); ok {
			if n := cleanText(name); n != "" {
				dst.SportProfileName = n
			}
		}
	}
}

// cleanText strips control runes and anything above the basic multilingual
// plane. Head units pad names with NULs and users decorate profiles with
// emoji; neither survives the downstream systems this feeds.
func cleanText(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r > 0xFFFF || !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, s))
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round0(v float64) float64 { return math.Round(v) }

func roundNone(v float64) float64 { return v }
