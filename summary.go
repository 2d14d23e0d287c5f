// Package fitlink turns raw FIT activity files into normalized,
// unit-converted summaries used to enrich externally-sourced workout
// records. The caller owns the destination summary: it pre-tags ownership
// (user, source vendor), hands the summary to Summarize, and receives it
// filled in place.
package fitlink

import "time"

// DeviceBattery pairs a canonical device identity with its reported battery
// status.
type DeviceBattery struct {
	DeviceID string `json:"device_id"`
	Status   string `json:"status"`
}

// Summary is the normalized activity summary produced from one FIT file.
// Pointer fields are nil when the file never reported the metric; absent is
// absent, not zero.
type Summary struct {
	// Caller-supplied ownership tags, never touched by the decoder.
	UserID string `json:"user_id"`
	Source string `json:"source"`

	StartTime        time.Time `json:"start_time,omitempty"`
	DistanceKM       float64   `json:"distance_km"`
	TotalTimeSeconds int64     `json:"total_time_seconds"`

	// PausedTimeSeconds accumulates timer stop->start gaps. It is reported
	// on its own and deliberately never subtracted from TotalTimeSeconds.
	PausedTimeSeconds float64 `json:"paused_time_seconds"`

	PrimaryBenefit          string   `json:"primary_benefit,omitempty"`
	IntensityFactor         *float64 `json:"intensity_factor,omitempty"`
	TrainingStressScore     *float64 `json:"training_stress_score,omitempty"`
	TrainingLoad            *float64 `json:"training_load,omitempty"`
	AerobicTrainingEffect   *float64 `json:"aerobic_training_effect,omitempty"`
	AnaerobicTrainingEffect *float64 `json:"anaerobic_training_effect,omitempty"`
	PedalSmoothness         *float64 `json:"pedal_smoothness,omitempty"`
	TorqueEffectiveness     *float64 `json:"torque_effectiveness,omitempty"`
	PedalBalance            string   `json:"pedal_balance,omitempty"`

	WorkoutName      string `json:"workout_name,omitempty"`
	WorkoutNotes     string `json:"workout_notes,omitempty"`
	SportProfileName string `json:"sport_profile_name,omitempty"`

	Devices         []string        `json:"devices,omitempty"`
	DeviceBatteries []DeviceBattery `json:"device_batteries,omitempty"`

	// Warnings carries non-fatal integrity notes from the decode pass
	// (checksum mismatches, skipped records).
	Warnings []string `json:"warnings,omitempty"`
}
