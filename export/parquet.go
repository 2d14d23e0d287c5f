// Package export serializes activity summaries to parquet for downstream
// analytics. One row per summary; optional metrics use NaN for absent since
// the reader filters on validity flags, never on magic values.
package export

import (
	"fmt"
	"math"
	"strings"
	"time"

	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/pedalsmith/fitlink"
)

type summaryRow struct {
	UserID            string  `parquet:"name=user_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Source            string  `parquet:"name=source, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	StartTimeISO      string  `parquet:"name=start_time_iso, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	DistanceKM        float64 `parquet:"name=distance_km, type=DOUBLE"`
	TotalTimeS        int64   `parquet:"name=total_time_s, type=INT64"`
	PausedTimeS       float64 `parquet:"name=paused_time_s, type=DOUBLE"`
	PrimaryBenefit    string  `parquet:"name=primary_benefit, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	IntensityFactor   float64 `parquet:"name=intensity_factor, type=DOUBLE"`
	TrainingStress    float64 `parquet:"name=training_stress_score, type=DOUBLE"`
	TrainingLoad      float64 `parquet:"name=training_load, type=DOUBLE"`
	AerobicTE         float64 `parquet:"name=aerobic_training_effect, type=DOUBLE"`
	AnaerobicTE       float64 `parquet:"name=anaerobic_training_effect, type=DOUBLE"`
	PedalSmoothness   float64 `parquet:"name=pedal_smoothness, type=DOUBLE"`
	TorqueEff         float64 `parquet:"name=torque_effectiveness, type=DOUBLE"`
	PedalBalance      string  `parquet:"name=pedal_balance, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	WorkoutName       string  `parquet:"name=workout_name, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	SportProfileName  string  `parquet:"name=sport_profile_name, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Devices           string  `parquet:"name=devices, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	WarningCount      int64   `parquet:"name=warning_count, type=INT64"`
	ValidIntensity    bool    `parquet:"name=valid_intensity_factor, type=BOOLEAN"`
	ValidStress       bool    `parquet:"name=valid_training_stress_score, type=BOOLEAN"`
	ValidLoad         bool    `parquet:"name=valid_training_load, type=BOOLEAN"`
	ValidAerobicTE    bool    `parquet:"name=valid_aerobic_training_effect, type=BOOLEAN"`
	ValidAnaerobicTE  bool    `parquet:"name=valid_anaerobic_training_effect, type=BOOLEAN"`
	ValidSmoothness   bool    `parquet:"name=valid_pedal_smoothness, type=BOOLEAN"`
	ValidTorqueEff    bool    `parquet:"name=valid_torque_effectiveness, type=BOOLEAN"`
}

func rowFromSummary(s fitlink.Summary) summaryRow {
	row := summaryRow{
		UserID:           s.UserID,
		Source:           s.Source,
		DistanceKM:       s.DistanceKM,
		TotalTimeS:       s.TotalTimeSeconds,
		PausedTimeS:      s.PausedTimeSeconds,
		PrimaryBenefit:   s.PrimaryBenefit,
		PedalBalance:     s.PedalBalance,
		WorkoutName:      s.WorkoutName,
		SportProfileName: s.SportProfileName,
		Devices:          strings.Join(s.Devices, ";"),
		WarningCount:     int64(len(s.Warnings)),
	}
	if !s.StartTime.IsZero() {
		row.StartTimeISO = s.StartTime.UTC().Format(time.RFC3339)
	}
	row.IntensityFactor, row.ValidIntensity = valueOrNaN(s.IntensityFactor)
	row.TrainingStress, row.ValidStress = valueOrNaN(s.TrainingStressScore)
	row.TrainingLoad, row.ValidLoad = valueOrNaN(s.TrainingLoad)
	row.AerobicTE, row.ValidAerobicTE = valueOrNaN(s.AerobicTrainingEffect)
	row.AnaerobicTE, row.ValidAnaerobicTE = valueOrNaN(s.AnaerobicTrainingEffect)
	row.PedalSmoothness, row.ValidSmoothness = valueOrNaN(s.PedalSmoothness)
	row.TorqueEff, row.ValidTorqueEff = valueOrNaN(s.TorqueEffectiveness)
	return row
}

func valueOrNaN(v *float64) (float64, bool) {
	if v == nil {
		return math.NaN(), false
	}
	return *v, true
}

// Marshal renders the summaries as an in-memory parquet file.
func Marshal(summaries []fitlink.Summary) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	if err := writeRows(fw, summaries); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}

// WriteFile writes the summaries as a parquet file at path.
func WriteFile(path string, summaries []fitlink.Summary) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return writeRows(fw, summaries)
}

func writeRows(fw source.ParquetFile, summaries []fitlink.Summary) error {
	pw, err := writer.NewParquetWriter(fw, new(summaryRow), 4)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, s := range summaries {
		if err := pw.Write(rowFromSummary(s)); err != nil {
			_ = pw.WriteStop()
			return fmt.Errorf("export: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return fw.Close()
}
