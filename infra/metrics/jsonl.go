package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	coremetrics "github.com/kilianp07/evroute/core/metrics"
)

// JSONLConfig configures the rotating archive.
type JSONLConfig struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
	Compress   bool   `json:"compress"`
}

func (c *JSONLConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "data/predictions.jsonl"
	}
	if c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 10
	}
}

// ArchiveLine is one line of the archive.
type ArchiveLine struct {
	Kind           string    `json:"kind"`
	ID             int64     `json:"id"`
	Type           string    `json:"type"`
	StationID      string    `json:"stationId,omitempty"`
	PredictedValue *float64  `json:"predictedValue"`
	ActualValue    *float64  `json:"actualValue,omitempty"`
	ErrorValue     *float64  `json:"errorValue,omitempty"`
	Confidence     *float64  `json:"confidence,omitempty"`
	Time           time.Time `json:"time"`
}

// JSONLSink archives predictions and outcomes as JSON lines with automatic
// rotation. History is in memory only; the archive keeps a trail beyond it.
type JSONLSink struct {
	out *lumberjack.Logger
}

// NewJSONLSink creates the archive directory and opens the sink.
func NewJSONLSink(cfg JSONLConfig) (*JSONLSink, error) {
	cfg.SetDefaults()
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create archive dir: %w", err)
		}
	}
	return &JSONLSink{out: &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}}, nil
}

func (s *JSONLSink) RecordPrediction(ev coremetrics.PredictionEvent) error {
	return s.append(ArchiveLine{
		Kind:           "prediction",
		ID:             ev.ID,
		Type:           ev.Type,
		StationID:      ev.StationID,
		PredictedValue: ev.PredictedValue,
		Confidence:     ev.Confidence,
		Time:           ev.Time,
	})
}

func (s *JSONLSink) RecordOutcome(ev coremetrics.OutcomeEvent) error {
	actual := ev.ActualValue
	return s.append(ArchiveLine{
		Kind:           "outcome",
		ID:             ev.ID,
		Type:           ev.Type,
		StationID:      ev.StationID,
		PredictedValue: ev.PredictedValue,
		ActualValue:    &actual,
		ErrorValue:     ev.ErrorValue,
		Time:           ev.Time,
	})
}

func (s *JSONLSink) append(line ArchiveLine) error {
	return json.NewEncoder(s.out).Encode(line)
}

// Close closes the underlying writer.
func (s *JSONLSink) Close() error {
	return s.out.Close()
}
