package metrics

import (
	"time"
)

// PredictionEvent is a prediction appended to the history.
type PredictionEvent struct {
	ID             int64
	StationID      string
	Type           string
	PredictedValue *float64
	Confidence     *float64
	Time           time.Time
}

// MetricsSink records predictions for observability purposes.
type MetricsSink interface {
	RecordPrediction(ev PredictionEvent) error
}

// OutcomeEvent is an observed value attached to an earlier prediction.
type OutcomeEvent struct {
	ID             int64
	StationID      string
	Type           string
	PredictedValue *float64
	ActualValue    float64
	ErrorValue     *float64
	Time           time.Time
}

// OutcomeRecorder records observed outcomes.
type OutcomeRecorder interface {
	RecordOutcome(ev OutcomeEvent) error
}

// HistorySizeRecorder records the number of records held in the history.
type HistorySizeRecorder interface {
	RecordHistorySize(size int) error
}

// RequestEvent describes a served HTTP request.
type RequestEvent struct {
	Route    string
	Method   string
	Status   int
	Duration time.Duration
}

// RequestRecorder records HTTP request metrics.
type RequestRecorder interface {
	RecordRequest(ev RequestEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordPrediction(PredictionEvent) error { return nil }
func (NopSink) RecordOutcome(OutcomeEvent) error       { return nil }
func (NopSink) RecordHistorySize(int) error            { return nil }
func (NopSink) RecordRequest(RequestEvent) error       { return nil }
