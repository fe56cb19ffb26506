package metrics

import (
	"errors"
	"io"
)

// MultiSink fans events out to several sinks. Every sink sees every event;
// errors are joined.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

func (m *MultiSink) RecordPrediction(ev PredictionEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordPrediction(ev))
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordOutcome(ev OutcomeEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(OutcomeRecorder); ok {
			errs = append(errs, rec.RecordOutcome(ev))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordHistorySize(size int) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(HistorySizeRecorder); ok {
			errs = append(errs, rec.RecordHistorySize(size))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordRequest(ev RequestEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(RequestRecorder); ok {
			errs = append(errs, rec.RecordRequest(ev))
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink that holds resources.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		if c, ok := s.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

// Close releases the sink's resources when it has any.
func Close(s MetricsSink) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
