package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/evroute/core/history"
	coremetrics "github.com/kilianp07/evroute/core/metrics"
)

// PromSink records prediction, outcome and request metrics in Prometheus.
type PromSink struct {
	predictions *prometheus.CounterVec
	outcomes    *prometheus.CounterVec
	absError    *prometheus.HistogramVec
	historySize prometheus.Gauge
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// NewPromSink registers the metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	var (
		s   PromSink
		err error
	)
	if s.predictions, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "evroute_predictions_total",
		Help: "Number of predictions recorded in the history",
	}, []string{"type"})); err != nil {
		return nil, err
	}
	if s.outcomes, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "evroute_prediction_outcomes_total",
		Help: "Number of observed outcomes attached to predictions",
	}, []string{"type", "accurate"})); err != nil {
		return nil, err
	}
	if s.absError, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "evroute_prediction_abs_error",
		Help:    "Absolute error between predicted and observed values",
		Buckets: []float64{1, 2.5, 5, 10, 20, 40, 80},
	}, []string{"type"})); err != nil {
		return nil, err
	}
	if s.historySize, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "evroute_history_records",
		Help: "Number of records held in the prediction history",
	})); err != nil {
		return nil, err
	}
	if s.requests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "evroute_http_requests_total",
		Help: "HTTP requests served",
	}, []string{"route", "method", "status"})); err != nil {
		return nil, err
	}
	if s.latency, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "evroute_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})); err != nil {
		return nil, err
	}
	return &s, nil
}

// RecordPrediction increments the per type prediction counter.
func (s *PromSink) RecordPrediction(ev coremetrics.PredictionEvent) error {
	s.predictions.WithLabelValues(ev.Type).Inc()
	return nil
}

// RecordOutcome counts the outcome and observes its absolute error.
func (s *PromSink) RecordOutcome(ev coremetrics.OutcomeEvent) error {
	accurate := "unknown"
	if ev.ErrorValue != nil {
		accurate = strconv.FormatBool(*ev.ErrorValue <= history.AccurateThreshold)
		s.absError.WithLabelValues(ev.Type).Observe(*ev.ErrorValue)
	}
	s.outcomes.WithLabelValues(ev.Type, accurate).Inc()
	return nil
}

// RecordHistorySize sets the history gauge.
func (s *PromSink) RecordHistorySize(size int) error {
	s.historySize.Set(float64(size))
	return nil
}

// RecordRequest counts the request and observes its latency.
func (s *PromSink) RecordRequest(ev coremetrics.RequestEvent) error {
	s.requests.WithLabelValues(ev.Route, ev.Method, strconv.Itoa(ev.Status)).Inc()
	s.latency.WithLabelValues(ev.Route, ev.Method).Observe(ev.Duration.Seconds())
	return nil
}
