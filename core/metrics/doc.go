// Package metrics defines the sinks that observe the prediction service.
//
// Every sink implements MetricsSink and receives one PredictionEvent per
// recorded prediction. Sinks opt into further events by implementing the
// optional recorder interfaces. Sinks are created from configuration through
// the registry in factory.go; several configured sinks are combined in a
// MultiSink.
package metrics
