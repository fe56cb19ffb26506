// Package metrics implements the metrics sinks of core/metrics and registers
// them with the sink factory:
//
//	nop         discards everything
//	prometheus  counters and histograms on a Prometheus registerer
//	influx      points written to InfluxDB v2
//	jsonl       rotating JSON lines archive of predictions and outcomes
//	redis       JSON messages published on a Redis channel
//	mqtt        JSON messages published below an MQTT topic prefix
//
// StartEventCollector bridges the history store's event bus to a sink.
package metrics
