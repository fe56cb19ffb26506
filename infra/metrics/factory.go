package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/evroute/core/factory"
	coremetrics "github.com/kilianp07/evroute/core/metrics"
	infmqtt "github.com/kilianp07/evroute/infra/mqtt"
)

// init registers built-in metrics sinks.
func init() {
	_ = coremetrics.RegisterMetricsSink("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterMetricsSink("prometheus", func(map[string]any) (coremetrics.MetricsSink, error) {
		return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	})

	_ = coremetrics.RegisterMetricsSink("influx", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c InfluxConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(context.Background(), c), nil
	})

	_ = coremetrics.RegisterMetricsSink("jsonl", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c JSONLConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewJSONLSink(c)
	})

	_ = coremetrics.RegisterMetricsSink("redis", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c RedisConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewRedisSink(context.Background(), c)
	})

	_ = coremetrics.RegisterMetricsSink("mqtt", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c infmqtt.Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewMQTTSink(c)
	})
}
