package metrics

import (
	"fmt"

	"github.com/kilianp07/evroute/core/factory"
)

// DefaultBusBuffer is used when Config.BusBuffer is unset.
const DefaultBusBuffer = 64

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr serves /metrics on a dedicated listener when set. The
	// main HTTP server always exposes it as well.
	PrometheusAddr string `json:"prometheus_addr"`
	// BusBuffer is the number of history events queued for the collector
	// before new ones are dropped.
	BusBuffer int `json:"bus_buffer"`
}

func (c *Config) SetDefaults() {
	if c.BusBuffer <= 0 {
		c.BusBuffer = DefaultBusBuffer
	}
}

func (c Config) Validate() error {
	for i, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics.sinks[%d]: type is required", i)
		}
	}
	return nil
}
