package metrics_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/evroute/core/factory"
	metrics "github.com/kilianp07/evroute/core/metrics"
	_ "github.com/kilianp07/evroute/infra/metrics"
)

// Test decoding from YAML with multiple sinks.
func TestMetricsConfigDecodeYAML(t *testing.T) {
	data := `sinks:
  - type: nop
  - type: jsonl
    conf:
      path: ` + filepath.Join(t.TempDir(), "p.jsonl") + `
`
	var cfg metrics.Config
	if err := yaml.Unmarshal([]byte(data), &cfg); err != nil {
		t.Fatalf("yaml unmarshal: %v", err)
	}
	s, err := metrics.NewMetricsSink(cfg.Sinks)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	m, ok := s.(*metrics.MultiSink)
	if !ok || len(m.Sinks) != 2 {
		t.Fatalf("expected MultiSink with two sinks, got %T", s)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

// Test decoding from JSON with invalid sink type.
func TestMetricsConfigDecodeJSON_Invalid(t *testing.T) {
	data := `{"sinks":[{"type":"nop"},{"type":"missing"}]}`
	var cfg metrics.Config
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	if _, err := metrics.NewMetricsSink(cfg.Sinks); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestMetricsFactory_Builtins(t *testing.T) {
	s, err := metrics.NewMetricsSink(nil)
	if err != nil {
		t.Fatalf("create default: %v", err)
	}
	if _, ok := s.(metrics.NopSink); !ok {
		t.Fatalf("expected NopSink without config, got %T", s)
	}
	if _, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}}); err != nil {
		t.Fatalf("create nop: %v", err)
	}
	if _, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "jsonl", Conf: map[string]any{"bogus": 1}}}); err == nil {
		t.Fatalf("expected decode error for unknown key")
	}
	want := map[string]bool{"nop": true, "prometheus": true, "influx": true, "jsonl": true, "redis": true, "mqtt": true}
	for _, n := range metrics.RegisteredSinks() {
		delete(want, n)
	}
	if len(want) != 0 {
		t.Fatalf("missing sink types %v", want)
	}
}
