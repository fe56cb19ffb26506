package metrics

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/evroute/core/metrics"
	"github.com/kilianp07/evroute/infra/logger"
)

// InfluxConfig locates the InfluxDB bucket receiving prediction points.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
	// HealthRetries is the number of extra health checks before falling back.
	HealthRetries int           `json:"health_retries"`
	Timeout       time.Duration `json:"timeout"`
}

func (c *InfluxConfig) SetDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
}

func (c InfluxConfig) Validate() error {
	if c.URL == "" || c.Org == "" || c.Bucket == "" {
		return fmt.Errorf("influx sink requires url, org and bucket")
	}
	return nil
}

// InfluxSink writes prediction events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	timeout  time.Duration
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	cfg.SetDefaults()
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		timeout:  cfg.Timeout,
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback checks the health of the InfluxDB instance,
// retrying with exponential backoff, and returns a NopSink when it never
// passes.
func NewInfluxSinkWithFallback(ctx context.Context, cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	check := func() error {
		hctx, cancel := context.WithTimeout(ctx, sink.timeout)
		defer cancel()
		health, err := sink.client.Health(hctx)
		if err != nil {
			return err
		}
		if health.Status != "pass" {
			return fmt.Errorf("influx health status: %s", health.Status)
		}
		return nil
	}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(max(cfg.HealthRetries, 0))), ctx)
	if err := backoff.Retry(check, b); err != nil {
		sink.log.Errorf("influx health check failed, metrics disabled: %v", err)
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordPrediction writes a prediction point.
func (s *InfluxSink) RecordPrediction(ev coremetrics.PredictionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	p := write.NewPointWithMeasurement("prediction").
		AddTag("type", ev.Type).
		AddField("id", ev.ID).
		SetTime(ev.Time)
	if ev.StationID != "" {
		p.AddTag("station_id", ev.StationID)
	}
	if ev.PredictedValue != nil {
		p.AddField("predicted_value", round3(*ev.PredictedValue))
	}
	if ev.Confidence != nil {
		p.AddField("confidence", round3(*ev.Confidence))
	}
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordOutcome writes the observed value and error of a prediction.
func (s *InfluxSink) RecordOutcome(ev coremetrics.OutcomeEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	p := write.NewPointWithMeasurement("prediction_outcome").
		AddTag("type", ev.Type).
		AddTag("prediction_id", strconv.FormatInt(ev.ID, 10)).
		AddField("actual_value", round3(ev.ActualValue)).
		SetTime(ev.Time)
	if ev.StationID != "" {
		p.AddTag("station_id", ev.StationID)
	}
	if ev.PredictedValue != nil {
		p.AddField("predicted_value", round3(*ev.PredictedValue))
	}
	if ev.ErrorValue != nil {
		p.AddField("error_value", round3(*ev.ErrorValue))
	}
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
