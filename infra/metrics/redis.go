package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	coremetrics "github.com/kilianp07/evroute/core/metrics"
	"github.com/kilianp07/evroute/infra/logger"
)

// RedisConfig configures the Redis publisher sink.
type RedisConfig struct {
	// URL takes precedence over Addr when set, e.g. redis://:pw@host:6379/0.
	URL      string `json:"url"`
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Channel  string `json:"channel"`
	// RecentKey, when set, keeps the last RecentSize messages in a list.
	RecentKey   string        `json:"recent_key"`
	RecentSize  int64         `json:"recent_size"`
	PingRetries int           `json:"ping_retries"`
	Timeout     time.Duration `json:"timeout"`
}

func (c *RedisConfig) SetDefaults() {
	if c.Addr == "" && c.URL == "" {
		c.Addr = "localhost:6379"
	}
	if c.Channel == "" {
		c.Channel = "evroute:predictions"
	}
	if c.RecentSize <= 0 {
		c.RecentSize = 500
	}
	if c.PingRetries <= 0 {
		c.PingRetries = 5
	}
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Second
	}
}

func (c RedisConfig) options() (*redis.Options, error) {
	if c.URL != "" {
		opts, err := redis.ParseURL(c.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB}, nil
}

// RedisMessage is the JSON payload published for every event.
type RedisMessage struct {
	Kind           string    `json:"kind"`
	ID             int64     `json:"id"`
	Type           string    `json:"type"`
	StationID      string    `json:"stationId,omitempty"`
	PredictedValue *float64  `json:"predictedValue"`
	ActualValue    *float64  `json:"actualValue,omitempty"`
	ErrorValue     *float64  `json:"errorValue,omitempty"`
	Time           time.Time `json:"time"`
}

// RedisSink publishes prediction events on a Redis channel so dashboards can
// follow them live.
type RedisSink struct {
	client *redis.Client
	cfg    RedisConfig
	log    logger.Logger
}

// NewRedisSink connects to Redis and pings it, retrying with exponential
// backoff.
func NewRedisSink(ctx context.Context, cfg RedisConfig) (*RedisSink, error) {
	cfg.SetDefaults()
	opts, err := cfg.options()
	if err != nil {
		return nil, err
	}
	s := &RedisSink{client: redis.NewClient(opts), cfg: cfg, log: logger.New("redis-sink")}

	attempt := 0
	ping := func() error {
		attempt++
		pctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
		if err := s.client.Ping(pctx).Err(); err != nil {
			s.log.Warnf("redis ping attempt %d/%d failed: %v", attempt, cfg.PingRetries+1, err)
			return err
		}
		return nil
	}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 250 * time.Millisecond
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(cfg.PingRetries)), ctx)
	if err := backoff.Retry(ping, b); err != nil {
		_ = s.client.Close()
		return nil, fmt.Errorf("redis ping failed after %d attempts: %w", attempt, err)
	}
	return s, nil
}

func (s *RedisSink) RecordPrediction(ev coremetrics.PredictionEvent) error {
	return s.publish(RedisMessage{
		Kind:           "prediction",
		ID:             ev.ID,
		Type:           ev.Type,
		StationID:      ev.StationID,
		PredictedValue: ev.PredictedValue,
		Time:           ev.Time,
	})
}

func (s *RedisSink) RecordOutcome(ev coremetrics.OutcomeEvent) error {
	actual := ev.ActualValue
	return s.publish(RedisMessage{
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

func (s *RedisSink) publish(msg RedisMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()
	if s.cfg.RecentKey == "" {
		return s.client.Publish(ctx, s.cfg.Channel, data).Err()
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Publish(ctx, s.cfg.Channel, data)
		pipe.LPush(ctx, s.cfg.RecentKey, data)
		pipe.LTrim(ctx, s.cfg.RecentKey, 0, s.cfg.RecentSize-1)
		return nil
	})
	return err
}

// Client exposes the underlying client.
func (s *RedisSink) Client() *redis.Client { return s.client }

// Close closes the connection pool.
func (s *RedisSink) Close() error {
	return s.client.Close()
}
