package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/evroute/core/history"
)

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
	Address                string   `json:"address"`
	ReadTimeoutSeconds     int      `json:"read_timeout_seconds"`
	WriteTimeoutSeconds    int      `json:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int      `json:"shutdown_timeout_seconds"`
	CORSOrigins            []string `json:"cors_origins"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":5000"
	}
	if c.ReadTimeoutSeconds <= 0 {
		c.ReadTimeoutSeconds = 15
	}
	if c.WriteTimeoutSeconds <= 0 {
		c.WriteTimeoutSeconds = 30
	}
	if c.ShutdownTimeoutSeconds <= 0 {
		c.ShutdownTimeoutSeconds = 10
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"*"}
	}
}

func (c ServerConfig) Validate() error {
	if c.Address == "" {
		return errors.New("address is required")
	}
	return nil
}

func (c ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

func (c ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// HistoryConfig sizes the in-memory prediction history.
type HistoryConfig struct {
	Capacity int `json:"capacity"`
	// Timezone names the zone used for hourly usage buckets. Empty means the
	// process local zone.
	Timezone string `json:"timezone"`
}

func (c *HistoryConfig) SetDefaults() {
	if c.Capacity <= 0 {
		c.Capacity = history.DefaultCapacity
	}
}

func (c HistoryConfig) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c HistoryConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
