package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// LoggingConfig defines the application log output.
type LoggingConfig struct {
	// Level is the minimum level: trace, debug, info, warn or error.
	Level string `json:"level"`
	// AccessLog toggles the per request log line.
	AccessLog *bool `json:"access_log"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.AccessLog == nil {
		on := true
		c.AccessLog = &on
	}
}

// Validate checks the level name.
func (c LoggingConfig) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Level)); err != nil {
		return fmt.Errorf("unknown level %s", c.Level)
	}
	return nil
}

// AccessLogEnabled reports whether requests are logged.
func (c LoggingConfig) AccessLogEnabled() bool {
	return c.AccessLog == nil || *c.AccessLog
}
