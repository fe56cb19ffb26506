package assistant

import (
	"errors"
	"fmt"
	"time"
)

const (
	ModeRules  = "rules"
	ModeOpenAI = "openai"
)

// Conf configures the assistant endpoint.
type Conf struct {
	// Mode is rules or openai.
	Mode        string  `json:"mode"`
	APIKey      string  `json:"api_key"`
	BaseURL     string  `json:"base_url"`
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	// RateLimitRPS caps chat requests per second across all clients.
	RateLimitRPS   float64 `json:"rate_limit_rps"`
	RateLimitBurst int     `json:"rate_limit_burst"`
	TimeoutSeconds int     `json:"timeout_seconds"`
}

// SetDefaults fills unset fields.
func (c *Conf) SetDefaults() {
	if c.Mode == "" {
		c.Mode = ModeRules
	}
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.4
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 400
	}
	if c.RateLimitRPS == 0 {
		c.RateLimitRPS = 5
	}
	if c.RateLimitBurst == 0 {
		c.RateLimitBurst = 5
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 30
	}
}

// Validate checks the mode and the settings it needs.
func (c Conf) Validate() error {
	switch c.Mode {
	case ModeRules:
	case ModeOpenAI:
		if c.APIKey == "" {
			return errors.New("assistant api_key is required in openai mode")
		}
	default:
		return fmt.Errorf("unknown assistant mode %q", c.Mode)
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return errors.New("assistant rate limit must not be negative")
	}
	return nil
}

// Timeout bounds one reply.
func (c Conf) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// NewResponder returns the responder selected by conf.Mode.
func NewResponder(conf Conf) (Responder, error) {
	conf.SetDefaults()
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if conf.Mode == ModeOpenAI {
		return NewOpenAI(conf), nil
	}
	return Rules{}, nil
}
