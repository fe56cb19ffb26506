package auth

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultTokenTTLHours is the token lifetime when none is configured.
	DefaultTokenTTLHours = 7 * 24
	// DefaultSecret signs tokens when no secret is configured. Override it in
	// every deployment.
	DefaultSecret = "fallback-secret"

	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Conf represents the configuration of the user accounts and the tokens
// handed out to them.
type Conf struct {
	JWTSecret     string `json:"jwt_secret"`
	TokenTTLHours int    `json:"token_ttl_hours"`
	// UserStore selects the account backend: memory or sqlite.
	UserStore     string `json:"user_store"`
	UserStorePath string `json:"user_store_path"`
	// ProtectPredictions requires a bearer token on the prediction routes.
	ProtectPredictions bool `json:"protect_predictions"`
}

// SetDefaults fills unset fields.
func (c *Conf) SetDefaults() {
	if c.JWTSecret == "" {
		c.JWTSecret = DefaultSecret
	}
	if c.TokenTTLHours == 0 {
		c.TokenTTLHours = DefaultTokenTTLHours
	}
	if c.UserStore == "" {
		c.UserStore = StoreMemory
	}
	if c.UserStore == StoreSQLite && c.UserStorePath == "" {
		c.UserStorePath = "data/users.db"
	}
}

// Validate checks the configuration for obvious mistakes.
func (c Conf) Validate() error {
	if c.TokenTTLHours < 0 {
		return errors.New("token_ttl_hours must be positive")
	}
	switch c.UserStore {
	case StoreMemory, StoreSQLite:
	default:
		return fmt.Errorf("unknown user_store %q", c.UserStore)
	}
	return nil
}

// TTL returns the token lifetime.
func (c Conf) TTL() time.Duration {
	if c.TokenTTLHours <= 0 {
		return DefaultTokenTTLHours * time.Hour
	}
	return time.Duration(c.TokenTTLHours) * time.Hour
}
