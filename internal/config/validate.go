package config

import (
	"fmt"
	"slices"
	"strings"
)

var (
	validLevels  = []string{"debug", "info", "warn", "error"}
	validFormats = []string{"json", "text"}
)

// Validate performs business-rule validation on the loaded configuration.
// Load calls it automatically.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.Name == "" {
			return fmt.Errorf("database.host and database.name are required for the postgres driver")
		}
	default:
		return fmt.Errorf("store.driver must be %q or %q (got %q)", DriverPostgres, DriverMemory, c.Store.Driver)
	}

	if !slices.Contains(validLevels, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("log.level must be one of %v (got %q)", validLevels, c.Log.Level)
	}
	if !slices.Contains(validFormats, strings.ToLower(c.Log.Format)) {
		return fmt.Errorf("log.format must be one of %v (got %q)", validFormats, c.Log.Format)
	}

	if len(c.CORS.Origins()) == 0 {
		return fmt.Errorf("cors.allowed_origins must list at least one origin")
	}

	if err := c.Realtime.validate(); err != nil {
		return fmt.Errorf("realtime: %w", err)
	}

	return nil
}

func (r *RealtimeConfig) validate() error {
	if !strings.HasPrefix(r.Path, "/") {
		return fmt.Errorf("path must start with / (got %q)", r.Path)
	}
	if r.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout must be > 0 (got %v)", r.WriteTimeout)
	}
	if r.PingInterval <= 0 || r.PingInterval >= r.PongTimeout {
		return fmt.Errorf("ping_interval must be > 0 and shorter than pong_timeout (got %v, %v)", r.PingInterval, r.PongTimeout)
	}
	if r.MaxMessageBytes <= 0 {
		return fmt.Errorf("max_message_bytes must be > 0 (got %d)", r.MaxMessageBytes)
	}
	return nil
}
