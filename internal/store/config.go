package store

import (
	"errors"
	"fmt"
	"time"
)

// Config holds database connection configuration.
type Config struct {
	// DSN is the PostgreSQL connection string.
	DSN string `mapstructure:"dsn"`

	// MaxOpenConns caps open connections (default: 25).
	MaxOpenConns int `mapstructure:"max_open_conns"`

	// MaxIdleConns caps idle connections in the pool (default: 5).
	MaxIdleConns int `mapstructure:"max_idle_conns"`

	// ConnMaxLifetime is the maximum connection reuse time (default: "1h").
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`

	// AutoMigrate runs schema migration on startup (default: true).
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// ApplyDefaults sets defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime == "" {
		c.ConnMaxLifetime = "1h"
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.DSN == "" {
		return errors.New("database.dsn is required")
	}
	if _, err := time.ParseDuration(c.ConnMaxLifetime); err != nil {
		return fmt.Errorf("database.conn_max_lifetime is not a duration: %w", err)
	}
	return nil
}
