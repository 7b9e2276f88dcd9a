// Package config loads service configuration from YAML, .env files, and
// environment variables, in increasing order of precedence.
package config

import (
	"fmt"

	"github.com/alanahq/alana-server/internal/auth"
	"github.com/alanahq/alana-server/internal/logger"
	"github.com/alanahq/alana-server/internal/store"
)

// App holds service identity settings.
type App struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	Debug       bool   `mapstructure:"debug"`
}

// ApplyDefaults sets defaults for zero-valued fields.
func (a *App) ApplyDefaults() {
	if a.Name == "" {
		a.Name = "alana-server"
	}
	if a.Environment == "" {
		a.Environment = "development"
	}
	if a.Environment == "development" {
		a.Debug = true
	}
}

// Validate checks the app section.
func (a *App) Validate() error {
	switch a.Environment {
	case "development", "staging", "production":
		return nil
	}
	return fmt.Errorf("app.environment must be one of [development, staging, production] (got: %s)", a.Environment)
}

// Server holds HTTP listener settings.
type Server struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// ReadTimeout and WriteTimeout bound request handling (defaults: "15s").
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`

	// ShutdownTimeout bounds graceful drain on exit (default: "10s").
	ShutdownTimeout string `mapstructure:"shutdown_timeout"`

	// CORSAllowedOrigins lists origins allowed to call the API.
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// ApplyDefaults sets defaults for zero-valued fields.
func (s *Server) ApplyDefaults() {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == "" {
		s.ReadTimeout = "15s"
	}
	if s.WriteTimeout == "" {
		s.WriteTimeout = "15s"
	}
	if s.ShutdownTimeout == "" {
		s.ShutdownTimeout = "10s"
	}
}

// Validate checks the server section.
func (s *Server) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", s.Port)
	}
	return nil
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Config is the full service configuration.
type Config struct {
	App      App           `mapstructure:"app"`
	Server   Server        `mapstructure:"server"`
	Database store.Config  `mapstructure:"database"`
	Auth     auth.Config   `mapstructure:"auth"`
	Log      logger.Config `mapstructure:"log"`
}

// ApplyDefaults applies defaults to every section.
func (c *Config) ApplyDefaults() {
	c.App.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.Auth.ApplyDefaults()
	c.Log.ApplyDefaults()
}

// Validate validates every section.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Log.Validate()
}
