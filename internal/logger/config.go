package logger

import "fmt"

// Config contains logging configuration.
type Config struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	Output string `yaml:"output" mapstructure:"output"`
}

// ApplyDefaults sets defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "json"
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Level {
	case "trace", "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("logging.level must be one of trace/debug/info/warn/error/fatal (got: %s)", c.Level)
	}
	switch c.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console (got: %s)", c.Format)
	}
	return nil
}
