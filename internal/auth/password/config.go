package password

import "fmt"

// Algorithm selects a password hashing algorithm.
type Algorithm string

const (
	AlgorithmBcrypt   Algorithm = "bcrypt"
	AlgorithmArgon2id Algorithm = "argon2id"
)

// Config configures password hashing.
type Config struct {
	// Algorithm selects the hashing algorithm (default: bcrypt).
	Algorithm Algorithm `mapstructure:"algorithm"`

	// BcryptCost is the bcrypt cost parameter (default: 12).
	BcryptCost int `mapstructure:"bcrypt_cost"`

	// Argon2Time is the iteration count for argon2id (default: 1).
	Argon2Time uint32 `mapstructure:"argon2_time"`

	// Argon2Memory is the memory usage in KiB for argon2id (default: 65536).
	Argon2Memory uint32 `mapstructure:"argon2_memory"`

	// Argon2Threads is the parallelism for argon2id (default: 4).
	Argon2Threads uint8 `mapstructure:"argon2_threads"`

	// MinLength is the minimum password length (default: 8).
	MinLength int `mapstructure:"min_length"`
}

// ApplyDefaults sets defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = AlgorithmBcrypt
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = 12
	}
	if c.Argon2Time == 0 {
		c.Argon2Time = 1
	}
	if c.Argon2Memory == 0 {
		c.Argon2Memory = 64 * 1024
	}
	if c.Argon2Threads == 0 {
		c.Argon2Threads = 4
	}
	if c.MinLength == 0 {
		c.MinLength = 8
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Algorithm {
	case AlgorithmBcrypt, AlgorithmArgon2id:
	default:
		return fmt.Errorf("unsupported algorithm: %s (use bcrypt or argon2id)", c.Algorithm)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("bcrypt_cost must be between 4 and 31 (got: %d)", c.BcryptCost)
	}
	if c.MinLength < 1 {
		return fmt.Errorf("min_length must be >= 1 (got: %d)", c.MinLength)
	}
	return nil
}
