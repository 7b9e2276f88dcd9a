package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// configSearchPaths lists where Load looks for config.yml, in order.
var configSearchPaths = []string{
	"./config.yml",
	"./config/config.yml",
	"./cmd/server/config.yml",
}

// envSearchPaths lists where Load looks for a .env file, in order.
var envSearchPaths = []string{
	".env",
	"config/.env",
}

// Load reads configuration into cfg. Precedence, lowest to highest:
// config.yml, .env file, process environment. Environment variables use
// the section as prefix with underscores, e.g. AUTH_OIDC_ISSUER maps to
// auth.oidc_issuer and DATABASE_DSN to database.dsn.
//
// An explicit path overrides the config.yml search. Defaults are applied
// and the result validated before returning.
func Load(path string, cfg *Config) error {
	v := viper.New()

	configFile := path
	if configFile == "" {
		configFile = firstExisting(configSearchPaths)
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: read %s: %w", configFile, err)
		}
	}

	if envFile := firstExisting(envSearchPaths); envFile != "" {
		// Missing keys stay unset; godotenv never overrides the
		// process environment.
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	v.AutomaticEnv()
	bindEnv(v)

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("config: unmarshal: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// bindEnv maps SECTION_FIELD_NAME environment variables onto viper's
// section.field_name keys.
func bindEnv(v *viper.Viper) {
	sections := []string{"app", "server", "database", "auth", "log"}
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 {
			continue
		}
		key := strings.ToLower(pair[0])
		for _, section := range sections {
			if !strings.HasPrefix(key, section+"_") {
				continue
			}
			field := strings.TrimPrefix(key, section+"_")
			v.Set(section+"."+field, pair[1])

			// Nested section fields use a second dot, e.g.
			// AUTH_PASSWORD_MIN_LENGTH -> auth.password.min_length.
			if idx := strings.Index(field, "_"); idx > 0 {
				v.Set(section+"."+field[:idx]+"."+field[idx+1:], pair[1])
			}
		}
	}
}

func firstExisting(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
