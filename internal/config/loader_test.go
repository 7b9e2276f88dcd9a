package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

const minimalYAML = `
app:
  name: alana-server
  environment: production
server:
  port: 9090
database:
  dsn: postgres://localhost/alana
auth:
  secret: yaml-secret
`

func TestLoadFromYAML(t *testing.T) {
	path := writeConfigFile(t, minimalYAML)

	var cfg Config
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.App.Environment != "production" {
		t.Errorf("environment = %q, want %q", cfg.App.Environment, "production")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Auth.Secret != "yaml-secret" {
		t.Errorf("secret = %q, want %q", cfg.Auth.Secret, "yaml-secret")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, minimalYAML)

	var cfg Config
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Auth.Algorithm != "HS256" {
		t.Errorf("algorithm default = %q, want HS256", cfg.Auth.Algorithm)
	}
	if cfg.Auth.AccessTokenTTL != 30*time.Minute {
		t.Errorf("token ttl default = %s, want 30m", cfg.Auth.AccessTokenTTL)
	}
	if cfg.Server.ShutdownTimeout != "10s" {
		t.Errorf("shutdown timeout default = %q, want 10s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("max open conns default = %d, want 25", cfg.Database.MaxOpenConns)
	}
}

func TestLoadEnvironmentOverridesYAML(t *testing.T) {
	path := writeConfigFile(t, minimalYAML)

	t.Setenv("AUTH_SECRET", "env-secret")
	t.Setenv("AUTH_OIDC_ISSUER", "https://idp.example.com")
	t.Setenv("DATABASE_DSN", "postgres://envhost/alana")

	var cfg Config
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Auth.Secret != "env-secret" {
		t.Errorf("secret = %q, want environment to win", cfg.Auth.Secret)
	}
	if cfg.Auth.OIDCIssuer != "https://idp.example.com" {
		t.Errorf("oidc issuer = %q, want value from environment", cfg.Auth.OIDCIssuer)
	}
	if cfg.Database.DSN != "postgres://envhost/alana" {
		t.Errorf("dsn = %q, want value from environment", cfg.Database.DSN)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := writeConfigFile(t, `
app:
  environment: production
database:
  dsn: postgres://localhost/alana
`)

	var cfg Config
	if err := Load(path, &cfg); err == nil {
		t.Error("expected validation error for missing auth.secret")
	}
}

func TestLoadRejectsBadEnvironment(t *testing.T) {
	path := writeConfigFile(t, `
app:
  environment: flying-circus
database:
  dsn: postgres://localhost/alana
auth:
  secret: s
`)

	var cfg Config
	if err := Load(path, &cfg); err == nil {
		t.Error("expected validation error for unknown environment")
	}
}
