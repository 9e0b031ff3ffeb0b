// Package config parses and validates all application configuration from
// environment variables using caarlos0/env/v11.
//
// Call [Load] once at startup; pass the resulting [Config] to subcommands.
// Load fails if any field tagged "required" is missing or empty, if JWT_SECRET
// is shorter than [MinJWTSecretLen], or if the access
// policy settings are inconsistent with the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Access policy modes.
const (
	// PolicyEnforce evaluates every tool check against the capability table.
	PolicyEnforce = "enforce"
	// PolicyOpen grants every tool check. Development and demos only.
	PolicyOpen = "open"
)

// MinJWTSecretLen is the shortest accepted JWT_SECRET, in bytes.
const MinJWTSecretLen = 32

// Config holds all application configuration sourced from environment variables.
type Config struct {
	// ── Database ─────────────────────────────────────────────────────────────────
	DatabaseURL          string        `env:"DATABASE_URL,required,notEmpty"`
	DatabaseURLMigrate   string        `env:"DATABASE_URL_MIGRATE"`
	DBMaxConns           int32         `env:"DB_MAX_CONNS"            envDefault:"25"`
	DBMaxConnIdleTime    time.Duration `env:"DB_MAX_CONN_IDLE_TIME"   envDefault:"5m"`
	DBStatementTimeoutMS int           `env:"DB_STATEMENT_TIMEOUT_MS" envDefault:"14000"`
	// DBQueryExecMode: "simple_protocol" (PgBouncer-compatible) or "extended_protocol".
	DBQueryExecMode string `env:"DB_QUERY_EXEC_MODE" envDefault:"simple_protocol"`

	// ── Server ───────────────────────────────────────────────────────────────────
	ListenAddr             string `env:"LISTEN_ADDR"              envDefault:":8080"`
	AppEnv                 string `env:"APP_ENV"                  envDefault:"development"`
	ShutdownTimeoutSeconds int    `env:"SHUTDOWN_TIMEOUT_SECONDS" envDefault:"30"`

	// ── Auth ─────────────────────────────────────────────────────────────────────
	// JWTSecret signs and verifies HS256 access tokens; at least MinJWTSecretLen bytes.
	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`

	// ── Access policy ────────────────────────────────────────────────────────────
	// AccessPolicyMode: "enforce" or "open". Open requires APP_ENV=development or test.
	AccessPolicyMode string `env:"ACCESS_POLICY_MODE" envDefault:"enforce"`
	// AccessPolicyFile replaces the built-in capability table when set.
	AccessPolicyFile string `env:"ACCESS_POLICY_FILE"`

	// ── API keys ─────────────────────────────────────────────────────────────────
	// Revoked or expired keys older than APIKeyRetention are pruned every APIKeyPruneInterval.
	APIKeyRetention     time.Duration `env:"API_KEY_RETENTION"      envDefault:"720h"`
	APIKeyPruneInterval time.Duration `env:"API_KEY_PRUNE_INTERVAL" envDefault:"1h"`

	// ── Rate limiting ────────────────────────────────────────────────────────────
	RateLimitEvictTTL time.Duration `env:"RATE_LIMIT_EVICT_TTL" envDefault:"15m"`

	// ── Logging ──────────────────────────────────────────────────────────────────
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// appEnvExplicit is set when APP_ENV came from the environment rather than envDefault.
	appEnvExplicit bool
}

// Load parses and returns Config from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	cfg.appEnvExplicit = strings.TrimSpace(os.Getenv("APP_ENV")) != ""
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.JWTSecret) < MinJWTSecretLen {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", MinJWTSecretLen)
	}
	c.AccessPolicyMode = strings.ToLower(strings.TrimSpace(c.AccessPolicyMode))
	switch c.AccessPolicyMode {
	case PolicyEnforce:
	case PolicyOpen:
		// Open mode must be asked for alongside a non-production APP_ENV;
		// the development default alone is not enough.
		if !c.appEnvExplicit || (c.AppEnv != "development" && c.AppEnv != "test") {
			return fmt.Errorf("ACCESS_POLICY_MODE=open is not allowed unless APP_ENV is explicitly development or test (got %q)", c.AppEnv)
		}
	default:
		return fmt.Errorf("invalid ACCESS_POLICY_MODE %q (allowed: %s|%s)", c.AccessPolicyMode, PolicyEnforce, PolicyOpen)
	}
	return nil
}

// IsDevelopment reports whether the application is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction reports whether the application is running in production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// OpenPolicy reports whether the access resolver should grant every check.
func (c *Config) OpenPolicy() bool {
	return c.AccessPolicyMode == PolicyOpen
}
