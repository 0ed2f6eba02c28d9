// Package config handles configuration for the server component,
// including defaults, JSON overlay, environment and command-line flags.
package config

import (
	"fmt"
	"time"
)

// Database drivers understood by the repository manager.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Ledger backends.
const (
	LedgerSQL   = "sql"
	LedgerRedis = "redis"
)

// Config holds runtime settings for the gophauth server.
//
// Fields:
//   - HTTPAddr: bind address for the HTTP API.
//   - DatabaseDriver / DatabaseDSN: credential store and SQL ledger backend.
//   - LedgerBackend / RedisURL: where issued tokens are tracked.
//   - AccessSecret / RefreshSecret: HMAC keys for the two token classes. They must differ.
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: token lifetimes.
//   - SingleActiveSession: login and register revoke earlier access tokens.
//   - AdminOnlyUserListing: GET /users/ requires ROLE_ADMIN.
//   - SeedAdmin and Admin*: bootstrap administrator created on start.
type Config struct {
	HTTPAddr                     string        `env:"HTTP_ADDR"`
	DatabaseDriver               string        `env:"DB_DRIVER"`
	DatabaseDSN                  string        `env:"DATABASE_DSN"`
	LedgerBackend                string        `env:"LEDGER"`
	RedisURL                     string        `env:"REDIS_URL"`
	AccessSecret                 string        `env:"ACCESS_SECRET"`
	RefreshSecret                string        `env:"REFRESH_SECRET"`
	AccessTokenValidityDuration  time.Duration `env:"ACCESS_TOKEN_TTL"`
	RefreshTokenValidityDuration time.Duration `env:"REFRESH_TOKEN_TTL"`
	BcryptCost                   int           `env:"BCRYPT_COST"`
	SingleActiveSession          bool          `env:"SINGLE_ACTIVE_SESSION"`
	AdminOnlyUserListing         bool          `env:"ADMIN_ONLY_USER_LISTING"`
	SeedAdmin                    bool          `env:"SEED_ADMIN"`
	AdminUsername                string        `env:"ADMIN_USERNAME"`
	AdminPassword                string        `env:"ADMIN_PASSWORD"`
	AdminEmail                   string        `env:"ADMIN_EMAIL"`
	LogLevel                     string        `env:"LOG_LEVEL"`
	LogFormat                    string        `env:"LOG_FORMAT"`
	OTLPEndpoint                 string        `env:"OTLP_ENDPOINT"`
	ShutdownTimeout              time.Duration `env:"SHUTDOWN_TIMEOUT"`
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secrets and the admin password are insecure and must be overridden in production.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.DatabaseDriver = DriverSQLite
	c.DatabaseDSN = "gophauth.db"
	c.LedgerBackend = LedgerSQL
	c.RedisURL = "redis://127.0.0.1:6379/0"
	c.AccessSecret = "access-secret-change-me"
	c.RefreshSecret = "refresh-secret-change-me"
	c.AccessTokenValidityDuration = 15 * time.Minute
	c.RefreshTokenValidityDuration = 7 * 24 * time.Hour
	c.BcryptCost = 10
	c.SingleActiveSession = true
	c.AdminOnlyUserListing = false
	c.SeedAdmin = true
	c.AdminUsername = "admin"
	c.AdminPassword = "password"
	c.AdminEmail = "admin@mail.com"
	c.LogLevel = "info"
	c.LogFormat = "json"
	c.OTLPEndpoint = ""
	c.ShutdownTimeout = 10 * time.Second
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.DatabaseDriver)
	}
	switch c.LedgerBackend {
	case LedgerSQL, LedgerRedis:
	default:
		return fmt.Errorf("unsupported ledger backend %q", c.LedgerBackend)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("database dsn is empty")
	}
	if c.LedgerBackend == LedgerRedis && c.RedisURL == "" {
		return fmt.Errorf("redis ledger requires a redis url")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment (optionally seeded from a
// .env file) and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
