package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// JsonConfig is the on-disk shape of the server configuration. Durations use
// timex.Duration so both "15m" and integer nanoseconds are accepted. Booleans
// are pointers so that an absent key keeps the current value.
type JsonConfig struct {
	HTTPAddr                     string         `json:"http_addr"`
	DatabaseDriver               string         `json:"database_driver"`
	DatabaseDSN                  string         `json:"database_dsn"`
	LedgerBackend                string         `json:"ledger"`
	RedisURL                     string         `json:"redis_url"`
	AccessSecret                 string         `json:"access_secret"`
	RefreshSecret                string         `json:"refresh_secret"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	BcryptCost                   int            `json:"bcrypt_cost"`
	SingleActiveSession          *bool          `json:"single_active_session"`
	AdminOnlyUserListing         *bool          `json:"admin_only_user_listing"`
	SeedAdmin                    *bool          `json:"seed_admin"`
	AdminUsername                string         `json:"admin_username"`
	AdminPassword                string         `json:"admin_password"`
	AdminEmail                   string         `json:"admin_email"`
	LogLevel                     string         `json:"log_level"`
	LogFormat                    string         `json:"log_format"`
	OTLPEndpoint                 string         `json:"otlp_endpoint"`
	ShutdownTimeout              timex.Duration `json:"shutdown_timeout"`
}

// parseJson loads configuration values from the JSON file named by -c or
// -config into config. Keys missing from the file leave the current value
// untouched. An unreadable file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.LedgerBackend, c.LedgerBackend)
	setString(&config.RedisURL, c.RedisURL)
	setString(&config.AccessSecret, c.AccessSecret)
	setString(&config.RefreshSecret, c.RefreshSecret)
	setString(&config.AdminUsername, c.AdminUsername)
	setString(&config.AdminPassword, c.AdminPassword)
	setString(&config.AdminEmail, c.AdminEmail)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.OTLPEndpoint, c.OTLPEndpoint)

	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.ShutdownTimeout.Duration != 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.SingleActiveSession != nil {
		config.SingleActiveSession = *c.SingleActiveSession
	}
	if c.AdminOnlyUserListing != nil {
		config.AdminOnlyUserListing = *c.AdminOnlyUserListing
	}
	if c.SeedAdmin != nil {
		config.SeedAdmin = *c.SeedAdmin
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
