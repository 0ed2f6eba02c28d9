package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	// Test cases
	tests := []struct {
		initial     *Config
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "Test1 OK", args: []string{"cmd",
			"-a", "127.0.0.1:9090", "-b", "postgres", "-d", "db", "-l", "redis", "-R", "redis://cache:6379/1",
			"-s", "access", "-S", "refresh", "-t", "1", "-r", "3", "-v", "debug", "-o", "otel:4318",
		}, expectPanic: false,
			initial: &Config{},
			expected: &Config{
				HTTPAddr:                     "127.0.0.1:9090",
				DatabaseDriver:               "postgres",
				DatabaseDSN:                  "db",
				LedgerBackend:                "redis",
				RedisURL:                     "redis://cache:6379/1",
				AccessSecret:                 "access",
				RefreshSecret:                "refresh",
				AccessTokenValidityDuration:  1 * time.Minute,
				RefreshTokenValidityDuration: 3 * time.Minute,
				LogLevel:                     "debug",
				OTLPEndpoint:                 "otel:4318",
			}},
		{name: "Test2 unset durations survive", args: []string{"cmd", "-a", ":1"}, expectPanic: false,
			initial:  &Config{AccessTokenValidityDuration: 90 * time.Second},
			expected: &Config{HTTPAddr: ":1", AccessTokenValidityDuration: 90 * time.Second}},
		{name: "Test3 incorrect ttl", args: []string{"cmd", "-t", "abc"}, expectPanic: true, initial: &Config{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			os.Args = tt.args

			config := tt.initial

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
