package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseEnv(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("reads prefixed variables", func(t *testing.T) {
		os.Args = []string{"testbin"}
		t.Setenv("GOPHAUTH_LEDGER", "redis")
		t.Setenv("GOPHAUTH_ACCESS_TOKEN_TTL", "45s")
		t.Setenv("GOPHAUTH_SINGLE_ACTIVE_SESSION", "false")
		t.Setenv("GOPHAUTH_BCRYPT_COST", "6")

		cfg := &Config{}
		cfg.LoadDefaults()
		parseEnv(cfg)

		assert.Equal(t, LedgerRedis, cfg.LedgerBackend)
		assert.Equal(t, 45*time.Second, cfg.AccessTokenValidityDuration)
		assert.False(t, cfg.SingleActiveSession)
		assert.Equal(t, 6, cfg.BcryptCost)
		assert.Equal(t, ":8080", cfg.HTTPAddr)
	})

	t.Run("dotenv file does not override the process environment", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.env")
		require.NoError(t, os.WriteFile(path, []byte("GOPHAUTH_ADMIN_EMAIL=file@example.com\nGOPHAUTH_ADMIN_USERNAME=file-admin\n"), 0o600))
		t.Cleanup(func() {
			_ = os.Unsetenv("GOPHAUTH_ADMIN_EMAIL")
		})
		t.Setenv("GOPHAUTH_ADMIN_USERNAME", "env-admin")

		os.Args = []string{"testbin", "-env", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseEnv(cfg)

		assert.Equal(t, "file@example.com", cfg.AdminEmail)
		assert.Equal(t, "env-admin", cfg.AdminUsername)
	})

	t.Run("missing explicit dotenv file panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-env", filepath.Join(t.TempDir(), "absent.env")}

		require.Panics(t, func() { parseEnv(&Config{}) })
	})

	t.Run("bad value panics", func(t *testing.T) {
		os.Args = []string{"testbin"}
		t.Setenv("GOPHAUTH_BCRYPT_COST", "many")

		require.Panics(t, func() { parseEnv(&Config{}) })
	})
}
