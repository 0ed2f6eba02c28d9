package config

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every environment variable the server reads.
const EnvPrefix = "GOPHAUTH_"

const defaultEnvFile = ".env"

// parseEnv overlays GOPHAUTH_* environment variables onto config. A dotenv
// file named by -env (or ./.env when present) is loaded first; variables
// already set in the process environment win over the file.
func parseEnv(config *Config) {
	if err := loadEnvFile(flagx.EnvFileFlag()); err != nil {
		panic(err)
	}

	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		panic(err)
	}
}

func loadEnvFile(path string) error {
	if path != "" {
		return godotenv.Load(path)
	}
	err := godotenv.Load(defaultEnvFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
