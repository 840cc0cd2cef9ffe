package config

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config interface {
	EnvConfig
	AuthConfig
	StorageConfig
}

type EnvConfig interface {
	GetAppName() string
	GetDataFolder() string
	GetLogLevel() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	Auth
	Storage
}

// New returns the environment backed configuration. A .env file in the
// working directory is loaded first when present; variables already set in
// the process environment win.
func New() Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env file")
	}
	return mainConfig{}
}
