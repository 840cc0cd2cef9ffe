package config

import (
	"path/filepath"
	"strings"
	"time"
)

type StoreDriver string

const (
	StoreDriverFile   StoreDriver = "file"
	StoreDriverSQLite StoreDriver = "sqlite"
	StoreDriverRedis  StoreDriver = "redis"
	StoreDriverMemory StoreDriver = "memory"
	StoreDriverNone   StoreDriver = "none"
)

const (
	storeDriverVar  = "DOCS_AUTH_STORE"
	redisAddrVar    = "DOCS_AUTH_REDIS_ADDR"
	redisTimeoutVar = "DOCS_AUTH_REDIS_TIMEOUT"
)

type StorageConfig interface {
	GetStoreDriver() StoreDriver
	GetSessionFilePath() string
	GetSQLitePath() string
	GetRedisAddr() string
	GetRedisTimeout() time.Duration
}

type Storage struct{}

var _ StorageConfig = Storage{}

func (Storage) GetStoreDriver() StoreDriver {
	switch d := StoreDriver(strings.ToLower(GetEnv(storeDriverVar, string(StoreDriverFile)))); d {
	case StoreDriverFile, StoreDriverSQLite, StoreDriverRedis, StoreDriverMemory, StoreDriverNone:
		return d
	default:
		return StoreDriverFile
	}
}

func (Storage) GetSessionFilePath() string {
	return filepath.Join(EnvVars{}.GetDataFolder(), "session.yaml")
}

func (Storage) GetSQLitePath() string {
	return filepath.Join(EnvVars{}.GetDataFolder(), "session.db")
}

func (Storage) GetRedisAddr() string {
	return GetEnv(redisAddrVar, "localhost:6379")
}

func (Storage) GetRedisTimeout() time.Duration {
	return GetEnvDuration(redisTimeoutVar, 3*time.Second)
}
