package storage

import (
	"fmt"
	"io"

	"github.com/jrsteele09/go-docs-auth/internal/config"
	"github.com/jrsteele09/go-docs-auth/sessions"
	"github.com/jrsteele09/go-docs-auth/sessions/filerepo"
	"github.com/jrsteele09/go-docs-auth/sessions/redisrepo"
	fakesessionrepo "github.com/jrsteele09/go-docs-auth/sessions/repofakes"
	"github.com/jrsteele09/go-docs-auth/sessions/sqliterepo"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open returns the session repo selected by cfg for origin, plus a closer
// for whatever connection it holds. The none driver returns a nil repo.
func Open(cfg config.StorageConfig, origin string) (sessions.Repo, io.Closer, error) {
	driver := cfg.GetStoreDriver()
	log.Debug().Str("driver", string(driver)).Str("origin", origin).Msg("opening session store")

	switch driver {
	case config.StoreDriverNone:
		return nil, nopCloser{}, nil
	case config.StoreDriverMemory:
		return fakesessionrepo.NewFakeSessionRepo(), nopCloser{}, nil
	case config.StoreDriverSQLite:
		repo, err := sqliterepo.Open(cfg.GetSQLitePath(), origin)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo, nil
	case config.StoreDriverRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.GetRedisAddr()})
		repo, err := redisrepo.New(client, origin, cfg.GetRedisTimeout())
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		return repo, client, nil
	case config.StoreDriverFile:
		repo, err := filerepo.New(cfg.GetSessionFilePath(), origin)
		if err != nil {
			return nil, nil, err
		}
		return repo, nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", driver)
	}
}
