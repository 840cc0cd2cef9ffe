package redisrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/jrsteele09/go-docs-auth/internal/errors"
	"github.com/jrsteele09/go-docs-auth/sessions"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "docsauth"

var _ sessions.Repo = (*RedisRepo)(nil)

// RedisRepo keeps session records in Redis under docsauth:<origin>:<key>.
// Values never expire; a session lives until it is removed.
type RedisRepo struct {
	client  *redis.Client
	origin  string
	timeout time.Duration
}

func New(client *redis.Client, origin string, timeout time.Duration) (*RedisRepo, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if origin == "" {
		return nil, fmt.Errorf("origin is required")
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &RedisRepo{client: client, origin: origin, timeout: timeout}, nil
}

// Key returns the redis key that holds key for this repo's origin.
func (r *RedisRepo) Key(key string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, r.origin, key)
}

func (r *RedisRepo) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.client.Set(ctx, r.Key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisRepo) Get(key string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	value, err := r.client.Get(ctx, r.Key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", apperrors.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

func (r *RedisRepo) Remove(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.client.Del(ctx, r.Key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
