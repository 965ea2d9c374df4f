// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

const keyPrefix = "sourcing:rs:"

// RedisStore is a Store backed by Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the Redis server at url
// (e.g. "redis://localhost:6379/0") and verifies the connection.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, eris.Wrap(err, "parsing redis URL")
	}
	client := redis.NewClient(opts)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		client.Close()
		return nil, eris.Wrap(err, "connecting to redis")
	}
	return &RedisStore{client: client}, nil
}

// Get returns the stored value or ErrMiss.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, eris.Wrap(err, "redis get")
	}
	return data, nil
}

// Set stores value under key for ttl.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, keyPrefix+key, value, ttl).Err(); err != nil {
		return eris.Wrap(err, "redis set")
	}
	return nil
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
