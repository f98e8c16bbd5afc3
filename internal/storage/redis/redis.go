// Package redis stores snapshots in Redis with a sliding TTL.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/lifestyle/storefront/pkg/database"
	apperrors "github.com/lifestyle/storefront/pkg/errors"
)

// Store implements storage.Storage on a Redis client. Every Set refreshes the
// key's TTL, so a snapshot lives for ttl after the last mutation.
type Store struct {
	client *goredis.Client
	ttl    time.Duration
}

// New creates a Redis-backed store. A zero ttl stores keys without expiry.
func New(client *goredis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) Get(ctx context.Context, key string) (data []byte, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemRedis, "GET", "GET "+key)
	defer func() { end(err) }()

	data, err = s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, apperrors.NotFound("storage key", key)
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) (err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemRedis, "SET", "SET "+key)
	defer func() { end(err) }()

	if err = s.client.Set(ctx, key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) (err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemRedis, "DEL", "DEL "+key)
	defer func() { end(err) }()

	if err = s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
