package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Mohsinsiddi/battlepass/internal/sale"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisURL is used when no URL is configured.
const DefaultRedisURL = "redis://localhost:6379/0"

// RedisStore keeps the snapshot as one JSON value under
// battlepass:<name>:state.
type RedisStore struct {
	rdb *redis.Client
	key string
}

// NewRedisStore connects lazily; the first Load or Save dials.
func NewRedisStore(url, name string) (*RedisStore, error) {
	if url == "" {
		url = DefaultRedisURL
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	return NewRedisStoreFromClient(redis.NewClient(opts), name), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(rdb *redis.Client, name string) *RedisStore {
	if name == "" {
		name = "default"
	}
	return &RedisStore{rdb: rdb, key: "battlepass:" + name + ":state"}
}

// Key returns the redis key the snapshot lives under.
func (r *RedisStore) Key() string { return r.key }

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *RedisStore) Load(ctx context.Context) (*sale.Snapshot, error) {
	data, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotDeployed
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	return decode(data)
}

func (r *RedisStore) Save(ctx context.Context, s *sale.Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := r.rdb.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

// Delete removes the snapshot.
func (r *RedisStore) Delete(ctx context.Context) error {
	return r.rdb.Del(ctx, r.key).Err()
}

func (r *RedisStore) Close() error { return r.rdb.Close() }
