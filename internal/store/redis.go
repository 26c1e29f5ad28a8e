package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisBackend adapts a *redis.Client to the remoteBackend interface TaskStore needs.
type redisBackend struct {
	client *redis.Client
}

// OpenRedis connects to url (a redis:// connection string). Returns nil, nil if url
// is empty, matching "STORE_URL empty -> always fallback".
func OpenRedis(url string) (*redisBackend, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &redisBackend{client: redis.NewClient(opts)}, nil
}

func (b *redisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}

func (b *redisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (b *redisBackend) ScanKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := b.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

func (b *redisBackend) Del(ctx context.Context, key string) error {
	return b.client.Del(ctx, key).Err()
}

func (b *redisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *redisBackend) Close() error {
	return b.client.Close()
}
