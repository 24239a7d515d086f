package storage

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sheldonroth/sheldonroth/storefront/internal/cart"
)

// DefaultTTL keeps an untouched cart around for roughly three months.
const DefaultTTL = 90 * 24 * time.Hour

func NewRedisStorage(client *redis.Client) *RedisStorage {
	return &RedisStorage{
		client:  client,
		baseTTL: DefaultTTL,
	}
}

// RedisStorage keeps each serialized cart as a plain string value. The TTL is
// refreshed on every save.
type RedisStorage struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisStorage) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cart.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (r *RedisStorage) Save(ctx context.Context, key string, data []byte) error {
	jitter := time.Duration(rand.Intn(24)) * time.Hour
	if err := r.client.Set(ctx, key, data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Fill loads a value with load and caches it, unless Invalidate ran for the
// key in the meantime. A lost race leaves the cache empty and returns
// redis.TxFailedErr. Errors from load are returned unchanged.
func (r *RedisStorage) Fill(ctx context.Context, key string, load func(context.Context) ([]byte, error)) ([]byte, error) {
	var data []byte
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		var errLoad error
		data, errLoad = load(ctx)
		if errLoad != nil {
			return errLoad
		}
		_, errSet := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.baseTTL)
			return nil
		})
		return errSet
	}, versionKey(key))
	return data, err
}

// Invalidate drops the cached value and bumps the key version so that a
// concurrent Fill started before the bump does not cache what it read.
func (r *RedisStorage) Invalidate(ctx context.Context, key string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(key))
		pipe.Expire(ctx, versionKey(key), r.baseTTL)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate failed: %w", err)
	}
	return nil
}

func versionKey(key string) string {
	return key + ":version"
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
