package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sheldonroth/sheldonroth/pkg/logger"
	"github.com/sheldonroth/sheldonroth/storefront/internal/cart"
	"golang.org/x/sync/singleflight"
)

// CachedStorage reads through a Redis cache in front of a durable store.
// The durable store is the source of truth; cache errors never fail a call.
type CachedStorage struct {
	primary cart.Storage
	cache   *RedisStorage
	sfg     singleflight.Group // Prevents cache stampede
	logger  *slog.Logger
}

func NewCachedStorage(primary cart.Storage, cache *RedisStorage, log *slog.Logger) *CachedStorage {
	if log == nil {
		log = logger.Nop()
	}
	return &CachedStorage{
		primary: primary,
		cache:   cache,
		logger:  log,
	}
}

func (s *CachedStorage) Load(ctx context.Context, key string) ([]byte, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		data, err := s.cache.Load(ctx, key)
		if err == nil {
			return data, nil // cart is in cache
		}
		if !errors.Is(err, cart.ErrNotFound) {
			s.logger.WarnContext(ctx, "cache get error", "key", key, "error", err) // log cache error but continue
		}

		var (
			loaded  bool
			errLoad error
		)
		data, errFill := s.cache.Fill(ctx, key, func(ctx context.Context) ([]byte, error) {
			loaded = true
			var d []byte
			d, errLoad = s.primary.Load(ctx, key)
			return d, errLoad
		})
		if !loaded {
			// Redis failed before the primary was read.
			s.logger.WarnContext(ctx, "cache fill error", "key", key, "error", errFill)
			return s.primary.Load(ctx, key)
		}
		if errLoad != nil {
			return nil, errLoad
		}
		switch {
		case errors.Is(errFill, redis.TxFailedErr):
			s.logger.DebugContext(ctx, "cart saved during read, not caching", "key", key)
		case errFill != nil:
			s.logger.WarnContext(ctx, "cache set error", "key", key, "error", errFill)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Save writes the durable store first, then invalidates the cached copy.
func (s *CachedStorage) Save(ctx context.Context, key string, data []byte) error {
	if err := s.primary.Save(ctx, key, data); err != nil {
		return err
	}
	s.invalidate(key)
	return nil
}

func (s *CachedStorage) invalidate(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.logger.Warn("cache invalidate error", "key", key, "error", err)
	}
}
