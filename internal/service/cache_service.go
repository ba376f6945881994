package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	apperrors "zamstay-be/pkg/errors"
	"zamstay-be/pkg/redis"
)

// CacheService stores JSON documents in Redis behind the environment-prefixed
// key space
type CacheService struct {
	redis  *redis.Client
	logger *zap.Logger
}

// NewCacheService creates a new cache service
func NewCacheService(redisClient *redis.Client, logger *zap.Logger) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{
		redis:  redisClient,
		logger: logger,
	}
}

// Keys returns the key builder of the underlying client
func (c *CacheService) Keys() *redis.KeyBuilder {
	return c.redis.KeyBuilder
}

// Get decodes the value at key into dst. A corrupted entry is deleted and
// reported as a miss.
func (c *CacheService) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, err := c.redis.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("Cache miss", zap.String("key", key))
		return false, nil
	}
	if err != nil {
		return false, apperrors.NewCacheUnavailableError("cache read failed", err)
	}

	if err := json.Unmarshal([]byte(data), dst); err != nil {
		c.logger.Warn("Cache entry corrupted, discarding",
			zap.String("key", key),
			zap.Error(err))
		if delErr := c.redis.Delete(ctx, key); delErr != nil {
			c.logger.Warn("Failed to delete corrupted cache entry",
				zap.String("key", key),
				zap.Error(delErr))
		}
		return false, nil
	}

	c.logger.Debug("Cache hit", zap.String("key", key))
	return true, nil
}

// Set stores v as JSON at key for ttl
func (c *CacheService) Set(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return apperrors.NewInternalError("failed to encode cache entry", err)
	}
	if err := c.redis.Set(ctx, key, data, ttl); err != nil {
		return apperrors.NewCacheUnavailableError("cache write failed", err)
	}
	return nil
}

// Delete removes keys
func (c *CacheService) Delete(ctx context.Context, keys ...string) error {
	if err := c.redis.Delete(ctx, keys...); err != nil {
		return apperrors.NewCacheUnavailableError("cache delete failed", err)
	}
	return nil
}

// DeletePattern removes every key matching pattern
func (c *CacheService) DeletePattern(ctx context.Context, pattern string) (int, error) {
	n, err := c.redis.DeletePattern(ctx, pattern)
	if err != nil {
		return n, apperrors.NewCacheUnavailableError("cache invalidation failed", err)
	}
	c.logger.Debug("Cache keys invalidated",
		zap.String("pattern", pattern),
		zap.Int("deleted", n))
	return n, nil
}
