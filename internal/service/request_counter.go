package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"zamstay-be/pkg/logger"
	"zamstay-be/pkg/redis"
)

// requestCounter keeps one Redis counter per calendar day
type requestCounter struct {
	redisClient *redis.Client
	clock       clockwork.Clock
	location    *time.Location
	logger      *logger.Logger
}

// NewRequestCounter creates a Redis-backed request counter. Days are
// calendar dates in loc.
func NewRequestCounter(redisClient *redis.Client, clock clockwork.Clock, loc *time.Location, log *logger.Logger) RequestCounter {
	if loc == nil {
		loc = time.UTC
	}
	return &requestCounter{
		redisClient: redisClient,
		clock:       clock,
		location:    loc,
		logger:      log,
	}
}

func (c *requestCounter) key() string {
	return c.redisClient.KeyBuilder.KeyRequestsDaily(c.clock.Now().In(c.location).Format(dateLayout))
}

// Increment adds one request to today's counter
func (c *requestCounter) Increment(ctx context.Context) error {
	key := c.key()

	pipe := c.redisClient.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, redis.TTLRequestsDaily)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to count request: %w", err)
	}
	return nil
}

// Today returns today's counter; a day without requests is zero
func (c *requestCounter) Today(ctx context.Context) (int64, error) {
	val, err := c.redisClient.Get(ctx, c.key())
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read request counter: %w", err)
	}

	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		c.logger.WithField("value", val).Warn("Request counter holds a non-numeric value")
		return 0, fmt.Errorf("malformed request counter: %w", err)
	}
	return n, nil
}
