package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ikkim/littlelemon-backend/config"
	"github.com/ikkim/littlelemon-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix       = "littlelemon"
	blacklistPrefix = "blacklist"
	throttlePrefix  = "throttle"
)

// Client wraps go-redis with the key layout used by the API.
type Client struct {
	rdb *redis.Client
}

// New connects and pings Redis
func New(cfg *config.RedisConfig) (*Client, error) {
	logger.Info("Initializing Redis connection", logger.Fields{
		"addr": cfg.Addr(),
		"db":   cfg.DB,
	})

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, logger.Fields{"addr": cfg.Addr()})
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully")
	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	logger.Info("Closing Redis connection")
	return c.rdb.Close()
}

// Ping is used by the health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// BlacklistToken marks a token id as revoked until expiry
func (c *Client) BlacklistToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	if expiry <= 0 {
		return nil
	}
	if err := c.rdb.Set(ctx, BlacklistKey(tokenID), "revoked", expiry).Err(); err != nil {
		logger.Error("Failed to blacklist token", err)
		return err
	}
	logger.Debug("Token blacklisted", logger.Fields{"expiry": expiry.String()})
	return nil
}

// IsTokenBlacklisted checks if a token id has been revoked
func (c *Client) IsTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	val, err := c.rdb.Get(ctx, BlacklistKey(tokenID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to check token blacklist", err)
		return false, err
	}
	return val == "revoked", nil
}

// IncrWithTTL increments key and sets the TTL on the first increment.
func (c *Client) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if ttl > 0 && count == 1 {
		if err := c.rdb.Expire(ctx, key, ttl).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}

// TTL returns the remaining lifetime of key.
func (c *Client) TTL(ctx context.Context, key string) (time.Duration, error) {
	return c.rdb.TTL(ctx, key).Result()
}

func BlacklistKey(tokenID string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, blacklistPrefix, tokenID)
}

// ThrottleKey namespaces a rate-limit counter for one scope and subject
// inside the current fixed window.
func ThrottleKey(scope, subject string, window time.Duration, now time.Time) string {
	bucket := int64(0)
	if window > 0 {
		bucket = now.UnixNano() / int64(window)
	}
	return fmt.Sprintf("%s:%s:%s:%s:%d", keyPrefix, throttlePrefix, scope, subject, bucket)
}
