package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// AcquirePaymentLock takes a short-lived per-order lock around terminal
// payment transitions. Best effort: all success paths write the same
// terminal values, so a missed lock only risks a duplicate history row.
func (c *Client) AcquirePaymentLock(ctx context.Context, orderID int64, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:payment:%d", orderID), "1", ttl).Result()
}

// ReleasePaymentLock releases a per-order payment lock
func (c *Client) ReleasePaymentLock(ctx context.Context, orderID int64) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:payment:%d", orderID)).Err()
}

// CacheGatewayStatus stores a gateway poll response briefly, shielding the
// gateway status endpoint from client poll loops.
func (c *Client) CacheGatewayStatus(ctx context.Context, gatewayOrderID string, payload []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("gwstatus:%s", gatewayOrderID), payload, ttl).Err()
}

// GetCachedGatewayStatus returns a cached poll response, or nil when absent
func (c *Client) GetCachedGatewayStatus(ctx context.Context, gatewayOrderID string) ([]byte, error) {
	val, err := c.rdb.Get(ctx, fmt.Sprintf("gwstatus:%s", gatewayOrderID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// InvalidateGatewayStatus drops the cached poll response, used once a
// session reaches a terminal state.
func (c *Client) InvalidateGatewayStatus(ctx context.Context, gatewayOrderID string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("gwstatus:%s", gatewayOrderID)).Err()
}
