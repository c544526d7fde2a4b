// Package cache implements the key-value side store (component B): TTL
// get/set, JSON serialization, atomic counters, and pattern delete. Every
// operation is best-effort — a miss or failure must never fail the caller,
// which is expected to fall back to the store.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client wraps a redis client with the narrow operation set the rest of
// the engine needs. Keys use the colon-delimited namespace
// cache:<domain>:<id>:<aspect>.
type Client struct {
	rdb *redis.Client
}

// Options configures the underlying connection pool.
type Options struct {
	URL      string
	PoolSize int
}

// New dials Redis and verifies connectivity once at startup.
func New(ctx context.Context, opts Options) (*Client, error) {
	parsed, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	if opts.PoolSize > 0 {
		parsed.PoolSize = opts.PoolSize
	} else {
		parsed.PoolSize = 20
	}
	parsed.DialTimeout = 5 * time.Second
	parsed.ReadTimeout = 3 * time.Second
	parsed.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(parsed)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close releases pooled connections.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Get returns the raw string value, or ("", false) on miss or error — a
// cache failure is never surfaced to the caller.
func (c *Client) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Set stores a scalar value with an optional TTL (zero means no expiry).
func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) {
	c.rdb.Set(ctx, key, value, ttl)
}

// Delete removes a single key; best-effort.
func (c *Client) Delete(ctx context.Context, key string) {
	c.rdb.Del(ctx, key)
}

// Exists reports whether a key is present.
func (c *Client) Exists(ctx context.Context, key string) bool {
	n, err := c.rdb.Exists(ctx, key).Result()
	return err == nil && n > 0
}

// TTL returns the remaining lifetime of a key, or 0 if absent/errored.
func (c *Client) TTL(ctx context.Context, key string) time.Duration {
	d, err := c.rdb.TTL(ctx, key).Result()
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// Increment atomically adds n to the counter at key, creating it at n if
// absent. The caller is responsible for setting a TTL on first increment
// (see internal/ratelimit, which needs "first increment sets the window").
func (c *Client) Increment(ctx context.Context, key string, n int64) (int64, error) {
	val, err := c.rdb.IncrBy(ctx, key, n).Result()
	if err != nil {
		return 0, fmt.Errorf("cache increment: %w", err)
	}
	return val, nil
}

// Expire sets a TTL on an existing key without touching its value.
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) {
	c.rdb.Expire(ctx, key, ttl)
}

// GetJSON decodes a JSON-encoded value into dest, returning false on miss,
// transport failure, or a corrupt payload (which it also deletes).
func (c *Client) GetJSON(ctx context.Context, key string, dest any) bool {
	raw, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		c.Delete(ctx, key)
		return false
	}
	return true
}

// SetJSON encodes value deterministically via encoding/json and stores it
// with the given TTL.
func (c *Client) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	c.rdb.Set(ctx, key, data, ttl)
	return nil
}

// DeleteByPrefix deletes every key matching pattern* using SCAN + pipelined
// DEL, never the blocking KEYS command.
func (c *Client) DeleteByPrefix(ctx context.Context, prefix string) {
	var cursor uint64
	match := prefix + "*"
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, match, 200).Result()
		if err != nil {
			return
		}
		if len(keys) > 0 {
			pipe := c.rdb.Pipeline()
			for _, k := range keys {
				pipe.Del(ctx, k)
			}
			pipe.Exec(ctx)
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}

// Key builds a colon-delimited namespaced key: cache:<domain>:<id>:<aspect>.
func Key(domain, id, aspect string) string {
	if aspect == "" {
		return fmt.Sprintf("cache:%s:%s", domain, id)
	}
	return fmt.Sprintf("cache:%s:%s:%s", domain, id, aspect)
}
