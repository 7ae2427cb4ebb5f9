package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/golang/snappy"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces flowmap keys in a shared Redis.
const DefaultRedisPrefix = "flowmap:cache:"

// RedisOptions configures a RedisCache.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // defaults to DefaultRedisPrefix
}

// RedisCache stores snappy-compressed values in Redis. Transient network
// failures are retried with backoff.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisCache connects to Redis and verifies the connection with PING.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}
	return NewRedisCacheFromClient(client, opts.Prefix), nil
}

// NewRedisCacheFromClient wraps an existing client. The cache takes
// ownership and closes it on Close.
func NewRedisCacheFromClient(client redis.UniversalClient, prefix string) *RedisCache {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisCache{client: client, prefix: prefix}
}

// Get retrieves and decompresses a value.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var raw []byte
	err := RetryWithBackoff(ctx, func() error {
		b, err := c.client.Get(ctx, c.prefix+key).Bytes()
		if err != nil {
			return classify(err)
		}
		raw = b
		return nil
	})
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	data, err := snappy.Decode(nil, raw)
	if err != nil {
		// Not written by us or truncated; drop it.
		_ = c.client.Del(ctx, c.prefix+key).Err()
		return nil, false, nil
	}
	return data, true, nil
}

// Set compresses and stores a value.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	encoded := snappy.Encode(nil, data)
	err := RetryWithBackoff(ctx, func() error {
		return classify(c.client.Set(ctx, c.prefix+key, encoded, ttl).Err())
	})
	if err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a value.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	err := RetryWithBackoff(ctx, func() error {
		return classify(c.client.Del(ctx, c.prefix+key).Err())
	})
	if err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Clear deletes every key under the cache prefix.
func (c *RedisCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 500).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 500 {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("redis clear: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(batch) > 0 {
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis clear: %w", err)
		}
	}
	return nil
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// classify marks connection-level failures as retryable.
func classify(err error) error {
	if err == nil || errors.Is(err, redis.Nil) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return Retryable(err)
	}
	return err
}

var (
	_ Cache   = (*RedisCache)(nil)
	_ Clearer = (*RedisCache)(nil)
)
