// Package cache provides the Redis-backed embedding cache. Vectors are
// stored as JSON under content-hash keys with a TTL, so unchanged text
// never pays for a second provider call while the entry lives.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/workstreamlabs/retrieval/internal/config"
)

func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// EmbeddingCache satisfies the generator's cache contract. All failures
// degrade to a miss; a broken cache must never break embedding.
type EmbeddingCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewEmbeddingCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *EmbeddingCache {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &EmbeddingCache{client: client, ttl: ttl, logger: logger}
}

func (c *EmbeddingCache) Get(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("embedding cache get failed", "error", err)
		}
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil {
		c.logger.Warn("embedding cache entry corrupt, dropping", "key", key, "error", err)
		c.client.Del(ctx, key)
		return nil, false
	}
	return vec, true
}

func (c *EmbeddingCache) Put(ctx context.Context, key string, vec []float32) {
	data, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("embedding cache put failed", "error", err)
	}
}

func (c *EmbeddingCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *EmbeddingCache) Close() error {
	return c.client.Close()
}
