// Package cache memoizes pipeline results in Redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"itemsclassification/internal/metrics"
)

const DefaultTTL = 24 * time.Hour

type Config struct {
	Enabled  bool          `mapstructure:"enabled"`
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Cache stores JSON values under "{namespace}:{sha256 of the input}".
// A nil *Cache or one without a client misses every lookup and stores
// nothing.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.SugaredLogger
}

// NewClient connects to Redis as described by cfg. It returns nil when the
// cache is disabled.
func NewClient(cfg Config) *redis.Client {
	if !cfg.Enabled || cfg.Address == "" {
		return nil
	}

	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

func New(client *redis.Client, ttl time.Duration, logger *zap.SugaredLogger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger.With("service", "cache"),
	}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

// Key derives the cache key of input. input is hashed in its JSON form.
func Key(namespace string, input any) (string, error) {
	b, err := json.Marshal(input)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(b)
	return fmt.Sprintf("%v:%v", namespace, hex.EncodeToString(sum[:])), nil
}

// Get loads the value cached for input into out. Redis failures are logged
// and reported as a miss.
func (c *Cache) Get(ctx context.Context, namespace string, input, out any) bool {
	if !c.enabled() {
		return false
	}

	key, err := Key(namespace, input)
	if err != nil {
		return false
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warnw("Cache lookup failed", "key", key, "error", err)
		}
		metrics.CacheLookups.WithLabelValues(namespace, "miss").Inc()
		return false
	}

	if err := json.Unmarshal(raw, out); err != nil {
		c.logger.Warnw("Dropping unreadable cache entry", "key", key, "error", err)
		c.client.Del(ctx, key)
		metrics.CacheLookups.WithLabelValues(namespace, "miss").Inc()
		return false
	}

	metrics.CacheLookups.WithLabelValues(namespace, "hit").Inc()
	return true
}

// Set caches value for input.
func (c *Cache) Set(ctx context.Context, namespace string, input, value any) {
	if !c.enabled() {
		return
	}

	key, err := Key(namespace, input)
	if err != nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warnw("Cannot encode cache entry", "key", key, "error", err)
		return
	}

	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warnw("Cache store failed", "key", key, "error", err)
	}
}

func (c *Cache) Ping(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	if !c.enabled() {
		return nil
	}
	return c.client.Close()
}
