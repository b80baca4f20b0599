// Package cache keeps short-lived copies of the stock API lists in redis so that
// several dashboard replicas do not each hit the remote API on every refresh.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mattressworks/stockboard/internal/stock/domain"
	"github.com/mattressworks/stockboard/pkg/config"
	"github.com/mattressworks/stockboard/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "stockboard:"

// Snapshot keys
const (
	KeyMaterials = keyPrefix + "materials"
	KeyProducts  = keyPrefix + "products"
	KeyGroups    = keyPrefix + "groups"
)

// Cache is a redis-backed snapshot cache. A nil *Cache is valid: every read misses
// and every write is dropped.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// New connects to redis and verifies the connection
func New(cfg *config.RedisConfig, log *logger.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewWithClient(client, cfg.TTL, log), nil
}

// NewWithClient wraps an existing redis client
func NewWithClient(client *redis.Client, ttl time.Duration, log *logger.Logger) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: log.WithComponent("snapshot-cache"),
	}
}

// Materials returns the cached material list
func (c *Cache) Materials(ctx context.Context) ([]domain.Material, bool) {
	return load[domain.Material](ctx, c, KeyMaterials)
}

// SetMaterials caches the material list
func (c *Cache) SetMaterials(ctx context.Context, materials []domain.Material) {
	c.store(ctx, KeyMaterials, materials)
}

// Products returns the cached product list
func (c *Cache) Products(ctx context.Context) ([]domain.Product, bool) {
	return load[domain.Product](ctx, c, KeyProducts)
}

// SetProducts caches the product list
func (c *Cache) SetProducts(ctx context.Context, products []domain.Product) {
	c.store(ctx, KeyProducts, products)
}

// Groups returns the cached group list
func (c *Cache) Groups(ctx context.Context) ([]domain.StockGroup, bool) {
	return load[domain.StockGroup](ctx, c, KeyGroups)
}

// SetGroups caches the group list
func (c *Cache) SetGroups(ctx context.Context, groups []domain.StockGroup) {
	c.store(ctx, KeyGroups, groups)
}

// Invalidate drops every snapshot key
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.client.Del(ctx, KeyMaterials, KeyProducts, KeyGroups).Err(); err != nil {
		return fmt.Errorf("failed to invalidate snapshot cache: %w", err)
	}
	return nil
}

// Health returns the health status of redis
func (c *Cache) Health(ctx context.Context) map[string]string {
	if c == nil {
		return map[string]string{"status": "disabled"}
	}
	status := map[string]string{"status": "up"}

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if err := c.client.Ping(ctx).Err(); err != nil {
		status["status"] = "down"
		status["error"] = err.Error()
	}
	return status
}

// Close closes the redis client
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

func load[T any](ctx context.Context, c *Cache, key string) ([]T, bool) {
	if c == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("snapshot cache read failed")
		}
		return nil, false
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("discarding unreadable cache entry")
		return nil, false
	}
	return items, true
}

func (c *Cache) store(ctx context.Context, key string, v interface{}) {
	if c == nil {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("failed to encode cache entry")
		return
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("snapshot cache write failed")
	}
}
