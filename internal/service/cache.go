package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/RezaAbdollahigit/StoreTrack/internal/domain"
)

const productCacheTTL = 5 * time.Minute

// ProductCache is a read-through cache for catalog rows. Every stock write
// must drop the affected keys, whichever service performed it, so a cached
// product never outlives its quantity. Implementations are safe for
// concurrent use; a nil ProductCache disables caching.
type ProductCache interface {
	Get(ctx context.Context, id uint) (*domain.Product, bool)
	Set(ctx context.Context, product *domain.Product)
	Drop(ctx context.Context, id uint)
}

type redisProductCache struct {
	client *redis.Client
}

// NewRedisProductCache wraps a Redis client. All writes happen off the
// request path; a Redis outage degrades to database reads.
func NewRedisProductCache(client *redis.Client) ProductCache {
	return &redisProductCache{client: client}
}

func (c *redisProductCache) Get(ctx context.Context, id uint) (*domain.Product, bool) {
	cached, err := c.client.Get(ctx, productCacheKey(id)).Result()
	if err != nil {
		return nil, false
	}
	var p domain.Product
	if json.Unmarshal([]byte(cached), &p) != nil {
		return nil, false
	}
	return &p, true
}

func (c *redisProductCache) Set(_ context.Context, product *domain.Product) {
	data, err := json.Marshal(product)
	if err != nil {
		return
	}
	go c.client.Set(context.Background(), productCacheKey(product.ID), data, productCacheTTL)
}

func (c *redisProductCache) Drop(_ context.Context, id uint) {
	go c.client.Del(context.Background(), productCacheKey(id))
}

func productCacheKey(id uint) string {
	return fmt.Sprintf("product:%d", id)
}
