// Package cache keeps single product reads in Redis. Writers invalidate
// after commit; order workflows never read through it.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/josh-kwaku/order-backend/internal/domain"
	"github.com/josh-kwaku/order-backend/internal/logging"
)

const keyPrefix = "product:"

type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

func NewProductCache(client *redis.Client, ttl time.Duration) *ProductCache {
	return &ProductCache{client: client, ttl: ttl}
}

func key(id uuid.UUID) string {
	return keyPrefix + id.String()
}

// Get serves from Redis, falling back to load on a miss. Concurrent misses for
// the same id share one load. A Redis outage degrades to plain loads.
func (c *ProductCache) Get(ctx context.Context, id uuid.UUID, load func(context.Context) (*domain.Product, error)) (*domain.Product, error) {
	log := logging.FromContext(ctx)

	p, err := c.lookup(ctx, id)
	if err != nil {
		log.Warn("product cache read failed", "product_id", id, "error", err)
	}
	if p != nil {
		return p, nil
	}

	v, err, _ := c.group.Do(id.String(), func() (any, error) {
		p, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.store(ctx, p); err != nil {
			log.Warn("product cache write failed", "product_id", id, "error", err)
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Product), nil
}

func (c *ProductCache) Invalidate(ctx context.Context, id uuid.UUID) {
	if err := c.client.Del(ctx, key(id)).Err(); err != nil {
		logging.FromContext(ctx).Warn("product cache invalidate failed", "product_id", id, "error", err)
	}
}

func (c *ProductCache) lookup(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	raw, err := c.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup: %w", err)
	}

	var p domain.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("lookup: decode: %w", err)
	}
	return &p, nil
}

func (c *ProductCache) store(ctx context.Context, p *domain.Product) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("store: encode: %w", err)
	}
	if err := c.client.Set(ctx, key(p.ID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}

// NewClient parses a redis:// URL and checks the server answers.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cache.NewClient: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache.NewClient: ping: %w", err)
	}
	return client, nil
}
