// Package cache holds the redis-backed lookup cache for restaurant slugs.
// Every customer page load resolves a slug; the row almost never changes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mnw01/scan-order/internal/database"
)

// RestaurantCache caches slug → restaurant rows with a TTL. A nil
// *RestaurantCache is a valid no-op cache, so callers never branch on
// whether redis is configured.
type RestaurantCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRestaurantCache(client *redis.Client, ttl time.Duration) *RestaurantCache {
	return &RestaurantCache{client: client, ttl: ttl}
}

func slugKey(slug string) string {
	return "restaurant:slug:" + slug
}

// Get returns the cached restaurant and whether it was present. Cache errors
// are reported as a miss; the caller falls through to the database.
func (c *RestaurantCache) Get(ctx context.Context, slug string) (database.Restaurant, bool) {
	if c == nil {
		return database.Restaurant{}, false
	}
	data, err := c.client.Get(ctx, slugKey(slug)).Bytes()
	if err != nil {
		return database.Restaurant{}, false
	}
	var r database.Restaurant
	if err := json.Unmarshal(data, &r); err != nil {
		return database.Restaurant{}, false
	}
	return r, true
}

func (c *RestaurantCache) Set(ctx context.Context, r database.Restaurant) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, slugKey(r.Slug), data, c.ttl).Err()
}

// Invalidate drops the cached row after an owner edit.
func (c *RestaurantCache) Invalidate(ctx context.Context, slug string) error {
	if c == nil {
		return nil
	}
	err := c.client.Del(ctx, slugKey(slug)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
