// Package cache is a small read cache in front of platform lookups, so
// browse pages don't hit the remote API on every render. Entries are JSON
// blobs with one TTL; mutations invalidate by key.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// New returns nil when addr is empty; all methods are nil-safe, so an absent
// redis simply means every read goes to the platform.
func New(addr, prefix string, ttl time.Duration) *Cache {
	if addr == "" {
		return nil
	}
	return &Cache{
		rdb:    redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
		prefix: prefix,
	}
}

func (c *Cache) Enabled() bool { return c != nil }

func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// GetJSON reports whether key was present and decoded into out.
func (c *Cache) GetJSON(ctx context.Context, key string, out any) bool {
	if c == nil {
		return false
	}
	b, err := c.rdb.Get(ctx, c.prefix+":"+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Debug().Err(err).Str("key", key).Msg("cache get failed")
		}
		return false
	}
	if err := json.Unmarshal(b, out); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("cache entry undecodable, dropping")
		c.rdb.Del(ctx, c.prefix+":"+key)
		return false
	}
	return true
}

func (c *Cache) SetJSON(ctx context.Context, key string, v any) {
	if c == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Debug().Err(err).Str("key", key).Msg("cache marshal failed")
		return
	}
	if err := c.rdb.Set(ctx, c.prefix+":"+key, b, c.ttl).Err(); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("cache set failed")
	}
}

func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + ":" + k
	}
	if err := c.rdb.Del(ctx, full...).Err(); err != nil {
		log.Debug().Err(err).Strs("keys", keys).Msg("cache invalidate failed")
	}
}

func RestaurantKey(id string) string {
	return "restaurant:" + id
}

// ReservationsKey caches a restaurant's reservation list for one day; keyed
// mutations (new booking, status change, table assignment) invalidate it.
func ReservationsKey(restaurantID, date string) string {
	return "reservations:" + restaurantID + ":" + date
}

// SearchKey hashes the query so arbitrary user input stays out of key space.
func SearchKey(text, city string) string {
	sum := sha1.Sum([]byte(text + "\x00" + city))
	return fmt.Sprintf("search:%x", sum[:])
}
