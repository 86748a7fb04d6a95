// Package feedcache caches rendered trending pages in Redis. The
// trending pipeline aggregates over a week of posts, so serving hot
// pages from cache keeps the read path off Mongo. A nil *Cache is a
// valid no-op, used when REDIS_ADDR is not configured.
package feedcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/roamly/backend/model"
)

type Cache struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

func New(addr string, ttl time.Duration, log zerolog.Logger) *Cache {
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	return &Cache{rdb: rdb, ttl: ttl, log: log}
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

func trendingKey(windowDays, limit int) string {
	return fmt.Sprintf("feed:trending:%dd:%d", windowDays, limit)
}

// Trending returns the cached page, or nil on miss. Cache errors are
// logged and treated as misses so Redis outages degrade to Mongo reads.
func (c *Cache) Trending(ctx context.Context, windowDays, limit int) []model.FeedPost {
	if c == nil {
		return nil
	}
	raw, err := c.rdb.Get(ctx, trendingKey(windowDays, limit)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn().Err(err).Msg("trending cache read failed")
		}
		return nil
	}
	var posts []model.FeedPost
	if err := json.Unmarshal(raw, &posts); err != nil {
		c.log.Warn().Err(err).Msg("trending cache entry corrupt")
		return nil
	}
	return posts
}

// SetTrending stores a rendered page. Entries are never invalidated
// explicitly; staleness is bounded by the configured TTL.
func (c *Cache) SetTrending(ctx context.Context, windowDays, limit int, posts []model.FeedPost) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(posts)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, trendingKey(windowDays, limit), raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("trending cache write failed")
	}
}
