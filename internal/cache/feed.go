// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// feed.go caches the JSON of public post feeds in Valkey so repeated
// reads of the same page skip the document store. Any post mutation or
// like toggle clears every cached feed. View counts inside a cached page
// may lag by up to one TTL.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// feedKeyPrefix is the Valkey key prefix for cached feeds.
	feedKeyPrefix = "feed:"

	// DefaultFeedTTL is how long a feed page stays cached.
	DefaultFeedTTL = 2 * time.Minute
)

// FeedCache manages feed caching in Valkey. A nil *FeedCache is valid and
// caches nothing.
type FeedCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFeedCache creates a new feed cache backed by the given Valkey client.
func NewFeedCache(client *redis.Client, ttl time.Duration) *FeedCache {
	if ttl == 0 {
		ttl = DefaultFeedTTL
	}
	return &FeedCache{client: client, ttl: ttl}
}

// FeedKey returns the cache key for one page of the published feed.
func FeedKey(categoryID string, limit, offset int) string {
	if categoryID == "" {
		categoryID = "_all"
	}
	return fmt.Sprintf("%s:%d:%d", categoryID, limit, offset)
}

// Get retrieves a cached feed. The second result is false on a miss.
func (fc *FeedCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if fc == nil {
		return nil, false
	}
	val, err := fc.client.Get(ctx, feedKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("feed cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("feed cache hit", "key", key)
	return val, true
}

// Set stores a feed with the configured TTL.
func (fc *FeedCache) Set(ctx context.Context, key string, body []byte) {
	if fc == nil {
		return
	}
	if err := fc.client.Set(ctx, feedKeyPrefix+key, body, fc.ttl).Err(); err != nil {
		slog.Warn("feed cache set error", "key", key, "error", err)
	}
}

// InvalidateFeeds removes all cached feeds by scanning for the prefix.
func (fc *FeedCache) InvalidateFeeds(ctx context.Context) {
	if fc == nil {
		return
	}
	var cursor uint64
	var deleted int
	for {
		keys, next, err := fc.client.Scan(ctx, cursor, feedKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("feed cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := fc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("feed cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Debug("feed cache cleared", "deleted", deleted)
	}
}
