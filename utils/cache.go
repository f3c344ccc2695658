// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"tradepost/config"

	"github.com/go-redis/redis/v8"
)

// CacheClient is the generic cache client, used for the public listing feed.
var CacheClient *redis.Client

// FeedCacheKey is the redis key holding the cached public feed payload.
const FeedCacheKey = "feed:active-listings"

// FeedCacheTTL bounds staleness of the public feed between invalidations.
const FeedCacheTTL = 30 * time.Second

// InitCache initializes the generic Redis cache client.
func InitCache() {
	CacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := CacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Cache): %v", err)
	}
}

// InvalidateFeedCache drops the cached public feed. Best-effort: a cache
// error only means the next read goes to the database.
func InvalidateFeedCache(ctx context.Context) {
	if CacheClient == nil {
		return
	}
	if err := CacheClient.Del(ctx, FeedCacheKey).Err(); err != nil && err != redis.Nil {
		GetLogger().Sugar().Warnf("failed to invalidate feed cache: %v", err)
	}
}
