// Package cache provides the bounded category cache used by the feed service.
//
// Stores are dumb bounded maps keyed by the literal category string:
//
// - At most MaxSize entries are held
// - When full, Put evicts exactly one entry: the earliest inserted one
// - Reads never change eviction order (FIFO, not LRU)
// - Freshness is never evaluated by the store; callers check Entry.IsFresh
//
// # Basic Usage
//
//	store := cache.NewMemoryStore(50, nil)
//
//	if err := store.Put(ctx, "Shoes", records); err != nil {
//		return err
//	}
//
//	entry, err := store.Get(ctx, "Shoes")
//	if err == cache.ErrCacheMiss {
//		// Not cached - fetch upstream
//	}
//	if entry.IsFresh(time.Now(), 5*time.Minute) {
//		return entry.Data, nil
//	}
//
// # Shared Cache
//
// RedisStore keeps the same contract in Redis so several server instances
// can share one cache. Insertion order lives in a Redis list and eviction
// runs inside a single Lua script.
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	store := cache.NewRedisStore(redisClient, 50, "feed:cache:", nil)
//
// # Metrics
//
//   - feed_cache_hits_total{layer} - Fresh entries served (counted by the service)
//   - feed_cache_misses_total{layer} - Absent or stale entries (counted by the service)
//   - feed_cache_evictions_total{layer} - FIFO evictions
//   - feed_cache_entries{layer} - Current number of entries
//   - feed_cache_errors_total{operation} - Backend errors
package cache
