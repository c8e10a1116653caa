package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/product-feed/pkg/product"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces every Redis key written by RedisStore.
const DefaultKeyPrefix = "feed:cache:"

// putScript evicts the oldest key when full and inserts or updates the entry.
// KEYS[1] = order list, KEYS[2] = entry key
// ARGV[1] = max size, ARGV[2] = payload, ARGV[3] = entry key prefix, ARGV[4] = key
//
// Entry keys of evicted items are derived from ARGV, so the store expects a
// single Redis node rather than a cluster.
var putScript = redis.NewScript(`
local evicted = ''
if redis.call('LLEN', KEYS[1]) >= tonumber(ARGV[1]) then
	local oldest = redis.call('LPOP', KEYS[1])
	if oldest then
		redis.call('DEL', ARGV[3] .. oldest)
		evicted = oldest
	end
end
if redis.call('EXISTS', KEYS[2]) == 0 then
	redis.call('RPUSH', KEYS[1], ARGV[4])
end
redis.call('SET', KEYS[2], ARGV[2])
return {evicted, redis.call('LLEN', KEYS[1])}
`)

// RedisStore is a Store shared through Redis.
type RedisStore struct {
	redis   *redis.Client
	maxSize int
	prefix  string
	now     func() time.Time
}

// NewRedisStore creates a Redis-backed store holding at most maxSize entries.
// An empty prefix defaults to DefaultKeyPrefix and a nil clock to time.Now.
func NewRedisStore(redisClient *redis.Client, maxSize int, prefix string, clock func() time.Time) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if maxSize < 1 {
		panic("cache max size must be positive")
	}
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if clock == nil {
		clock = time.Now
	}
	return &RedisStore{
		redis:   redisClient,
		maxSize: maxSize,
		prefix:  prefix,
		now:     clock,
	}
}

func (s *RedisStore) orderKey() string {
	return s.prefix + "order"
}

func (s *RedisStore) entryPrefix() string {
	return s.prefix + "entry:"
}

func (s *RedisStore) entryKey(key string) string {
	return s.entryPrefix() + key
}

// Get returns the entry for key without checking its age.
func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := s.redis.Get(ctx, s.entryKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	return &entry, nil
}

// Put stores data under key, evicting the oldest entry first when full.
func (s *RedisStore) Put(ctx context.Context, key string, data []product.Record) error {
	payload, err := json.Marshal(&Entry{Data: data, Timestamp: s.now()})
	if err != nil {
		CacheErrors.WithLabelValues("put").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	res, err := putScript.Run(ctx, s.redis,
		[]string{s.orderKey(), s.entryKey(key)},
		s.maxSize, payload, s.entryPrefix(), key,
	).Slice()
	if err != nil {
		CacheErrors.WithLabelValues("put").Inc()
		return fmt.Errorf("redis put: %w", err)
	}

	if len(res) == 2 {
		if evicted, ok := res[0].(string); ok && evicted != "" {
			CacheEvictions.WithLabelValues(LayerRedis).Inc()
		}
		if size, ok := res[1].(int64); ok {
			CacheEntries.WithLabelValues(LayerRedis).Set(float64(size))
		}
	}

	return nil
}

// Clear removes every entry and the order list.
func (s *RedisStore) Clear(ctx context.Context) error {
	keys, err := s.redis.LRange(ctx, s.orderKey(), 0, -1).Result()
	if err != nil {
		CacheErrors.WithLabelValues("clear").Inc()
		return fmt.Errorf("redis lrange: %w", err)
	}

	toDelete := make([]string, 0, len(keys)+1)
	for _, key := range keys {
		toDelete = append(toDelete, s.entryKey(key))
	}
	toDelete = append(toDelete, s.orderKey())

	if err := s.redis.Del(ctx, toDelete...).Err(); err != nil {
		CacheErrors.WithLabelValues("clear").Inc()
		return fmt.Errorf("redis del: %w", err)
	}

	CacheEntries.WithLabelValues(LayerRedis).Set(0)
	return nil
}

// Info returns the size and keys in insertion order.
func (s *RedisStore) Info(ctx context.Context) (Info, error) {
	keys, err := s.redis.LRange(ctx, s.orderKey(), 0, -1).Result()
	if err != nil {
		CacheErrors.WithLabelValues("info").Inc()
		return Info{}, fmt.Errorf("redis lrange: %w", err)
	}
	return Info{Size: len(keys), Keys: keys}, nil
}
