package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// LayerMemory labels metrics of the in-process store.
	LayerMemory = "memory"

	// LayerRedis labels metrics of the shared Redis store.
	LayerRedis = "redis"
)

var (
	// CacheHits tracks fresh entries served by layer
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_cache_hits_total",
			Help: "Total number of feed cache hits",
		},
		[]string{"layer"},
	)

	// CacheMisses tracks absent or stale entries by layer
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_cache_misses_total",
			Help: "Total number of feed cache misses (absent or stale)",
		},
		[]string{"layer"},
	)

	// CacheEvictions tracks FIFO evictions by layer
	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_cache_evictions_total",
			Help: "Total number of entries evicted because the cache was full",
		},
		[]string{"layer"},
	)

	// CacheEntries tracks the current entry count by layer
	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feed_cache_entries",
			Help: "Current number of entries in the feed cache",
		},
		[]string{"layer"},
	)

	// CacheErrors tracks backend errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "put", "clear", "info"
	)
)
