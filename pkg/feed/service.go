// Package feed provides the product service: cached category lookups,
// resilient upstream fetches and the aggregated Hot feed.
package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/Sternrassler/product-feed/pkg/cache"
	"github.com/Sternrassler/product-feed/pkg/config"
	"github.com/Sternrassler/product-feed/pkg/fetch"
	"github.com/Sternrassler/product-feed/pkg/logging"
	"github.com/Sternrassler/product-feed/pkg/product"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for service operations.
var (
	feedRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_requests_total",
		Help: "Total FetchProducts calls by category and outcome",
	}, []string{"category", "outcome"})

	feedRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feed_request_duration_seconds",
		Help:    "FetchProducts duration in seconds by category",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30},
	}, []string{"category"})
)

// Service serves category product lists. Create one per process and share it.
type Service struct {
	config    config.Config
	store     cache.Store
	layer     string
	fetcher   *fetch.Fetcher
	validator *product.Validator
	hot       *Aggregator
	logger    zerolog.Logger
	now       func() time.Time
}

// New creates a new Service. A nil store defaults to an in-memory store
// bounded by cfg.Cache.MaxSize.
func New(cfg config.Config, store cache.Store) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	fetcher, err := fetch.New(fetch.Config{
		Timeout:    cfg.API.Timeout,
		RetryCount: cfg.API.RetryCount,
		RetryDelay: cfg.API.RetryDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}

	if store == nil {
		store = cache.NewMemoryStore(cfg.Cache.MaxSize, nil)
	}

	layer := cache.LayerMemory
	if _, ok := store.(*cache.RedisStore); ok {
		layer = cache.LayerRedis
	}

	s := &Service{
		config:    cfg,
		store:     store,
		layer:     layer,
		fetcher:   fetcher,
		validator: product.NewValidator(),
		logger:    logging.NewLogger("feed-service"),
		now:       time.Now,
	}
	s.hot = NewAggregator(cfg.Categories, s.FetchProducts)

	return s, nil
}

// FetchProducts returns the records for category. A fresh cache entry is
// returned without network activity. The returned slice is the caller's own. Hot is aggregated from the other
// categories and never fails; other categories fail with a *Error.
func (s *Service) FetchProducts(ctx context.Context, category string) ([]product.Record, error) {
	start := time.Now()
	label := s.categoryLabel(category)
	defer func() {
		feedRequestDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	}()

	if s.config.Cache.Enabled {
		if data, ok := s.cached(ctx, category); ok {
			feedRequestsTotal.WithLabelValues(label, "cache_hit").Inc()
			return slices.Clone(data), nil
		}
	}

	var records []product.Record
	if category == config.HotCategory {
		records = s.hot.Generate(ctx)
	} else {
		var err error
		records, err = s.fetchCategory(ctx, category)
		if err != nil {
			ferr := classify(err, s.config.ErrorMessages)
			feedRequestsTotal.WithLabelValues(label, "error").Inc()
			s.logger.Error().
				Err(err).
				Str("category", category).
				Str("error_kind", string(ferr.Kind)).
				Msg("Failed to fetch products")
			return nil, ferr
		}
	}

	// A Hot feed built under a cancelled context is missing every source
	// that was cut short and must not be served to other callers.
	if err := ctx.Err(); err != nil {
		feedRequestsTotal.WithLabelValues(label, "cancelled").Inc()
		s.logger.Debug().Err(err).Str("category", category).Msg("Request cancelled, result not cached")
		return records, nil
	}

	if s.config.Cache.Enabled {
		if err := s.store.Put(ctx, category, records); err != nil {
			s.logger.Warn().Err(err).Str("category", category).Msg("Failed to cache products")
		}
	}

	feedRequestsTotal.WithLabelValues(label, "ok").Inc()
	return slices.Clone(records), nil
}

// cached returns the data of a fresh entry. Backend errors count as a miss.
func (s *Service) cached(ctx context.Context, category string) ([]product.Record, bool) {
	entry, err := s.store.Get(ctx, category)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn().Err(err).Str("category", category).Msg("Cache get error")
		}
		cache.CacheMisses.WithLabelValues(s.layer).Inc()
		return nil, false
	}

	if !entry.IsFresh(s.now(), s.config.Cache.ExpiryTime) {
		cache.CacheMisses.WithLabelValues(s.layer).Inc()
		s.logger.Debug().
			Str("category", category).
			Dur("age", entry.Age(s.now())).
			Msg("Cache entry stale")
		return nil, false
	}

	cache.CacheHits.WithLabelValues(s.layer).Inc()
	s.logger.Debug().Str("category", category).Int("records", len(entry.Data)).Msg("Cache hit")
	return entry.Data, true
}

// fetchCategory fetches one upstream category and drops invalid records.
func (s *Service) fetchCategory(ctx context.Context, category string) ([]product.Record, error) {
	raw, err := fetch.Get[[]any](ctx, s.fetcher, s.URL(category))
	if err != nil {
		return nil, err
	}

	valid := s.validator.FilterDecoded(raw)
	if dropped := len(raw) - len(valid); dropped > 0 {
		s.logger.Debug().
			Str("category", category).
			Int("dropped", dropped).
			Int("records", len(valid)).
			Msg("Dropped invalid records")
	}
	return valid, nil
}

// URL returns the upstream URL for category.
func (s *Service) URL(category string) string {
	if s.config.URLBuilder != nil {
		return s.config.URLBuilder(category)
	}
	return strings.TrimRight(s.config.API.BaseURL, "/") + "/" + escapeCategory(category)
}

// escapeCategory percent-encodes every byte outside [A-Za-z0-9-_.~],
// spaces included.
func escapeCategory(category string) string {
	return strings.ReplaceAll(url.QueryEscape(category), "+", "%20")
}

// ClearCache removes every cached category.
func (s *Service) ClearCache(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	s.logger.Info().Msg("Cache cleared")
	return nil
}

// CacheInfo reports the cache size and keys in insertion order.
func (s *Service) CacheInfo(ctx context.Context) (cache.Info, error) {
	info, err := s.store.Info(ctx)
	if err != nil {
		return cache.Info{}, fmt.Errorf("cache info: %w", err)
	}
	return info, nil
}

// Categories returns the configured categories.
func (s *Service) Categories() []config.Category {
	return s.config.Categories
}

// categoryLabel bounds metric cardinality to configured categories.
func (s *Service) categoryLabel(category string) string {
	for _, cat := range s.config.Categories {
		if cat.Endpoint == category {
			return category
		}
	}
	return "other"
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (s *Service) SetHTTPClient(client *http.Client) {
	s.fetcher.SetHTTPClient(client)
}

// SetClock overrides the clock used for freshness checks and Hot seeding
// (for testing).
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
	s.hot.now = now
}
