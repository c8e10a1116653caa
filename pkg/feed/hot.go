package feed

import (
	"context"
	"time"

	"github.com/Sternrassler/product-feed/pkg/config"
	"github.com/Sternrassler/product-feed/pkg/logging"
	"github.com/Sternrassler/product-feed/pkg/product"
	"github.com/Sternrassler/product-feed/pkg/shuffle"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var hotSubfetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "feed_hot_subfetch_failures_total",
	Help: "Total Hot sub-fetch failures absorbed by category",
}, []string{"category"})

// CategoryFetcher fetches the records of one category.
type CategoryFetcher func(ctx context.Context, category string) ([]product.Record, error)

// Aggregator builds the Hot feed from every other configured category.
type Aggregator struct {
	categories []config.Category
	fetch      CategoryFetcher
	window     time.Duration
	now        func() time.Time
	logger     zerolog.Logger
}

// NewAggregator creates an aggregator over categories. Categories whose
// endpoint is Hot are skipped.
func NewAggregator(categories []config.Category, fetch CategoryFetcher) *Aggregator {
	return &Aggregator{
		categories: categories,
		fetch:      fetch,
		window:     shuffle.Window,
		now:        time.Now,
		logger:     logging.NewLogger("hot-aggregator"),
	}
}

// Sources returns the categories Hot is built from, in configured order.
func (a *Aggregator) Sources() []config.Category {
	sources := make([]config.Category, 0, len(a.categories))
	for _, cat := range a.categories {
		if cat.Endpoint == config.HotCategory {
			continue
		}
		sources = append(sources, cat)
	}
	return sources
}

// Generate fetches all sources concurrently, concatenates them in configured
// order and shuffles the result with the current time bucket as seed.
// A failing source contributes nothing; Generate itself never fails.
func (a *Aggregator) Generate(ctx context.Context) []product.Record {
	start := time.Now()
	seed := shuffle.Bucket(a.now(), a.window)
	sources := a.Sources()
	results := make([][]product.Record, len(sources))

	var g errgroup.Group
	for i, cat := range sources {
		g.Go(func() error {
			records, err := a.fetch(ctx, cat.Endpoint)
			if err != nil {
				hotSubfetchFailures.WithLabelValues(cat.Endpoint).Inc()
				a.logger.Warn().
					Err(err).
					Str("category", cat.Endpoint).
					Msg("Hot sub-fetch failed, skipping category")
				return nil
			}
			results[i] = records
			return nil
		})
	}
	_ = g.Wait()

	total := 0
	for _, r := range results {
		total += len(r)
	}
	merged := make([]product.Record, 0, total)
	for _, r := range results {
		merged = append(merged, r...)
	}

	out := shuffle.Shuffle(merged, seed)

	a.logger.Info().
		Int("sources", len(sources)).
		Int("records", len(out)).
		Int64("seed", seed).
		Dur("duration", time.Since(start)).
		Msg("Hot feed generated")

	return out
}
