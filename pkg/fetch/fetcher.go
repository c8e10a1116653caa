// Package fetch performs upstream GET requests with a per-attempt timeout
// and bounded linear-backoff retries.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/product-feed/pkg/logging"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for upstream requests.
var (
	upstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_upstream_requests_total",
		Help: "Total upstream attempts by outcome (HTTP status or error class)",
	}, []string{"status"})

	upstreamRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "feed_upstream_request_duration_seconds",
		Help:    "Upstream attempt duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	})
)

// Config holds the fetcher configuration.
type Config struct {
	// Timeout bounds each attempt; it does not accumulate across retries.
	Timeout time.Duration

	// RetryCount is the number of retries after the first attempt.
	RetryCount int

	// RetryDelay is multiplied by the attempt index for linear backoff.
	RetryDelay time.Duration
}

// DefaultConfig returns the default fetcher configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:    10 * time.Second,
		RetryCount: 3,
		RetryDelay: 1 * time.Second,
	}
}

// Fetcher issues JSON GET requests with retries. Use Get to fetch a typed body.
type Fetcher struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger

	// wait blocks for the backoff duration; replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// New creates a new Fetcher.
func New(cfg Config) (*Fetcher, error) {
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive (got %s)", cfg.Timeout)
	}
	if cfg.RetryCount < 0 {
		return nil, fmt.Errorf("retry_count must be >= 0 (got %d)", cfg.RetryCount)
	}
	if cfg.RetryDelay < 0 {
		return nil, fmt.Errorf("retry_delay must be >= 0 (got %s)", cfg.RetryDelay)
	}

	return &Fetcher{
		httpClient: &http.Client{
			Transport: cleanhttp.DefaultPooledTransport(),
		},
		config: cfg,
		logger: logging.NewLogger("fetcher"),
		wait:   waitContext,
	}, nil
}

// Get GETs url through f and decodes the JSON body into a T. Failed attempts
// are retried up to RetryCount times; the last attempt's *Error is returned
// when all of them fail. Each attempt decodes into a fresh value.
func Get[T any](ctx context.Context, f *Fetcher, url string) (T, error) {
	var result T
	err := f.retryWithBackoff(ctx, url, func() error {
		var out T
		if err := f.do(ctx, url, &out); err != nil {
			return err
		}
		result = out
		return nil
	})
	return result, err
}

// do performs a single attempt under its own timeout.
func (f *Fetcher) do(ctx context.Context, url string, v any) error {
	attemptCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		upstreamRequestDuration.Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
	if err != nil {
		return &Error{Class: ClassNetwork, URL: url, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		class := classifyTransport(ctx, attemptCtx, err)
		upstreamRequestsTotal.WithLabelValues(string(class)).Inc()
		f.logger.Debug().Err(err).Str("url", url).Str("error_class", string(class)).Msg("Upstream request failed")
		return &Error{Class: class, URL: url, Err: err}
	}
	defer resp.Body.Close()

	upstreamRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		f.logger.Debug().
			Str("url", url).
			Int("status", resp.StatusCode).
			Msg("Upstream returned non-success status")
		return &Error{Class: ClassStatus, URL: url, StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		class := ClassDecode
		if attemptCtx.Err() != nil {
			class = classifyTransport(ctx, attemptCtx, err)
		}
		return &Error{Class: class, URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode body: %w", err)}
	}

	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (f *Fetcher) SetHTTPClient(client *http.Client) {
	f.httpClient = client
}

// Config returns the fetcher configuration.
func (f *Fetcher) Config() Config {
	return f.config
}
