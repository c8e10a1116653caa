package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for retry operations.
var (
	upstreamRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_upstream_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	upstreamRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feed_upstream_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"error_class"})

	upstreamRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_upstream_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// Backoff returns the wait before the retry that follows attempt
// (zero-based): delay * (attempt + 1).
func Backoff(delay time.Duration, attempt int) time.Duration {
	return delay * time.Duration(attempt+1)
}

// retryWithBackoff runs fn at most RetryCount+1 times with linear backoff.
// It stops early when the caller's context ends.
func (f *Fetcher) retryWithBackoff(ctx context.Context, url string, fn func() error) error {
	var lastErr error
	attempts := 0

	for attempt := 0; attempt <= f.config.RetryCount; attempt++ {
		attempts++

		err := fn()
		if err == nil {
			if attempt > 0 {
				f.logger.Info().
					Str("url", url).
					Int("attempt", attempts).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		lastErr = err
		class := ClassOf(err)

		if class == ClassCancelled || ctx.Err() != nil {
			break
		}

		if attempt >= f.config.RetryCount {
			upstreamRetryExhaustedTotal.WithLabelValues(string(class)).Inc()
			f.logger.Warn().
				Err(err).
				Str("url", url).
				Str("error_class", string(class)).
				Int("attempts", attempts).
				Msg("Retry attempts exhausted")
			break
		}

		backoff := Backoff(f.config.RetryDelay, attempt)
		upstreamRetriesTotal.WithLabelValues(string(class)).Inc()
		upstreamRetryBackoffSeconds.WithLabelValues(string(class)).Observe(backoff.Seconds())

		f.logger.Debug().
			Str("url", url).
			Str("error_class", string(class)).
			Int("attempt", attempts).
			Dur("backoff", backoff).
			Msg("Retrying request after backoff")

		if err := f.wait(ctx, backoff); err != nil {
			f.logger.Warn().
				Str("url", url).
				Int("attempt", attempts).
				Msg("Context cancelled during retry backoff")
			lastErr = &Error{
				Class: ClassCancelled,
				URL:   url,
				Err:   fmt.Errorf("%w: %w", ErrContextCancelled, err),
			}
			break
		}
	}

	var fe *Error
	if errors.As(lastErr, &fe) {
		fe.Attempts = attempts
	}
	return lastErr
}

// waitContext sleeps for d unless ctx ends first.
func waitContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
