package cache

import (
	"time"

	"github.com/Sternrassler/product-feed/pkg/product"
)

// Entry is a cached category result.
type Entry struct {
	// Data is the validated record list
	Data []product.Record `json:"data"`

	// Timestamp is when the entry was stored
	Timestamp time.Time `json:"timestamp"`
}

// IsFresh returns true while now - Timestamp < expiry.
func (e *Entry) IsFresh(now time.Time, expiry time.Duration) bool {
	return now.Sub(e.Timestamp) < expiry
}

// Age returns how long ago the entry was stored.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.Timestamp)
}
