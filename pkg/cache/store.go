package cache

import (
	"context"
	"errors"

	"github.com/Sternrassler/product-feed/pkg/product"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Store is a bounded FIFO key-value store for category results.
type Store interface {
	// Get returns the stored entry regardless of age, or ErrCacheMiss.
	Get(ctx context.Context, key string) (*Entry, error)

	// Put stores data under key, evicting the oldest entry first when full.
	Put(ctx context.Context, key string, data []product.Record) error

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Info reports the current size and keys in insertion order.
	Info(ctx context.Context) (Info, error)
}

// Info describes the current cache contents.
type Info struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}
