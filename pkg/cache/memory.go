package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Sternrassler/product-feed/pkg/product"
)

// MemoryStore is an in-process Store with FIFO eviction.
type MemoryStore struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]*Entry
	// order keeps keys in insertion order; order[0] is the oldest.
	order []string
	now   func() time.Time
}

// NewMemoryStore creates a store holding at most maxSize entries.
// A nil clock defaults to time.Now.
func NewMemoryStore(maxSize int, clock func() time.Time) *MemoryStore {
	if maxSize < 1 {
		panic("cache max size must be positive")
	}
	if clock == nil {
		clock = time.Now
	}
	return &MemoryStore{
		maxSize: maxSize,
		entries: make(map[string]*Entry),
		order:   make([]string, 0, maxSize),
		now:     clock,
	}
}

// Get returns the entry for key without checking its age.
func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return entry, nil
}

// Put stores data under key. If the store is at capacity the oldest entry is
// evicted before inserting, even when key is already present. A key that
// survives keeps its original position.
func (s *MemoryStore) Put(_ context.Context, key string, data []product.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) >= s.maxSize && len(s.order) > 0 {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.entries, oldest)
		CacheEvictions.WithLabelValues(LayerMemory).Inc()
	}

	if _, ok := s.entries[key]; !ok {
		s.order = append(s.order, key)
	}
	s.entries[key] = &Entry{
		Data:      data,
		Timestamp: s.now(),
	}

	CacheEntries.WithLabelValues(LayerMemory).Set(float64(len(s.entries)))
	return nil
}

// Clear removes every entry.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*Entry)
	s.order = make([]string, 0, s.maxSize)
	CacheEntries.WithLabelValues(LayerMemory).Set(0)
	return nil
}

// Info returns the size and a copy of the keys in insertion order.
func (s *MemoryStore) Info(_ context.Context) (Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, len(s.order))
	copy(keys, s.order)
	return Info{Size: len(s.entries), Keys: keys}, nil
}
