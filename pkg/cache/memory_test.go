package cache

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/product-feed/pkg/product"
)

func records(titles ...string) []product.Record {
	out := make([]product.Record, 0, len(titles))
	for _, title := range titles {
		out = append(out, product.Record{"title_clean": title, "media_urls": "u", "converted_link": "l"})
	}
	return out
}

func TestNewMemoryStore_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewMemoryStore should panic with zero max size")
		}
	}()
	NewMemoryStore(0, nil)
}

func TestMemoryStore_PutAndGet(t *testing.T) {
	stored := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(3, func() time.Time { return stored })
	ctx := context.Background()

	if err := store.Put(ctx, "Shoes", records("A", "B")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	entry, err := store.Get(ctx, "Shoes")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(entry.Data) != 2 {
		t.Errorf("len(Data) = %d, want 2", len(entry.Data))
	}
	if !entry.Timestamp.Equal(stored) {
		t.Errorf("Timestamp = %v, want %v", entry.Timestamp, stored)
	}
}

func TestMemoryStore_Get_CacheMiss(t *testing.T) {
	store := NewMemoryStore(3, nil)

	_, err := store.Get(context.Background(), "Nope")
	if err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryStore_KeysAreNotNormalized(t *testing.T) {
	store := NewMemoryStore(5, nil)
	ctx := context.Background()

	for _, key := range []string{"Shoes", "shoes", " Shoes"} {
		if err := store.Put(ctx, key, records(key)); err != nil {
			t.Fatalf("Put(%q) failed: %v", key, err)
		}
	}

	info, _ := store.Info(ctx)
	if info.Size != 3 {
		t.Errorf("Size = %d, want 3 distinct keys", info.Size)
	}
}

func TestMemoryStore_GetReturnsStaleEntries(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(3, func() time.Time { return now })
	ctx := context.Background()

	_ = store.Put(ctx, "Shoes", records("A"))

	entry, err := store.Get(ctx, "Shoes")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry.IsFresh(now.Add(time.Hour), time.Minute) {
		t.Error("entry should be stale an hour later")
	}
}

func TestMemoryStore_FIFOEviction(t *testing.T) {
	store := NewMemoryStore(3, nil)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		_ = store.Put(ctx, key, records(key))
	}

	// Reads must not refresh eviction order
	for i := 0; i < 5; i++ {
		if _, err := store.Get(ctx, "a"); err != nil {
			t.Fatalf("Get(a) failed: %v", err)
		}
	}

	_ = store.Put(ctx, "d", records("d"))

	if _, err := store.Get(ctx, "a"); err != ErrCacheMiss {
		t.Errorf("oldest key a should be evicted, got err=%v", err)
	}

	info, _ := store.Info(ctx)
	if info.Size != 3 {
		t.Errorf("Size = %d, want 3", info.Size)
	}
	if want := []string{"b", "c", "d"}; !slices.Equal(info.Keys, want) {
		t.Errorf("Keys = %v, want %v", info.Keys, want)
	}
}

func TestMemoryStore_SizeNeverExceedsMax(t *testing.T) {
	const maxSize = 4
	store := NewMemoryStore(maxSize, nil)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		key := fmt.Sprintf("k%d", i%7)
		_ = store.Put(ctx, key, records(key))

		info, _ := store.Info(ctx)
		if info.Size > maxSize {
			t.Fatalf("after put %d: Size = %d, exceeds %d", i, info.Size, maxSize)
		}
		if len(info.Keys) != info.Size {
			t.Fatalf("after put %d: %d keys for size %d", i, len(info.Keys), info.Size)
		}
	}
}

func TestMemoryStore_UpdateKeepsPosition(t *testing.T) {
	store := NewMemoryStore(3, nil)
	ctx := context.Background()

	_ = store.Put(ctx, "a", records("a1"))
	_ = store.Put(ctx, "b", records("b"))
	_ = store.Put(ctx, "a", records("a2"))

	info, _ := store.Info(ctx)
	if want := []string{"a", "b"}; !slices.Equal(info.Keys, want) {
		t.Errorf("Keys = %v, want %v", info.Keys, want)
	}

	entry, _ := store.Get(ctx, "a")
	if entry.Data[0]["title_clean"] != "a2" {
		t.Errorf("entry not updated: %v", entry.Data)
	}
}

func TestMemoryStore_PutExistingKeyAtCapacity(t *testing.T) {
	store := NewMemoryStore(2, nil)
	ctx := context.Background()

	_ = store.Put(ctx, "a", records("a"))
	_ = store.Put(ctx, "b", records("b"))

	// Capacity is checked before insertion, so the oldest entry goes even
	// though b is only being updated.
	_ = store.Put(ctx, "b", records("b2"))

	info, _ := store.Info(ctx)
	if want := []string{"b"}; !slices.Equal(info.Keys, want) {
		t.Errorf("Keys = %v, want %v", info.Keys, want)
	}

	// Re-putting the oldest key moves it to the back.
	_ = store.Put(ctx, "c", records("c"))
	_ = store.Put(ctx, "b", records("b3"))

	info, _ = store.Info(ctx)
	if want := []string{"c", "b"}; !slices.Equal(info.Keys, want) {
		t.Errorf("Keys = %v, want %v", info.Keys, want)
	}
}

func TestMemoryStore_Clear(t *testing.T) {
	store := NewMemoryStore(3, nil)
	ctx := context.Background()

	_ = store.Put(ctx, "a", records("a"))
	_ = store.Put(ctx, "b", records("b"))

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	info, _ := store.Info(ctx)
	if info.Size != 0 || len(info.Keys) != 0 {
		t.Errorf("Info after Clear = %+v, want empty", info)
	}
	if _, err := store.Get(ctx, "a"); err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss after Clear, got %v", err)
	}
}

func TestMemoryStore_InfoReturnsCopy(t *testing.T) {
	store := NewMemoryStore(3, nil)
	ctx := context.Background()
	_ = store.Put(ctx, "a", records("a"))

	info, _ := store.Info(ctx)
	info.Keys[0] = "mutated"

	info, _ = store.Info(ctx)
	if info.Keys[0] != "a" {
		t.Errorf("Info exposed internal order slice: %v", info.Keys)
	}
}

func TestMemoryStore_ConcurrentPuts(t *testing.T) {
	const maxSize = 5
	store := NewMemoryStore(maxSize, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i)
			_ = store.Put(ctx, key, records(key))
		}(i)
	}
	wg.Wait()

	info, _ := store.Info(ctx)
	if info.Size != maxSize {
		t.Errorf("Size = %d, want %d", info.Size, maxSize)
	}
}
