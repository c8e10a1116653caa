// Package shuffle provides a seeded permutation that stays stable within a
// time bucket.
//
// The source is a sine-based counter stream, chosen for reproducibility.
// It is not statistically strong and must not be used where unbiased
// randomness matters.
package shuffle

import (
	"math"
	"time"
)

// Window is the length of one time bucket.
const Window = 72 * time.Hour

// Bucket returns floor(t / window) in milliseconds since the Unix epoch.
func Bucket(t time.Time, window time.Duration) int64 {
	ms := t.UnixMilli()
	w := window.Milliseconds()
	if w <= 0 {
		return 0
	}
	b := ms / w
	if ms < 0 && ms%w != 0 {
		b--
	}
	return b
}

// Source is a deterministic pseudo-random stream in [0, 1).
type Source struct {
	counter int64
}

// NewSource creates a stream whose first draw uses seed as the counter.
func NewSource(seed int64) *Source {
	return &Source{counter: seed}
}

// Float64 returns the next value: frac(sin(counter) * 10000).
func (s *Source) Float64() float64 {
	x := math.Sin(float64(s.counter)) * 10000
	s.counter++
	return x - math.Floor(x)
}

// Shuffle returns a permuted copy of items using a backward Fisher-Yates
// pass driven by NewSource(seed). items is left untouched.
func Shuffle[T any](items []T, seed int64) []T {
	out := make([]T, len(items))
	copy(out, items)

	src := NewSource(seed)
	for i := len(out) - 1; i > 0; i-- {
		j := int(math.Floor(src.Float64() * float64(i+1)))
		out[i], out[j] = out[j], out[i]
	}
	return out
}
