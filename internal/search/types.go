// Package search answers top-k nearest-neighbour queries against a
// library: pick the fastest available path (a fresh index, or a linear
// scan fallback), apply an equality metadata filter, and cache repeat
// queries.
package search

import "time"

// Result is one ranked hit returned to a caller, with the chunk fields a
// client actually needs rather than the full internal Chunk.
type Result struct {
	ChunkID    string
	DocumentID string
	Text       string
	Metadata   map[string]string
	Score      float32
}

// Filter is an equality map: a chunk matches iff, for every key present,
// its metadata contains that key with exactly the given value.
type Filter map[string]string

// Matches reports whether md satisfies every constraint in f. A missing
// metadata key never matches.
func (f Filter) Matches(md map[string]string) bool {
	for k, v := range f {
		if md[k] != v {
			return false
		}
	}
	return true
}

// CacheStats reports the coordinator's result cache occupancy, surfaced
// over the HTTP status/metrics surface.
type CacheStats struct {
	Len      int
	MaxSize  int
	LastHit  time.Time
	LastMiss time.Time
}
