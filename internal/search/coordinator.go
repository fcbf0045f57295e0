package search

import (
	vdberrors "github.com/vectorlite/vectorlite/internal/errors"
	"github.com/vectorlite/vectorlite/internal/index"
	"github.com/vectorlite/vectorlite/internal/metric"
	"github.com/vectorlite/vectorlite/internal/store"
)

// ChunkLister is the read-only slice of Store the coordinator needs for
// its linear-scan fallback and for resolving candidate ids back to full
// chunks.
type ChunkLister interface {
	ListChunks(libraryID string) ([]store.Chunk, error)
	Dimension(libraryID string) (int, error)
}

// IndexSearcher is the read-only slice of Registry the coordinator needs.
type IndexSearcher interface {
	Search(libraryID string, query []float32, k int, accept func(chunkID string) bool) ([]index.Candidate, bool)
}

// Coordinator answers search(library_id, query, k, filters) by preferring
// a library's fresh index and falling back to a linear scan, then
// applying the metadata filter and caching the final top-k.
type Coordinator struct {
	store         ChunkLister
	registry      IndexSearcher
	defaultMetric metric.Kind
	cache         *resultCache
}

// New builds a Coordinator. cacheSize <= 0 uses DefaultResultCacheSize.
func New(s ChunkLister, reg IndexSearcher, defaultMetric metric.Kind, cacheSize int) *Coordinator {
	return &Coordinator{
		store:         s,
		registry:      reg,
		defaultMetric: defaultMetric,
		cache:         newResultCache(cacheSize),
	}
}

// Invalidate drops every cached result for libraryID. Wired as the
// registry's own invalidation fans out here too, since a stale index also
// means a stale cache.
func (c *Coordinator) Invalidate(libraryID string) {
	c.cache.invalidateLibrary(libraryID)
}

// InvalidateAll drops every cached result across every library. Wired into
// snapshot restore, which replaces the entire in-memory state at once: a
// cached entry keyed against a library id that still exists post-restore
// would otherwise keep answering with pre-restore data.
func (c *Coordinator) InvalidateAll() {
	c.cache.reset()
}

// CacheStats reports current cache occupancy for observability.
func (c *Coordinator) CacheStats() CacheStats {
	return c.cache.stats(DefaultResultCacheSize)
}

// Search validates the request, resolves candidates through the fastest
// available path, applies the metadata filter, and returns the top-k
// results best-first.
func (c *Coordinator) Search(libraryID string, query []float32, k int, filter Filter) ([]Result, error) {
	if k < 1 {
		return nil, vdberrors.InvalidK(k)
	}

	dim, err := c.store.Dimension(libraryID)
	if err != nil {
		return nil, err
	}
	if dim != 0 && len(query) != dim {
		return nil, vdberrors.DimensionMismatch(dim, len(query))
	}

	key := cacheKey(libraryID, query, k, filter)
	if cached, ok := c.cache.get(key); ok {
		return cached, nil
	}

	results, err := c.search(libraryID, query, k, filter)
	if err != nil {
		return nil, err
	}

	c.cache.put(key, results)
	return results, nil
}

func (c *Coordinator) search(libraryID string, query []float32, k int, filter Filter) ([]Result, error) {
	chunks, err := c.store.ListChunks(libraryID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]store.Chunk, len(chunks))
	for _, ch := range chunks {
		byID[ch.ID] = ch
	}

	var accept func(chunkID string) bool
	if len(filter) > 0 {
		accept = func(chunkID string) bool {
			ch, ok := byID[chunkID]
			return ok && filter.Matches(ch.Metadata)
		}
	}

	if cands, ok := c.registry.Search(libraryID, query, k, accept); ok {
		return c.resolveAndFilter(cands, byID, filter, k), nil
	}

	// No fresh index: fall back to a linear scan over live chunks, scoring
	// with the filter applied inline as the chunk set is small enough that
	// over-fetching isn't worth it.
	filtered := make([]store.Chunk, 0, len(chunks))
	for _, ch := range chunks {
		if filter.Matches(ch.Metadata) {
			filtered = append(filtered, ch)
		}
	}
	cands := index.Linear(filtered, c.defaultMetric, query, k)
	return c.resolve(cands, byID), nil
}

// resolveAndFilter re-applies filter on top of whatever the index already
// returned. Linear, KD-tree and LSH all drop ids the accept closure rejects
// before returning, so every candidate already matches and this is a safety
// net; it also skips ids no longer present in byID.
func (c *Coordinator) resolveAndFilter(cands []index.Candidate, byID map[string]store.Chunk, filter Filter, k int) []Result {
	out := make([]Result, 0, k)
	for _, cand := range cands {
		ch, ok := byID[cand.ChunkID]
		if !ok || !filter.Matches(ch.Metadata) {
			continue
		}
		out = append(out, toResult(ch, cand.Score))
		if len(out) == k {
			break
		}
	}
	return out
}

func (c *Coordinator) resolve(cands []index.Candidate, byID map[string]store.Chunk) []Result {
	out := make([]Result, 0, len(cands))
	for _, cand := range cands {
		ch, ok := byID[cand.ChunkID]
		if !ok {
			continue
		}
		out = append(out, toResult(ch, cand.Score))
	}
	return out
}

func toResult(ch store.Chunk, score float32) Result {
	return Result{
		ChunkID:    ch.ID,
		DocumentID: ch.DocumentID,
		Text:       ch.Text,
		Metadata:   ch.Metadata,
		Score:      score,
	}
}
