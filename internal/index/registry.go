package index

import (
	"sync"
	"time"

	vdberrors "github.com/vectorlite/vectorlite/internal/errors"
	"github.com/vectorlite/vectorlite/internal/metric"
	"github.com/vectorlite/vectorlite/internal/store"
)

// IndexConfig is the registry's record of a library's active materialised
// index: same shape as store.IndexConfig, since both describe the same
// fact, but the registry owns the copy it hands back from Build/Get.
type IndexConfig = store.IndexConfig

// ChunkLister is the slice of Store the registry needs to build an index:
// a snapshot of a library's live chunks.
type ChunkLister interface {
	ListChunks(libraryID string) ([]store.Chunk, error)
}

type libraryIndex struct {
	config IndexConfig
	algo   Algorithm
	stale  bool
}

// Registry holds at most one active (IndexConfig, Algorithm) pair per
// library. It implements store.Invalidator so a Store can mark a library's
// index stale on every mutation without importing this package.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*libraryIndex
	chunks  ChunkLister
	params  Params
}

func NewRegistry(chunks ChunkLister, params Params) *Registry {
	return &Registry{entries: make(map[string]*libraryIndex), chunks: chunks, params: params}
}

// Build validates (algorithm, metric), snapshots the library's current
// chunks, builds the structure and replaces any prior config atomically.
// A library with zero chunks is accepted and produces an empty index
// rather than an EmptyLibrary error.
func (r *Registry) Build(libraryID string, algorithm store.Algorithm, m metric.Kind) (*IndexConfig, error) {
	if err := validateAlgorithmMetric(algorithm, m); err != nil {
		return nil, err
	}

	chunks, err := r.chunks.ListChunks(libraryID)
	if err != nil {
		return nil, err
	}

	algo := newAlgorithm(algorithm)
	if err := algo.Build(chunks, m, r.params); err != nil {
		return nil, err
	}

	dim := 0
	if len(chunks) > 0 {
		dim = len(chunks[0].Embedding)
	}
	cfg := IndexConfig{
		LibraryID:  libraryID,
		Algorithm:  algorithm,
		Metric:     string(m),
		BuiltAt:    time.Now().UTC(),
		ChunkCount: len(chunks),
		Dimension:  dim,
	}

	r.mu.Lock()
	r.entries[libraryID] = &libraryIndex{config: cfg, algo: algo}
	r.mu.Unlock()

	return &cfg, nil
}

// Get returns the library's active config, or false if none exists or it
// has gone stale since the last build.
func (r *Registry) Get(libraryID string) (*IndexConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[libraryID]
	if !ok || e.stale {
		return nil, false
	}
	cfg := e.config
	return &cfg, true
}

// Search runs the library's active index, if any and fresh. Callers fall
// back to a linear scan over live chunks when ok is false. accept, if
// given, restricts which chunk ids may count toward k; see Algorithm for
// how each index treats it.
func (r *Registry) Search(libraryID string, query []float32, k int, accept func(chunkID string) bool) (candidates []Candidate, ok bool) {
	r.mu.RLock()
	e, found := r.entries[libraryID]
	r.mu.RUnlock()
	if !found || e.stale {
		return nil, false
	}

	cands, err := e.algo.Search(query, k, accept)
	if err != nil {
		return nil, false
	}
	return cands, true
}

// Invalidate marks a library's config stale; the entry is kept, but Get and
// Search report nothing for the library until the next successful Build.
func (r *Registry) Invalidate(libraryID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[libraryID]; ok {
		e.stale = true
	}
}

// Drop removes a library's config entirely, for library deletion.
func (r *Registry) Drop(libraryID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, libraryID)
}

// Reset clears every library's config, for snapshot restore: the prior
// in-memory state (and whatever indexes were built against it) is being
// replaced wholesale, so none of the old entries can still be valid.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]*libraryIndex)
}

func validateAlgorithmMetric(algorithm store.Algorithm, m metric.Kind) error {
	if !m.Valid() {
		return vdberrors.InvalidAlgorithmMetric(string(algorithm), string(m))
	}
	switch algorithm {
	case store.AlgorithmLinear:
		return nil
	case store.AlgorithmKDTree:
		if m != metric.Euclidean {
			return vdberrors.InvalidAlgorithmMetric(string(algorithm), string(m))
		}
		return nil
	case store.AlgorithmLSH:
		if m != metric.Cosine {
			return vdberrors.InvalidAlgorithmMetric(string(algorithm), string(m))
		}
		return nil
	default:
		return vdberrors.InvalidAlgorithmMetric(string(algorithm), string(m))
	}
}

func newAlgorithm(algorithm store.Algorithm) Algorithm {
	switch algorithm {
	case store.AlgorithmKDTree:
		return &kdTree{}
	case store.AlgorithmLSH:
		return &lsh{}
	default:
		return newLinearScan()
	}
}
