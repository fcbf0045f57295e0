package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vdberrors "github.com/vectorlite/vectorlite/internal/errors"
	"github.com/vectorlite/vectorlite/internal/metric"
	"github.com/vectorlite/vectorlite/internal/store"
)

func seedChunks(t *testing.T, s *store.Store, libraryID string, embeddings [][]float32) []store.Chunk {
	t.Helper()
	doc, err := s.CreateDocument(libraryID, "doc", "", nil)
	require.NoError(t, err)

	out := make([]store.Chunk, len(embeddings))
	for i, e := range embeddings {
		c, err := s.CreateChunk(libraryID, doc.ID, "text", e, nil)
		require.NoError(t, err)
		out[i] = *c
	}
	return out
}

func TestLinearScan_ReturnsExactTopK(t *testing.T) {
	s := store.New()
	lib := s.CreateLibrary("lib")
	chunks := seedChunks(t, s, lib.ID, [][]float32{
		{1, 0}, {0, 1}, {1, 1}, {-1, 0},
	})

	idx := newLinearScan()
	require.NoError(t, idx.Build(chunks, metric.Cosine, Params{}))

	got, err := idx.Search([]float32{1, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, chunks[0].ID, got[0].ChunkID)
}

func TestLinearScan_AcceptFiltersDuringScoring(t *testing.T) {
	s := store.New()
	lib := s.CreateLibrary("lib")
	chunks := seedChunks(t, s, lib.ID, [][]float32{
		{1, 0}, {1, 0}, {1, 0}, {1, 0}, {0, 1},
	})

	idx := newLinearScan()
	require.NoError(t, idx.Build(chunks, metric.Cosine, Params{}))

	onlyLast := chunks[len(chunks)-1].ID
	got, err := idx.Search([]float32{1, 0}, 2, func(chunkID string) bool {
		return chunkID == onlyLast
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, onlyLast, got[0].ChunkID)
}

func TestKDTree_RejectsNonEuclideanMetric(t *testing.T) {
	tree := &kdTree{}
	err := tree.Build(nil, metric.Cosine, Params{})
	assert.True(t, isInvalidAlgorithmMetric(err))
}

func TestKDTree_MatchesLinearScanOnSmallSet(t *testing.T) {
	s := store.New()
	lib := s.CreateLibrary("lib")
	chunks := seedChunks(t, s, lib.ID, [][]float32{
		{0, 0}, {5, 5}, {1, 1}, {10, 0}, {0, 10}, {3, 4}, {-2, -2}, {8, 1}, {1, 8}, {4, 4},
	})

	tree := &kdTree{}
	require.NoError(t, tree.Build(chunks, metric.Euclidean, Params{}))

	linear := newLinearScan()
	require.NoError(t, linear.Build(chunks, metric.Euclidean, Params{}))

	query := []float32{2, 2}
	kdResults, err := tree.Search(query, 3, nil)
	require.NoError(t, err)
	linearResults, err := linear.Search(query, 3, nil)
	require.NoError(t, err)

	require.Len(t, kdResults, 3)
	assert.Equal(t, linearResults, kdResults)
}

func TestKDTree_EmptyBuildReturnsNoResults(t *testing.T) {
	tree := &kdTree{}
	require.NoError(t, tree.Build(nil, metric.Euclidean, Params{}))
	got, err := tree.Search([]float32{1, 2}, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestKDTree_AcceptFiltersDuringScoringPastPruneBound(t *testing.T) {
	s := store.New()
	lib := s.CreateLibrary("lib")
	// Nine points clustered near the query, one far outlier that is the
	// only accepted match: a naive top-k-then-filter over k=1 would prune
	// toward the cluster and never reach the outlier.
	chunks := seedChunks(t, s, lib.ID, [][]float32{
		{0, 0}, {0, 1}, {1, 0}, {1, 1}, {0.5, 0.5},
		{0.2, 0.2}, {0.8, 0.8}, {0.3, 0.7}, {0.7, 0.3}, {50, 50},
	})

	tree := &kdTree{}
	require.NoError(t, tree.Build(chunks, metric.Euclidean, Params{}))

	outlier := chunks[len(chunks)-1].ID
	got, err := tree.Search([]float32{0, 0}, 1, func(chunkID string) bool {
		return chunkID == outlier
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, outlier, got[0].ChunkID)
}

func TestLSH_RejectsNonCosineMetric(t *testing.T) {
	l := &lsh{}
	err := l.Build(nil, metric.Euclidean, Params{LSHNumPlanes: 4, LSHNumTables: 2, LSHSeed: 1})
	assert.True(t, isInvalidAlgorithmMetric(err))
}

func TestLSH_FindsExactMatchAsTopResult(t *testing.T) {
	s := store.New()
	lib := s.CreateLibrary("lib")
	chunks := seedChunks(t, s, lib.ID, [][]float32{
		{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {0.9, 0.1, 0}, {-1, 0, 0},
	})

	l := &lsh{}
	require.NoError(t, l.Build(chunks, metric.Cosine, Params{LSHNumPlanes: 6, LSHNumTables: 4, LSHSeed: 42}))

	got, err := l.Search([]float32{1, 0, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, chunks[0].ID, got[0].ChunkID)
}

func TestLSH_FallsBackToFullLibraryWhenBucketsEmpty(t *testing.T) {
	s := store.New()
	lib := s.CreateLibrary("lib")
	chunks := seedChunks(t, s, lib.ID, [][]float32{
		{1, 0}, {0, 1},
	})

	l := &lsh{}
	require.NoError(t, l.Build(chunks, metric.Cosine, Params{LSHNumPlanes: 1, LSHNumTables: 1, LSHSeed: 7}))

	got := l.gather([]float32{0, 0}, 1, nil)
	assert.NotEmpty(t, got)
}

func TestRegistry_BuildAndGet(t *testing.T) {
	s := store.New()
	lib := s.CreateLibrary("lib")
	seedChunks(t, s, lib.ID, [][]float32{{1, 0}, {0, 1}})

	reg := NewRegistry(s, Params{LSHNumPlanes: 4, LSHNumTables: 2, LSHSeed: 1})
	cfg, err := reg.Build(lib.ID, store.AlgorithmLinear, metric.Cosine)
	require.NoError(t, err)
	assert.Equal(t, store.AlgorithmLinear, cfg.Algorithm)
	assert.Equal(t, 2, cfg.ChunkCount)

	got, ok := reg.Get(lib.ID)
	require.True(t, ok)
	assert.Equal(t, cfg.Algorithm, got.Algorithm)
}

func TestRegistry_SearchPassesAcceptThroughToAlgorithm(t *testing.T) {
	s := store.New()
	lib := s.CreateLibrary("lib")
	chunks := seedChunks(t, s, lib.ID, [][]float32{{1, 0}, {1, 0}, {0, 1}})

	reg := NewRegistry(s, Params{LSHNumPlanes: 4, LSHNumTables: 2, LSHSeed: 1})
	_, err := reg.Build(lib.ID, store.AlgorithmLinear, metric.Cosine)
	require.NoError(t, err)

	onlyThird := chunks[2].ID
	cands, ok := reg.Search(lib.ID, []float32{1, 0}, 2, func(chunkID string) bool {
		return chunkID == onlyThird
	})
	require.True(t, ok)
	require.Len(t, cands, 1)
	assert.Equal(t, onlyThird, cands[0].ChunkID)
}

func TestRegistry_BuildRejectsIncompatibleAlgorithmMetric(t *testing.T) {
	s := store.New()
	lib := s.CreateLibrary("lib")
	seedChunks(t, s, lib.ID, [][]float32{{1, 0}})

	reg := NewRegistry(s, Params{LSHNumPlanes: 4, LSHNumTables: 2, LSHSeed: 1})
	_, err := reg.Build(lib.ID, store.AlgorithmKDTree, metric.Cosine)
	assert.True(t, isInvalidAlgorithmMetric(err))
}

func TestRegistry_BuildAcceptsEmptyLibrary(t *testing.T) {
	s := store.New()
	lib := s.CreateLibrary("lib")

	reg := NewRegistry(s, Params{LSHNumPlanes: 4, LSHNumTables: 2, LSHSeed: 1})
	cfg, err := reg.Build(lib.ID, store.AlgorithmLinear, metric.Cosine)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.ChunkCount)
}

func TestRegistry_InvalidateMakesSearchFallBack(t *testing.T) {
	s := store.New()
	lib := s.CreateLibrary("lib")
	seedChunks(t, s, lib.ID, [][]float32{{1, 0}})

	reg := NewRegistry(s, Params{LSHNumPlanes: 4, LSHNumTables: 2, LSHSeed: 1})
	_, err := reg.Build(lib.ID, store.AlgorithmLinear, metric.Cosine)
	require.NoError(t, err)

	reg.Invalidate(lib.ID)

	_, ok := reg.Search(lib.ID, []float32{1, 0}, 1, nil)
	assert.False(t, ok)

	_, ok = reg.Get(lib.ID)
	assert.False(t, ok)
}

func TestRegistry_DropRemovesConfig(t *testing.T) {
	s := store.New()
	lib := s.CreateLibrary("lib")
	seedChunks(t, s, lib.ID, [][]float32{{1, 0}})

	reg := NewRegistry(s, Params{LSHNumPlanes: 4, LSHNumTables: 2, LSHSeed: 1})
	_, err := reg.Build(lib.ID, store.AlgorithmLinear, metric.Cosine)
	require.NoError(t, err)

	reg.Drop(lib.ID)
	_, ok := reg.Get(lib.ID)
	assert.False(t, ok)
}

func isInvalidAlgorithmMetric(err error) bool {
	return vdberrors.Is(err, vdberrors.KindInvalidAlgorithmMetric)
}
