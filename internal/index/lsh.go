package index

import (
	"context"
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"

	vdberrors "github.com/vectorlite/vectorlite/internal/errors"
	"github.com/vectorlite/vectorlite/internal/metric"
	"github.com/vectorlite/vectorlite/internal/store"
)

type lshTable struct {
	planes  [][]float32
	buckets map[uint64][]entry
}

// lsh is the random-hyperplane index: L tables of P planes each, built
// from a single seeded stream so a given (seed, planes, tables) always
// reproduces the same buckets. Cosine only.
type lsh struct {
	tables    []lshTable
	numPlanes int
	entries   []entry
}

func (l *lsh) Build(chunks []store.Chunk, m metric.Kind, params Params) error {
	if m != metric.Cosine {
		return vdberrors.InvalidAlgorithmMetric(string(store.AlgorithmLSH), string(m))
	}

	numPlanes := params.LSHNumPlanes
	numTables := params.LSHNumTables
	entries := entriesFromChunks(chunks)

	dim := 0
	if len(entries) > 0 {
		dim = len(entries[0].embedding)
	}

	rng := rand.New(rand.NewSource(params.LSHSeed))
	allPlanes := make([][][]float32, numTables)
	for t := 0; t < numTables; t++ {
		planes := make([][]float32, numPlanes)
		for p := range planes {
			planes[p] = randomUnitVector(rng, dim)
		}
		allPlanes[t] = planes
	}

	tables := make([]lshTable, numTables)
	g, _ := errgroup.WithContext(context.Background())
	for t := 0; t < numTables; t++ {
		t := t
		g.Go(func() error {
			buckets := make(map[uint64][]entry)
			for _, e := range entries {
				sig := signature(allPlanes[t], e.embedding)
				buckets[sig] = append(buckets[sig], e)
			}
			tables[t] = lshTable{planes: allPlanes[t], buckets: buckets}
			return nil
		})
	}
	_ = g.Wait() // buckets-only goroutines never fail

	l.tables = tables
	l.numPlanes = numPlanes
	l.entries = entries
	return nil
}

func randomUnitVector(rng *rand.Rand, dim int) []float32 {
	v := make([]float32, dim)
	var sumSq float64
	for i := range v {
		x := rng.NormFloat64()
		v[i] = float32(x)
		sumSq += x * x
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return v
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

func signature(planes [][]float32, v []float32) uint64 {
	var sig uint64
	for i, plane := range planes {
		if metric.DotProduct(v, plane) >= 0 {
			sig |= uint64(1) << uint(i)
		}
	}
	return sig
}

// Search gathers candidate buckets and re-ranks them by exact cosine
// similarity. accept, if given, steers gather's widening and fallback, and
// rejected ids are dropped here before re-ranking. Once gather holds k
// accepted entries, a closer accepted match outside the gathered buckets
// can still be missed, same as any other approximate neighbour.
func (l *lsh) Search(query []float32, k int, accept func(chunkID string) bool) ([]Candidate, error) {
	candidates := l.gather(query, k, accept)
	ranked := make([]rankedCandidate, 0, len(candidates))
	for id, e := range candidates {
		if accept != nil && !accept(id) {
			continue
		}
		ranked = append(ranked, rankedCandidate{
			chunkID: id,
			score:   metric.CosineSimilarity(query, e.embedding),
			seq:     e.seq,
		})
	}
	return topK(ranked, k), nil
}

// gather unions the query's buckets across tables. Without a filter, a
// non-empty union is returned as is; an empty one is widened by single
// bit-flips, table by table, until it holds at least k entries or the flips
// run out, and falls back to the full entry set if it is still empty. With
// a filter, widening runs while fewer than k accepted entries are gathered,
// and the full entry set is used if the flips end short of k.
func (l *lsh) gather(query []float32, k int, accept func(chunkID string) bool) map[string]entry {
	out := make(map[string]entry)
	sigs := make([]uint64, len(l.tables))

	enough := func() bool {
		if accept == nil {
			return len(out) >= k
		}
		n := 0
		for id := range out {
			if accept(id) {
				n++
				if n >= k {
					return true
				}
			}
		}
		return false
	}

	for t, table := range l.tables {
		sig := signature(table.planes, query)
		sigs[t] = sig
		for _, e := range table.buckets[sig] {
			out[e.chunkID] = e
		}
	}
	if (accept == nil && len(out) > 0) || enough() {
		return out
	}

	for t, table := range l.tables {
		for bit := 0; bit < l.numPlanes; bit++ {
			flipped := sigs[t] ^ (uint64(1) << uint(bit))
			for _, e := range table.buckets[flipped] {
				out[e.chunkID] = e
			}
		}
		if enough() {
			return out
		}
	}
	if len(out) > 0 && accept == nil {
		return out
	}

	for _, e := range l.entries {
		out[e.chunkID] = e
	}
	return out
}
