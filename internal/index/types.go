// Package index holds the three interchangeable nearest-neighbour
// structures (linear scan, KD-tree, LSH) a library can be built with, and
// the registry that tracks each library's active one. Indexes never read
// or write the store directly: they are built from a snapshot of chunks
// handed to them once, and only ever reference chunk ids plus the
// embeddings they were given at build time.
package index

import (
	"sort"

	"github.com/vectorlite/vectorlite/internal/metric"
	"github.com/vectorlite/vectorlite/internal/store"
)

// Candidate is one scored search result, identified by chunk id only; the
// caller (internal/search) resolves text, document id and metadata from
// the store.
type Candidate struct {
	ChunkID string
	Score   float32
}

// Params carries the library-wide LSH parameters. KD-tree and linear
// ignore it.
type Params struct {
	LSHNumPlanes int
	LSHNumTables int
	LSHSeed      int64
}

// Algorithm is the shape every index structure implements. Build replaces
// any prior state; it is never called incrementally.
//
// accept, when non-nil, restricts which chunk ids may count toward k.
// Linear and KD-tree apply it during the scoring pass itself, so a filtered
// search still returns every matching chunk up to k. LSH widens its bucket
// search (falling back to every entry) until it holds k accepted ids, then
// drops rejected ids before re-ranking; accepted chunks outside the gathered
// buckets are not considered once k are in hand.
type Algorithm interface {
	Build(chunks []store.Chunk, m metric.Kind, params Params) error
	Search(query []float32, k int, accept func(chunkID string) bool) ([]Candidate, error)
}

// entry is the common (chunk_id, embedding) pair every index builds its
// structure out of.
type entry struct {
	chunkID   string
	embedding []float32
	seq       int
}

func entriesFromChunks(chunks []store.Chunk) []entry {
	out := make([]entry, len(chunks))
	for i, c := range chunks {
		out[i] = entry{chunkID: c.ID, embedding: c.Embedding, seq: c.Seq()}
	}
	return out
}

// rankedCandidate adapts entry+score to metric.Ranked so every index shares
// the same tie-break ordering instead of reimplementing it.
type rankedCandidate struct {
	chunkID string
	score   float32
	seq     int
}

func (r rankedCandidate) RankScore() float32 { return r.score }
func (r rankedCandidate) RankID() string     { return r.chunkID }
func (r rankedCandidate) RankSeq() int       { return r.seq }

// topK sorts candidates by the shared ranking order and returns at most k.
func topK(cands []rankedCandidate, k int) []Candidate {
	sort.Slice(cands, func(i, j int) bool { return metric.Compare(cands[i], cands[j]) })
	if k > len(cands) {
		k = len(cands)
	}
	if k < 0 {
		k = 0
	}
	out := make([]Candidate, k)
	for i := 0; i < k; i++ {
		out[i] = Candidate{ChunkID: cands[i].chunkID, Score: cands[i].score}
	}
	return out
}
