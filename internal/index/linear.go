package index

import (
	"github.com/vectorlite/vectorlite/internal/metric"
	"github.com/vectorlite/vectorlite/internal/store"
)

// linearScan keeps every (chunk_id, embedding) pair and scores all of them
// on every query. Build is O(n); query is O(n*d). Permitted for every
// metric, and the fallback every other index degrades to once a library's
// config goes stale.
type linearScan struct {
	metric  metric.Kind
	entries []entry
}

func newLinearScan() *linearScan {
	return &linearScan{}
}

func (l *linearScan) Build(chunks []store.Chunk, m metric.Kind, _ Params) error {
	l.metric = m
	l.entries = entriesFromChunks(chunks)
	return nil
}

func (l *linearScan) Search(query []float32, k int, accept func(chunkID string) bool) ([]Candidate, error) {
	ranked := make([]rankedCandidate, 0, len(l.entries))
	for _, e := range l.entries {
		if accept != nil && !accept(e.chunkID) {
			continue
		}
		ranked = append(ranked, rankedCandidate{
			chunkID: e.chunkID,
			score:   metric.Score(l.metric, query, e.embedding),
			seq:     e.seq,
		})
	}
	return topK(ranked, k), nil
}

// Linear scores every chunk against query directly, with no prebuilt
// structure. internal/search uses this as the fallback path whenever a
// library has no fresh IndexConfig.
func Linear(chunks []store.Chunk, m metric.Kind, query []float32, k int) []Candidate {
	ranked := make([]rankedCandidate, len(chunks))
	for i, c := range chunks {
		ranked[i] = rankedCandidate{
			chunkID: c.ID,
			score:   metric.Score(m, query, c.Embedding),
			seq:     c.Seq(),
		}
	}
	return topK(ranked, k)
}
