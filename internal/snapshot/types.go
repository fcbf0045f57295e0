// Package snapshot serializes and restores the entire in-memory vector
// database: every library, its documents and chunks, and each library's
// IndexConfig descriptor. Index internals (KD-tree nodes, LSH tables) are
// never serialized; restore rebuilds them from the recorded
// (algorithm, metric) once the chunks are back in the store.
package snapshot

import "time"

const formatVersion = 1

type document struct {
	Version   int               `json:"version"`
	CreatedAt time.Time         `json:"created_at"`
	Libraries []librarySnapshot `json:"libraries"`
}

type librarySnapshot struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	CreatedAt time.Time          `json:"created_at"`
	Documents []documentSnapshot `json:"documents"`
	Chunks    []chunkSnapshot    `json:"chunks"`
	Index     *indexSnapshot     `json:"index,omitempty"`
}

type documentSnapshot struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

type chunkSnapshot struct {
	ID         string            `json:"id"`
	DocumentID string            `json:"document_id"`
	Text       string            `json:"text"`
	Embedding  []float32         `json:"embedding"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

type indexSnapshot struct {
	Algorithm  string    `json:"algorithm"`
	Metric     string    `json:"metric"`
	Dimension  int       `json:"dimension"`
	ChunkCount int       `json:"chunk_count"`
	BuiltAt    time.Time `json:"built_at"`
}
