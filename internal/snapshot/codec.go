package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/renameio"

	vdberrors "github.com/vectorlite/vectorlite/internal/errors"
	"github.com/vectorlite/vectorlite/internal/fslock"
	"github.com/vectorlite/vectorlite/internal/index"
	"github.com/vectorlite/vectorlite/internal/metric"
	"github.com/vectorlite/vectorlite/internal/store"
)

// ChunkLister is the slice of Store the codec needs to capture every
// library's documents and chunks.
type ChunkLister interface {
	ListLibraries() []store.Library
	ListDocuments(libraryID string) ([]store.Document, error)
	ListChunks(libraryID string) ([]store.Chunk, error)
}

// IndexSource reports a library's active config, if any, so Create can
// record it for rebuild on restore.
type IndexSource interface {
	Get(libraryID string) (*index.IndexConfig, bool)
}

// Create serializes every library, document and chunk, plus each
// library's active IndexConfig, into <dir>/<name>.json. The write is
// atomic (temp file + rename via google/renameio) and guarded by a
// cross-process lock, so a crash mid-write never leaves a corrupt
// snapshot where a reader could see it.
func Create(dir, name string, s ChunkLister, reg IndexSource) (string, error) {
	lock := fslock.New(dir, ".write.lock")
	if err := lock.Lock(); err != nil {
		return "", vdberrors.IOError("acquire snapshot write lock", err)
	}
	defer lock.Unlock()

	doc := document{Version: formatVersion, CreatedAt: time.Now().UTC()}

	for _, lib := range s.ListLibraries() {
		docs, err := s.ListDocuments(lib.ID)
		if err != nil {
			return "", err
		}
		chunks, err := s.ListChunks(lib.ID)
		if err != nil {
			return "", err
		}
		sort.Slice(chunks, func(i, j int) bool { return chunks[i].Seq() < chunks[j].Seq() })

		ls := librarySnapshot{
			ID:        lib.ID,
			Name:      lib.Name,
			CreatedAt: lib.CreatedAt,
			Documents: toDocumentSnapshots(docs),
			Chunks:    toChunkSnapshots(chunks),
		}
		if cfg, ok := reg.Get(lib.ID); ok {
			ls.Index = &indexSnapshot{
				Algorithm:  string(cfg.Algorithm),
				Metric:     cfg.Metric,
				Dimension:  cfg.Dimension,
				ChunkCount: cfg.ChunkCount,
				BuiltAt:    cfg.BuiltAt,
			}
		}
		doc.Libraries = append(doc.Libraries, ls)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", vdberrors.IOError("create snapshot directory", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", vdberrors.Internal("marshal snapshot", err)
	}
	path := filepath.Join(dir, name+".json")
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return "", vdberrors.IOError("write snapshot file", err)
	}
	return path, nil
}

// Restorer is the slice of Store the codec needs to replace all in-memory
// state in one call.
type Restorer interface {
	Restore(libraries []store.RestoreLibrary)
}

// IndexBuilder is the slice of Registry the codec needs to rebuild
// indexes recorded in the snapshot.
type IndexBuilder interface {
	Build(libraryID string, algorithm store.Algorithm, m metric.Kind) (*index.IndexConfig, error)
	Reset()
}

// Restore reads path and replaces s's and reg's entire state. Any library
// whose snapshot recorded an IndexConfig has its index rebuilt from the
// restored chunks using the recorded (algorithm, metric); libraries
// without one are left without an index until built explicitly.
func Restore(path string, s Restorer, reg IndexBuilder) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return vdberrors.SnapshotNotFound(filepath.Base(path))
		}
		return vdberrors.IOError("read snapshot file", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return vdberrors.SnapshotCorrupt(filepath.Base(path), err)
	}

	restoreLibs := make([]store.RestoreLibrary, len(doc.Libraries))
	for i, ls := range doc.Libraries {
		restoreLibs[i] = store.RestoreLibrary{
			Library:   store.Library{ID: ls.ID, Name: ls.Name, CreatedAt: ls.CreatedAt},
			Documents: fromDocumentSnapshots(ls.ID, ls.Documents),
			Chunks:    fromChunkSnapshots(ls.ID, ls.Chunks),
		}
	}
	s.Restore(restoreLibs)
	reg.Reset()

	for _, ls := range doc.Libraries {
		if ls.Index == nil {
			continue
		}
		algorithm := store.Algorithm(ls.Index.Algorithm)
		m := metric.Kind(ls.Index.Metric)
		if _, err := reg.Build(ls.ID, algorithm, m); err != nil {
			return vdberrors.Wrap(vdberrors.KindSnapshotCorrupt,
				fmt.Sprintf("rebuild index for library %s", ls.ID), err)
		}
	}
	return nil
}

func toDocumentSnapshots(docs []store.Document) []documentSnapshot {
	out := make([]documentSnapshot, len(docs))
	for i, d := range docs {
		out[i] = documentSnapshot{
			ID:          d.ID,
			Title:       d.Title,
			Description: d.Description,
			Metadata:    d.Metadata,
			CreatedAt:   d.CreatedAt,
		}
	}
	return out
}

func toChunkSnapshots(chunks []store.Chunk) []chunkSnapshot {
	out := make([]chunkSnapshot, len(chunks))
	for i, c := range chunks {
		out[i] = chunkSnapshot{
			ID:         c.ID,
			DocumentID: c.DocumentID,
			Text:       c.Text,
			Embedding:  c.Embedding,
			Metadata:   c.Metadata,
			CreatedAt:  c.CreatedAt,
		}
	}
	return out
}

func fromDocumentSnapshots(libraryID string, docs []documentSnapshot) []store.Document {
	out := make([]store.Document, len(docs))
	for i, d := range docs {
		out[i] = store.Document{
			ID:          d.ID,
			LibraryID:   libraryID,
			Title:       d.Title,
			Description: d.Description,
			Metadata:    d.Metadata,
			CreatedAt:   d.CreatedAt,
		}
	}
	return out
}

func fromChunkSnapshots(libraryID string, chunks []chunkSnapshot) []store.Chunk {
	out := make([]store.Chunk, len(chunks))
	for i, c := range chunks {
		out[i] = store.Chunk{
			ID:         c.ID,
			LibraryID:  libraryID,
			DocumentID: c.DocumentID,
			Text:       c.Text,
			Embedding:  c.Embedding,
			Metadata:   c.Metadata,
			CreatedAt:  c.CreatedAt,
		}
	}
	return out
}
