// Package vstore composes the store, index and search packages behind a
// single facade: one process-wide VectorDB that every transport (HTTP
// handlers, the CLI, the browse TUI) calls through, mirroring the way the
// teacher's internal/index.Coordinator composed search.Engine and
// store.MetadataStore behind one type.
package vstore

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	vdberrors "github.com/vectorlite/vectorlite/internal/errors"
	"github.com/vectorlite/vectorlite/internal/index"
	"github.com/vectorlite/vectorlite/internal/metric"
	"github.com/vectorlite/vectorlite/internal/search"
	"github.com/vectorlite/vectorlite/internal/snapshot"
	"github.com/vectorlite/vectorlite/internal/store"
)

// Options configures a VectorDB. It carries exactly the fields
// internal/config.Config resolves from YAML/env, so the cmd layer can
// build one directly from a loaded config.
type Options struct {
	DataDir       string
	DefaultMetric metric.Kind
	DefaultIndex  store.Algorithm
	LSHNumPlanes  int
	LSHNumTables  int
	LSHSeed       int64
	CacheSize     int
}

func (o Options) snapshotDir() string {
	return filepath.Join(o.DataDir, "snapshots")
}

// VectorDB is the single facade over a Store, an index Registry and a
// search Coordinator. Library-level structural operations (create/delete
// library, build/rebuild an index, snapshot/restore) take libMu; document
// and chunk CRUD delegate straight to the Store, which already holds its
// own per-library locks.
type VectorDB struct {
	libMu sync.Mutex

	opts Options

	store      *store.Store
	registry   *index.Registry
	coord      *search.Coordinator
	listReg    *snapshot.ListRegistry
	defaultIdx store.Algorithm
}

// fanOut notifies both the index registry and the search coordinator on
// every store mutation, since a stale index also means a stale result
// cache. store.Invalidator only has room for one listener.
type fanOut struct {
	registry *index.Registry
	coord    *search.Coordinator
}

func (f fanOut) Invalidate(libraryID string) {
	f.registry.Invalidate(libraryID)
	f.coord.Invalidate(libraryID)
}

// Open constructs a VectorDB and opens its snapshot list registry at
// <data_dir>/snapshots/registry.db.
func Open(opts Options) (*VectorDB, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = search.DefaultResultCacheSize
	}
	if opts.DefaultIndex == "" {
		opts.DefaultIndex = store.AlgorithmLinear
	}

	s := store.New()
	reg := index.NewRegistry(s, index.Params{
		LSHNumPlanes: opts.LSHNumPlanes,
		LSHNumTables: opts.LSHNumTables,
		LSHSeed:      opts.LSHSeed,
	})
	coord := search.New(s, reg, opts.DefaultMetric, opts.CacheSize)
	s.SetInvalidator(fanOut{registry: reg, coord: coord})

	if err := os.MkdirAll(opts.snapshotDir(), 0o755); err != nil {
		return nil, vdberrors.IOError("create snapshot directory", err)
	}
	listReg, err := snapshot.OpenListRegistry(filepath.Join(opts.snapshotDir(), "registry.db"))
	if err != nil {
		return nil, err
	}

	return &VectorDB{
		opts:       opts,
		store:      s,
		registry:   reg,
		coord:      coord,
		listReg:    listReg,
		defaultIdx: opts.DefaultIndex,
	}, nil
}

// Close releases resources held open for the lifetime of the process.
func (db *VectorDB) Close() error {
	return db.listReg.Close()
}

// CreateLibrary creates a new, empty library.
func (db *VectorDB) CreateLibrary(name string) *store.Library {
	db.libMu.Lock()
	defer db.libMu.Unlock()
	return db.store.CreateLibrary(name)
}

// GetLibrary returns a library by id.
func (db *VectorDB) GetLibrary(id string) (*store.Library, error) {
	return db.store.GetLibrary(id)
}

// ListLibraries returns every library.
func (db *VectorDB) ListLibraries() []store.Library {
	return db.store.ListLibraries()
}

// DeleteLibrary removes a library, its documents, chunks and index.
func (db *VectorDB) DeleteLibrary(id string) error {
	db.libMu.Lock()
	defer db.libMu.Unlock()
	if err := db.store.DeleteLibrary(id); err != nil {
		return err
	}
	db.registry.Drop(id)
	return nil
}

// CreateDocument creates a document within a library.
func (db *VectorDB) CreateDocument(libraryID, title, description string, metadata map[string]string) (*store.Document, error) {
	return db.store.CreateDocument(libraryID, title, description, metadata)
}

// GetDocument returns a document by id.
func (db *VectorDB) GetDocument(libraryID, documentID string) (*store.Document, error) {
	return db.store.GetDocument(libraryID, documentID)
}

// ListDocuments returns every document in a library.
func (db *VectorDB) ListDocuments(libraryID string) ([]store.Document, error) {
	return db.store.ListDocuments(libraryID)
}

// DeleteDocument removes a document and its chunks.
func (db *VectorDB) DeleteDocument(libraryID, documentID string) error {
	return db.store.DeleteDocument(libraryID, documentID)
}

// CreateChunk creates a chunk under a document.
func (db *VectorDB) CreateChunk(libraryID, documentID, text string, embedding []float32, metadata map[string]string) (*store.Chunk, error) {
	return db.store.CreateChunk(libraryID, documentID, text, embedding, metadata)
}

// UpdateChunk patches a chunk's text, embedding and/or metadata.
func (db *VectorDB) UpdateChunk(libraryID, chunkID string, patch store.ChunkPatch) (*store.Chunk, error) {
	return db.store.UpdateChunk(libraryID, chunkID, patch)
}

// GetChunk returns a chunk by id.
func (db *VectorDB) GetChunk(libraryID, chunkID string) (*store.Chunk, error) {
	return db.store.GetChunk(libraryID, chunkID)
}

// ListChunks returns every chunk in a library.
func (db *VectorDB) ListChunks(libraryID string) ([]store.Chunk, error) {
	return db.store.ListChunks(libraryID)
}

// DeleteChunk removes a chunk.
func (db *VectorDB) DeleteChunk(libraryID, chunkID string) error {
	return db.store.DeleteChunk(libraryID, chunkID)
}

// BuildIndex (re)builds a library's materialised index with the given
// algorithm and metric, replacing any prior one atomically. algorithm
// empty uses the configured default.
func (db *VectorDB) BuildIndex(libraryID string, algorithm store.Algorithm, m metric.Kind) (*index.IndexConfig, error) {
	db.libMu.Lock()
	defer db.libMu.Unlock()

	if algorithm == "" {
		algorithm = db.defaultIdx
	}
	if m == "" {
		m = db.opts.DefaultMetric
	}
	if _, err := db.store.GetLibrary(libraryID); err != nil {
		return nil, err
	}
	return db.registry.Build(libraryID, algorithm, m)
}

// IndexStatus reports a library's active index config, if any.
func (db *VectorDB) IndexStatus(libraryID string) (*index.IndexConfig, bool) {
	return db.registry.Get(libraryID)
}

// Search answers a top-k nearest neighbour query against a library.
func (db *VectorDB) Search(libraryID string, query []float32, k int, filter search.Filter) ([]search.Result, error) {
	if _, err := db.store.GetLibrary(libraryID); err != nil {
		return nil, err
	}
	return db.coord.Search(libraryID, query, k, filter)
}

// CacheStats reports the search coordinator's result cache occupancy.
func (db *VectorDB) CacheStats() search.CacheStats {
	return db.coord.CacheStats()
}

// CreateSnapshot serializes the entire database to <data_dir>/snapshots/<name>.json
// and records it in the snapshot list registry.
func (db *VectorDB) CreateSnapshot(name string) (*snapshot.Info, error) {
	db.libMu.Lock()
	defer db.libMu.Unlock()

	path, err := snapshot.Create(db.opts.snapshotDir(), name, db.store, db.registry)
	if err != nil {
		return nil, err
	}
	createdAt := time.Now().UTC()
	if err := db.listReg.Record(name, path, createdAt); err != nil {
		return nil, err
	}
	return &snapshot.Info{Name: name, Path: path, CreatedAt: createdAt}, nil
}

// RestoreSnapshot replaces the entire in-memory database from a snapshot
// file, rebuilding every library's recorded index.
func (db *VectorDB) RestoreSnapshot(path string) error {
	db.libMu.Lock()
	defer db.libMu.Unlock()
	if err := snapshot.Restore(path, db.store, db.registry); err != nil {
		return err
	}
	// The restored store and registry are an entirely new in-memory state;
	// any cached search result, for any library, may have been computed
	// against data that no longer exists.
	db.coord.InvalidateAll()
	return nil
}

// ListSnapshots returns every recorded snapshot, most recent first.
func (db *VectorDB) ListSnapshots() ([]snapshot.Info, error) {
	return db.listReg.List()
}

// ForgetSnapshot removes a snapshot's registry entry without deleting its
// file.
func (db *VectorDB) ForgetSnapshot(name string) error {
	return db.listReg.Forget(name)
}
