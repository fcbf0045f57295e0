package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	vdberrors "github.com/vectorlite/vectorlite/internal/errors"
)

// Invalidator is notified whenever a library's chunk set changes, so the
// index registry can mark that library's materialised index stale without
// store importing the index package.
type Invalidator interface {
	Invalidate(libraryID string)
}

type libraryState struct {
	mu        sync.RWMutex
	library   Library
	documents map[string]*Document
	chunks    map[string]*Chunk
	dimension int // 0 until the first chunk fixes it
	nextSeq   int
}

// Store holds every library's documents and chunks behind a global lock
// (library-level CRUD: create/delete library) plus one reader/writer lock
// per library (document/chunk CRUD, reads).
type Store struct {
	mu        sync.RWMutex
	libraries map[string]*libraryState

	docMu      sync.RWMutex
	docLibrary map[string]string // document id -> owning library id, across all libraries

	invalidator Invalidator
}

// New creates an empty Store. SetInvalidator must be called before any
// mutating operation if index invalidation is required.
func New() *Store {
	return &Store{
		libraries:  make(map[string]*libraryState),
		docLibrary: make(map[string]string),
	}
}

// SetInvalidator wires the index registry's invalidation hook.
func (s *Store) SetInvalidator(inv Invalidator) {
	s.invalidator = inv
}

func (s *Store) notify(libraryID string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(libraryID)
	}
}

// CreateLibrary assigns a new opaque id and creates an empty library.
func (s *Store) CreateLibrary(name string) *Library {
	s.mu.Lock()
	defer s.mu.Unlock()

	lib := Library{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	s.libraries[lib.ID] = &libraryState{
		library:   lib,
		documents: make(map[string]*Document),
		chunks:    make(map[string]*Chunk),
	}
	return &lib
}

func (s *Store) lookup(libraryID string) (*libraryState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ls, ok := s.libraries[libraryID]
	if !ok {
		return nil, vdberrors.LibraryNotFound(libraryID)
	}
	return ls, nil
}

// GetLibrary returns the library by id.
func (s *Store) GetLibrary(id string) (*Library, error) {
	ls, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	lib := ls.library
	return &lib, nil
}

// ListLibraries returns every library, order unspecified.
func (s *Store) ListLibraries() []Library {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Library, 0, len(s.libraries))
	for _, ls := range s.libraries {
		ls.mu.RLock()
		out = append(out, ls.library)
		ls.mu.RUnlock()
	}
	return out
}

// DeleteLibrary removes the library and cascades to its documents, chunks
// and (via notify) its IndexConfig.
func (s *Store) DeleteLibrary(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ls, ok := s.libraries[id]
	if !ok {
		return vdberrors.LibraryNotFound(id)
	}
	ls.mu.RLock()
	docIDs := make([]string, 0, len(ls.documents))
	for docID := range ls.documents {
		docIDs = append(docIDs, docID)
	}
	ls.mu.RUnlock()

	s.docMu.Lock()
	for _, docID := range docIDs {
		delete(s.docLibrary, docID)
	}
	s.docMu.Unlock()

	delete(s.libraries, id)
	s.notify(id)
	return nil
}

// CreateDocument creates a document within an existing library.
func (s *Store) CreateDocument(libraryID, title, description string, metadata map[string]string) (*Document, error) {
	ls, err := s.lookup(libraryID)
	if err != nil {
		return nil, err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	doc := &Document{
		ID:          uuid.NewString(),
		LibraryID:   libraryID,
		Title:       title,
		Description: description,
		Metadata:    cloneMetadata(metadata),
		CreatedAt:   time.Now().UTC(),
	}
	ls.documents[doc.ID] = doc

	s.docMu.Lock()
	s.docLibrary[doc.ID] = libraryID
	s.docMu.Unlock()

	result := *doc
	return &result, nil
}

// GetDocument returns a document by id within the given library.
func (s *Store) GetDocument(libraryID, documentID string) (*Document, error) {
	ls, err := s.lookup(libraryID)
	if err != nil {
		return nil, err
	}
	ls.mu.RLock()
	defer ls.mu.RUnlock()

	doc, ok := ls.documents[documentID]
	if !ok {
		return nil, vdberrors.DocumentNotFound(documentID)
	}
	result := *doc
	return &result, nil
}

// ListDocuments returns every document in a library.
func (s *Store) ListDocuments(libraryID string) ([]Document, error) {
	ls, err := s.lookup(libraryID)
	if err != nil {
		return nil, err
	}
	ls.mu.RLock()
	defer ls.mu.RUnlock()

	out := make([]Document, 0, len(ls.documents))
	for _, d := range ls.documents {
		out = append(out, *d)
	}
	return out, nil
}

// DeleteDocument removes a document and cascades to every chunk whose
// document_id equals it.
func (s *Store) DeleteDocument(libraryID, documentID string) error {
	ls, err := s.lookup(libraryID)
	if err != nil {
		return err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	if _, ok := ls.documents[documentID]; !ok {
		return vdberrors.DocumentNotFound(documentID)
	}
	delete(ls.documents, documentID)

	s.docMu.Lock()
	delete(s.docLibrary, documentID)
	s.docMu.Unlock()

	removed := false
	for id, c := range ls.chunks {
		if c.DocumentID == documentID {
			delete(ls.chunks, id)
			removed = true
		}
	}
	if removed {
		s.notify(libraryID)
	}
	return nil
}

// CreateChunk creates a chunk under an existing document. The first chunk
// inserted into a library fixes that library's embedding dimension.
func (s *Store) CreateChunk(libraryID, documentID, text string, embedding []float32, metadata map[string]string) (*Chunk, error) {
	ls, err := s.lookup(libraryID)
	if err != nil {
		return nil, err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	if _, ok := ls.documents[documentID]; !ok {
		s.docMu.RLock()
		owner, known := s.docLibrary[documentID]
		s.docMu.RUnlock()
		if known && owner != libraryID {
			return nil, vdberrors.LibraryMismatch("document belongs to a different library")
		}
		return nil, vdberrors.DocumentNotFound(documentID)
	}

	if ls.dimension == 0 {
		ls.dimension = len(embedding)
	} else if len(embedding) != ls.dimension {
		return nil, vdberrors.DimensionMismatch(ls.dimension, len(embedding))
	}

	chunk := &Chunk{
		ID:         uuid.NewString(),
		LibraryID:  libraryID,
		DocumentID: documentID,
		Text:       text,
		Embedding:  cloneEmbedding(embedding),
		Metadata:   cloneMetadata(metadata),
		CreatedAt:  time.Now().UTC(),
		seq:        ls.nextSeq,
	}
	ls.nextSeq++
	ls.chunks[chunk.ID] = chunk
	s.notify(libraryID)

	result := *chunk
	result.Embedding = cloneEmbedding(chunk.Embedding)
	return &result, nil
}

// ChunkPatch carries the subset of chunk fields an update mutates. A nil
// field leaves the corresponding value untouched.
type ChunkPatch struct {
	Text      *string
	Embedding []float32
	Metadata  map[string]string
}

// UpdateChunk patches any subset of {text, embedding, metadata}.
func (s *Store) UpdateChunk(libraryID, chunkID string, patch ChunkPatch) (*Chunk, error) {
	ls, err := s.lookup(libraryID)
	if err != nil {
		return nil, err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	chunk, ok := ls.chunks[chunkID]
	if !ok {
		return nil, vdberrors.ChunkNotFound(chunkID)
	}

	if patch.Embedding != nil {
		if len(patch.Embedding) != ls.dimension {
			return nil, vdberrors.DimensionMismatch(ls.dimension, len(patch.Embedding))
		}
		chunk.Embedding = cloneEmbedding(patch.Embedding)
	}
	if patch.Text != nil {
		chunk.Text = *patch.Text
	}
	if patch.Metadata != nil {
		chunk.Metadata = cloneMetadata(patch.Metadata)
	}

	s.notify(libraryID)

	result := *chunk
	result.Embedding = cloneEmbedding(chunk.Embedding)
	return &result, nil
}

// GetChunk returns a chunk by id within the given library.
func (s *Store) GetChunk(libraryID, chunkID string) (*Chunk, error) {
	ls, err := s.lookup(libraryID)
	if err != nil {
		return nil, err
	}
	ls.mu.RLock()
	defer ls.mu.RUnlock()

	chunk, ok := ls.chunks[chunkID]
	if !ok {
		return nil, vdberrors.ChunkNotFound(chunkID)
	}
	result := *chunk
	result.Embedding = cloneEmbedding(chunk.Embedding)
	return &result, nil
}

// ListChunks returns every live chunk in a library, in insertion order.
func (s *Store) ListChunks(libraryID string) ([]Chunk, error) {
	ls, err := s.lookup(libraryID)
	if err != nil {
		return nil, err
	}
	ls.mu.RLock()
	defer ls.mu.RUnlock()

	out := make([]Chunk, 0, len(ls.chunks))
	for _, c := range ls.chunks {
		cp := *c
		cp.Embedding = cloneEmbedding(c.Embedding)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out, nil
}

// Dimension returns the library's fixed embedding dimension, or 0 if no
// chunk has been inserted yet.
func (s *Store) Dimension(libraryID string) (int, error) {
	ls, err := s.lookup(libraryID)
	if err != nil {
		return 0, err
	}
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return ls.dimension, nil
}

// DeleteChunk removes a chunk by id.
func (s *Store) DeleteChunk(libraryID, chunkID string) error {
	ls, err := s.lookup(libraryID)
	if err != nil {
		return err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	if _, ok := ls.chunks[chunkID]; !ok {
		return vdberrors.ChunkNotFound(chunkID)
	}
	delete(ls.chunks, chunkID)
	s.notify(libraryID)
	return nil
}

// Seq exposes a chunk's insertion sequence number, the final tie-break key
// in internal/metric.Compare.
func (c Chunk) Seq() int {
	return c.seq
}

func cloneEmbedding(v []float32) []float32 {
	if v == nil {
		return nil
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

func cloneMetadata(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
