package store

// RestoreLibrary is one library's full state as captured by a snapshot:
// enough to rebuild a libraryState without going through the normal
// Create* path, which would mint new ids and lose the snapshot's own.
type RestoreLibrary struct {
	Library   Library
	Documents []Document
	Chunks    []Chunk // in the order they should receive fresh sequence numbers
}

// Restore replaces the store's entire state in one atomic step, the way
// spec.md describes snapshot restore: "replaces the entire in-memory
// state." Chunk sequence numbers are reassigned 0..n-1 in the order given,
// which preserves relative insertion order (the only thing the tie-break
// in internal/metric.Compare depends on) without needing to serialize the
// original sequence numbers.
func (s *Store) Restore(libraries []RestoreLibrary) {
	newLibraries := make(map[string]*libraryState, len(libraries))
	newDocLibrary := make(map[string]string)

	for _, rl := range libraries {
		ls := &libraryState{
			library:   rl.Library,
			documents: make(map[string]*Document, len(rl.Documents)),
			chunks:    make(map[string]*Chunk, len(rl.Chunks)),
		}
		for _, d := range rl.Documents {
			doc := d
			ls.documents[doc.ID] = &doc
			newDocLibrary[doc.ID] = rl.Library.ID
		}
		for i, c := range rl.Chunks {
			chunk := c
			chunk.seq = i
			if len(chunk.Embedding) > ls.dimension {
				ls.dimension = len(chunk.Embedding)
			}
			ls.chunks[chunk.ID] = &chunk
		}
		ls.nextSeq = len(rl.Chunks)
		newLibraries[rl.Library.ID] = ls
	}

	s.mu.Lock()
	s.docMu.Lock()
	s.libraries = newLibraries
	s.docLibrary = newDocLibrary
	s.docMu.Unlock()
	s.mu.Unlock()
}
