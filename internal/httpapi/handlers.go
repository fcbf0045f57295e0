package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vectorlite/vectorlite/internal/auth"
	vdberrors "github.com/vectorlite/vectorlite/internal/errors"
	"github.com/vectorlite/vectorlite/internal/metric"
	"github.com/vectorlite/vectorlite/internal/search"
	"github.com/vectorlite/vectorlite/internal/store"
	"github.com/vectorlite/vectorlite/internal/telemetry"
)

// --- libraries ---

func (s *Server) handleCreateLibrary(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	lib := s.db.CreateLibrary(payload.Name)
	writeJSON(w, http.StatusCreated, lib)
}

func (s *Server) handleListLibraries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"libraries": s.db.ListLibraries()})
}

func (s *Server) handleGetLibrary(w http.ResponseWriter, r *http.Request) {
	lib, err := s.db.GetLibrary(chi.URLParam(r, "libraryID"))
	if err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, lib)
}

func (s *Server) handleDeleteLibrary(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteLibrary(chi.URLParam(r, "libraryID")); err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- documents ---

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	libraryID := chi.URLParam(r, "libraryID")

	var payload struct {
		Title       string            `json:"title"`
		Description string            `json:"description"`
		Metadata    map[string]string `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	doc, err := s.db.CreateDocument(libraryID, payload.Title, payload.Description, payload.Metadata)
	if err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.db.ListDocuments(chi.URLParam(r, "libraryID"))
	if err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.db.GetDocument(chi.URLParam(r, "libraryID"), chi.URLParam(r, "documentID"))
	if err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	err := s.db.DeleteDocument(chi.URLParam(r, "libraryID"), chi.URLParam(r, "documentID"))
	if err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- chunks ---

func (s *Server) handleCreateChunk(w http.ResponseWriter, r *http.Request) {
	libraryID := chi.URLParam(r, "libraryID")

	var payload struct {
		DocumentID string            `json:"document_id"`
		Text       string            `json:"text"`
		Embedding  []float32         `json:"embedding"`
		Metadata   map[string]string `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	chunk, err := s.db.CreateChunk(libraryID, payload.DocumentID, payload.Text, payload.Embedding, payload.Metadata)
	if err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, chunk)
}

func (s *Server) handleListChunks(w http.ResponseWriter, r *http.Request) {
	chunks, err := s.db.ListChunks(chi.URLParam(r, "libraryID"))
	if err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"chunks": chunks})
}

func (s *Server) handleGetChunk(w http.ResponseWriter, r *http.Request) {
	chunk, err := s.db.GetChunk(chi.URLParam(r, "libraryID"), chi.URLParam(r, "chunkID"))
	if err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, chunk)
}

func (s *Server) handleUpdateChunk(w http.ResponseWriter, r *http.Request) {
	libraryID, chunkID := chi.URLParam(r, "libraryID"), chi.URLParam(r, "chunkID")

	var payload struct {
		Text      *string           `json:"text"`
		Embedding []float32         `json:"embedding"`
		Metadata  map[string]string `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	chunk, err := s.db.UpdateChunk(libraryID, chunkID, store.ChunkPatch{
		Text:      payload.Text,
		Embedding: payload.Embedding,
		Metadata:  payload.Metadata,
	})
	if err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, chunk)
}

func (s *Server) handleDeleteChunk(w http.ResponseWriter, r *http.Request) {
	err := s.db.DeleteChunk(chi.URLParam(r, "libraryID"), chi.URLParam(r, "chunkID"))
	if err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- index & search ---

func (s *Server) handleBuildIndex(w http.ResponseWriter, r *http.Request) {
	libraryID := chi.URLParam(r, "libraryID")

	var payload struct {
		Algorithm string `json:"algorithm"`
		Metric    string `json:"metric"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cfg, err := s.db.BuildIndex(libraryID, store.Algorithm(payload.Algorithm), metric.Kind(payload.Metric))
	if err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleIndexStatus(w http.ResponseWriter, r *http.Request) {
	cfg, ok := s.db.IndexStatus(chi.URLParam(r, "libraryID"))
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"built": false})
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	libraryID := chi.URLParam(r, "libraryID")

	var payload struct {
		Vector          []float32         `json:"vector"`
		K               int               `json:"k"`
		MetadataFilters map[string]string `json:"metadata_filters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	start := time.Now()
	results, err := s.db.Search(libraryID, payload.Vector, payload.K, search.Filter(payload.MetadataFilters))
	if s.metrics != nil {
		s.metrics.Record(telemetry.SearchEvent{
			LibraryID:   libraryID,
			K:           payload.K,
			ResultCount: len(results),
			Latency:     time.Since(start),
			Timestamp:   start,
		})
	}
	if err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// --- snapshots (admin) ---

func (s *Server) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := auth.RequireAdmin(claimsFromRequest(r)); err != nil {
		writeError(w, statusForErr(err), err)
		return
	}

	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	info, err := s.db.CreateSnapshot(payload.Name)
	if err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	infos, err := s.db.ListSnapshots()
	if err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": infos})
}

func (s *Server) handleRestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := auth.RequireAdmin(claimsFromRequest(r)); err != nil {
		writeError(w, statusForErr(err), err)
		return
	}

	name := chi.URLParam(r, "name")
	infos, err := s.db.ListSnapshots()
	if err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	var path string
	for _, info := range infos {
		if info.Name == name {
			path = info.Path
			break
		}
	}
	if path == "" {
		err := vdberrors.SnapshotNotFound(name)
		writeError(w, statusForErr(err), err)
		return
	}

	if err := s.db.RestoreSnapshot(path); err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"restored": name})
}

func (s *Server) handleForgetSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := auth.RequireAdmin(claimsFromRequest(r)); err != nil {
		writeError(w, statusForErr(err), err)
		return
	}

	if err := s.db.ForgetSnapshot(chi.URLParam(r, "name")); err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}
