package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectorlite/vectorlite/internal/metric"
	"github.com/vectorlite/vectorlite/internal/store"
	"github.com/vectorlite/vectorlite/internal/vstore"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := vstore.Open(vstore.Options{
		DataDir:       t.TempDir(),
		DefaultMetric: metric.Cosine,
		DefaultIndex:  store.AlgorithmLinear,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, Config{}, nil)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLibraryDocumentChunkLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/libraries/", map[string]string{"name": "lib1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var lib store.Library
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lib))
	require.NotEmpty(t, lib.ID)

	rec = doJSON(t, s, http.MethodPost, fmt.Sprintf("/libraries/%s/documents/", lib.ID), map[string]string{"title": "doc1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var doc store.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))

	rec = doJSON(t, s, http.MethodPost, fmt.Sprintf("/libraries/%s/chunks/", lib.ID), map[string]any{
		"document_id": doc.ID,
		"text":        "hello world",
		"embedding":   []float32{1, 0, 0},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, s, http.MethodGet, fmt.Sprintf("/libraries/%s/chunks/", lib.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodPost, fmt.Sprintf("/libraries/%s/search", lib.ID), map[string]any{
		"vector": []float32{1, 0, 0},
		"k":      1,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var searchResp struct {
		Results []struct {
			ChunkID string `json:"ChunkID"`
			Score   float32
		}
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &searchResp))
	require.Len(t, searchResp.Results, 1)
}

func TestHandleGetLibrary_Unknown_Returns404(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/libraries/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleCreateChunk_DimensionMismatch_Returns400(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/libraries/", map[string]string{"name": "lib1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var lib store.Library
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lib))

	rec = doJSON(t, s, http.MethodPost, fmt.Sprintf("/libraries/%s/documents/", lib.ID), map[string]string{"title": "doc1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var doc store.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))

	rec = doJSON(t, s, http.MethodPost, fmt.Sprintf("/libraries/%s/chunks/", lib.ID), map[string]any{
		"document_id": doc.ID,
		"text":        "hello",
		"embedding":   []float32{1, 0, 0},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, s, http.MethodPost, fmt.Sprintf("/libraries/%s/chunks/", lib.ID), map[string]any{
		"document_id": doc.ID,
		"text":        "bad dims",
		"embedding":   []float32{1, 0},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCreateSnapshot_WithoutAdminClaim_Returns403(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/snapshots/", map[string]string{"name": "snap1"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleBuildIndex_InvalidAlgorithmMetric_Returns400(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/libraries/", map[string]string{"name": "lib1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var lib store.Library
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lib))

	rec = doJSON(t, s, http.MethodPost, fmt.Sprintf("/libraries/%s/index", lib.ID), map[string]string{
		"algorithm": "kdtree",
		"metric":    "cosine",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
