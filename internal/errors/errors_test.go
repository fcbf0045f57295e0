package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVDBError_Unwrap_PreservesOriginalError(t *testing.T) {
	originalErr := errors.New("original error")

	vdbErr := Wrap(KindIOError, "read failed", originalErr)

	require.NotNil(t, vdbErr)
	assert.Equal(t, originalErr, errors.Unwrap(vdbErr))
	assert.True(t, errors.Is(vdbErr, originalErr))
}

func TestVDBError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		message  string
		expected string
	}{
		{"library not found", KindLibraryNotFound, "library not found", "LIBRARY_NOT_FOUND: library not found"},
		{"invalid k", KindInvalidK, "k must be positive", "INVALID_K: k must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.kind, tt.message)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestVDBError_Is_MatchesByKind(t *testing.T) {
	err1 := New(KindChunkNotFound, "chunk A not found")
	err2 := New(KindChunkNotFound, "chunk B not found")

	assert.True(t, errors.Is(err1, err2))
}

func TestVDBError_Is_DoesNotMatchDifferentKinds(t *testing.T) {
	err1 := New(KindChunkNotFound, "chunk not found")
	err2 := New(KindDocumentNotFound, "document not found")

	assert.False(t, errors.Is(err1, err2))
}

func TestVDBError_WithDetail_AddsContext(t *testing.T) {
	err := New(KindDimensionMismatch, "dimension mismatch")

	err = err.WithDetail("expected", "128")
	err = err.WithDetail("actual", "64")

	assert.Equal(t, "128", err.Details["expected"])
	assert.Equal(t, "64", err.Details["actual"])
}

func TestWrap_NilCauseReturnsPlainError(t *testing.T) {
	err := Wrap(KindInternal, "no cause", nil)

	require.NotNil(t, err)
	assert.Nil(t, err.Cause)
	assert.Equal(t, KindInternal, err.Kind)
}

func TestWrap_CreatesVDBErrorFromError(t *testing.T) {
	originalErr := errors.New("something went wrong")

	wrapped := Wrap(KindInternal, "wrapping failure", originalErr)

	require.NotNil(t, wrapped)
	assert.Equal(t, KindInternal, wrapped.Kind)
	assert.Equal(t, originalErr, wrapped.Cause)
}

func TestGetKind_ExtractsKindFromChain(t *testing.T) {
	base := LibraryNotFound("lib-1")
	wrapped := errors.New("context: " + base.Error())

	assert.Equal(t, KindLibraryNotFound, GetKind(base))
	assert.Equal(t, Kind(""), GetKind(wrapped))
	assert.Equal(t, Kind(""), GetKind(nil))
}

func TestIs_MatchesKindThroughFmtErrorfWrap(t *testing.T) {
	base := InvalidK(-1)
	wrapped := fmt.Errorf("operation failed: %w", base)

	assert.True(t, Is(wrapped, KindInvalidK))
	assert.False(t, Is(wrapped, KindInternal))
}

func TestDomainConstructors_SetExpectedKindsAndDetails(t *testing.T) {
	assert.Equal(t, KindLibraryNotFound, GetKind(LibraryNotFound("lib-1")))
	assert.Equal(t, KindDocumentNotFound, GetKind(DocumentNotFound("doc-1")))
	assert.Equal(t, KindChunkNotFound, GetKind(ChunkNotFound("chunk-1")))
	assert.Equal(t, KindLibraryMismatch, GetKind(LibraryMismatch("mismatch")))
	assert.Equal(t, KindEmptyLibrary, GetKind(EmptyLibrary("lib-1")))
	assert.Equal(t, KindSnapshotNotFound, GetKind(SnapshotNotFound("snap-1")))

	dim := DimensionMismatch(128, 64)
	assert.Equal(t, "128", dim.Details["expected"])
	assert.Equal(t, "64", dim.Details["actual"])

	alg := InvalidAlgorithmMetric("kdtree", "cosine")
	assert.Equal(t, "kdtree", alg.Details["algorithm"])
	assert.Equal(t, "cosine", alg.Details["metric"])

	snap := SnapshotCorrupt("snap-1", errors.New("bad json"))
	assert.Equal(t, KindSnapshotCorrupt, snap.Kind)
	assert.NotNil(t, snap.Cause)
}
