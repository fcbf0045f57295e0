// Package errors provides the structured error type used across vectorlite.
//
// The core packages (store, index, search) report failures as a *VDBError
// carrying one of the Kind values below, so callers (the HTTP layer in
// particular) can map failures to the right status code without string
// matching. Authorization (auth.ErrForbidden) and embedding provider
// failures (*embed.Error) use their own error types.
package errors

import "fmt"

// Kind enumerates the fixed error taxonomy of the vector database core.
type Kind string

const (
	KindLibraryNotFound        Kind = "LIBRARY_NOT_FOUND"
	KindDocumentNotFound       Kind = "DOCUMENT_NOT_FOUND"
	KindChunkNotFound          Kind = "CHUNK_NOT_FOUND"
	KindLibraryMismatch        Kind = "LIBRARY_MISMATCH"
	KindDimensionMismatch      Kind = "DIMENSION_MISMATCH"
	KindInvalidK               Kind = "INVALID_K"
	KindInvalidAlgorithmMetric Kind = "INVALID_ALGORITHM_METRIC"
	KindEmptyLibrary           Kind = "EMPTY_LIBRARY"
	KindSnapshotNotFound       Kind = "SNAPSHOT_NOT_FOUND"
	KindSnapshotCorrupt        Kind = "SNAPSHOT_CORRUPT"
	KindIOError                Kind = "IO_ERROR"
	KindInternal               Kind = "INTERNAL"
)

// VDBError is the structured error type for vectorlite. It carries enough
// context for logging, HTTP status mapping, and CLI presentation without
// requiring callers to parse the message string.
type VDBError struct {
	Kind    Kind
	Message string
	Details map[string]string
	Cause   error
}

// Error implements the error interface.
func (e *VDBError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *VDBError) Unwrap() error {
	return e.Cause
}

// Is matches another *VDBError by Kind, so standard errors.Is(err, target) works
// regardless of message or details.
func (e *VDBError) Is(target error) bool {
	t, ok := target.(*VDBError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithDetail attaches a key-value pair of context and returns the error for chaining.
func (e *VDBError) WithDetail(key, value string) *VDBError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New constructs a VDBError of the given kind.
func New(kind Kind, message string) *VDBError {
	return &VDBError{Kind: kind, Message: message}
}

// Wrap constructs a VDBError of the given kind around an existing error.
func Wrap(kind Kind, message string, cause error) *VDBError {
	if cause == nil {
		return New(kind, message)
	}
	return &VDBError{Kind: kind, Message: message, Cause: cause}
}

// As walks the Unwrap chain looking for a *VDBError. It exists so this
// package doesn't need to import the standard errors package just to
// re-export As for its own type.
func As(err error, target **VDBError) bool {
	for err != nil {
		if v, ok := err.(*VDBError); ok {
			*target = v
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Is reports whether err is, or wraps, a *VDBError of the given kind.
func Is(err error, kind Kind) bool {
	var v *VDBError
	if !As(err, &v) {
		return false
	}
	return v.Kind == kind
}

// GetKind extracts the Kind from err, returning "" if err is not a VDBError.
func GetKind(err error) Kind {
	var v *VDBError
	if As(err, &v) {
		return v.Kind
	}
	return ""
}

// LibraryNotFound builds the error returned when a library id does not resolve.
func LibraryNotFound(id string) *VDBError {
	return New(KindLibraryNotFound, "library not found").WithDetail("library_id", id)
}

// DocumentNotFound builds the error returned when a document id does not resolve.
func DocumentNotFound(id string) *VDBError {
	return New(KindDocumentNotFound, "document not found").WithDetail("document_id", id)
}

// ChunkNotFound builds the error returned when a chunk id does not resolve.
func ChunkNotFound(id string) *VDBError {
	return New(KindChunkNotFound, "chunk not found").WithDetail("chunk_id", id)
}

// LibraryMismatch builds the error returned when a chunk/document belongs to a different library.
func LibraryMismatch(msg string) *VDBError {
	return New(KindLibraryMismatch, msg)
}

// DimensionMismatch builds the error returned when an embedding's dimension
// disagrees with the library's fixed dimension.
func DimensionMismatch(expected, actual int) *VDBError {
	return New(KindDimensionMismatch, "embedding dimension mismatch").
		WithDetail("expected", fmt.Sprintf("%d", expected)).
		WithDetail("actual", fmt.Sprintf("%d", actual))
}

// InvalidK builds the error returned when a search requests k <= 0.
func InvalidK(k int) *VDBError {
	return New(KindInvalidK, "k must be a positive integer").WithDetail("k", fmt.Sprintf("%d", k))
}

// InvalidAlgorithmMetric builds the error returned when an algorithm/metric pairing is disallowed.
func InvalidAlgorithmMetric(algorithm, metric string) *VDBError {
	return New(KindInvalidAlgorithmMetric, "algorithm does not support metric").
		WithDetail("algorithm", algorithm).
		WithDetail("metric", metric)
}

// EmptyLibrary builds the error for rejecting a library with no chunks. No
// current operation returns it: building an index over zero chunks succeeds.
func EmptyLibrary(id string) *VDBError {
	return New(KindEmptyLibrary, "library has no chunks to index").WithDetail("library_id", id)
}

// SnapshotNotFound builds the error returned when a named snapshot does not exist.
func SnapshotNotFound(name string) *VDBError {
	return New(KindSnapshotNotFound, "snapshot not found").WithDetail("snapshot", name)
}

// SnapshotCorrupt builds the error returned when a snapshot fails to decode or validate.
func SnapshotCorrupt(name string, cause error) *VDBError {
	return Wrap(KindSnapshotCorrupt, "snapshot is corrupt", cause).WithDetail("snapshot", name)
}

// IOError builds the error returned for filesystem failures (read, write, rename, lock).
func IOError(message string, cause error) *VDBError {
	return Wrap(KindIOError, message, cause)
}

// Internal builds the error returned for conditions that should be unreachable.
func Internal(message string, cause error) *VDBError {
	return Wrap(KindInternal, message, cause)
}
