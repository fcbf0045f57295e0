package httpapi

import (
	"errors"
	"net/http"

	"github.com/vectorlite/vectorlite/internal/auth"
	"github.com/vectorlite/vectorlite/internal/embed"
	vdberrors "github.com/vectorlite/vectorlite/internal/errors"
)

// statusForErr maps any error crossing a handler boundary to an HTTP
// status code, per spec.md §7's "user-visible mapping" table plus the
// embedding provider's own kinds (outside the core's taxonomy, mapped to
// 502/503/504 there too) and auth.ErrForbidden (403).
func statusForErr(err error) int {
	if errors.Is(err, auth.ErrForbidden) {
		return http.StatusForbidden
	}

	var vdbErr *vdberrors.VDBError
	if vdberrors.As(err, &vdbErr) {
		return statusForKind(vdbErr.Kind)
	}

	for kind, status := range embedStatusByKind {
		if embed.IsKind(err, kind) {
			return status
		}
	}

	return http.StatusInternalServerError
}

var embedStatusByKind = map[embed.Kind]int{
	embed.KindUpstream:             http.StatusBadGateway,
	embed.KindTimeout:              http.StatusGatewayTimeout,
	embed.KindUnavailable:          http.StatusServiceUnavailable,
	embed.KindProviderUnconfigured: http.StatusServiceUnavailable,
}

// statusForKind maps a core VDBError kind to its HTTP status, per
// spec.md §7: NotFound kinds -> 404, validation kinds -> 400, snapshot
// corruption -> 500.
func statusForKind(kind vdberrors.Kind) int {
	switch kind {
	case vdberrors.KindLibraryNotFound, vdberrors.KindDocumentNotFound, vdberrors.KindChunkNotFound, vdberrors.KindSnapshotNotFound:
		return http.StatusNotFound
	case vdberrors.KindDimensionMismatch, vdberrors.KindInvalidK, vdberrors.KindInvalidAlgorithmMetric, vdberrors.KindLibraryMismatch, vdberrors.KindEmptyLibrary:
		return http.StatusBadRequest
	case vdberrors.KindSnapshotCorrupt:
		return http.StatusInternalServerError
	case vdberrors.KindIOError, vdberrors.KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
