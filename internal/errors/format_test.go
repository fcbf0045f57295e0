package errors

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForCLI_BasicError(t *testing.T) {
	err := LibraryNotFound("lib-1")

	result := FormatForCLI(err)

	assert.Contains(t, result, "library not found")
	assert.Contains(t, result, "LIBRARY_NOT_FOUND")
	assert.Contains(t, result, "lib-1")
}

func TestFormatForCLI_StandardError(t *testing.T) {
	err := errors.New("something went wrong")

	result := FormatForCLI(err)

	assert.Contains(t, result, "something went wrong")
	assert.Contains(t, result, "INTERNAL")
}

func TestFormatForCLI_ShortFormat(t *testing.T) {
	err := ChunkNotFound("chunk-1")

	result := FormatForCLI(err)

	lines := strings.Split(strings.TrimSpace(result), "\n")
	assert.LessOrEqual(t, len(lines), 5, "should be concise")
}

func TestFormatJSON_BasicError(t *testing.T) {
	err := DimensionMismatch(128, 64)

	data, jsonErr := FormatJSON(err)
	require.NoError(t, jsonErr)

	var result map[string]any
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, string(KindDimensionMismatch), result["kind"])
	assert.Equal(t, "embedding dimension mismatch", result["message"])

	details, ok := result["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "128", details["expected"])
	assert.Equal(t, "64", details["actual"])
}

func TestFormatJSON_StandardError(t *testing.T) {
	err := errors.New("generic error")

	data, jsonErr := FormatJSON(err)
	require.NoError(t, jsonErr)

	var result map[string]any
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, string(KindInternal), result["kind"])
	assert.Equal(t, "generic error", result["message"])
}

func TestFormatJSON_NilError(t *testing.T) {
	data, err := FormatJSON(nil)

	assert.NoError(t, err)
	assert.Equal(t, "null", strings.TrimSpace(string(data)))
}

func TestFormatJSON_WithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(KindInternal, "operation failed", cause)

	data, jsonErr := FormatJSON(err)
	require.NoError(t, jsonErr)

	var result map[string]any
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, "underlying error", result["cause"])
}

func TestFormatForLog_IncludesKindAndDetails(t *testing.T) {
	err := InvalidAlgorithmMetric("kdtree", "cosine")

	fields := FormatForLog(err)

	assert.Equal(t, string(KindInvalidAlgorithmMetric), fields["error_kind"])
	assert.Equal(t, "kdtree", fields["detail_algorithm"])
	assert.Equal(t, "cosine", fields["detail_metric"])
}

func TestFormatForLog_NilError(t *testing.T) {
	assert.Nil(t, FormatForLog(nil))
}
