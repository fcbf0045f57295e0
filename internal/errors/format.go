package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatForCLI formats an error for terminal display.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	var ve *VDBError
	if !As(err, &ve) {
		ve = Internal(err.Error(), err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", ve.Message))
	sb.WriteString(fmt.Sprintf("  Kind: %s\n", ve.Kind))
	for k, v := range ve.Details {
		sb.WriteString(fmt.Sprintf("  %s: %s\n", k, v))
	}
	return sb.String()
}

// jsonError is the wire representation of an error returned by the HTTP API.
type jsonError struct {
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Cause   string            `json:"cause,omitempty"`
}

// FormatJSON returns the JSON representation of an error, used for both the
// HTTP API error body and structured log fields.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}

	var ve *VDBError
	if !As(err, &ve) {
		ve = Internal(err.Error(), nil)
	}

	je := jsonError{
		Kind:    string(ve.Kind),
		Message: ve.Message,
		Details: ve.Details,
	}
	if ve.Cause != nil {
		je.Cause = ve.Cause.Error()
	}

	return json.Marshal(je)
}

// FormatForLog returns key-value pairs suitable for slog.Any("error", ...) attributes.
func FormatForLog(err error) map[string]any {
	if err == nil {
		return nil
	}

	var ve *VDBError
	if !As(err, &ve) {
		return map[string]any{"error": err.Error()}
	}

	result := map[string]any{
		"error_kind": string(ve.Kind),
		"message":    ve.Message,
	}
	if ve.Cause != nil {
		result["cause"] = ve.Cause.Error()
	}
	for k, v := range ve.Details {
		result["detail_"+k] = v
	}
	return result
}
