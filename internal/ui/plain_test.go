package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainRenderer_UpdateProgress_OutputFormat(t *testing.T) {
	// Given: a plain renderer
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	// When: updating progress
	r.UpdateProgress(ProgressEvent{
		Stage:      StageLoading,
		Current:    50,
		Total:      100,
		CurrentRef: "rec-50",
	})

	// Then: output is correctly formatted
	output := buf.String()
	assert.Contains(t, output, "[LOAD]")
	assert.Contains(t, output, "50/100")
	assert.Contains(t, output, "rec-50")
}

func TestPlainRenderer_UpdateProgress_NoANSICodes(t *testing.T) {
	// Given: a plain renderer
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	// When: rendering progress through all stages
	stages := []Stage{StageLoading, StageEmbedding, StageBuilding, StageComplete}
	for _, stage := range stages {
		r.UpdateProgress(ProgressEvent{
			Stage:   stage,
			Current: 50,
			Total:   100,
			Message: "Processing...",
		})
	}

	// Then: output contains no ANSI escape codes
	output := buf.String()
	assert.NotContains(t, output, "\x1b[", "should not contain ANSI escape codes")
	assert.NotContains(t, output, "\033[", "should not contain ANSI escape codes")
}

func TestPlainRenderer_UpdateProgress_WithMessage(t *testing.T) {
	// Given: a plain renderer
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	// When: updating with message instead of ref
	r.UpdateProgress(ProgressEvent{
		Stage:   StageEmbedding,
		Current: 100,
		Total:   200,
		Message: "Generating embeddings...",
	})

	// Then: message is shown
	output := buf.String()
	assert.Contains(t, output, "[EMBED]")
	assert.Contains(t, output, "Generating embeddings...")
}

func TestPlainRenderer_UpdateProgress_ZeroTotal(t *testing.T) {
	// Given: a plain renderer
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	// When: updating with zero total (unknown count)
	r.UpdateProgress(ProgressEvent{
		Stage:   StageLoading,
		Total:   0,
		Message: "Reading records...",
	})

	// Then: shows message without count
	output := buf.String()
	assert.Contains(t, output, "[LOAD]")
	assert.Contains(t, output, "Reading records...")
	assert.NotContains(t, output, "0/0")
}

func TestPlainRenderer_AddError_Error(t *testing.T) {
	// Given: a plain renderer
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	// When: adding an error
	r.AddError(ErrorEvent{
		Ref:    "rec-broken",
		Err:    errors.New("invalid vector dimension"),
		IsWarn: false,
	})

	// Then: error is formatted correctly
	output := buf.String()
	assert.Contains(t, output, "ERROR:")
	assert.Contains(t, output, "rec-broken")
	assert.Contains(t, output, "invalid vector dimension")
}

func TestPlainRenderer_AddError_Warning(t *testing.T) {
	// Given: a plain renderer
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	// When: adding a warning
	r.AddError(ErrorEvent{
		Ref:    "rec-large",
		Err:    errors.New("record size exceeds limit"),
		IsWarn: true,
	})

	// Then: warning is formatted correctly
	output := buf.String()
	assert.Contains(t, output, "WARN:")
	assert.Contains(t, output, "rec-large")
	assert.Contains(t, output, "record size exceeds limit")
}

func TestPlainRenderer_AddError_NoRef(t *testing.T) {
	// Given: a plain renderer
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	// When: adding error without ref
	r.AddError(ErrorEvent{
		Err:    errors.New("connection failed"),
		IsWarn: false,
	})

	// Then: error shows without ref prefix
	output := buf.String()
	assert.Contains(t, output, "ERROR:")
	assert.Contains(t, output, "connection failed")
}

func TestPlainRenderer_Complete_Basic(t *testing.T) {
	// Given: a plain renderer
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	// When: completing
	r.Complete(CompletionStats{
		Chunks:   500,
		Duration: 5 * time.Second,
		Errors:   0,
		Warnings: 0,
	})

	// Then: summary is shown
	output := buf.String()
	assert.Contains(t, output, "Complete:")
	assert.Contains(t, output, "500 chunks")
	assert.Contains(t, output, "5s")
}

func TestPlainRenderer_Complete_WithErrors(t *testing.T) {
	// Given: a plain renderer
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	// When: completing with errors
	r.Complete(CompletionStats{
		Chunks:   450,
		Duration: 10 * time.Second,
		Errors:   3,
		Warnings: 2,
	})

	// Then: error summary is included
	output := buf.String()
	assert.Contains(t, output, "Complete:")
	assert.Contains(t, output, "450 chunks")
	assert.Contains(t, output, "3 errors")
	assert.Contains(t, output, "2 warnings")
}

func TestPlainRenderer_Complete_NoANSICodes(t *testing.T) {
	// Given: a plain renderer
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	// When: completing
	r.Complete(CompletionStats{
		Chunks:   500,
		Duration: 5 * time.Second,
		Errors:   2,
		Warnings: 1,
	})

	// Then: no ANSI codes in output
	output := buf.String()
	assert.NotContains(t, output, "\x1b[")
	assert.NotContains(t, output, "\033[")
}

func TestPlainRenderer_StartStop(t *testing.T) {
	// Given: a plain renderer
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	// When: starting and stopping
	ctx := context.Background()
	err := r.Start(ctx)
	require.NoError(t, err)

	err = r.Stop()
	require.NoError(t, err)
}

func TestPlainRenderer_ThreadSafe(t *testing.T) {
	// Given: a plain renderer
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	// When: concurrent updates
	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(n int) {
			r.UpdateProgress(ProgressEvent{
				Stage:   StageLoading,
				Current: n,
				Total:   100,
			})
			r.AddError(ErrorEvent{
				Ref:    "rec-test",
				Err:    errors.New("test"),
				IsWarn: n%2 == 0,
			})
			done <- true
		}(i)
	}

	// Wait for all goroutines
	for i := 0; i < 10; i++ {
		<-done
	}

	// Then: no panic, output is written
	output := buf.String()
	assert.NotEmpty(t, output)
}

func TestPlainRenderer_AllStages(t *testing.T) {
	// Given: a plain renderer
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	// When: going through all stages
	stages := []struct {
		stage Stage
		icon  string
	}{
		{StageLoading, "LOAD"},
		{StageEmbedding, "EMBED"},
		{StageBuilding, "BUILD"},
	}

	for _, s := range stages {
		r.UpdateProgress(ProgressEvent{
			Stage:   s.stage,
			Current: 50,
			Total:   100,
		})
	}

	// Then: all stage icons appear
	output := buf.String()
	for _, s := range stages {
		assert.Contains(t, output, "["+s.icon+"]")
	}
}

func TestPlainRenderer_LongRef(t *testing.T) {
	// Given: a plain renderer
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	// When: updating with long ref
	longRef := strings.Repeat("rec-", 20) + "deep-id"
	r.UpdateProgress(ProgressEvent{
		Stage:      StageLoading,
		Current:    1,
		Total:      10,
		CurrentRef: longRef,
	})

	// Then: full ref is shown (no truncation in plain mode)
	output := buf.String()
	assert.Contains(t, output, "deep-id")
}
