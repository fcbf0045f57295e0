package embed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyTransportError_DeadlineExceeded_IsTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Millisecond)
	defer cancel()
	<-ctx.Done()

	err := classifyTransportError(ctx, context.DeadlineExceeded)

	require.Error(t, err)
	assert.True(t, IsKind(err, KindTimeout))
}

func TestClassifyTransportError_OtherError_IsUnavailable(t *testing.T) {
	err := classifyTransportError(context.Background(), errors.New("connection refused"))

	require.Error(t, err)
	assert.True(t, IsKind(err, KindUnavailable))
}

func TestNewOllamaEmbedder_UnreachableHost_ReturnsUnavailable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cfg := DefaultOllamaConfig()
	cfg.Host = "http://localhost:59999"
	cfg.ConnectTimeout = 500 * time.Millisecond

	_, err := NewOllamaEmbedder(ctx, cfg)

	require.Error(t, err)
	assert.True(t, IsKind(err, KindUnavailable) || IsKind(err, KindTimeout))
}

func TestNewOllamaEmbedder_SkipHealthCheck_UsesConfiguredModelAndDims(t *testing.T) {
	cfg := DefaultOllamaConfig()
	cfg.Model = "nomic-embed-text"
	cfg.Dimensions = 384
	cfg.SkipHealthCheck = true

	e, err := NewOllamaEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	assert.Equal(t, "nomic-embed-text", e.ModelName())
	assert.Equal(t, 384, e.Dimensions())
}

func TestOllamaEmbedder_Embed_EmptyText_ReturnsZeroVector(t *testing.T) {
	cfg := DefaultOllamaConfig()
	cfg.Dimensions = 128
	cfg.SkipHealthCheck = true

	e, err := NewOllamaEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	vec, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	assert.Len(t, vec, 128)
	for _, v := range vec {
		assert.Equal(t, float32(0), v)
	}
}

func TestOllamaEmbedder_Embed_AfterClose_ReturnsUnavailable(t *testing.T) {
	cfg := DefaultOllamaConfig()
	cfg.SkipHealthCheck = true

	e, err := NewOllamaEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, e.Close())

	_, err = e.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindUnavailable))
}

func TestOllamaEmbedder_Close_IsIdempotent(t *testing.T) {
	cfg := DefaultOllamaConfig()
	cfg.SkipHealthCheck = true

	e, err := NewOllamaEmbedder(context.Background(), cfg)
	require.NoError(t, err)

	assert.NoError(t, e.Close())
	assert.NoError(t, e.Close())
}
