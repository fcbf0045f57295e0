package embed

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// ProviderType names an embedding provider.
type ProviderType string

const (
	// ProviderOllama uses Ollama's HTTP API for embeddings.
	ProviderOllama ProviderType = "ollama"

	// ProviderStatic uses the deterministic hash-based embedder, for
	// offline use and tests.
	ProviderStatic ProviderType = "static"
)

// NewEmbedder creates an embedder for provider/model, wrapping it in a
// CachedEmbedder unless caching is disabled. VECTORLITE_EMBEDDER
// overrides provider selection; VECTORLITE_EMBED_CACHE=false disables the
// cache wrapper.
func NewEmbedder(ctx context.Context, provider ProviderType, model string) (Embedder, error) {
	if envProvider := os.Getenv("VECTORLITE_EMBEDDER"); envProvider != "" {
		provider = ParseProvider(envProvider)
	}

	var embedder Embedder
	var err error
	switch provider {
	case ProviderStatic:
		embedder = NewStaticEmbedder()
	default:
		embedder, err = newOllama(ctx, model)
	}
	if err != nil {
		return nil, err
	}

	if !isCacheDisabled() {
		embedder = NewCachedEmbedderWithDefaults(embedder)
	}
	return embedder, nil
}

func isCacheDisabled() bool {
	v := strings.ToLower(os.Getenv("VECTORLITE_EMBED_CACHE"))
	return v == "false" || v == "0" || v == "off" || v == "disabled"
}

func newOllama(ctx context.Context, model string) (Embedder, error) {
	cfg := DefaultOllamaConfig()
	if model != "" {
		cfg.Model = model
	}
	if host := os.Getenv("VECTORLITE_OLLAMA_HOST"); host != "" {
		cfg.Host = host
	}
	if modelOverride := os.Getenv("VECTORLITE_OLLAMA_MODEL"); modelOverride != "" {
		cfg.Model = modelOverride
	}
	if timeoutStr := os.Getenv("VECTORLITE_OLLAMA_TIMEOUT"); timeoutStr != "" {
		if timeout, err := time.ParseDuration(timeoutStr); err == nil {
			cfg.Timeout = timeout
		}
	}

	embedder, err := NewOllamaEmbedder(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ollama unavailable: %w", err)
	}
	return embedder, nil
}

// ParseProvider converts a string to a ProviderType, defaulting to Ollama
// for anything unrecognized.
func ParseProvider(s string) ProviderType {
	switch strings.ToLower(s) {
	case "static":
		return ProviderStatic
	default:
		return ProviderOllama
	}
}

// String returns the string representation of the provider.
func (p ProviderType) String() string {
	return string(p)
}

// ValidProviders returns every recognized provider name.
func ValidProviders() []string {
	return []string{string(ProviderOllama), string(ProviderStatic)}
}

// IsValidProvider reports whether s names a recognized provider.
func IsValidProvider(s string) bool {
	lower := strings.ToLower(s)
	for _, p := range ValidProviders() {
		if lower == p {
			return true
		}
	}
	return false
}

// EmbedderInfo summarizes a constructed embedder for status reporting.
type EmbedderInfo struct {
	Provider   ProviderType
	Model      string
	Dimensions int
	Available  bool
}

// GetInfo reports an embedder's provider, model, dimension and
// availability, unwrapping a CachedEmbedder to inspect the real provider.
func GetInfo(ctx context.Context, embedder Embedder) EmbedderInfo {
	info := EmbedderInfo{
		Model:      embedder.ModelName(),
		Dimensions: embedder.Dimensions(),
		Available:  embedder.Available(ctx),
	}

	inner := embedder
	if cached, ok := embedder.(*CachedEmbedder); ok {
		inner = cached.inner
	}

	switch inner.(type) {
	case *OllamaEmbedder:
		info.Provider = ProviderOllama
	default:
		info.Provider = ProviderStatic
	}
	return info
}

// MustNewEmbedder creates an embedder and panics on failure. Use only in
// tests or initialization code where failure is fatal.
func MustNewEmbedder(ctx context.Context, provider ProviderType, model string) Embedder {
	embedder, err := NewEmbedder(ctx, provider, model)
	if err != nil {
		panic(fmt.Sprintf("failed to create embedder: %v", err))
	}
	return embedder
}
