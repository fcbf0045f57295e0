package embed

import "time"

// Ollama API constants.
const (
	// DefaultOllamaHost is the default Ollama API endpoint.
	DefaultOllamaHost = "http://localhost:11434"

	// DefaultOllamaModel is the recommended default embedding model.
	DefaultOllamaModel = "qwen3-embedding:0.6b"

	// OllamaConnectTimeout bounds the initial health check.
	OllamaConnectTimeout = 5 * time.Second

	// OllamaPoolSize bounds the HTTP connection pool.
	OllamaPoolSize = 4
)

// FallbackOllamaModels are tried in order if the primary model is
// unavailable on the target Ollama server.
var FallbackOllamaModels = []string{
	"embeddinggemma",
	"mxbai-embed-large",
}

// OllamaConfig configures the Ollama embedder.
type OllamaConfig struct {
	// Host is the Ollama API endpoint.
	Host string

	// Model is the embedding model to use.
	Model string

	// FallbackModels are tried in order if the primary model is unavailable.
	FallbackModels []string

	// Dimensions overrides auto-detection when non-zero.
	Dimensions int

	// BatchSize bounds how many texts are sent per request.
	BatchSize int

	// Timeout bounds a single embedding request.
	Timeout time.Duration

	// ConnectTimeout bounds the initial health check.
	ConnectTimeout time.Duration

	// MaxRetries bounds retry attempts on transient failures.
	MaxRetries int

	// PoolSize bounds the HTTP connection pool.
	PoolSize int

	// SkipHealthCheck skips the initial availability check, for testing.
	SkipHealthCheck bool
}

// DefaultOllamaConfig returns sensible defaults.
func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		Host:           DefaultOllamaHost,
		Model:          DefaultOllamaModel,
		FallbackModels: FallbackOllamaModels,
		Dimensions:     0,
		BatchSize:      DefaultBatchSize,
		Timeout:        DefaultTimeout,
		ConnectTimeout: OllamaConnectTimeout,
		MaxRetries:     DefaultMaxRetries,
		PoolSize:       OllamaPoolSize,
	}
}

// OllamaEmbedRequest is the Ollama /api/embed request.
type OllamaEmbedRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"` // string or []string for batch
}

// OllamaEmbedResponse is the Ollama /api/embed response.
type OllamaEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float64 `json:"embeddings"`
}

// OllamaModelListResponse is the Ollama /api/tags response.
type OllamaModelListResponse struct {
	Models []OllamaModelInfo `json:"models"`
}

// OllamaModelInfo describes an installed model.
type OllamaModelInfo struct {
	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size"`
}
