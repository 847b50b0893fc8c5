package embedding

import (
	"context"
	"fmt"

	"github.com/workstreamlabs/retrieval/internal/config"
)

// ProviderConfig reports the active model's capabilities.
type ProviderConfig struct {
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions"`
	MaxTokens  int    `json:"max_tokens"`
}

// Provider turns a batch of texts into fixed-dimension vectors. Every
// vector a provider returns has exactly Config().Dimensions components.
type Provider interface {
	Name() string
	Config() ProviderConfig
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// modelDimensions maps known embedding models to their vector sizes.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
	"nomic-embed-text":       768,
	"mxbai-embed-large":      1024,
}

// NewProvider builds the primary provider selected by cfg.Provider.
func NewProvider(cfg config.EmbeddingConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIProvider(cfg), nil
	case "ollama":
		return NewOllamaProvider(cfg), nil
	case "hash", "":
		return NewHashProvider(cfg.Dimensions, cfg.MaxTokens), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

func resolveDimensions(model string, configured int) int {
	if configured > 0 {
		return configured
	}
	if d, ok := modelDimensions[model]; ok {
		return d
	}
	return 1536
}
