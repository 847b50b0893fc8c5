package embedding

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/workstreamlabs/retrieval/internal/config"
)

// OpenAIProvider calls the OpenAI embeddings API.
type OpenAIProvider struct {
	client     *openai.Client
	model      string
	dimensions int
	maxTokens  int
}

var _ Provider = (*OpenAIProvider)(nil)

func NewOpenAIProvider(cfg config.EmbeddingConfig) *OpenAIProvider {
	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &OpenAIProvider{
		client:     openai.NewClient(cfg.OpenAIKey),
		model:      model,
		dimensions: resolveDimensions(model, cfg.Dimensions),
		maxTokens:  cfg.MaxTokens,
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Config() ProviderConfig {
	return ProviderConfig{Model: p.model, Dimensions: p.dimensions, MaxTokens: p.maxTokens}
}

func (p *OpenAIProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	req := openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(p.model),
	}
	// Only the v3 models accept a dimensions override.
	if strings.HasPrefix(p.model, "text-embedding-3") {
		req.Dimensions = p.dimensions
	}

	resp, err := p.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai embedding: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embedding: got %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	// Reassemble by index; the API does not guarantee response order.
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("openai embedding: index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}
