package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/workstreamlabs/retrieval/internal/config"
)

// OllamaProvider calls a local Ollama instance's embeddings endpoint.
type OllamaProvider struct {
	baseURL    string
	model      string
	dimensions int
	maxTokens  int
	httpClient *http.Client
}

var _ Provider = (*OllamaProvider)(nil)

func NewOllamaProvider(cfg config.EmbeddingConfig) *OllamaProvider {
	model := cfg.Model
	if model == "" {
		model = "nomic-embed-text"
	}
	return &OllamaProvider{
		baseURL:    cfg.OllamaURL,
		model:      model,
		dimensions: resolveDimensions(model, cfg.Dimensions),
		maxTokens:  cfg.MaxTokens,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

func (p *OllamaProvider) Name() string { return "ollama" }

func (p *OllamaProvider) Config() ProviderConfig {
	return ProviderConfig{Model: p.model, Dimensions: p.dimensions, MaxTokens: p.maxTokens}
}

type ollamaEmbedReq struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResp struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (p *OllamaProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	body, _ := json.Marshal(ollamaEmbedReq{Model: p.model, Input: texts})
	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama embed request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama embed: unexpected status %d", resp.StatusCode)
	}

	var oResp ollamaEmbedResp
	if err := json.NewDecoder(resp.Body).Decode(&oResp); err != nil {
		return nil, fmt.Errorf("ollama embed decode: %w", err)
	}
	if len(oResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama embed: got %d vectors for %d inputs", len(oResp.Embeddings), len(texts))
	}
	return oResp.Embeddings, nil
}
