package embedding

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/workstreamlabs/retrieval/internal/config"
	"github.com/workstreamlabs/retrieval/internal/models"
	"github.com/workstreamlabs/retrieval/pkg/tokenizer"
)

// Generator produces embeddings through a primary provider and degrades
// to the deterministic hash provider when the primary fails. Batches are
// paced with a token bucket so bursts of indexing respect provider rate
// limits.
type Generator struct {
	primary   Provider
	fallback  *HashProvider
	cache     Cache
	limiter   *rate.Limiter
	batchSize int
	timeout   time.Duration
	maxTokens int
	logger    *slog.Logger
}

func NewGenerator(primary Provider, cache Cache, cfg config.EmbeddingConfig, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	if cache == nil {
		cache = nopCache{}
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	pause := cfg.BatchPause
	if pause <= 0 {
		pause = 500 * time.Millisecond
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxTokens := primary.Config().MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8000
	}
	return &Generator{
		primary:   primary,
		fallback:  NewHashProvider(primary.Config().Dimensions, maxTokens),
		cache:     cache,
		limiter:   rate.NewLimiter(rate.Every(pause), 1),
		batchSize: batchSize,
		timeout:   timeout,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// Config reports the active provider's model, dimensions, and token
// ceiling.
func (g *Generator) Config() ProviderConfig {
	return g.primary.Config()
}

// Embed returns the vector for a single text. Provider failures degrade
// to the fallback; the only hard failures are empty input and context
// cancellation.
func (g *Generator) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, models.ErrEmptyInput
	}
	vectors, err := g.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts preserving order and length. Empty texts leave
// their slot nil; a provider failure fills the affected slots from the
// fallback instead of aborting. The returned error is non-nil only when
// the caller's context ends, and the slots completed so far stay valid.
func (g *Generator) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += g.batchSize {
		// The limiter paces batches and doubles as the cancellation point
		// between them.
		if err := g.limiter.Wait(ctx); err != nil {
			return out, err
		}
		end := min(start+g.batchSize, len(texts))
		g.embedSlice(ctx, texts[start:end], out[start:end])
	}
	return out, ctx.Err()
}

func (g *Generator) embedSlice(ctx context.Context, texts []string, out [][]float32) {
	model := g.primary.Config().Model

	var missTexts []string
	var missSlots []int
	var missKeys []string
	for i, text := range texts {
		prepared, truncated := g.truncate(text)
		if prepared == "" {
			continue // absent embedding for empty input
		}
		if truncated {
			g.logger.Warn("embedding input truncated",
				"max_tokens", g.maxTokens,
				"original_chars", len(text),
			)
		}
		key := CacheKey(model, prepared)
		if vec, ok := g.cache.Get(ctx, key); ok {
			out[i] = vec
			continue
		}
		missTexts = append(missTexts, prepared)
		missSlots = append(missSlots, i)
		missKeys = append(missKeys, key)
	}
	if len(missTexts) == 0 {
		return
	}

	vectors, err := g.callPrimary(ctx, missTexts)
	if err != nil {
		if ctx.Err() != nil {
			return // caller cancelled; unfinished slots stay nil
		}
		g.logger.Warn("embedding provider failed, using deterministic fallback",
			"provider", g.primary.Name(),
			"texts", len(missTexts),
			"error", err,
		)
		g.fillFromFallback(missTexts, missSlots, out)
		return
	}

	dims := g.primary.Config().Dimensions
	for j, vec := range vectors {
		if len(vec) != dims {
			g.logger.Warn("embedding has unexpected dimensions, using fallback for slot",
				"got", len(vec),
				"want", dims,
			)
			out[missSlots[j]] = g.fallback.Vector(missTexts[j])
			continue
		}
		out[missSlots[j]] = vec
		g.cache.Put(ctx, missKeys[j], vec)
	}
}

func (g *Generator) callPrimary(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.primary.Embed(ctx, texts)
}

// fillFromFallback hashes the failed slots concurrently; each slot is
// independent.
func (g *Generator) fillFromFallback(texts []string, slots []int, out [][]float32) {
	var wg sync.WaitGroup
	for j, text := range texts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[slots[j]] = g.fallback.Vector(text)
		}()
	}
	wg.Wait()
}

// truncate trims the text and enforces the provider token budget,
// cutting on a rune boundary. The bool reports whether content was lost.
func (g *Generator) truncate(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if tokenizer.Estimate(text) <= g.maxTokens {
		return text, false
	}
	cut := tokenizer.BudgetChars(g.maxTokens)
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut], true
}
