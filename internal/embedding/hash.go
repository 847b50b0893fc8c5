package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strconv"
	"sync"
)

const (
	hashModelName = "hash-sha256"
	hashWindow    = 8
)

// HashProvider derives vectors from a SHA-256 digest of the text. The
// output carries no semantic signal but is fully deterministic, which
// makes it both a usable offline mode and a stable test fixture.
type HashProvider struct {
	dimensions int
	maxTokens  int
}

var _ Provider = (*HashProvider)(nil)

func NewHashProvider(dimensions, maxTokens int) *HashProvider {
	if dimensions <= 0 {
		dimensions = 1536
	}
	if maxTokens <= 0 {
		maxTokens = 8000
	}
	return &HashProvider{dimensions: dimensions, maxTokens: maxTokens}
}

func (p *HashProvider) Name() string { return "hash" }

func (p *HashProvider) Config() ProviderConfig {
	return ProviderConfig{Model: hashModelName, Dimensions: p.dimensions, MaxTokens: p.maxTokens}
}

// Embed hashes every text independently, filling slots concurrently.
func (p *HashProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var wg sync.WaitGroup
	for i, text := range texts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i] = p.Vector(text)
		}()
	}
	wg.Wait()
	return out, nil
}

// Vector computes the deterministic embedding for text. Each component
// comes from an overlapping 8-character window read circularly from the
// hex digest, shifted into [-0.5, 0.5]; the result is L2-normalized.
func (p *HashProvider) Vector(text string) []float32 {
	sum := sha256.Sum256([]byte(text))
	digest := hex.EncodeToString(sum[:])
	doubled := digest + digest // circular reads without wrap arithmetic

	vec := make([]float32, p.dimensions)
	var norm float64
	for i := range vec {
		window := doubled[i%len(digest) : i%len(digest)+hashWindow]
		v, _ := strconv.ParseUint(window, 16, 64)
		vec[i] = float32(float64(v)/float64(0xFFFFFFFF) - 0.5)
		norm += float64(vec[i]) * float64(vec[i])
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}
