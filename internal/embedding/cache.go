package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// Cache stores vectors addressed by content hash so identical text never
// hits the provider twice. Implementations treat failures as misses; the
// generator must keep working when the cache is down.
type Cache interface {
	Get(ctx context.Context, key string) ([]float32, bool)
	Put(ctx context.Context, key string, vector []float32)
}

// CacheKey addresses a vector by model and exact (post-truncation) text.
func CacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + ":" + text))
	return "emb:" + hex.EncodeToString(sum[:])
}

// nopCache disables caching.
type nopCache struct{}

func (nopCache) Get(context.Context, string) ([]float32, bool) { return nil, false }
func (nopCache) Put(context.Context, string, []float32)        {}
