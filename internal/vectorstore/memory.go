package vectorstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/workstreamlabs/retrieval/internal/models"
)

// MemoryStore is a map-backed Store. It serves as the zero-dependency
// runtime backend and as the fixture the coordinator tests run against.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks map[uuid.UUID]*models.Chunk
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chunks: make(map[uuid.UUID]*models.Chunk)}
}

func (s *MemoryStore) Put(_ context.Context, chunk *models.Chunk) error {
	c := cloneChunk(chunk)
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}

	s.mu.Lock()
	if existing, ok := s.chunks[c.ID]; ok {
		c.CreatedAt = existing.CreatedAt
	}
	s.chunks[c.ID] = c
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) GetBySource(_ context.Context, entityType, entityID string) ([]*models.Chunk, error) {
	s.mu.RLock()
	var out []*models.Chunk
	for _, c := range s.chunks {
		if c.SourceEntityType == entityType && c.SourceEntityID == entityID {
			out = append(out, cloneChunk(c))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	return out, nil
}

func (s *MemoryStore) SearchCandidates(_ context.Context, filter Filter) ([]Candidate, error) {
	types := make(map[string]bool, len(filter.EntityTypes))
	for _, t := range filter.EntityTypes {
		types[t] = true
	}

	s.mu.RLock()
	var matched []*models.Chunk
	for _, c := range s.chunks {
		if c.OrganizationID != filter.OrganizationID || !c.HasEmbedding() {
			continue
		}
		if len(types) > 0 && !types[c.SourceEntityType] {
			continue
		}
		matched = append(matched, c)
	}
	s.mu.RUnlock()

	// Same deterministic ordering the SQL stores return.
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.SourceEntityType != b.SourceEntityType {
			return a.SourceEntityType < b.SourceEntityType
		}
		if a.SourceEntityID != b.SourceEntityID {
			return a.SourceEntityID < b.SourceEntityID
		}
		return a.ChunkIndex < b.ChunkIndex
	})

	out := make([]Candidate, 0, len(matched))
	for _, c := range matched {
		out = append(out, Candidate{
			ID:               c.ID,
			Embedding:        append([]float32(nil), c.Embedding...),
			Text:             c.Text,
			SourceEntityType: c.SourceEntityType,
			SourceEntityID:   c.SourceEntityID,
		})
	}
	return out, nil
}

func (s *MemoryStore) DeleteBySource(_ context.Context, entityType, entityID string) error {
	s.mu.Lock()
	for id, c := range s.chunks {
		if c.SourceEntityType == entityType && c.SourceEntityID == entityID {
			delete(s.chunks, id)
		}
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() {}

func cloneChunk(c *models.Chunk) *models.Chunk {
	out := *c
	out.Embedding = append([]float32(nil), c.Embedding...)
	if c.Metadata != nil {
		out.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}
