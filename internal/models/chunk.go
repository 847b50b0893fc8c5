package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// chunkNamespace seeds deterministic chunk IDs. Changing it invalidates
// every previously stored chunk ID.
var chunkNamespace = uuid.MustParse("9b2f1d66-3c1e-4a8f-b5d0-7c4a2e9f81d3")

// Chunk is one indexed span of an entity's text. The ID derives from the
// source entity and chunk index, so re-indexing the same entity overwrites
// existing rows instead of duplicating them.
type Chunk struct {
	ID               uuid.UUID         `json:"id" db:"id"`
	OrganizationID   string            `json:"organization_id" db:"organization_id"`
	SourceEntityType string            `json:"source_entity_type" db:"source_entity_type"`
	SourceEntityID   string            `json:"source_entity_id" db:"source_entity_id"`
	ChunkIndex       int               `json:"chunk_index" db:"chunk_index"`
	Text             string            `json:"text" db:"text"`
	Embedding        []float32         `json:"-" db:"embedding"`
	Metadata         map[string]string `json:"metadata,omitempty" db:"metadata"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at" db:"updated_at"`
}

// ChunkID returns the deterministic ID for a chunk of the given source.
func ChunkID(entityType, entityID string, index int) uuid.UUID {
	return uuid.NewSHA1(chunkNamespace, []byte(fmt.Sprintf("%s:%s:%d", entityType, entityID, index)))
}

// HasEmbedding reports whether the chunk carries a fully formed vector.
func (c *Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// SourceRef identifies the chunk's originating entity, e.g. "task:42".
func (c *Chunk) SourceRef() string {
	return c.SourceEntityType + ":" + c.SourceEntityID
}

// RetrievalResult is one ranked hit from a retrieval query. Results are
// built per query and never persisted.
type RetrievalResult struct {
	Chunk      *Chunk  `json:"chunk"`
	Similarity float64 `json:"similarity"`
	Rank       int     `json:"rank"`
}
