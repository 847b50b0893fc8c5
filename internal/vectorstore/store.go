package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workstreamlabs/retrieval/internal/config"
	"github.com/workstreamlabs/retrieval/internal/models"
)

// Candidate is the slice of a stored chunk needed for query-time
// ranking: its vector plus enough context to render a result.
type Candidate struct {
	ID               uuid.UUID
	Embedding        []float32
	Text             string
	SourceEntityType string
	SourceEntityID   string
}

// Filter narrows a candidate search. An empty EntityTypes list matches
// every type.
type Filter struct {
	OrganizationID string
	EntityTypes    []string
}

// Store persists chunk records and serves ranking candidates. Put is an
// idempotent upsert keyed by chunk ID. Rows without embeddings never
// appear in candidate sets; ranking happens in the caller.
type Store interface {
	Put(ctx context.Context, chunk *models.Chunk) error
	GetBySource(ctx context.Context, entityType, entityID string) ([]*models.Chunk, error)
	SearchCandidates(ctx context.Context, filter Filter) ([]Candidate, error)
	DeleteBySource(ctx context.Context, entityType, entityID string) error
	Ping(ctx context.Context) error
	Close()
}

// Open builds the store selected by cfg.Backend. The postgres backend
// reuses the caller's pool; the others own their resources.
func Open(cfg config.StoreConfig, db *pgxpool.Pool) (Store, error) {
	switch cfg.Backend {
	case "postgres":
		if db == nil {
			return nil, errors.New("postgres store backend needs a database pool")
		}
		return NewPostgresStore(db), nil
	case "sqlite":
		return NewSQLiteStore(cfg.SQLitePath)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
