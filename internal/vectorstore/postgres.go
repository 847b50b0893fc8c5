package vectorstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/workstreamlabs/retrieval/internal/models"
)

// PostgresStore keeps chunks in an entity_chunks table with a pgvector
// embedding column.
type PostgresStore struct {
	db *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Put(ctx context.Context, chunk *models.Chunk) error {
	now := time.Now().UTC()
	createdAt := chunk.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := chunk.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	var embedding any
	if chunk.HasEmbedding() {
		embedding = pgvector.NewVector(chunk.Embedding)
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO entity_chunks
		   (id, organization_id, source_entity_type, source_entity_id, chunk_index, text, embedding, metadata, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
		   organization_id = EXCLUDED.organization_id,
		   text = EXCLUDED.text,
		   embedding = EXCLUDED.embedding,
		   metadata = EXCLUDED.metadata,
		   updated_at = EXCLUDED.updated_at`,
		chunk.ID, chunk.OrganizationID, chunk.SourceEntityType, chunk.SourceEntityID,
		chunk.ChunkIndex, chunk.Text, embedding, chunk.Metadata, createdAt, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert chunk %s: %w", chunk.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetBySource(ctx context.Context, entityType, entityID string) ([]*models.Chunk, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, organization_id, source_entity_type, source_entity_id, chunk_index, text, embedding, metadata, created_at, updated_at
		 FROM entity_chunks
		 WHERE source_entity_type = $1 AND source_entity_id = $2
		 ORDER BY chunk_index`,
		entityType, entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("get chunks by source: %w", err)
	}
	defer rows.Close()

	var chunks []*models.Chunk
	for rows.Next() {
		var c models.Chunk
		var embedding *pgvector.Vector
		if err := rows.Scan(&c.ID, &c.OrganizationID, &c.SourceEntityType, &c.SourceEntityID,
			&c.ChunkIndex, &c.Text, &embedding, &c.Metadata, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		if embedding != nil {
			c.Embedding = embedding.Slice()
		}
		chunks = append(chunks, &c)
	}
	return chunks, rows.Err()
}

func (s *PostgresStore) SearchCandidates(ctx context.Context, filter Filter) ([]Candidate, error) {
	query := `SELECT id, source_entity_type, source_entity_id, text, embedding
		 FROM entity_chunks
		 WHERE organization_id = $1 AND embedding IS NOT NULL`
	args := []any{filter.OrganizationID}
	if len(filter.EntityTypes) > 0 {
		query += ` AND source_entity_type = ANY($2)`
		args = append(args, filter.EntityTypes)
	}
	// Deterministic ordering keeps tie-breaking stable for the ranker.
	query += ` ORDER BY source_entity_type, source_entity_id, chunk_index`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search candidates: %w", err)
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var c Candidate
		var embedding pgvector.Vector
		if err := rows.Scan(&c.ID, &c.SourceEntityType, &c.SourceEntityID, &c.Text, &embedding); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		c.Embedding = embedding.Slice()
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

func (s *PostgresStore) DeleteBySource(ctx context.Context, entityType, entityID string) error {
	_, err := s.db.Exec(ctx,
		"DELETE FROM entity_chunks WHERE source_entity_type = $1 AND source_entity_id = $2",
		entityType, entityID,
	)
	if err != nil {
		return fmt.Errorf("delete chunks by source: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.db.Close()
}
