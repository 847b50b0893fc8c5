package vectorstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/workstreamlabs/retrieval/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS entity_chunks (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL,
	source_entity_type TEXT NOT NULL,
	source_entity_id TEXT NOT NULL,
	chunk_index INTEGER NOT NULL,
	text TEXT NOT NULL,
	embedding BLOB,
	metadata TEXT,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entity_chunks_source ON entity_chunks(source_entity_type, source_entity_id);
CREATE INDEX IF NOT EXISTS idx_entity_chunks_org ON entity_chunks(organization_id);
`

// SQLiteStore keeps chunks in a single local database file. Vectors are
// stored as little-endian float32 blobs.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Put(ctx context.Context, chunk *models.Chunk) error {
	now := time.Now().UTC()
	createdAt := chunk.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := chunk.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	var embedding []byte
	if chunk.HasEmbedding() {
		embedding = float32SliceToBytes(chunk.Embedding)
	}
	metadata, err := json.Marshal(chunk.Metadata)
	if err != nil {
		return fmt.Errorf("encode chunk metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO entity_chunks
		   (id, organization_id, source_entity_type, source_entity_id, chunk_index, text, embedding, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   organization_id = excluded.organization_id,
		   text = excluded.text,
		   embedding = excluded.embedding,
		   metadata = excluded.metadata,
		   updated_at = excluded.updated_at`,
		chunk.ID.String(), chunk.OrganizationID, chunk.SourceEntityType, chunk.SourceEntityID,
		chunk.ChunkIndex, chunk.Text, embedding, string(metadata), createdAt, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert chunk %s: %w", chunk.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetBySource(ctx context.Context, entityType, entityID string) ([]*models.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, organization_id, source_entity_type, source_entity_id, chunk_index, text, embedding, metadata, created_at, updated_at
		 FROM entity_chunks
		 WHERE source_entity_type = ? AND source_entity_id = ?
		 ORDER BY chunk_index`,
		entityType, entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("get chunks by source: %w", err)
	}
	defer rows.Close()

	var chunks []*models.Chunk
	for rows.Next() {
		c, err := scanSQLiteChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (s *SQLiteStore) SearchCandidates(ctx context.Context, filter Filter) ([]Candidate, error) {
	query := `SELECT id, source_entity_type, source_entity_id, text, embedding
		 FROM entity_chunks
		 WHERE organization_id = ? AND embedding IS NOT NULL`
	args := []any{filter.OrganizationID}
	if len(filter.EntityTypes) > 0 {
		query += ` AND source_entity_type IN (?` + strings.Repeat(", ?", len(filter.EntityTypes)-1) + `)`
		for _, t := range filter.EntityTypes {
			args = append(args, t)
		}
	}
	query += ` ORDER BY source_entity_type, source_entity_id, chunk_index`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search candidates: %w", err)
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var c Candidate
		var id string
		var embedding []byte
		if err := rows.Scan(&id, &c.SourceEntityType, &c.SourceEntityID, &c.Text, &embedding); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		c.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse chunk id %q: %w", id, err)
		}
		c.Embedding = bytesToFloat32Slice(embedding)
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

func (s *SQLiteStore) DeleteBySource(ctx context.Context, entityType, entityID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM entity_chunks WHERE source_entity_type = ? AND source_entity_id = ?",
		entityType, entityID,
	)
	if err != nil {
		return fmt.Errorf("delete chunks by source: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() {
	s.db.Close()
}

func scanSQLiteChunk(rows *sql.Rows) (*models.Chunk, error) {
	var c models.Chunk
	var id, metadata string
	var embedding []byte
	if err := rows.Scan(&id, &c.OrganizationID, &c.SourceEntityType, &c.SourceEntityID,
		&c.ChunkIndex, &c.Text, &embedding, &metadata, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scan chunk: %w", err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse chunk id %q: %w", id, err)
	}
	c.ID = parsed
	if len(embedding) > 0 {
		c.Embedding = bytesToFloat32Slice(embedding)
	}
	if metadata != "" && metadata != "null" {
		if err := json.Unmarshal([]byte(metadata), &c.Metadata); err != nil {
			return nil, fmt.Errorf("decode chunk metadata: %w", err)
		}
	}
	return &c, nil
}

func float32SliceToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToFloat32Slice(b []byte) []float32 {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}
