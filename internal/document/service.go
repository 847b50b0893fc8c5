// Package document manages uploaded files: text extraction on upload,
// metadata rows in Postgres, and the status lifecycle driven by the
// indexing worker.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workstreamlabs/retrieval/internal/models"
	"github.com/workstreamlabs/retrieval/pkg/textextract"
)

// ErrTooLarge reports an upload over the configured size cap.
var ErrTooLarge = errors.New("upload exceeds size limit")

type Service struct {
	db       *pgxpool.Pool
	maxBytes int64
	logger   *slog.Logger
}

func NewService(db *pgxpool.Pool, maxBytes int64, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}
	return &Service{db: db, maxBytes: maxBytes, logger: logger}
}

type UploadRequest struct {
	OrganizationID string
	Title          string
	FileType       string
	Data           io.Reader
}

// Upload extracts text from the file and stores it as a pending
// document. Only the extracted text is kept; the original bytes are
// discarded after extraction.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*models.Document, error) {
	data, err := io.ReadAll(io.LimitReader(req.Data, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w of %d bytes", ErrTooLarge, s.maxBytes)
	}

	extracted, err := textextract.Extract(bytes.NewReader(data), int64(len(data)), req.FileType)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	content := strings.TrimSpace(extracted.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: no extractable text", models.ErrEmptyInput)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "untitled"
	}

	now := time.Now().UTC()
	doc := &models.Document{
		ID:             uuid.New(),
		OrganizationID: req.OrganizationID,
		Title:          title,
		FileType:       extracted.Metadata["type"],
		SizeBytes:      int64(len(data)),
		Status:         models.DocStatusPending,
		Content:        content,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO documents (id, organization_id, title, file_type, size_bytes, status, content, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		doc.ID, doc.OrganizationID, doc.Title, doc.FileType, doc.SizeBytes, doc.Status, doc.Content, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}

	s.logger.Info("document uploaded",
		"document_id", doc.ID,
		"org_id", doc.OrganizationID,
		"file_type", doc.FileType,
		"bytes", doc.SizeBytes,
	)
	return doc, nil
}

// GetByID returns one document including its extracted content.
func (s *Service) GetByID(ctx context.Context, orgID string, id uuid.UUID) (*models.Document, error) {
	var doc models.Document
	err := s.db.QueryRow(ctx,
		`SELECT id, organization_id, title, file_type, size_bytes, status, content, created_at, updated_at
		 FROM documents WHERE id = $1 AND organization_id = $2`,
		id, orgID,
	).Scan(&doc.ID, &doc.OrganizationID, &doc.Title, &doc.FileType, &doc.SizeBytes, &doc.Status, &doc.Content, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &doc, nil
}

// List returns document rows without their content, newest first.
func (s *Service) List(ctx context.Context, orgID string, limit, offset int) ([]models.Document, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, organization_id, title, file_type, size_bytes, status, created_at, updated_at
		 FROM documents WHERE organization_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		orgID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.OrganizationID, &d.Title, &d.FileType, &d.SizeBytes, &d.Status, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *Service) Delete(ctx context.Context, orgID string, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		"DELETE FROM documents WHERE id = $1 AND organization_id = $2",
		id, orgID,
	)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, models.ErrNotFound)
	}
	return nil
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := s.db.Exec(ctx,
		"UPDATE documents SET status = $1, updated_at = $2 WHERE id = $3",
		status, time.Now().UTC(), id,
	)
	return err
}
