package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/workstreamlabs/retrieval/internal/models"
	"github.com/workstreamlabs/retrieval/internal/queue"
	"github.com/workstreamlabs/retrieval/internal/retrieval"
)

// DocumentStore is the slice of the document service the worker needs to
// load uploaded content and drive status transitions.
type DocumentStore interface {
	GetByID(ctx context.Context, orgID string, id uuid.UUID) (*models.Document, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

// IndexWorker consumes indexing tasks and runs them through the
// retrieval coordinator.
type IndexWorker struct {
	coordinator *retrieval.Coordinator
	documents   DocumentStore
	logger      *slog.Logger
}

func NewIndexWorker(coordinator *retrieval.Coordinator, documents DocumentStore, logger *slog.Logger) *IndexWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexWorker{
		coordinator: coordinator,
		documents:   documents,
		logger:      logger,
	}
}

// Mux returns a ServeMux with every task type this worker handles.
func (w *IndexWorker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeEntityIndex, w.HandleEntityIndex)
	mux.HandleFunc(queue.TypeDocumentIngest, w.HandleDocumentIngest)
	mux.HandleFunc(queue.TypeIndexRebuild, w.HandleIndexRebuild)
	return mux
}

func (w *IndexWorker) HandleEntityIndex(ctx context.Context, t *asynq.Task) error {
	var payload queue.EntityIndexPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	chunks, err := w.coordinator.IndexEntity(ctx, payload.Entity)
	if err != nil {
		return fmt.Errorf("index %s %s: %w", payload.Entity.Type, payload.Entity.ID, err)
	}

	w.logger.Info("entity indexed",
		"entity_type", payload.Entity.Type,
		"entity_id", payload.Entity.ID,
		"chunks", len(chunks))
	return nil
}

func (w *IndexWorker) HandleDocumentIngest(ctx context.Context, t *asynq.Task) error {
	if w.documents == nil {
		return fmt.Errorf("document store not configured")
	}

	var payload queue.DocumentIngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	docID, err := uuid.Parse(payload.DocumentID)
	if err != nil {
		return fmt.Errorf("parse document id: %w", err)
	}

	if err := w.documents.UpdateStatus(ctx, docID, models.DocStatusProcessing); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	doc, err := w.documents.GetByID(ctx, payload.OrganizationID, docID)
	if err != nil {
		w.markFailed(ctx, docID)
		return fmt.Errorf("load document: %w", err)
	}

	_, err = w.coordinator.IndexEntity(ctx, models.Entity{
		ID:             doc.ID.String(),
		Type:           models.EntityTypeDocument,
		OrganizationID: doc.OrganizationID,
		Fields: map[string]any{
			"title":   doc.Title,
			"content": doc.Content,
		},
	})
	if err != nil {
		w.markFailed(ctx, docID)
		return fmt.Errorf("index document %s: %w", docID, err)
	}

	if err := w.documents.UpdateStatus(ctx, docID, models.DocStatusReady); err != nil {
		return fmt.Errorf("mark ready: %w", err)
	}

	w.logger.Info("document ingested",
		"document_id", docID,
		"organization_id", doc.OrganizationID)
	return nil
}

func (w *IndexWorker) HandleIndexRebuild(ctx context.Context, t *asynq.Task) error {
	var payload queue.IndexRebuildPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	written, err := w.coordinator.Rebuild(ctx, payload.OrganizationID, payload.EntityTypes)
	if err != nil {
		return fmt.Errorf("rebuild index for %s: %w", payload.OrganizationID, err)
	}

	w.logger.Info("index rebuilt",
		"organization_id", payload.OrganizationID,
		"chunks", written)
	return nil
}

func (w *IndexWorker) markFailed(ctx context.Context, docID uuid.UUID) {
	if err := w.documents.UpdateStatus(ctx, docID, models.DocStatusFailed); err != nil {
		w.logger.Warn("failed to mark document failed",
			"document_id", docID,
			"error", err)
	}
}
