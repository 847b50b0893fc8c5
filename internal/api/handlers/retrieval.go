package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/workstreamlabs/retrieval/internal/models"
	"github.com/workstreamlabs/retrieval/internal/organization"
	"github.com/workstreamlabs/retrieval/internal/queue"
	"github.com/workstreamlabs/retrieval/internal/retrieval"
)

type RetrievalHandler struct {
	coordinator *retrieval.Coordinator
	queue       *queue.Client
}

func NewRetrievalHandler(coordinator *retrieval.Coordinator, qc *queue.Client) *RetrievalHandler {
	return &RetrievalHandler{coordinator: coordinator, queue: qc}
}

func (h *RetrievalHandler) Index(w http.ResponseWriter, r *http.Request) {
	var entity models.Entity
	if err := json.NewDecoder(r.Body).Decode(&entity); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	entity.OrganizationID = organization.IDFromContext(r.Context())

	chunks, err := h.coordinator.IndexEntity(r.Context(), entity)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entity_type": entity.Type,
		"entity_id":   entity.ID,
		"chunks":      len(chunks),
	})
}

func (h *RetrievalHandler) IndexBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Entities []models.Entity `json:"entities"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if len(req.Entities) == 0 {
		writeError(w, fmt.Errorf("%w: entities", models.ErrEmptyInput))
		return
	}

	orgID := organization.IDFromContext(r.Context())
	for i := range req.Entities {
		req.Entities[i].OrganizationID = orgID
	}

	chunks, err := h.coordinator.IndexEntities(r.Context(), req.Entities)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entities": len(req.Entities),
		"chunks":   len(chunks),
	})
}

func (h *RetrievalHandler) IndexAsync(w http.ResponseWriter, r *http.Request) {
	var entity models.Entity
	if err := json.NewDecoder(r.Body).Decode(&entity); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	entity.OrganizationID = organization.IDFromContext(r.Context())
	if err := entity.Validate(); err != nil {
		writeError(w, err)
		return
	}

	if err := h.queue.EnqueueEntityIndex(queue.EntityIndexPayload{Entity: entity}); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":      "queued",
		"entity_type": entity.Type,
		"entity_id":   entity.ID,
	})
}

func (h *RetrievalHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EntityTypes []string `json:"entity_types"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	orgID := organization.IDFromContext(r.Context())
	if err := h.queue.EnqueueIndexRebuild(queue.IndexRebuildPayload{
		OrganizationID: orgID,
		EntityTypes:    req.EntityTypes,
	}); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":       "queued",
		"entity_types": req.EntityTypes,
	})
}

func (h *RetrievalHandler) Remove(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "entityType")
	entityID := chi.URLParam(r, "entityID")

	if err := h.coordinator.Remove(r.Context(), entityType, entityID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *RetrievalHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query   string            `json:"query"`
		Options retrieval.Options `json:"options"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	orgID := organization.IDFromContext(r.Context())
	results, err := h.coordinator.Retrieve(r.Context(), orgID, req.Query, req.Options)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"context": retrieval.BuildContext(results, 0),
		"count":   len(results),
	})
}

func (h *RetrievalHandler) Embeddings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Texts []string `json:"texts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if len(req.Texts) == 0 {
		writeError(w, fmt.Errorf("%w: texts", models.ErrEmptyInput))
		return
	}

	vectors, err := h.coordinator.EmbedBatch(r.Context(), req.Texts)
	if err != nil {
		writeError(w, err)
		return
	}

	cfg := h.coordinator.ProviderConfig()
	writeJSON(w, http.StatusOK, map[string]any{
		"embeddings": vectors,
		"model":      cfg.Model,
		"dimensions": cfg.Dimensions,
	})
}

func (h *RetrievalHandler) Provider(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.coordinator.ProviderConfig())
}
