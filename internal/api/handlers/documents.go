package handlers

import (
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/workstreamlabs/retrieval/internal/document"
	"github.com/workstreamlabs/retrieval/internal/models"
	"github.com/workstreamlabs/retrieval/internal/organization"
	"github.com/workstreamlabs/retrieval/internal/queue"
	"github.com/workstreamlabs/retrieval/internal/retrieval"
)

type DocumentHandler struct {
	svc         *document.Service
	coordinator *retrieval.Coordinator
	queue       *queue.Client
}

func NewDocumentHandler(svc *document.Service, coordinator *retrieval.Coordinator, qc *queue.Client) *DocumentHandler {
	return &DocumentHandler{svc: svc, coordinator: coordinator, queue: qc}
}

func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file required"})
		return
	}
	defer file.Close()

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}

	fileType := header.Header.Get("Content-Type")
	if fileType == "" || fileType == "application/octet-stream" {
		fileType = filepath.Ext(header.Filename)
	}

	orgID := organization.IDFromContext(r.Context())
	doc, err := h.svc.Upload(r.Context(), document.UploadRequest{
		OrganizationID: orgID,
		Title:          title,
		FileType:       fileType,
		Data:           file,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.queue.EnqueueDocumentIngest(queue.DocumentIngestPayload{
		DocumentID:     doc.ID.String(),
		OrganizationID: orgID,
	}); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	orgID := organization.IDFromContext(r.Context())
	docs, err := h.svc.List(r.Context(), orgID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"documents": docs, "count": len(docs)})
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid document ID"})
		return
	}

	orgID := organization.IDFromContext(r.Context())
	doc, err := h.svc.GetByID(r.Context(), orgID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// Chunks lists the indexed chunks of one document. The document lookup
// doubles as the organization check.
func (h *DocumentHandler) Chunks(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid document ID"})
		return
	}

	orgID := organization.IDFromContext(r.Context())
	if _, err := h.svc.GetByID(r.Context(), orgID, id); err != nil {
		writeError(w, err)
		return
	}

	chunks, err := h.coordinator.ChunksBySource(r.Context(), models.EntityTypeDocument, id.String())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"chunks": chunks, "count": len(chunks)})
}

// Delete removes the document row and every chunk indexed from it.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid document ID"})
		return
	}

	orgID := organization.IDFromContext(r.Context())
	if err := h.svc.Delete(r.Context(), orgID, id); err != nil {
		writeError(w, err)
		return
	}

	if err := h.coordinator.Remove(r.Context(), models.EntityTypeDocument, id.String()); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
