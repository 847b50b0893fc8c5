package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/workstreamlabs/retrieval/internal/organization"
	"github.com/workstreamlabs/retrieval/internal/suggest"
)

type SuggestHandler struct {
	svc *suggest.Service
}

func NewSuggestHandler(svc *suggest.Service) *SuggestHandler {
	return &SuggestHandler{svc: svc}
}

func (h *SuggestHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	orgID := organization.IDFromContext(r.Context())
	analysis, err := h.svc.Analyze(r.Context(), orgID, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}
