package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/workstreamlabs/retrieval/internal/document"
	"github.com/workstreamlabs/retrieval/internal/models"
	"github.com/workstreamlabs/retrieval/pkg/textextract"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError maps pipeline sentinels onto HTTP statuses; anything
// unrecognized is a 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrEmptyInput),
		errors.Is(err, models.ErrEmptyQuery),
		errors.Is(err, models.ErrInvalidLimit),
		errors.Is(err, textextract.ErrUnsupportedType):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, document.ErrTooLarge):
		status = http.StatusRequestEntityTooLarge
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
