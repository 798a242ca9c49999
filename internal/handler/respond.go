package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yourorg/agroregistry/internal/domain"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps the domain error taxonomy onto HTTP statuses and
// surfaces the human-readable message unchanged. Unclassified errors
// become an opaque 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrForbidden):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrConflict):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrInvalidReference):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrBadRequest):
		status, msg = http.StatusBadRequest, err.Error()
	}

	writeJSON(w, status, ErrorResponse{Error: msg})
}
