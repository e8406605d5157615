package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lvlup/bookstore/internal/domain"
)

// Response envelopes follow the JSend shape the services have always
// spoken: success wraps the payload, error carries code/error/message/path.
type SuccessResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Data      any       `json:"data,omitempty"`
}

type ErrorResponse struct {
	Timestamp time.Time      `json:"timestamp"`
	Status    string         `json:"status"`
	Code      int            `json:"code"`
	Error     string         `json:"error"`
	Message   string         `json:"message"`
	Path      string         `json:"path"`
	Details   map[string]any `json:"details,omitempty"`
}

func WriteSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, SuccessResponse{
		Timestamp: time.Now().UTC(),
		Status:    "success",
		Data:      data,
	})
}

// WriteError maps a business error kind to its HTTP status. Unexpected
// errors become a generic 500; their details stay in the logs.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusForError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("unexpected error", "error", err, "path", r.URL.Path)
		message = "internal server error"
	}
	writeErrorEnvelope(w, r, status, message, nil)
}

// WriteValidationError reports per-field input failures as a 400 with a
// details map.
func WriteValidationError(w http.ResponseWriter, r *http.Request, details map[string]any) {
	writeErrorEnvelope(w, r, http.StatusBadRequest, domain.ErrValidation.Error(), details)
}

func writeErrorEnvelope(w http.ResponseWriter, r *http.Request, status int, message string, details map[string]any) {
	writeJSON(w, status, ErrorResponse{
		Timestamp: time.Now().UTC(),
		Status:    "error",
		Code:      status,
		Error:     http.StatusText(status),
		Message:   message,
		Path:      r.URL.Path,
		Details:   details,
	})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateResource):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrInvalidOperation),
		errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
