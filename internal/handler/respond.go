package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"gradebook/internal/inference"
	"gradebook/internal/model"
	"gradebook/internal/service"
	"gradebook/pkg/logger"
)

// Messages for failures whose details stay in the server log.
const (
	msgInternal      = "Internal server error"
	msgInvalidBody   = "Invalid request body"
	msgProcessFailed = "Failed to process request"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

func writeSuccess(w http.ResponseWriter, status int) {
	writeJSON(w, status, map[string]bool{"success": true})
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// writeServiceError maps err onto a status code. Only client errors echo
// their message; everything else is logged and answered generically.
func writeServiceError(ctx context.Context, w http.ResponseWriter, log logger.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrMalformedEnrollment):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, inference.ErrRequestFailed):
		log.Error(ctx, "inference failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, msgProcessFailed)
	default:
		log.Error(ctx, "request failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}
