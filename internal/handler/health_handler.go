package handler

import (
	"context"
	"net/http"
	"time"

	"gradebook/pkg/logger"
)

const healthTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db     Pinger
	logger logger.Logger
}

func NewHealthHandler(db Pinger, log logger.Logger) *HealthHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &HealthHandler{db: db, logger: log.Named("health")}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Error(ctx, "database ping failed", logger.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
