package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"gradebook/internal/service"
	"gradebook/pkg/logger"
)

// progressBuffer is how many updates an SSE client may fall behind before
// updates are dropped for it.
const progressBuffer = 16

type ProgressHandler struct {
	tracker   ProgressTracker
	logger    logger.Logger
	done      chan struct{}
	closeOnce sync.Once
}

func NewProgressHandler(tracker ProgressTracker, log logger.Logger) *ProgressHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ProgressHandler{
		tracker: tracker,
		logger:  log.Named("progress"),
		done:    make(chan struct{}),
	}
}

// Close ends every open progress stream. It is safe to call more than once.
func (h *ProgressHandler) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// GetFileProgress returns the progress for a specific file
func (h *ProgressHandler) GetFileProgress(w http.ResponseWriter, r *http.Request) {
	fileName := r.URL.Query().Get("fileName")
	if fileName == "" {
		writeError(w, http.StatusBadRequest, "fileName parameter is required")
		return
	}

	progress := h.tracker.GetFileProgress(filepath.Base(fileName))
	if progress == nil {
		writeError(w, http.StatusNotFound, "File not found or not being processed")
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// GetAllProgress returns the progress for all files being processed
func (h *ProgressHandler) GetAllProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.GetAllFileProgress())
}

// SSEProgress streams progress updates to the client using Server-Sent Events
func (h *ProgressHandler) SSEProgress(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	ctx := r.Context()
	rc := http.NewResponseController(w)
	// The stream lives until the client leaves or the server shuts down, so
	// the server-wide write timeout must not apply to it.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.Warn(ctx, "clear progress stream write deadline", logger.Error(err))
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.logger.Debug(ctx, "progress stream closed", logger.Error(err))
		return
	}

	progressChan := make(chan *service.ProgressInfo, progressBuffer)
	h.tracker.RegisterProgressListener(progressChan)
	defer h.tracker.UnregisterProgressListener(progressChan)

	for {
		select {
		case progress := <-progressChan:
			data, err := json.Marshal(progress)
			if err != nil {
				h.logger.Error(ctx, "marshal progress", logger.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				h.logger.Debug(ctx, "progress stream closed", logger.Error(err))
				return
			}
			if err := rc.Flush(); err != nil {
				h.logger.Debug(ctx, "progress stream closed", logger.Error(err))
				return
			}

		case <-ctx.Done():
			h.logger.Debug(ctx, "progress client disconnected")
			return

		case <-h.done:
			return
		}
	}
}
