package handler

import (
	"errors"
	"io"
	"net/http"

	"gradebook/internal/report"
	"gradebook/pkg/logger"
)

type summaryRequest struct {
	Question string `json:"question"`
	Type     string `json:"type"`
}

type SummaryHandler struct {
	summaryService Summarizer
	logger         logger.Logger
}

func NewSummaryHandler(summaryService Summarizer, log logger.Logger) *SummaryHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &SummaryHandler{summaryService: summaryService, logger: log.Named("summary")}
}

// Summarize renders a fixed report, or answers the question through the
// inference backend when type is empty or custom.
func (h *SummaryHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req summaryRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	var (
		response string
		err      error
	)
	switch req.Type {
	case "", report.TypeCustom:
		response, err = h.summaryService.Ask(r.Context(), req.Question)
	default:
		response, err = h.summaryService.Report(r.Context(), req.Type)
	}
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": response})
}

// Insights asks the inference backend for a general overview of the data.
func (h *SummaryHandler) Insights(w http.ResponseWriter, r *http.Request) {
	response, err := h.summaryService.Insights(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": response})
}
