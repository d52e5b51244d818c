package handler

import (
	"net/http"

	"gradebook/internal/model"
	"gradebook/internal/service"
	"gradebook/pkg/logger"
)

type SubjectHandler struct {
	subjectService SubjectStore
	logger         logger.Logger
}

func NewSubjectHandler(subjectService SubjectStore, log logger.Logger) *SubjectHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &SubjectHandler{subjectService: subjectService, logger: log.Named("subjects")}
}

func (h *SubjectHandler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.subjectService.AllSubjects(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	writeData(w, subjects)
}

func (h *SubjectHandler) CreateSubject(w http.ResponseWriter, r *http.Request) {
	var subject model.Subject
	if err := decodeJSON(r, &subject); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	subject.ID = 0

	if err := h.subjectService.CreateSubject(r.Context(), &subject); err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusCreated)
}

func (h *SubjectHandler) UpdateSubject(w http.ResponseWriter, r *http.Request) {
	var patch service.SubjectPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if err := h.subjectService.UpdateSubject(r.Context(), patch); err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK)
}

func (h *SubjectHandler) DeleteSubject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID uint `json:"id"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if err := h.subjectService.DeleteSubject(r.Context(), body.ID); err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	h.logger.Info(r.Context(), "subject deleted", logger.Int64("id", int64(body.ID)))
	writeSuccess(w, http.StatusOK)
}
