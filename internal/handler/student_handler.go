package handler

import (
	"net/http"
	"strconv"

	"gradebook/internal/model"
	"gradebook/internal/service"
	"gradebook/pkg/logger"
)

type StudentHandler struct {
	studentService StudentStore
	logger         logger.Logger
}

func NewStudentHandler(studentService StudentStore, log logger.Logger) *StudentHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &StudentHandler{studentService: studentService, logger: log.Named("students")}
}

// ListStudents returns every student, or one page of them when limit is set.
func (h *StudentHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	q := service.StudentQuery{
		Name:      query.Get("name"),
		Major:     query.Get("major"),
		Gender:    query.Get("gender"),
		SortBy:    query.Get("sort_by"),
		SortOrder: query.Get("sort_order"),
	}
	paged := query.Get("limit") != ""
	if paged {
		limit, err := strconv.Atoi(query.Get("limit"))
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		q.Limit = limit
		q.Page = 1
		if p := query.Get("page"); p != "" {
			page, err := strconv.Atoi(p)
			if err != nil || page < 1 {
				writeError(w, http.StatusBadRequest, "page must be a positive integer")
				return
			}
			q.Page = page
		}
	}

	page, err := h.studentService.ListStudents(r.Context(), q)
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}

	if !paged {
		writeData(w, page.Students)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":       page.Students,
		"page":       q.Page,
		"limit":      q.Limit,
		"total":      page.Total,
		"totalPages": page.TotalPages,
	})
}

func (h *StudentHandler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var student model.Student
	if err := decodeJSON(r, &student); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	student.ID = 0

	if err := h.studentService.CreateStudent(r.Context(), &student); err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	h.logger.Info(r.Context(), "student created", logger.Int64("id", int64(student.ID)))
	writeSuccess(w, http.StatusCreated)
}

func (h *StudentHandler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	var patch service.StudentPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if err := h.studentService.UpdateStudent(r.Context(), patch); err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK)
}

func (h *StudentHandler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID uint `json:"id"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if err := h.studentService.DeleteStudent(r.Context(), body.ID); err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	h.logger.Info(r.Context(), "student deleted", logger.Int64("id", int64(body.ID)))
	writeSuccess(w, http.StatusOK)
}
