package handler

import (
	"net/http"
	"strconv"

	"gradebook/internal/model"
	"gradebook/internal/service"
	"gradebook/pkg/logger"
)

type GradeHandler struct {
	gradeService GradeStore
	logger       logger.Logger
}

func NewGradeHandler(gradeService GradeStore, log logger.Logger) *GradeHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &GradeHandler{gradeService: gradeService, logger: log.Named("grades")}
}

// ListGrades returns grade records with subject names, for one student when
// studentId is given.
func (h *GradeHandler) ListGrades(w http.ResponseWriter, r *http.Request) {
	var studentID uint
	if v := r.URL.Query().Get("studentId"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil || id == 0 {
			writeError(w, http.StatusBadRequest, "studentId must be a positive integer")
			return
		}
		studentID = uint(id)
	}

	grades, err := h.gradeService.ListGrades(r.Context(), studentID)
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	writeData(w, grades)
}

func (h *GradeHandler) CreateGrade(w http.ResponseWriter, r *http.Request) {
	var grade model.GradeRecord
	if err := decodeJSON(r, &grade); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	grade.ID = 0

	if err := h.gradeService.CreateGrade(r.Context(), &grade); err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusCreated)
}

func (h *GradeHandler) UpdateGrade(w http.ResponseWriter, r *http.Request) {
	var patch service.GradePatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if err := h.gradeService.UpdateGrade(r.Context(), patch); err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK)
}

// DeleteGrade removes one record by id, or every record of a student in a
// subject when no id is given.
func (h *GradeHandler) DeleteGrade(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID        uint `json:"id"`
		StudentID uint `json:"studentId"`
		SubjectID uint `json:"subjectId"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	var err error
	if body.ID != 0 {
		err = h.gradeService.DeleteGrade(r.Context(), body.ID)
	} else {
		err = h.gradeService.DeleteStudentSubjectGrades(r.Context(), body.StudentID, body.SubjectID)
	}
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK)
}
