package handler

import (
	"net/http"

	"gradebook/pkg/logger"
	"gradebook/pkg/metrics"

	"github.com/gorilla/mux"
)

// Handlers groups everything NewRouter mounts.
type Handlers struct {
	Students *StudentHandler
	Subjects *SubjectHandler
	Grades   *GradeHandler
	Summary  *SummaryHandler
	Upload   *UploadHandler
	Progress *ProgressHandler
	Health   *HealthHandler
	// Metrics defaults to the process-wide Prometheus handler.
	Metrics http.Handler
	Logger  logger.Logger
}

func NewRouter(h Handlers) *mux.Router {
	log := h.Logger
	if log == nil {
		log = logger.Nop()
	}
	metricsHandler := h.Metrics
	if metricsHandler == nil {
		metricsHandler = metrics.Handler()
	}

	r := mux.NewRouter()
	r.Use(RequestID, Observe(log.Named("http")))

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/students", h.Students.ListStudents).Methods(http.MethodGet)
	api.HandleFunc("/students", h.Students.CreateStudent).Methods(http.MethodPost)
	api.HandleFunc("/students", h.Students.UpdateStudent).Methods(http.MethodPut)
	api.HandleFunc("/students", h.Students.DeleteStudent).Methods(http.MethodDelete)
	api.HandleFunc("/students/upload", h.Upload.UploadCSV).Methods(http.MethodPost)

	api.HandleFunc("/subjects", h.Subjects.ListSubjects).Methods(http.MethodGet)
	api.HandleFunc("/subjects", h.Subjects.CreateSubject).Methods(http.MethodPost)
	api.HandleFunc("/subjects", h.Subjects.UpdateSubject).Methods(http.MethodPut)
	api.HandleFunc("/subjects", h.Subjects.DeleteSubject).Methods(http.MethodDelete)

	api.HandleFunc("/grades", h.Grades.ListGrades).Methods(http.MethodGet)
	api.HandleFunc("/grades", h.Grades.CreateGrade).Methods(http.MethodPost)
	api.HandleFunc("/grades", h.Grades.UpdateGrade).Methods(http.MethodPut)
	api.HandleFunc("/grades", h.Grades.DeleteGrade).Methods(http.MethodDelete)

	api.HandleFunc("/summary", h.Summary.Summarize).Methods(http.MethodPost)
	api.HandleFunc("/summary", h.Summary.Insights).Methods(http.MethodGet)

	api.HandleFunc("/progress", h.Progress.GetAllProgress).Methods(http.MethodGet)
	api.HandleFunc("/progress/file", h.Progress.GetFileProgress).Methods(http.MethodGet)
	api.HandleFunc("/progress/events", h.Progress.SSEProgress).Methods(http.MethodGet)

	r.HandleFunc("/healthz", h.Health.Health).Methods(http.MethodGet)
	r.Handle("/metrics", metricsHandler).Methods(http.MethodGet)

	return r
}
