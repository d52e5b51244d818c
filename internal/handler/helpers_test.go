package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gradebook/internal/database"
	"gradebook/internal/handler"
	"gradebook/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockSummarizer struct {
	mock.Mock
}

func (m *mockSummarizer) Report(ctx context.Context, reportType string) (string, error) {
	args := m.Called(ctx, reportType)
	return args.String(0), args.Error(1)
}

func (m *mockSummarizer) Ask(ctx context.Context, question string) (string, error) {
	args := m.Called(ctx, question)
	return args.String(0), args.Error(1)
}

func (m *mockSummarizer) Insights(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

type testAPI struct {
	router  http.Handler
	db      *gorm.DB
	uploads *service.UploadService
}

func setupTestAPI(t *testing.T, summarizer handler.Summarizer) *testAPI {
	t.Helper()
	db, err := database.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	if summarizer == nil {
		summarizer = new(mockSummarizer)
	}
	uploads := service.NewUploadService(db, nil)

	router := handler.NewRouter(handler.Handlers{
		Students: handler.NewStudentHandler(service.NewStudentService(db), nil),
		Subjects: handler.NewSubjectHandler(service.NewSubjectService(db), nil),
		Grades:   handler.NewGradeHandler(service.NewGradeService(db), nil),
		Summary:  handler.NewSummaryHandler(summarizer, nil),
		Upload:   handler.NewUploadHandler(uploads, t.TempDir(), 1<<20, nil),
		Progress: handler.NewProgressHandler(uploads, nil),
		Health:   handler.NewHealthHandler(sqlDB, nil),
	})
	return &testAPI{router: router, db: db, uploads: uploads}
}

func (a *testAPI) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	return out
}
