package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gradebook/internal/model"
	"gradebook/internal/report"
	"gradebook/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) AllStudents(ctx context.Context) ([]model.Student, error) {
	args := m.Called(ctx)
	students, _ := args.Get(0).([]model.Student)
	return students, args.Error(1)
}

func (m *mockStore) AllSubjects(ctx context.Context) ([]model.Subject, error) {
	args := m.Called(ctx)
	subjects, _ := args.Get(0).([]model.Subject)
	return subjects, args.Error(1)
}

func (m *mockStore) AllGrades(ctx context.Context) ([]model.GradeRecord, error) {
	args := m.Called(ctx)
	grades, _ := args.Get(0).([]model.GradeRecord)
	return grades, args.Error(1)
}

type mockAsker struct {
	mock.Mock
}

func (m *mockAsker) Ask(ctx context.Context, question, stats string) (string, error) {
	args := m.Called(ctx, question, stats)
	return args.String(0), args.Error(1)
}

func storeWith(students []model.Student, grades []model.GradeRecord) *mockStore {
	store := new(mockStore)
	store.On("AllStudents", mock.Anything).Return(students, nil)
	store.On("AllSubjects", mock.Anything).Return([]model.Subject{{ID: 1, Name: "Algorithms", Code: "CS201"}}, nil)
	store.On("AllGrades", mock.Anything).Return(grades, nil)
	return store
}

func sampleRecords() ([]model.Student, []model.GradeRecord) {
	students := []model.Student{
		{ID: 1, FirstName: "John", LastName: "Doe", Email: "john@example.com", Major: "CS", EnrollmentDate: "2022 Fall", Gender: model.GenderMale, Age: 21},
		{ID: 2, FirstName: "Jane", LastName: "Roe", Email: "jane@example.com", Major: "Math", EnrollmentDate: "2023 Spring", Gender: model.GenderFemale, Age: 19},
	}
	grades := []model.GradeRecord{
		{ID: 1, StudentID: 1, SubjectID: 1, Grade: 95, Semester: "2023 Fall"},
		{ID: 2, StudentID: 2, SubjectID: 1, Grade: 80, Semester: "2023 Fall"},
	}
	return students, grades
}

func TestSummaryServiceReport(t *testing.T) {
	ctx := context.Background()

	t.Run("Fixed report types are formatted from the snapshot", func(t *testing.T) {
		store := storeWith(sampleRecords())
		summary := service.NewSummaryService(store, store, store, new(mockAsker), nil)

		out, err := summary.Report(ctx, report.TypeSummary)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "### Student Data Overview"))
		assert.Contains(t, out, "**Total Students**: 2")
		store.AssertExpectations(t)
	})

	t.Run("Unknown type answers without reading storage", func(t *testing.T) {
		store := new(mockStore)
		summary := service.NewSummaryService(store, store, store, new(mockAsker), nil)

		out, err := summary.Report(ctx, "weather")
		require.NoError(t, err)
		assert.Equal(t, report.InvalidType, out)
		store.AssertNotCalled(t, "AllStudents", mock.Anything)
	})

	t.Run("Snapshot failure is returned", func(t *testing.T) {
		boom := errors.New("disk on fire")
		store := new(mockStore)
		store.On("AllStudents", mock.Anything).Return(nil, boom)
		store.On("AllSubjects", mock.Anything).Return([]model.Subject{}, nil).Maybe()
		store.On("AllGrades", mock.Anything).Return([]model.GradeRecord{}, nil).Maybe()
		summary := service.NewSummaryService(store, store, store, new(mockAsker), nil)

		_, err := summary.Report(ctx, report.TypeEnrollment)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("Malformed enrollment surfaces as its own error", func(t *testing.T) {
		students, grades := sampleRecords()
		students[1].EnrollmentDate = "sometime"
		store := storeWith(students, grades)
		summary := service.NewSummaryService(store, store, store, new(mockAsker), nil)

		_, err := summary.Report(ctx, report.TypeEnrollment)
		assert.ErrorIs(t, err, model.ErrMalformedEnrollment)
	})
}

func TestSummaryServiceAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("Question is sent with the statistics", func(t *testing.T) {
		store := storeWith(sampleRecords())
		asker := new(mockAsker)
		asker.On("Ask", mock.Anything, "Which major is best?", mock.MatchedBy(func(stats string) bool {
			return strings.Contains(stats, "Total students: 2") && strings.Contains(stats, "Best performing major: CS")
		})).Return("### Majors\nCS leads.", nil)
		summary := service.NewSummaryService(store, store, store, asker, nil)

		out, err := summary.Ask(ctx, "Which major is best?")
		require.NoError(t, err)
		assert.Equal(t, "### Majors\nCS leads.", out)
		asker.AssertExpectations(t)
	})

	t.Run("Empty question is rejected", func(t *testing.T) {
		store := new(mockStore)
		asker := new(mockAsker)
		summary := service.NewSummaryService(store, store, store, asker, nil)

		_, err := summary.Ask(ctx, "   ")
		assert.ErrorIs(t, err, service.ErrInvalidInput)
		asker.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Inference failure is returned", func(t *testing.T) {
		boom := errors.New("backend down")
		store := storeWith(sampleRecords())
		asker := new(mockAsker)
		asker.On("Ask", mock.Anything, mock.Anything, mock.Anything).Return("", boom)
		summary := service.NewSummaryService(store, store, store, asker, nil)

		_, err := summary.Insights(ctx)
		assert.ErrorIs(t, err, boom)
	})
}
