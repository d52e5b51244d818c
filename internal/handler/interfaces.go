package handler

import (
	"context"

	"gradebook/internal/model"
	"gradebook/internal/service"
)

type StudentStore interface {
	ListStudents(ctx context.Context, q service.StudentQuery) (service.StudentPage, error)
	CreateStudent(ctx context.Context, student *model.Student) error
	UpdateStudent(ctx context.Context, patch service.StudentPatch) error
	DeleteStudent(ctx context.Context, id uint) error
}

type SubjectStore interface {
	AllSubjects(ctx context.Context) ([]model.Subject, error)
	CreateSubject(ctx context.Context, subject *model.Subject) error
	UpdateSubject(ctx context.Context, patch service.SubjectPatch) error
	DeleteSubject(ctx context.Context, id uint) error
}

type GradeStore interface {
	ListGrades(ctx context.Context, studentID uint) ([]model.GradeView, error)
	CreateGrade(ctx context.Context, g *model.GradeRecord) error
	UpdateGrade(ctx context.Context, patch service.GradePatch) error
	DeleteGrade(ctx context.Context, id uint) error
	DeleteStudentSubjectGrades(ctx context.Context, studentID, subjectID uint) error
}

type Summarizer interface {
	Report(ctx context.Context, reportType string) (string, error)
	Ask(ctx context.Context, question string) (string, error)
	Insights(ctx context.Context) (string, error)
}

type RosterImporter interface {
	ReserveFile(fileName string) error
	ReleaseFile(fileName string, cause error)
	ProcessCSV(ctx context.Context, filePath string) error
}

type ProgressTracker interface {
	GetFileProgress(fileName string) *service.ProgressInfo
	GetAllFileProgress() []*service.ProgressInfo
	RegisterProgressListener(ch chan *service.ProgressInfo)
	UnregisterProgressListener(ch chan *service.ProgressInfo)
}
