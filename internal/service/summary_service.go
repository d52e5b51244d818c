package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gradebook/internal/model"
	"gradebook/internal/report"
	"gradebook/pkg/logger"
	"gradebook/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

// insightsQuestion is asked by Insights.
const insightsQuestion = "Give a short overview of the academic performance in this data: " +
	"which majors stand out, how enrollment is trending, and what deserves attention."

type StudentSource interface {
	AllStudents(ctx context.Context) ([]model.Student, error)
}

type SubjectSource interface {
	AllSubjects(ctx context.Context) ([]model.Subject, error)
}

type GradeSource interface {
	AllGrades(ctx context.Context) ([]model.GradeRecord, error)
}

// Asker answers a question from a block of statistics.
type Asker interface {
	Ask(ctx context.Context, question, stats string) (string, error)
}

// SummaryService turns snapshots of the three collections into reports.
type SummaryService struct {
	students StudentSource
	subjects SubjectSource
	grades   GradeSource
	asker    Asker
	logger   logger.Logger
}

func NewSummaryService(students StudentSource, subjects SubjectSource, grades GradeSource, asker Asker, log logger.Logger) *SummaryService {
	if log == nil {
		log = logger.Nop()
	}
	return &SummaryService{
		students: students,
		subjects: subjects,
		grades:   grades,
		asker:    asker,
		logger:   log.Named("summary"),
	}
}

// Report renders one of the fixed report types. An unknown type yields
// report.InvalidType without touching storage.
func (s *SummaryService) Report(ctx context.Context, reportType string) (string, error) {
	if !report.IsFixed(reportType) {
		metrics.RecordReport("invalid")
		return report.InvalidType, nil
	}
	metrics.RecordReport(reportType)

	result, err := s.aggregate(ctx)
	if err != nil {
		return "", err
	}
	s.logger.Info(ctx, "report generated",
		logger.String("type", reportType),
		logger.Int("students", result.TotalStudents),
		logger.Int("grades", result.TotalGrades))
	return report.Format(reportType, result), nil
}

// Ask forwards question, together with the current statistics, to the
// inference backend.
func (s *SummaryService) Ask(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("%w: question is required", ErrInvalidInput)
	}
	metrics.RecordReport(report.TypeCustom)

	result, err := s.aggregate(ctx)
	if err != nil {
		return "", err
	}
	answer, err := s.asker.Ask(ctx, question, report.ContextBlock(result))
	if err != nil {
		metrics.RecordReportError("inference")
		return "", err
	}
	s.logger.Info(ctx, "custom question answered",
		logger.Int("question_chars", len(question)),
		logger.Int("answer_chars", len(answer)))
	return answer, nil
}

// Insights asks the inference backend for a general overview.
func (s *SummaryService) Insights(ctx context.Context) (string, error) {
	return s.Ask(ctx, insightsQuestion)
}

// aggregate reads the three collections concurrently and aggregates them.
// The reads are not taken from one transaction.
func (s *SummaryService) aggregate(ctx context.Context) (*report.Result, error) {
	var (
		students []model.Student
		subjects []model.Subject
		grades   []model.GradeRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		students, err = s.students.AllStudents(gctx)
		return err
	})
	g.Go(func() (err error) {
		subjects, err = s.subjects.AllSubjects(gctx)
		return err
	})
	g.Go(func() (err error) {
		grades, err = s.grades.AllGrades(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		metrics.RecordReportError("snapshot")
		s.logger.Error(ctx, "snapshot read failed", logger.Error(err))
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	result, err := report.Aggregate(students, grades, subjects)
	if err != nil {
		metrics.RecordReportError("aggregate")
		if errors.Is(err, model.ErrMalformedEnrollment) {
			s.logger.Warn(ctx, "malformed enrollment data", logger.Error(err))
		} else {
			s.logger.Error(ctx, "aggregation failed", logger.Error(err))
		}
		return nil, err
	}
	return result, nil
}
