package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gradebook/internal/model"

	"gorm.io/gorm"
)

// GradePatch carries the fields of a partial update; nil fields are left alone.
type GradePatch struct {
	ID        uint    `json:"id"`
	StudentID *uint   `json:"studentId"`
	SubjectID *uint   `json:"subjectId"`
	Grade     *int    `json:"grade"`
	Semester  *string `json:"semester"`
}

type GradeService struct {
	db *gorm.DB
}

func NewGradeService(db *gorm.DB) *GradeService {
	return &GradeService{db: db}
}

// ListGrades returns grade records joined with their subject, optionally for
// one student only.
func (s *GradeService) ListGrades(ctx context.Context, studentID uint) ([]model.GradeView, error) {
	q := s.db.WithContext(ctx).
		Table("student_grades").
		Select("student_grades.id, student_grades.student_id, student_grades.subject_id, " +
			"student_grades.grade, student_grades.semester, student_grades.created_at, " +
			"subjects.name AS subject_name, subjects.code AS subject_code").
		Joins("LEFT JOIN subjects ON subjects.id = student_grades.subject_id")
	if studentID != 0 {
		q = q.Where("student_grades.student_id = ?", studentID)
	}

	views := []model.GradeView{}
	if err := q.Order("student_grades.id").Scan(&views).Error; err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return views, nil
}

// AllGrades reads a snapshot of every grade record.
func (s *GradeService) AllGrades(ctx context.Context) ([]model.GradeRecord, error) {
	var grades []model.GradeRecord
	if err := s.db.WithContext(ctx).Order("id").Find(&grades).Error; err != nil {
		return nil, fmt.Errorf("read grades: %w", err)
	}
	return grades, nil
}

func (s *GradeService) CreateGrade(ctx context.Context, g *model.GradeRecord) error {
	if err := g.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	db := s.db.WithContext(ctx)
	if err := s.checkRefs(db, g.StudentID, g.SubjectID); err != nil {
		return err
	}
	g.CreatedAt = time.Now().UTC()
	if err := db.Create(g).Error; err != nil {
		return fmt.Errorf("create grade: %w", err)
	}
	return nil
}

func (s *GradeService) UpdateGrade(ctx context.Context, patch GradePatch) error {
	if patch.ID == 0 {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	db := s.db.WithContext(ctx)

	cols := make(map[string]any)
	var studentID, subjectID uint
	if patch.StudentID != nil {
		if *patch.StudentID == 0 {
			return fmt.Errorf("%w: studentId must not be 0", ErrInvalidInput)
		}
		studentID = *patch.StudentID
		cols["student_id"] = studentID
	}
	if patch.SubjectID != nil {
		if *patch.SubjectID == 0 {
			return fmt.Errorf("%w: subjectId must not be 0", ErrInvalidInput)
		}
		subjectID = *patch.SubjectID
		cols["subject_id"] = subjectID
	}
	if patch.Grade != nil {
		if err := model.ValidateGrade(*patch.Grade); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		cols["grade"] = *patch.Grade
	}
	if patch.Semester != nil {
		if strings.TrimSpace(*patch.Semester) == "" {
			return fmt.Errorf("%w: semester must not be empty", ErrInvalidInput)
		}
		cols["semester"] = *patch.Semester
	}
	if len(cols) == 0 {
		return fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}
	if err := s.checkRefs(db, studentID, subjectID); err != nil {
		return err
	}

	res := db.Model(&model.GradeRecord{}).Where("id = ?", patch.ID).Updates(cols)
	if res.Error != nil {
		return fmt.Errorf("update grade %d: %w", patch.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("grade %d: %w", patch.ID, ErrNotFound)
	}
	return nil
}

func (s *GradeService) DeleteGrade(ctx context.Context, id uint) error {
	if id == 0 {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	res := s.db.WithContext(ctx).Delete(&model.GradeRecord{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete grade %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("grade %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteStudentSubjectGrades removes every record of a student in a subject,
// across all semesters.
func (s *GradeService) DeleteStudentSubjectGrades(ctx context.Context, studentID, subjectID uint) error {
	if studentID == 0 || subjectID == 0 {
		return fmt.Errorf("%w: studentId and subjectId are required", ErrInvalidInput)
	}
	res := s.db.WithContext(ctx).
		Where("student_id = ? AND subject_id = ?", studentID, subjectID).
		Delete(&model.GradeRecord{})
	if res.Error != nil {
		return fmt.Errorf("delete grades of student %d in subject %d: %w", studentID, subjectID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("grades of student %d in subject %d: %w", studentID, subjectID, ErrNotFound)
	}
	return nil
}

// checkRefs reports a missing student or subject as invalid input; zero ids
// are skipped. The foreign keys still guard against races.
func (s *GradeService) checkRefs(db *gorm.DB, studentID, subjectID uint) error {
	if studentID != 0 {
		var n int64
		if err := db.Model(&model.Student{}).Where("id = ?", studentID).Count(&n).Error; err != nil {
			return fmt.Errorf("check student %d: %w", studentID, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: student %d does not exist", ErrInvalidInput, studentID)
		}
	}
	if subjectID != 0 {
		var n int64
		if err := db.Model(&model.Subject{}).Where("id = ?", subjectID).Count(&n).Error; err != nil {
			return fmt.Errorf("check subject %d: %w", subjectID, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: subject %d does not exist", ErrInvalidInput, subjectID)
		}
	}
	return nil
}
