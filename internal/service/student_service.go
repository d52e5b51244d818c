package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"gradebook/internal/model"

	"gorm.io/gorm"
)

// Sortable student columns, keyed by the sort_by values the API accepts.
var studentSortColumns = map[string]string{
	"id":             "id",
	"firstName":      "first_name",
	"lastName":       "last_name",
	"email":          "email",
	"major":          "major",
	"enrollmentDate": "enrollment_date",
	"age":            "age",
}

// StudentQuery filters and pages ListStudents. A zero Limit returns every
// matching student.
type StudentQuery struct {
	Name      string
	Major     string
	Gender    string
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

// StudentPage is one page of students plus the totals needed to page further.
type StudentPage struct {
	Students   []model.Student
	Total      int64
	TotalPages int
}

// StudentPatch carries the fields of a partial update; nil fields are left alone.
type StudentPatch struct {
	ID             uint    `json:"id"`
	FirstName      *string `json:"firstName"`
	LastName       *string `json:"lastName"`
	Email          *string `json:"email"`
	Major          *string `json:"major"`
	EnrollmentDate *string `json:"enrollmentDate"`
	Gender         *string `json:"gender"`
	Age            *int    `json:"age"`
}

func (p StudentPatch) columns() (map[string]any, error) {
	cols := make(map[string]any)
	for col, v := range map[string]*string{
		"first_name": p.FirstName,
		"last_name":  p.LastName,
		"email":      p.Email,
		"major":      p.Major,
		"gender":     p.Gender,
	} {
		if v == nil {
			continue
		}
		if strings.TrimSpace(*v) == "" && col != "gender" {
			return nil, fmt.Errorf("%w: %s must not be empty", ErrInvalidInput, col)
		}
		cols[col] = *v
	}
	if p.EnrollmentDate != nil {
		if _, _, err := model.ParseEnrollment(*p.EnrollmentDate); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		cols["enrollment_date"] = *p.EnrollmentDate
	}
	if p.Age != nil {
		if *p.Age < 0 {
			return nil, fmt.Errorf("%w: age must not be negative", ErrInvalidInput)
		}
		cols["age"] = *p.Age
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}
	return cols, nil
}

type StudentService struct {
	db *gorm.DB
}

func NewStudentService(db *gorm.DB) *StudentService {
	return &StudentService{db: db}
}

func (s *StudentService) ListStudents(ctx context.Context, q StudentQuery) (StudentPage, error) {
	dbQuery := s.db.WithContext(ctx).Model(&model.Student{})

	if q.Name != "" {
		like := "%" + strings.ToLower(q.Name) + "%"
		dbQuery = dbQuery.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", like, like)
	}
	if q.Major != "" {
		dbQuery = dbQuery.Where("major = ?", q.Major)
	}
	if q.Gender != "" {
		dbQuery = dbQuery.Where("gender = ?", q.Gender)
	}

	column, ok := studentSortColumns[q.SortBy]
	if !ok {
		column = "id"
	}
	order := "asc"
	if strings.EqualFold(q.SortOrder, "desc") {
		order = "desc"
	}
	dbQuery = dbQuery.Order(column + " " + order)

	var page StudentPage
	if err := dbQuery.Count(&page.Total).Error; err != nil {
		return StudentPage{}, fmt.Errorf("count students: %w", err)
	}

	if q.Limit > 0 {
		p := q.Page
		if p < 1 {
			p = 1
		}
		dbQuery = dbQuery.Offset((p - 1) * q.Limit).Limit(q.Limit)
		page.TotalPages = int(math.Ceil(float64(page.Total) / float64(q.Limit)))
	}

	page.Students = []model.Student{}
	if err := dbQuery.Find(&page.Students).Error; err != nil {
		return StudentPage{}, fmt.Errorf("list students: %w", err)
	}
	return page, nil
}

// AllStudents reads a snapshot of every student.
func (s *StudentService) AllStudents(ctx context.Context) ([]model.Student, error) {
	var students []model.Student
	if err := s.db.WithContext(ctx).Order("id").Find(&students).Error; err != nil {
		return nil, fmt.Errorf("read students: %w", err)
	}
	return students, nil
}

func (s *StudentService) CreateStudent(ctx context.Context, student *model.Student) error {
	if err := student.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.db.WithContext(ctx).Create(student).Error; err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

func (s *StudentService) UpdateStudent(ctx context.Context, patch StudentPatch) error {
	if patch.ID == 0 {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	cols, err := patch.columns()
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&model.Student{}).Where("id = ?", patch.ID).Updates(cols)
	if res.Error != nil {
		return fmt.Errorf("update student %d: %w", patch.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("student %d: %w", patch.ID, ErrNotFound)
	}
	return nil
}

func (s *StudentService) DeleteStudent(ctx context.Context, id uint) error {
	if id == 0 {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	res := s.db.WithContext(ctx).Delete(&model.Student{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete student %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("student %d: %w", id, ErrNotFound)
	}
	return nil
}
