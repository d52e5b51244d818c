package model

import (
	"errors"
	"strings"
	"time"
)

// Grade bounds accepted by the write endpoints.
const (
	MinGrade = 0
	MaxGrade = 100
)

// GradeRecord is one numeric grade of a student in a subject for a semester.
// Several records may exist for the same (student, subject, semester).
type GradeRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"not null;index" json:"studentId"`
	SubjectID uint      `gorm:"not null;index" json:"subjectId"`
	Grade     int       `gorm:"not null" json:"grade"`
	Semester  string    `gorm:"not null" json:"semester"`
	CreatedAt time.Time `json:"createdAt"`

	Student *Student `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Subject *Subject `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (GradeRecord) TableName() string { return "student_grades" }

func (g *GradeRecord) Validate() error {
	switch {
	case g.StudentID == 0:
		return errors.New("studentId is required")
	case g.SubjectID == 0:
		return errors.New("subjectId is required")
	case strings.TrimSpace(g.Semester) == "":
		return errors.New("semester is required")
	}
	return ValidateGrade(g.Grade)
}

// ValidateGrade checks a grade against MinGrade..MaxGrade.
func ValidateGrade(grade int) error {
	if grade < MinGrade || grade > MaxGrade {
		return errors.New("grade must be between 0 and 100")
	}
	return nil
}

// GradeView is a grade record joined with its subject.
type GradeView struct {
	ID          uint      `json:"id"`
	StudentID   uint      `json:"studentId"`
	SubjectID   uint      `json:"subjectId"`
	Grade       int       `json:"grade"`
	Semester    string    `json:"semester"`
	SubjectName *string   `json:"subjectName"`
	SubjectCode *string   `json:"subjectCode"`
	CreatedAt   time.Time `json:"createdAt"`
}
