package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Recognized enrollment semesters and genders.
const (
	SemesterSpring = "Spring"
	SemesterFall   = "Fall"

	GenderMale   = "Male"
	GenderFemale = "Female"
)

// ErrMalformedEnrollment reports an enrollment date that is not "<year> <Spring|Fall>".
var ErrMalformedEnrollment = errors.New("malformed enrollment date")

type Student struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	FirstName      string `gorm:"not null" json:"firstName"`
	LastName       string `gorm:"not null" json:"lastName"`
	Email          string `gorm:"not null;index" json:"email"`
	Major          string `gorm:"not null;index" json:"major"`
	EnrollmentDate string `gorm:"not null" json:"enrollmentDate"`
	Gender         string `gorm:"not null" json:"gender"`
	Age            int    `gorm:"not null" json:"age"`
}

// Validate checks the fields required on insert.
func (s *Student) Validate() error {
	switch {
	case strings.TrimSpace(s.FirstName) == "":
		return errors.New("firstName is required")
	case strings.TrimSpace(s.LastName) == "":
		return errors.New("lastName is required")
	case strings.TrimSpace(s.Email) == "":
		return errors.New("email is required")
	case strings.TrimSpace(s.Major) == "":
		return errors.New("major is required")
	case s.Age < 0:
		return errors.New("age must not be negative")
	}
	if _, _, err := ParseEnrollment(s.EnrollmentDate); err != nil {
		return err
	}
	return nil
}

// ParseEnrollment splits an enrollment date such as "2023 Fall" into its year
// and semester.
func ParseEnrollment(v string) (int, string, error) {
	parts := strings.Fields(v)
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("%w: %q", ErrMalformedEnrollment, v)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", fmt.Errorf("%w: %q: year is not a number", ErrMalformedEnrollment, v)
	}
	if parts[1] != SemesterSpring && parts[1] != SemesterFall {
		return 0, "", fmt.Errorf("%w: %q: semester must be %s or %s", ErrMalformedEnrollment, v, SemesterSpring, SemesterFall)
	}
	return year, parts[1], nil
}
