package service

import (
	"context"
	"fmt"
	"strings"

	"gradebook/internal/model"

	"gorm.io/gorm"
)

// SubjectPatch carries the fields of a partial update; nil fields are left alone.
type SubjectPatch struct {
	ID          uint    `json:"id"`
	Name        *string `json:"name"`
	Code        *string `json:"code"`
	Description *string `json:"description"`
}

func (p SubjectPatch) columns() (map[string]any, error) {
	cols := make(map[string]any)
	if p.Name != nil {
		if strings.TrimSpace(*p.Name) == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
		}
		cols["name"] = *p.Name
	}
	if p.Code != nil {
		if strings.TrimSpace(*p.Code) == "" {
			return nil, fmt.Errorf("%w: code must not be empty", ErrInvalidInput)
		}
		cols["code"] = *p.Code
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}
	return cols, nil
}

type SubjectService struct {
	db *gorm.DB
}

func NewSubjectService(db *gorm.DB) *SubjectService {
	return &SubjectService{db: db}
}

// AllSubjects reads a snapshot of every subject.
func (s *SubjectService) AllSubjects(ctx context.Context) ([]model.Subject, error) {
	subjects := []model.Subject{}
	if err := s.db.WithContext(ctx).Order("id").Find(&subjects).Error; err != nil {
		return nil, fmt.Errorf("read subjects: %w", err)
	}
	return subjects, nil
}

func (s *SubjectService) CreateSubject(ctx context.Context, subject *model.Subject) error {
	if err := subject.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.db.WithContext(ctx).Create(subject).Error; err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

func (s *SubjectService) UpdateSubject(ctx context.Context, patch SubjectPatch) error {
	if patch.ID == 0 {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	cols, err := patch.columns()
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&model.Subject{}).Where("id = ?", patch.ID).Updates(cols)
	if res.Error != nil {
		return fmt.Errorf("update subject %d: %w", patch.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("subject %d: %w", patch.ID, ErrNotFound)
	}
	return nil
}

func (s *SubjectService) DeleteSubject(ctx context.Context, id uint) error {
	if id == 0 {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	res := s.db.WithContext(ctx).Delete(&model.Subject{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete subject %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("subject %d: %w", id, ErrNotFound)
	}
	return nil
}
