package model

import (
	"errors"
	"strings"
)

type Subject struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"not null" json:"name"`
	Code        string  `gorm:"not null;index" json:"code"`
	Description *string `json:"description,omitempty"`
}

func (s *Subject) Validate() error {
	switch {
	case strings.TrimSpace(s.Name) == "":
		return errors.New("name is required")
	case strings.TrimSpace(s.Code) == "":
		return errors.New("code is required")
	}
	return nil
}
