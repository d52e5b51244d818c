package service_test

import (
	"testing"

	"gradebook/internal/database"
	"gradebook/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedStudents(t *testing.T, db *gorm.DB) []model.Student {
	t.Helper()
	students := []model.Student{
		{FirstName: "John", LastName: "Doe", Email: "john@example.com", Major: "CS", EnrollmentDate: "2022 Fall", Gender: model.GenderMale, Age: 21},
		{FirstName: "Jane", LastName: "Johnson", Email: "jane@example.com", Major: "Math", EnrollmentDate: "2023 Spring", Gender: model.GenderFemale, Age: 19},
		{FirstName: "Alice", LastName: "Smith", Email: "alice@example.com", Major: "CS", EnrollmentDate: "2023 Fall", Gender: model.GenderFemale, Age: 23},
	}
	require.NoError(t, db.Create(&students).Error)
	return students
}

func seedSubjects(t *testing.T, db *gorm.DB) []model.Subject {
	t.Helper()
	desc := "Sorting, graphs and complexity"
	subjects := []model.Subject{
		{Name: "Algorithms", Code: "CS201", Description: &desc},
		{Name: "Calculus", Code: "MA101"},
	}
	require.NoError(t, db.Create(&subjects).Error)
	return subjects
}
