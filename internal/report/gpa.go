// Package report turns snapshots of students, subjects and grades into GPA
// statistics and the fixed textual reports built from them.
package report

import (
	"math"

	"gradebook/internal/model"
)

// LetterNotAvailable is the letter of a student without any grade. It keeps an
// empty record apart from a real 0.0 average.
const LetterNotAvailable = "N/A"

// GradePoint is the 4.0-scale value and letter of a numeric grade.
type GradePoint struct {
	Point  float64 `json:"gradePoint"`
	Letter string  `json:"letter"`
}

type gradeRange struct {
	lower, upper int
	GradePoint
}

// gradeScale is ordered by descending grade point. GradeInfo scans it as
// inclusive ranges and LetterForAverage as thresholds.
var gradeScale = []gradeRange{
	{93, 100, GradePoint{4.0, "A"}},
	{90, 92, GradePoint{3.7, "A-"}},
	{87, 89, GradePoint{3.3, "B+"}},
	{83, 86, GradePoint{3.0, "B"}},
	{80, 82, GradePoint{2.7, "B-"}},
	{77, 79, GradePoint{2.3, "C+"}},
	{73, 76, GradePoint{2.0, "C"}},
	{70, 72, GradePoint{1.7, "C-"}},
	{67, 69, GradePoint{1.3, "D+"}},
	{63, 66, GradePoint{1.0, "D"}},
	{60, 62, GradePoint{0.7, "D-"}},
	{0, 59, GradePoint{0.0, "F"}},
}

var failing = GradePoint{0.0, "F"}

// GradeInfo maps a numeric grade to its grade point using the first range that
// contains it. Grades outside 0..100 map to F.
func GradeInfo(grade int) GradePoint {
	for _, r := range gradeScale {
		if grade >= r.lower && grade <= r.upper {
			return r.GradePoint
		}
	}
	return failing
}

// LetterForAverage returns the letter of the first scale entry whose grade
// point does not exceed avg. 3.85 is A- and 3.5 is B+.
func LetterForAverage(avg float64) string {
	for _, r := range gradeScale {
		if r.Point <= avg {
			return r.Letter
		}
	}
	return failing.Letter
}

// GPAResult is a derived grade point average. It is never stored.
type GPAResult struct {
	GradePointAverage float64 `json:"gradePointAverage"`
	Letter            string  `json:"letter"`
}

// StudentGPA averages the grade points of grades, rounded to two decimals.
// Duplicate records for the same subject and semester all count.
func StudentGPA(grades []model.GradeRecord) GPAResult {
	if len(grades) == 0 {
		return GPAResult{GradePointAverage: 0, Letter: LetterNotAvailable}
	}
	var total float64
	for _, g := range grades {
		total += GradeInfo(g.Grade).Point
	}
	avg := round2(total / float64(len(grades)))
	return GPAResult{GradePointAverage: avg, Letter: LetterForAverage(avg)}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
