package report

import (
	"fmt"
	"math"
	"sort"

	"gradebook/internal/model"
)

// GPA histogram bin labels, highest first.
var gpaBinLabels = [...]string{
	"4.0",
	"3.7-3.99",
	"3.3-3.69",
	"3.0-3.29",
	"2.7-2.99",
	"2.3-2.69",
	"2.0-2.29",
	"Below 2.0",
}

// gpaBinFloors holds the lower bound of every bin but the last.
var gpaBinFloors = [...]float64{4.0, 3.7, 3.3, 3.0, 2.7, 2.3, 2.0}

// TopPerformerGPA is the GPA from which a student counts as a top performer.
const TopPerformerGPA = 3.7

// StudentGPAInfo is the GPA of one student together with the student's major.
type StudentGPAInfo struct {
	StudentID         uint    `json:"studentId"`
	GradePointAverage float64 `json:"gradePointAverage"`
	Letter            string  `json:"letter"`
	Major             string  `json:"major"`
}

type GPABin struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// AgeStats is only meaningful when Known is set; an empty roster has no ages.
type AgeStats struct {
	Min   int  `json:"min"`
	Max   int  `json:"max"`
	Mean  int  `json:"mean"`
	Known bool `json:"known"`
}

type YearEnrollment struct {
	Year   int `json:"year"`
	Total  int `json:"total"`
	Spring int `json:"spring"`
	Fall   int `json:"fall"`
}

// YearGrowth is the percentage change in enrollment against the previous year.
type YearGrowth struct {
	Year    int     `json:"year"`
	Percent float64 `json:"percent"`
}

type MajorStats struct {
	Major      string  `json:"major"`
	Count      int     `json:"count"`
	AverageGPA float64 `json:"averageGpa"`

	gpaTotal float64
}

// Result holds every statistic derived from one set of snapshots.
type Result struct {
	TotalStudents int `json:"totalStudents"`
	TotalSubjects int `json:"totalSubjects"`
	TotalGrades   int `json:"totalGrades"`

	MaleCount   int `json:"maleCount"`
	FemaleCount int `json:"femaleCount"`

	StudentGPAs     []StudentGPAInfo `json:"studentGpas"`
	AverageGPA      float64          `json:"averageGpa"`
	GPADistribution []GPABin         `json:"gpaDistribution"`
	TopPerformers   int              `json:"topPerformers"`

	HasGrades     bool `json:"hasGrades"`
	HighestGrade  int  `json:"highestGrade"`
	LowestGrade   int  `json:"lowestGrade"`
	GradesAbove90 int  `json:"gradesAbove90"`

	Age AgeStats `json:"age"`

	Enrollment []YearEnrollment `json:"enrollment"`
	Growth     []YearGrowth     `json:"growth"`

	// Majors keeps first-seen order; ties below are resolved by it.
	Majors              []MajorStats `json:"majors"`
	BestPerformingMajor string       `json:"bestPerformingMajor"`
	MostPopularMajor    string       `json:"mostPopularMajor"`
	FastestGrowingMajor string       `json:"fastestGrowingMajor"`
}

// majorAccumulator groups per-major figures in first-seen order.
type majorAccumulator struct {
	index map[string]int
	stats []MajorStats
}

func newMajorAccumulator() *majorAccumulator {
	return &majorAccumulator{index: make(map[string]int)}
}

func (a *majorAccumulator) add(major string, gpa float64) {
	i, ok := a.index[major]
	if !ok {
		i = len(a.stats)
		a.index[major] = i
		a.stats = append(a.stats, MajorStats{Major: major})
	}
	a.stats[i].Count++
	a.stats[i].gpaTotal += gpa
}

func (a *majorAccumulator) finish() []MajorStats {
	for i := range a.stats {
		a.stats[i].AverageGPA = round2(a.stats[i].gpaTotal / float64(a.stats[i].Count))
	}
	return a.stats
}

// Aggregate computes the report statistics. It returns an error wrapping
// model.ErrMalformedEnrollment if a student's enrollment date cannot be parsed.
func Aggregate(students []model.Student, grades []model.GradeRecord, subjects []model.Subject) (*Result, error) {
	res := &Result{
		TotalStudents:   len(students),
		TotalSubjects:   len(subjects),
		TotalGrades:     len(grades),
		GPADistribution: make([]GPABin, len(gpaBinLabels)),
	}
	for i, label := range gpaBinLabels {
		res.GPADistribution[i].Label = label
	}

	byStudent := make(map[uint][]model.GradeRecord, len(students))
	for i, g := range grades {
		byStudent[g.StudentID] = append(byStudent[g.StudentID], g)
		if i == 0 || g.Grade > res.HighestGrade {
			res.HighestGrade = g.Grade
		}
		if i == 0 || g.Grade < res.LowestGrade {
			res.LowestGrade = g.Grade
		}
		if g.Grade >= 90 {
			res.GradesAbove90++
		}
	}
	res.HasGrades = len(grades) > 0

	majors := newMajorAccumulator()
	years := make(map[int]*YearEnrollment)
	yearMajors := make(map[int]map[string]int)
	var gpaTotal float64
	var ageTotal int

	for i, s := range students {
		switch s.Gender {
		case model.GenderMale:
			res.MaleCount++
		case model.GenderFemale:
			res.FemaleCount++
		}

		gpa := StudentGPA(byStudent[s.ID])
		res.StudentGPAs = append(res.StudentGPAs, StudentGPAInfo{
			StudentID:         s.ID,
			GradePointAverage: gpa.GradePointAverage,
			Letter:            gpa.Letter,
			Major:             s.Major,
		})
		gpaTotal += gpa.GradePointAverage
		res.GPADistribution[gpaBin(gpa.GradePointAverage)].Count++
		if gpa.GradePointAverage >= TopPerformerGPA {
			res.TopPerformers++
		}
		majors.add(s.Major, gpa.GradePointAverage)

		if i == 0 || s.Age < res.Age.Min {
			res.Age.Min = s.Age
		}
		if i == 0 || s.Age > res.Age.Max {
			res.Age.Max = s.Age
		}
		ageTotal += s.Age

		year, semester, err := model.ParseEnrollment(s.EnrollmentDate)
		if err != nil {
			return nil, fmt.Errorf("student %d: %w", s.ID, err)
		}
		ye, ok := years[year]
		if !ok {
			ye = &YearEnrollment{Year: year}
			years[year] = ye
			yearMajors[year] = make(map[string]int)
		}
		ye.Total++
		if semester == model.SemesterSpring {
			ye.Spring++
		} else {
			ye.Fall++
		}
		yearMajors[year][s.Major]++
	}

	if n := len(students); n > 0 {
		res.AverageGPA = round2(gpaTotal / float64(n))
		res.Age.Mean = int(math.Round(float64(ageTotal) / float64(n)))
		res.Age.Known = true
	}

	res.Majors = majors.finish()
	res.Enrollment = sortedYears(years)
	res.Growth = yearOverYear(res.Enrollment)

	res.BestPerformingMajor = bestMajor(res.Majors, func(m MajorStats) float64 { return m.AverageGPA })
	res.MostPopularMajor = bestMajor(res.Majors, func(m MajorStats) float64 { return float64(m.Count) })
	if len(res.Enrollment) > 0 {
		latest := yearMajors[res.Enrollment[len(res.Enrollment)-1].Year]
		res.FastestGrowingMajor = bestMajor(res.Majors, func(m MajorStats) float64 { return float64(latest[m.Major]) })
	}
	return res, nil
}

func gpaBin(gpa float64) int {
	for i, floor := range gpaBinFloors {
		if gpa >= floor {
			return i
		}
	}
	return len(gpaBinFloors)
}

func sortedYears(years map[int]*YearEnrollment) []YearEnrollment {
	out := make([]YearEnrollment, 0, len(years))
	for _, ye := range years {
		out = append(out, *ye)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// yearOverYear has one entry per year after the first.
func yearOverYear(years []YearEnrollment) []YearGrowth {
	if len(years) < 2 {
		return nil
	}
	out := make([]YearGrowth, 0, len(years)-1)
	for i := 1; i < len(years); i++ {
		prev, cur := years[i-1].Total, years[i].Total
		out = append(out, YearGrowth{
			Year:    years[i].Year,
			Percent: round2(float64(cur-prev) / float64(prev) * 100),
		})
	}
	return out
}

// bestMajor returns the major with the highest score; the earliest seen wins ties.
func bestMajor(majors []MajorStats, score func(MajorStats) float64) string {
	best, bestScore := "", math.Inf(-1)
	for _, m := range majors {
		if s := score(m); s > bestScore {
			best, bestScore = m.Major, s
		}
	}
	return best
}
