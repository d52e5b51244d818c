package report_test

import (
	"errors"
	"fmt"
	"testing"

	"gradebook/internal/model"
	"gradebook/internal/report"

	. "github.com/smartystreets/goconvey/convey"
)

func student(id uint, major, enrolled, gender string, age int) model.Student {
	return model.Student{
		ID:             id,
		FirstName:      fmt.Sprintf("First%d", id),
		LastName:       fmt.Sprintf("Last%d", id),
		Email:          fmt.Sprintf("s%d@example.com", id),
		Major:          major,
		EnrollmentDate: enrolled,
		Gender:         gender,
		Age:            age,
	}
}

func grade(studentID uint, value int) model.GradeRecord {
	return model.GradeRecord{StudentID: studentID, SubjectID: 1, Grade: value, Semester: "2023 Fall"}
}

// fixture: six students over three majors and two enrollment years.
//
//	1 CS      2022 Fall    Female 20  95, 85   -> 3.50
//	2 Math    2022 Spring  Male   22  90, 100  -> 3.85
//	3 CS      2023 Fall    Male   19  70       -> 1.70
//	4 Math    2023 Fall    Other  25  100, 90  -> 3.85
//	5 Physics 2023 Spring  Male   21  100, 100 -> 4.00
//	6 Physics 2023 Fall    Female 18  -        -> 0 (N/A)
func fixture() ([]model.Student, []model.GradeRecord, []model.Subject) {
	students := []model.Student{
		student(1, "CS", "2022 Fall", "Female", 20),
		student(2, "Math", "2022 Spring", "Male", 22),
		student(3, "CS", "2023 Fall", "Male", 19),
		student(4, "Math", "2023 Fall", "Other", 25),
		student(5, "Physics", "2023 Spring", "Male", 21),
		student(6, "Physics", "2023 Fall", "Female", 18),
	}
	records := []model.GradeRecord{
		grade(1, 95), grade(1, 85),
		grade(2, 90), grade(2, 100),
		grade(3, 70),
		grade(4, 100), grade(4, 90),
		grade(5, 100), grade(5, 100),
	}
	subjects := []model.Subject{{ID: 1, Name: "Algorithms", Code: "CS201"}, {ID: 2, Name: "Calculus", Code: "MA101"}}
	return students, records, subjects
}

func binCounts(r *report.Result) []int {
	out := make([]int, len(r.GPADistribution))
	for i, b := range r.GPADistribution {
		out[i] = b.Count
	}
	return out
}

func TestAggregate(t *testing.T) {
	Convey("Given the six-student fixture", t, func() {
		r, err := report.Aggregate(fixture())
		So(err, ShouldBeNil)

		Convey("Totals and gender counts exclude unrecognized genders", func() {
			So(r.TotalStudents, ShouldEqual, 6)
			So(r.TotalSubjects, ShouldEqual, 2)
			So(r.TotalGrades, ShouldEqual, 9)
			So(r.MaleCount, ShouldEqual, 3)
			So(r.FemaleCount, ShouldEqual, 2)
		})

		Convey("Per-student GPAs follow the student order", func() {
			So(r.StudentGPAs, ShouldHaveLength, 6)
			So(r.StudentGPAs[0], ShouldResemble, report.StudentGPAInfo{StudentID: 1, GradePointAverage: 3.5, Letter: "B+", Major: "CS"})
			So(r.StudentGPAs[1].GradePointAverage, ShouldEqual, 3.85)
			So(r.StudentGPAs[5], ShouldResemble, report.StudentGPAInfo{StudentID: 6, GradePointAverage: 0, Letter: "N/A", Major: "Physics"})
		})

		Convey("The overall average includes students without grades", func() {
			So(r.AverageGPA, ShouldEqual, 2.82)
		})

		Convey("The histogram has eight bins summing to the student count", func() {
			So(binCounts(r), ShouldResemble, []int{1, 2, 1, 0, 0, 0, 0, 2})
			So(r.GPADistribution[0].Label, ShouldEqual, "4.0")
			So(r.GPADistribution[7].Label, ShouldEqual, "Below 2.0")
			So(r.TopPerformers, ShouldEqual, 3)
		})

		Convey("Grade extremes are computed over all records", func() {
			So(r.HasGrades, ShouldBeTrue)
			So(r.HighestGrade, ShouldEqual, 100)
			So(r.LowestGrade, ShouldEqual, 70)
			So(r.GradesAbove90, ShouldEqual, 7)
		})

		Convey("Ages are summarized", func() {
			So(r.Age, ShouldResemble, report.AgeStats{Min: 18, Max: 25, Mean: 21, Known: true})
		})

		Convey("Enrollment is grouped by year and semester", func() {
			So(r.Enrollment, ShouldResemble, []report.YearEnrollment{
				{Year: 2022, Total: 2, Spring: 1, Fall: 1},
				{Year: 2023, Total: 4, Spring: 1, Fall: 3},
			})
			So(r.Growth, ShouldResemble, []report.YearGrowth{{Year: 2023, Percent: 100}})
		})

		Convey("Majors keep first-seen order", func() {
			So(r.Majors, ShouldHaveLength, 3)
			So(r.Majors[0].Major, ShouldEqual, "CS")
			So(r.Majors[0].Count, ShouldEqual, 2)
			So(r.Majors[0].AverageGPA, ShouldEqual, 2.6)
			So(r.Majors[1].Major, ShouldEqual, "Math")
			So(r.Majors[1].AverageGPA, ShouldEqual, 3.85)
			So(r.Majors[2].Major, ShouldEqual, "Physics")
			So(r.Majors[2].AverageGPA, ShouldEqual, 2.0)
		})

		Convey("Major rankings resolve ties by scan order", func() {
			So(r.BestPerformingMajor, ShouldEqual, "Math")
			So(r.MostPopularMajor, ShouldEqual, "CS")
			So(r.FastestGrowingMajor, ShouldEqual, "Physics")
		})
	})

	Convey("Given no records at all", t, func() {
		r, err := report.Aggregate(nil, nil, nil)
		So(err, ShouldBeNil)

		Convey("Everything is zero or absent", func() {
			So(r.TotalStudents, ShouldEqual, 0)
			So(r.AverageGPA, ShouldEqual, 0)
			So(r.Age.Known, ShouldBeFalse)
			So(r.HasGrades, ShouldBeFalse)
			So(r.Enrollment, ShouldBeEmpty)
			So(r.Growth, ShouldBeEmpty)
			So(r.Majors, ShouldBeEmpty)
			So(r.BestPerformingMajor, ShouldEqual, "")
			So(r.FastestGrowingMajor, ShouldEqual, "")
			So(binCounts(r), ShouldResemble, []int{0, 0, 0, 0, 0, 0, 0, 0})
		})
	})

	Convey("Given a student with a malformed enrollment date", t, func() {
		students := []model.Student{
			student(1, "CS", "2022 Fall", "Male", 20),
			student(2, "CS", "2023Fall", "Male", 20),
		}

		_, err := report.Aggregate(students, nil, nil)

		Convey("Aggregation fails with a malformed enrollment error naming the student", func() {
			So(errors.Is(err, model.ErrMalformedEnrollment), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "student 2")
		})
	})

	Convey("Given two majors with the same mean GPA", t, func() {
		students := []model.Student{
			student(1, "History", "2021 Fall", "Male", 20),
			student(2, "Art", "2021 Fall", "Female", 20),
			student(3, "Art", "2021 Spring", "Female", 20),
		}
		records := []model.GradeRecord{grade(1, 95), grade(2, 95), grade(3, 95)}

		r, err := report.Aggregate(students, records, nil)
		So(err, ShouldBeNil)

		Convey("The first major seen is the best performer", func() {
			So(r.BestPerformingMajor, ShouldEqual, "History")
			So(r.MostPopularMajor, ShouldEqual, "Art")
		})
	})

	Convey("Given enrollments over several years", t, func() {
		var students []model.Student
		id := uint(1)
		for year, n := range map[int]int{2019: 4, 2020: 2, 2021: 3, 2022: 3} {
			for i := 0; i < n; i++ {
				students = append(students, student(id, "CS", fmt.Sprintf("%d Spring", year), "Male", 20))
				id++
			}
		}

		r, err := report.Aggregate(students, nil, nil)
		So(err, ShouldBeNil)

		Convey("Growth has one entry per year after the first", func() {
			So(r.Growth, ShouldResemble, []report.YearGrowth{
				{Year: 2020, Percent: -50},
				{Year: 2021, Percent: 50},
				{Year: 2022, Percent: 0},
			})
			So(len(r.Growth), ShouldEqual, len(r.Enrollment)-1)
		})

		Convey("Students without grades land in the lowest bin", func() {
			So(r.GPADistribution[7].Count, ShouldEqual, len(students))
		})
	})

	Convey("Given generated rosters", t, func() {
		Convey("Histogram counts always sum to the number of students", func() {
			for n := 0; n < 40; n++ {
				var students []model.Student
				var records []model.GradeRecord
				for i := 0; i < n; i++ {
					sid := uint(i + 1)
					students = append(students, student(sid, fmt.Sprintf("M%d", i%4), fmt.Sprintf("%d Fall", 2018+i%5), "Male", 18+i%7))
					for k := 0; k < i%4; k++ {
						records = append(records, grade(sid, (i*37+k*11)%101))
					}
				}
				r, err := report.Aggregate(students, records, nil)
				So(err, ShouldBeNil)
				sum := 0
				for _, c := range binCounts(r) {
					sum += c
				}
				So(sum, ShouldEqual, n)
			}
		})
	})
}
