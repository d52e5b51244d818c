package report_test

import (
	"testing"

	"gradebook/internal/model"
	"gradebook/internal/report"

	. "github.com/smartystreets/goconvey/convey"
)

func grades(values ...int) []model.GradeRecord {
	out := make([]model.GradeRecord, len(values))
	for i, v := range values {
		out[i] = model.GradeRecord{StudentID: 1, SubjectID: uint(i + 1), Grade: v}
	}
	return out
}

func TestGradeInfo(t *testing.T) {
	Convey("Given the grade conversion table", t, func() {
		Convey("Every grade from 93 to 100 is a 4.0 A", func() {
			for g := 93; g <= 100; g++ {
				So(report.GradeInfo(g), ShouldResemble, report.GradePoint{Point: 4.0, Letter: "A"})
			}
		})

		Convey("Every grade from 0 to 59 is a 0.0 F", func() {
			for g := 0; g <= 59; g++ {
				So(report.GradeInfo(g), ShouldResemble, report.GradePoint{Point: 0.0, Letter: "F"})
			}
		})

		Convey("Range boundaries map to the expected entries", func() {
			cases := map[int]report.GradePoint{
				92: {Point: 3.7, Letter: "A-"},
				90: {Point: 3.7, Letter: "A-"},
				89: {Point: 3.3, Letter: "B+"},
				87: {Point: 3.3, Letter: "B+"},
				86: {Point: 3.0, Letter: "B"},
				83: {Point: 3.0, Letter: "B"},
				82: {Point: 2.7, Letter: "B-"},
				80: {Point: 2.7, Letter: "B-"},
				79: {Point: 2.3, Letter: "C+"},
				77: {Point: 2.3, Letter: "C+"},
				76: {Point: 2.0, Letter: "C"},
				73: {Point: 2.0, Letter: "C"},
				72: {Point: 1.7, Letter: "C-"},
				70: {Point: 1.7, Letter: "C-"},
				69: {Point: 1.3, Letter: "D+"},
				67: {Point: 1.3, Letter: "D+"},
				66: {Point: 1.0, Letter: "D"},
				63: {Point: 1.0, Letter: "D"},
				62: {Point: 0.7, Letter: "D-"},
				60: {Point: 0.7, Letter: "D-"},
			}
			for g, want := range cases {
				So(report.GradeInfo(g), ShouldResemble, want)
			}
		})

		Convey("The ranges leave no gaps between 0 and 100", func() {
			prev := report.GradeInfo(100).Point
			for g := 99; g >= 0; g-- {
				p := report.GradeInfo(g).Point
				So(p, ShouldBeLessThanOrEqualTo, prev)
				prev = p
			}
		})

		Convey("Out-of-table grades fall through to F", func() {
			So(report.GradeInfo(-1), ShouldResemble, report.GradePoint{Point: 0, Letter: "F"})
			So(report.GradeInfo(101), ShouldResemble, report.GradePoint{Point: 0, Letter: "F"})
		})
	})
}

func TestLetterForAverage(t *testing.T) {
	Convey("Given the descending threshold lookup", t, func() {
		So(report.LetterForAverage(4.0), ShouldEqual, "A")
		So(report.LetterForAverage(3.99), ShouldEqual, "A-")
		So(report.LetterForAverage(3.85), ShouldEqual, "A-")
		So(report.LetterForAverage(3.7), ShouldEqual, "A-")
		So(report.LetterForAverage(3.5), ShouldEqual, "B+")
		So(report.LetterForAverage(3.29), ShouldEqual, "B")
		So(report.LetterForAverage(0.69), ShouldEqual, "F")
		So(report.LetterForAverage(0), ShouldEqual, "F")
		So(report.LetterForAverage(-1), ShouldEqual, "F")
	})
}

func TestStudentGPA(t *testing.T) {
	Convey("Given a student's grade records", t, func() {
		Convey("No records yields the N/A sentinel", func() {
			So(report.StudentGPA(nil), ShouldResemble, report.GPAResult{GradePointAverage: 0, Letter: "N/A"})
			So(report.StudentGPA([]model.GradeRecord{}), ShouldResemble, report.GPAResult{GradePointAverage: 0, Letter: "N/A"})
		})

		Convey("90 and 100 average to 3.85, an A-", func() {
			So(report.StudentGPA(grades(90, 100)), ShouldResemble, report.GPAResult{GradePointAverage: 3.85, Letter: "A-"})
		})

		Convey("95 and 85 average to 3.50, a B+", func() {
			So(report.StudentGPA(grades(95, 85)), ShouldResemble, report.GPAResult{GradePointAverage: 3.5, Letter: "B+"})
		})

		Convey("All failing grades are a real 0.0 F", func() {
			So(report.StudentGPA(grades(10, 40)), ShouldResemble, report.GPAResult{GradePointAverage: 0, Letter: "F"})
		})

		Convey("Duplicate records all count", func() {
			So(report.StudentGPA(grades(100, 70, 70)), ShouldResemble, report.GPAResult{GradePointAverage: 2.47, Letter: "C+"})
		})
	})
}
