package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Report types accepted by the summary endpoint.
const (
	TypeSummary     = "summary"
	TypeEnrollment  = "enrollment"
	TypePerformance = "performance"
	TypeCustom      = "custom"
)

// InvalidType is returned by Format for an unknown report type.
const InvalidType = "Invalid query type"

const notAvailable = "N/A"

// IsFixed reports whether t has a hard-coded layout.
func IsFixed(t string) bool {
	switch t {
	case TypeSummary, TypeEnrollment, TypePerformance:
		return true
	}
	return false
}

// Format renders r as the report of the given type.
func Format(reportType string, r *Result) string {
	switch reportType {
	case TypeSummary:
		return formatSummary(r)
	case TypeEnrollment:
		return formatEnrollment(r)
	case TypePerformance:
		return formatPerformance(r)
	default:
		return InvalidType
	}
}

func formatSummary(r *Result) string {
	var b strings.Builder

	b.WriteString("### Student Data Overview\n\n")
	fmt.Fprintf(&b, "**Total Students**: %d\n", r.TotalStudents)
	fmt.Fprintf(&b, "**Total Subjects**: %d\n", r.TotalSubjects)
	fmt.Fprintf(&b, "**Total Grade Records**: %d\n", r.TotalGrades)
	b.WriteString("**Gender Distribution**:\n")
	fmt.Fprintf(&b, "* Male Students: %d\n", r.MaleCount)
	fmt.Fprintf(&b, "* Female Students: %d\n", r.FemaleCount)

	b.WriteString("\n### Academic Performance\n\n")
	fmt.Fprintf(&b, "**Average GPA**: %.2f\n", r.AverageGPA)
	b.WriteString("**GPA Distribution**:\n")
	writeDistribution(&b, r.GPADistribution)

	b.WriteString("\n### Major Distribution\n\n")
	fmt.Fprintf(&b, "**Total Majors**: %d\n", len(r.Majors))
	fmt.Fprintf(&b, "**Most Popular Major**: %s\n", orNA(r.MostPopularMajor))
	b.WriteString("**Students per Major**:\n")
	for _, m := range byCount(r.Majors) {
		fmt.Fprintf(&b, "* %s: %d students\n", m.Major, m.Count)
	}

	b.WriteString("\n### Demographics\n\n")
	fmt.Fprintf(&b, "* Age Range: %s\n", ageRange(r.Age))
	if r.Age.Known {
		fmt.Fprintf(&b, "* Average Age: %d years", r.Age.Mean)
	} else {
		b.WriteString("* Average Age: " + notAvailable)
	}
	return b.String()
}

func formatEnrollment(r *Result) string {
	var b strings.Builder

	b.WriteString("### Enrollment Analysis\n\n")
	b.WriteString("**Current Enrollment Status**\n")
	fmt.Fprintf(&b, "* Total Active Students: %d\n", r.TotalStudents)
	if n := len(r.Enrollment); n > 0 {
		latest := r.Enrollment[n-1]
		fmt.Fprintf(&b, "* Latest Intake: %d (%d students)\n", latest.Year, latest.Total)
	}

	b.WriteString("\n**Enrollment by Year**\n")
	if len(r.Enrollment) == 0 {
		b.WriteString("* No enrollment data\n")
	}
	for _, y := range r.Enrollment {
		fmt.Fprintf(&b, "* %d: %d students (Spring: %d, Fall: %d)\n", y.Year, y.Total, y.Spring, y.Fall)
	}

	b.WriteString("\n**Year-over-Year Growth**\n")
	if len(r.Growth) == 0 {
		b.WriteString("* Not enough data\n")
	}
	for _, g := range r.Growth {
		fmt.Fprintf(&b, "* %d: %+.1f%%\n", g.Year, g.Percent)
	}

	b.WriteString("\n**Major Trends**\n")
	fmt.Fprintf(&b, "* Most Popular Major: %s\n", orNA(r.MostPopularMajor))
	fmt.Fprintf(&b, "* Fastest Growing Major: %s\n", orNA(r.FastestGrowingMajor))

	b.WriteString("\n**Demographics**\n")
	fmt.Fprintf(&b, "* Age Range: %s\n", ageRange(r.Age))
	fmt.Fprintf(&b, "* Gender Balance: %s", genderBalance(r))
	return b.String()
}

func formatPerformance(r *Result) string {
	var b strings.Builder

	b.WriteString("### Academic Performance Metrics\n\n")
	b.WriteString("**GPA Overview**\n")
	fmt.Fprintf(&b, "* Average GPA: %.2f\n", r.AverageGPA)
	if r.HasGrades {
		fmt.Fprintf(&b, "* Highest Grade: %d\n", r.HighestGrade)
		fmt.Fprintf(&b, "* Lowest Grade: %d\n", r.LowestGrade)
	} else {
		b.WriteString("* Highest Grade: " + notAvailable + "\n")
		b.WriteString("* Lowest Grade: " + notAvailable + "\n")
	}

	b.WriteString("\n**GPA Distribution**\n")
	writeDistribution(&b, r.GPADistribution)

	b.WriteString("\n**Performance by Major**\n")
	if len(r.Majors) == 0 {
		b.WriteString("* No majors recorded\n")
	}
	for _, m := range r.Majors {
		fmt.Fprintf(&b, "* %s: %.2f average GPA (%d students)\n", m.Major, m.AverageGPA, m.Count)
	}

	b.WriteString("\n**Top Performers**\n")
	fmt.Fprintf(&b, "* Students with GPA %.1f or Higher: %d\n", TopPerformerGPA, r.TopPerformers)
	fmt.Fprintf(&b, "* Grades of 90 or Above: %d\n", r.GradesAbove90)
	fmt.Fprintf(&b, "* Best Performing Major: %s", orNA(r.BestPerformingMajor))
	return b.String()
}

// ContextBlock renders the statistics handed to the text-generation backend.
func ContextBlock(r *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total students: %d\n", r.TotalStudents)
	fmt.Fprintf(&b, "Total subjects: %d\n", r.TotalSubjects)
	fmt.Fprintf(&b, "Total grade records: %d\n", r.TotalGrades)
	fmt.Fprintf(&b, "Gender: %d male, %d female\n", r.MaleCount, r.FemaleCount)
	fmt.Fprintf(&b, "Average GPA: %.2f\n", r.AverageGPA)

	bins := make([]string, 0, len(r.GPADistribution))
	for _, bin := range r.GPADistribution {
		bins = append(bins, fmt.Sprintf("%s=%d", bin.Label, bin.Count))
	}
	fmt.Fprintf(&b, "GPA distribution: %s\n", strings.Join(bins, ", "))

	if r.Age.Known {
		fmt.Fprintf(&b, "Age: min %d, max %d, average %d\n", r.Age.Min, r.Age.Max, r.Age.Mean)
	} else {
		b.WriteString("Age: " + notAvailable + "\n")
	}

	years := make([]string, 0, len(r.Enrollment))
	for _, y := range r.Enrollment {
		years = append(years, fmt.Sprintf("%d=%d (Spring %d, Fall %d)", y.Year, y.Total, y.Spring, y.Fall))
	}
	fmt.Fprintf(&b, "Enrollment by year: %s\n", joinOrNA(years))

	growth := make([]string, 0, len(r.Growth))
	for _, g := range r.Growth {
		growth = append(growth, fmt.Sprintf("%d=%+.1f%%", g.Year, g.Percent))
	}
	fmt.Fprintf(&b, "Year-over-year growth: %s\n", joinOrNA(growth))

	majors := make([]string, 0, len(r.Majors))
	for _, m := range r.Majors {
		majors = append(majors, fmt.Sprintf("%s=%d students (avg GPA %.2f)", m.Major, m.Count, m.AverageGPA))
	}
	fmt.Fprintf(&b, "Majors: %s\n", joinOrNA(majors))
	fmt.Fprintf(&b, "Most popular major: %s\n", orNA(r.MostPopularMajor))
	fmt.Fprintf(&b, "Best performing major: %s\n", orNA(r.BestPerformingMajor))
	fmt.Fprintf(&b, "Fastest growing major: %s", orNA(r.FastestGrowingMajor))
	return b.String()
}

func writeDistribution(b *strings.Builder, bins []GPABin) {
	for _, bin := range bins {
		fmt.Fprintf(b, "* %s: %d students\n", bin.Label, bin.Count)
	}
}

// byCount orders majors by descending count, keeping first-seen order on ties.
func byCount(majors []MajorStats) []MajorStats {
	out := append([]MajorStats(nil), majors...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

func ageRange(a AgeStats) string {
	if !a.Known {
		return notAvailable
	}
	return fmt.Sprintf("%d - %d years", a.Min, a.Max)
}

func genderBalance(r *Result) string {
	if r.TotalStudents == 0 {
		return notAvailable
	}
	pct := func(n int) int { return int(math.Round(float64(n) / float64(r.TotalStudents) * 100)) }
	return fmt.Sprintf("%d%% Male / %d%% Female", pct(r.MaleCount), pct(r.FemaleCount))
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

func joinOrNA(parts []string) string {
	if len(parts) == 0 {
		return notAvailable
	}
	return strings.Join(parts, "; ")
}
