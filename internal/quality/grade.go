package quality

// gradeThresholds maps minimum scores to letter grades, highest first.
var gradeThresholds = []struct {
	min   float64
	grade string
}{
	{97, "A+"},
	{93, "A"},
	{90, "A-"},
	{87, "B+"},
	{83, "B"},
	{80, "B-"},
	{77, "C+"},
	{73, "C"},
	{70, "C-"},
	{67, "D+"},
	{63, "D"},
	{60, "D-"},
}

// Grades lists every grade from best to worst.
var Grades = []string{"A+", "A", "A-", "B+", "B", "B-", "C+", "C", "C-", "D+", "D", "D-", "F"}

// Grade maps a 0-100 score to a letter grade.
func Grade(score float64) string {
	for _, t := range gradeThresholds {
		if score >= t.min {
			return t.grade
		}
	}
	return "F"
}

// GradeRank returns the position of grade in Grades; lower is better. Unknown grades rank last.
func GradeRank(grade string) int {
	for i, g := range Grades {
		if g == grade {
			return i
		}
	}
	return len(Grades)
}
