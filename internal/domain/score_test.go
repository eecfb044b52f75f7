package domain

import "testing"

func TestGradeForScore_Bands(t *testing.T) {
	cases := []struct {
		score float64
		want  Grade
	}{
		{100, GradeAPlus},
		{95, GradeAPlus},
		{94.9, GradeA},
		{90, GradeA},
		{89.9, GradeBPlus},
		{85, GradeBPlus},
		{80, GradeB},
		{79.9, GradeCPlus},
		{75, GradeCPlus},
		{70, GradeC},
		{69.9, GradeD},
		{60, GradeD},
		{59.9, GradeF},
		{0, GradeF},
	}
	for _, tc := range cases {
		if got := GradeForScore(tc.score); got != tc.want {
			t.Fatalf("GradeForScore(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestGrade_HighRisk(t *testing.T) {
	for _, g := range []Grade{GradeAPlus, GradeA, GradeBPlus, GradeB, GradeCPlus, GradeC} {
		if g.HighRisk() {
			t.Fatalf("%s should not be high risk", g)
		}
	}
	for _, g := range []Grade{GradeD, GradeF} {
		if !g.HighRisk() {
			t.Fatalf("%s should be high risk", g)
		}
	}
}

func TestDimensionCoverage_PassRate(t *testing.T) {
	if rate := (DimensionCoverage{}).PassRate(); rate != 0 {
		t.Fatalf("unexecuted dimension has rate 0, got %v", rate)
	}
	if rate := (DimensionCoverage{Executed: 4, Passed: 3}).PassRate(); rate != 75 {
		t.Fatalf("expected 75, got %v", rate)
	}
}
