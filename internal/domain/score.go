package domain

type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeBPlus Grade = "B+"
	GradeB     Grade = "B"
	GradeCPlus Grade = "C+"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
	GradeF     Grade = "F"
)

// GradeForScore maps a final score onto the fixed grade bands.
func GradeForScore(score float64) Grade {
	switch {
	case score >= 95:
		return GradeAPlus
	case score >= 90:
		return GradeA
	case score >= 85:
		return GradeBPlus
	case score >= 80:
		return GradeB
	case score >= 75:
		return GradeCPlus
	case score >= 70:
		return GradeC
	case score >= 60:
		return GradeD
	default:
		return GradeF
	}
}

// HighRisk reports whether a grade warrants an immediate-review
// recommendation.
func (g Grade) HighRisk() bool {
	return g == GradeD || g == GradeF
}

type DimensionCoverage struct {
	Dimension ChaosDimension `json:"dimension"`
	Executed  int            `json:"executed"`
	Passed    int            `json:"passed"`
}

func (c DimensionCoverage) PassRate() float64 {
	if c.Executed == 0 {
		return 0
	}
	return float64(c.Passed) / float64(c.Executed) * 100
}

type VerificationScore struct {
	BaseScore       float64             `json:"base_score"`
	CCIScore        float64             `json:"cci_score"`
	SafetyScore     float64             `json:"safety_score"`
	FinalScore      float64             `json:"final_score"`
	Grade           Grade               `json:"grade"`
	Coverage        []DimensionCoverage `json:"coverage"`
	TotalTests      int                 `json:"total_tests"`
	EdgeCaseCount   int                 `json:"edge_case_count"`
	TotalViolations int                 `json:"total_violations"`
}
