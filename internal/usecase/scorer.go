package usecase

import (
	"chainverify/internal/domain"
)

// Score weights for the composite verification score.
const (
	weightBase   = 0.40
	weightCCI    = 0.35
	weightSafety = 0.25

	edgeCaseBonusPer = 0.5
	edgeCaseBonusCap = 5.0
	violationPenalty = 10.0
	violationCap     = 50.0
)

// Scorer folds an execution batch and its generating suite into a
// weighted composite score with per-dimension chaos coverage.
type Scorer struct{}

func NewScorer() *Scorer {
	return &Scorer{}
}

func (s *Scorer) ComputeScore(batch Scorable, suite domain.FuzzSuite) domain.VerificationScore {
	total := batch.TotalCount()
	passed := batch.PassedCount()
	blocked := batch.BlockedCount()
	violations := batch.TotalViolations()

	base := 0.0
	if total > 0 {
		base = float64(passed) / float64(total) * 100
	}

	coverage := dimensionCoverage(batch, suite)
	cci := chaosCoverageIndex(coverage)

	safety := 100.0
	if total > 0 {
		safety = float64(total-blocked) / float64(total) * 100
	}

	edgeCases := countEdgeCases(batch)

	final := weightBase*base + weightCCI*cci + weightSafety*safety
	final += minFloat(float64(edgeCases)*edgeCaseBonusPer, edgeCaseBonusCap)
	final -= minFloat(float64(violations)*violationPenalty, violationCap)
	final = clamp(final, 0, 100)

	return domain.VerificationScore{
		BaseScore:       base,
		CCIScore:        cci,
		SafetyScore:     safety,
		FinalScore:      final,
		Grade:           domain.GradeForScore(final),
		Coverage:        coverage,
		TotalTests:      total,
		EdgeCaseCount:   edgeCases,
		TotalViolations: violations,
	}
}

// dimensionCoverage matches suite test cases to batch results by test id
// and tallies executed/passed per chaos dimension.
func dimensionCoverage(batch Scorable, suite domain.FuzzSuite) []domain.DimensionCoverage {
	dimsByTest := make(map[string][]domain.ChaosDimension, len(suite.TestCases))
	for _, tc := range suite.TestCases {
		if len(tc.ChaosDimensions) > 0 {
			dimsByTest[tc.TestID] = tc.ChaosDimensions
		}
	}

	tally := map[domain.ChaosDimension]*domain.DimensionCoverage{}
	for _, dim := range domain.AllChaosDimensions {
		tally[dim] = &domain.DimensionCoverage{Dimension: dim}
	}

	for _, result := range batch.Iterate() {
		for _, dim := range dimsByTest[result.TestID] {
			entry, ok := tally[dim]
			if !ok {
				continue
			}
			entry.Executed++
			if result.Passed {
				entry.Passed++
			}
		}
	}

	coverage := make([]domain.DimensionCoverage, 0, len(domain.AllChaosDimensions))
	for _, dim := range domain.AllChaosDimensions {
		coverage = append(coverage, *tally[dim])
	}
	return coverage
}

// chaosCoverageIndex is the mean of breadth (dimensions touched) and
// depth (mean per-dimension pass rate).
func chaosCoverageIndex(coverage []domain.DimensionCoverage) float64 {
	if len(coverage) == 0 {
		return 0
	}
	touched := 0
	depthSum := 0.0
	for _, c := range coverage {
		if c.Executed > 0 {
			touched++
		}
		depthSum += c.PassRate()
	}
	breadth := float64(touched) / float64(len(coverage)) * 100
	depth := depthSum / float64(len(coverage))
	return (breadth + depth) / 2
}

// countEdgeCases counts proper validation rejections (400/422) and
// adversarial inputs handled correctly (200 and passed).
func countEdgeCases(batch Scorable) int {
	n := 0
	for _, result := range batch.Iterate() {
		if result.StatusCode == nil {
			continue
		}
		status := *result.StatusCode
		if status == 400 || status == 422 {
			n++
		} else if status == 200 && result.Passed {
			n++
		}
	}
	return n
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
