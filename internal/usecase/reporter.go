package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"chainverify/internal/domain"

	"github.com/google/uuid"
)

// forbiddenTerms is the fixed certification-language blocklist. Longer
// phrases are matched before their substrings so reported matches are as
// specific as possible.
var forbiddenTerms = []string{
	"security certified",
	"certification",
	"certified",
	"compliant with",
	"meets requirements",
	"guaranteed",
	"guarantee",
	"warranty",
	"warrant",
	"secure",
	"pci compliant",
	"hipaa compliant",
	"soc 2 compliant",
	"gdpr compliant",
	"iso 27001 compliant",
}

// Reporter turns a score and batch into a legally-bounded report. The
// disclaimer is fixed and always rendered first; freeform text passes
// the forbidden-language gate before a report leaves the system.
type Reporter struct {
	mu      sync.RWMutex
	reports map[string]domain.VerificationReport

	Repo  ReportRepository
	Audit *AuditEmitter
	Clock Clock
}

func NewReporter() *Reporter {
	return &Reporter{
		reports: make(map[string]domain.VerificationReport),
		Clock:   time.Now,
	}
}

func (r *Reporter) GenerateReport(ctx context.Context, tenant domain.TenantContext, score domain.VerificationScore, batch Scorable) (*domain.VerificationReport, error) {
	now := r.now().UTC()

	findings := deriveFindings(score, batch)
	recommendations := deriveRecommendations(score)

	for _, f := range findings {
		if matches := ValidateLanguage(f.Title + " " + f.Description); len(matches) > 0 {
			return nil, fmt.Errorf("%w: %s", domain.ErrForbiddenLanguage, strings.Join(matches, ", "))
		}
	}
	for _, rec := range recommendations {
		if matches := ValidateLanguage(rec.Text); len(matches) > 0 {
			return nil, fmt.Errorf("%w: %s", domain.ErrForbiddenLanguage, strings.Join(matches, ", "))
		}
	}

	report := &domain.VerificationReport{
		ReportID:   uuid.NewString(),
		TenantID:   tenant.ID,
		Disclaimer: domain.NewLegalDisclaimer(),
		Summary: domain.VerificationSummary{
			Grade:           score.Grade,
			FinalScore:      score.FinalScore,
			TotalTests:      batch.TotalCount(),
			PassedTests:     batch.PassedCount(),
			FailedTests:     batch.FailedCount(),
			BlockedTests:    batch.BlockedCount(),
			SafetyCompliant: batch.TotalViolations() == 0,
			TotalViolations: batch.TotalViolations(),
		},
		Score:           score,
		Coverage:        score.Coverage,
		Findings:        findings,
		Recommendations: recommendations,
		GeneratedAt:     now,
		ExpiresAt:       now.AddDate(0, 0, domain.ReportValidityDays),
	}

	r.mu.Lock()
	if r.reports == nil {
		r.reports = make(map[string]domain.VerificationReport)
	}
	r.reports[report.ReportID] = *report
	r.mu.Unlock()

	if r.Repo != nil {
		if err := r.Repo.Create(ctx, *report); err != nil {
			return nil, fmt.Errorf("persist report: %w", err)
		}
	}
	if r.Audit != nil {
		_ = r.Audit.EmitReportGenerated(ctx, tenant.ID, report.ReportID, string(score.Grade))
	}
	return report, nil
}

// GetReport looks up a report by id, preferring the in-process catalog
// and falling back to the repository.
func (r *Reporter) GetReport(ctx context.Context, reportID string) (*domain.VerificationReport, error) {
	r.mu.RLock()
	report, ok := r.reports[reportID]
	r.mu.RUnlock()
	if ok {
		copied := report
		return &copied, nil
	}
	if r.Repo != nil {
		return r.Repo.GetByID(ctx, reportID)
	}
	return nil, domain.ErrNotFound
}

// ValidateLanguage scans freeform report text for forbidden
// certification language and returns every matched term.
func ValidateLanguage(text string) []string {
	lowered := strings.ToLower(text)
	var matches []string
	for _, term := range forbiddenTerms {
		if strings.Contains(lowered, term) {
			matches = append(matches, term)
			// Strip the match so "certification" does not also report
			// "certified"-style substrings from the same span.
			lowered = strings.ReplaceAll(lowered, term, "")
		}
	}
	sort.Strings(matches)
	return matches
}

func deriveFindings(score domain.VerificationScore, batch Scorable) []domain.Finding {
	var findings []domain.Finding

	if score.BaseScore < 80 {
		findings = append(findings, domain.Finding{
			Severity:    domain.SeverityHigh,
			Title:       "Low adversarial pass rate",
			Description: fmt.Sprintf("Only %.1f%% of adversarial tests were handled gracefully.", score.BaseScore),
		})
	}
	if batch.TotalViolations() > 0 {
		findings = append(findings, domain.Finding{
			Severity:    domain.SeverityMedium,
			Title:       "Safety boundary violations recorded",
			Description: fmt.Sprintf("%d operations were blocked or flagged by the safety boundary.", batch.TotalViolations()),
		})
	}
	if score.CCIScore < 50 {
		findings = append(findings, domain.Finding{
			Severity:    domain.SeverityMedium,
			Title:       "Low chaos coverage",
			Description: fmt.Sprintf("Chaos coverage index is %.1f; resilience under adverse conditions is largely unexercised.", score.CCIScore),
		})
	}
	for _, c := range score.Coverage {
		if c.Executed == 0 {
			findings = append(findings, domain.Finding{
				Severity:    domain.SeverityLow,
				Title:       fmt.Sprintf("No %s chaos tests executed", c.Dimension),
				Description: fmt.Sprintf("The %s dimension was not exercised in this run.", c.Dimension),
			})
		}
	}
	if len(findings) == 0 {
		findings = append(findings, domain.Finding{
			Severity:    domain.SeverityInfo,
			Title:       "No critical issues observed",
			Description: "All executed adversarial tests were handled within expected bounds.",
		})
	}
	return findings
}

func deriveRecommendations(score domain.VerificationScore) []domain.Recommendation {
	var recs []domain.Recommendation
	if score.Grade.HighRisk() {
		recs = append(recs, domain.Recommendation{
			Priority: domain.SeverityCritical,
			Text:     "Schedule an immediate review of the API's input handling and error paths.",
		})
	}
	if score.CCIScore < 70 {
		recs = append(recs, domain.Recommendation{
			Priority: domain.SeverityHigh,
			Text:     "Expand chaos testing across the uncovered dimensions.",
		})
	}
	if score.SafetyScore < 90 {
		recs = append(recs, domain.Recommendation{
			Priority: domain.SeverityMedium,
			Text:     "Review input validation around the endpoints that triggered safety blocks.",
		})
	}
	recs = append(recs, domain.Recommendation{
		Priority: domain.SeverityLow,
		Text:     "Schedule regular verification runs to track resilience over time.",
	})
	return recs
}

func (r *Reporter) now() time.Time {
	if r.Clock != nil {
		return r.Clock()
	}
	return time.Now()
}
