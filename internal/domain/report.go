package domain

import "time"

// ReportValidityDays is how long a report stays current after generation.
const ReportValidityDays = 90

type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityInfo     Severity = "INFO"
)

// LegalDisclaimerStatements are fixed. They must be present, unmodified,
// and rendered first in any output.
var LegalDisclaimerStatements = []string{
	"This report does not constitute a certification of the target API.",
	"Verification results do not guarantee the absence of security vulnerabilities.",
	"This report makes no claim of compliance with any regulatory framework or industry standard.",
	"Liability for decisions made on the basis of this report rests solely with the recipient.",
	"Findings are limited to the endpoints, parameters, and conditions exercised during the verification run.",
}

type LegalDisclaimer struct {
	Statements []string `json:"statements"`
}

func NewLegalDisclaimer() LegalDisclaimer {
	statements := make([]string, len(LegalDisclaimerStatements))
	copy(statements, LegalDisclaimerStatements)
	return LegalDisclaimer{Statements: statements}
}

type Finding struct {
	Severity    Severity `json:"severity"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
}

type Recommendation struct {
	Priority Severity `json:"priority"`
	Text     string   `json:"text"`
}

type VerificationSummary struct {
	Grade           Grade   `json:"grade"`
	FinalScore      float64 `json:"final_score"`
	TotalTests      int     `json:"total_tests"`
	PassedTests     int     `json:"passed_tests"`
	FailedTests     int     `json:"failed_tests"`
	BlockedTests    int     `json:"blocked_tests"`
	SafetyCompliant bool    `json:"safety_compliant"`
	TotalViolations int     `json:"total_violations"`
}

type VerificationReport struct {
	ReportID        string              `json:"report_id"`
	TenantID        string              `json:"tenant_id"`
	Disclaimer      LegalDisclaimer     `json:"disclaimer"`
	Summary         VerificationSummary `json:"summary"`
	Score           VerificationScore   `json:"score"`
	Coverage        []DimensionCoverage `json:"coverage"`
	Findings        []Finding           `json:"findings"`
	Recommendations []Recommendation    `json:"recommendations"`
	GeneratedAt     time.Time           `json:"generated_at"`
	ExpiresAt       time.Time           `json:"expires_at"`
}

// Expired reports must be flagged by callers, never silently treated as
// current.
func (r VerificationReport) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
