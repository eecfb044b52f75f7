package usecase

import (
	"fmt"
	"strings"

	"chainverify/internal/domain"
)

// RenderMarkdown writes the report in its human-readable form. Section
// order is fixed; the disclaimer always comes first.
func RenderMarkdown(report domain.VerificationReport) string {
	var b strings.Builder

	b.WriteString("# API Verification Report\n\n")
	fmt.Fprintf(&b, "Report ID: `%s`  \n", report.ReportID)
	fmt.Fprintf(&b, "Generated: %s  \n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "Valid until: %s\n\n", report.ExpiresAt.Format("2006-01-02"))

	b.WriteString("## Legal Disclaimer\n\n")
	for _, s := range report.Disclaimer.Statements {
		fmt.Fprintf(&b, "> %s\n", s)
	}
	b.WriteString("\n")

	b.WriteString("## Executive Summary\n\n")
	fmt.Fprintf(&b, "**Grade: %s** (%.1f/100)\n\n", report.Summary.Grade, report.Summary.FinalScore)
	fmt.Fprintf(&b, "%d tests executed: %d passed, %d failed, %d blocked.\n",
		report.Summary.TotalTests, report.Summary.PassedTests,
		report.Summary.FailedTests, report.Summary.BlockedTests)
	if report.Summary.SafetyCompliant {
		b.WriteString("No safety boundary violations were recorded.\n\n")
	} else {
		fmt.Fprintf(&b, "%d safety boundary violations were recorded.\n\n", report.Summary.TotalViolations)
	}

	b.WriteString("## Score Breakdown\n\n")
	b.WriteString("| Component | Weight | Score |\n")
	b.WriteString("|---|---|---|\n")
	fmt.Fprintf(&b, "| Base pass rate | 40%% | %.1f |\n", report.Score.BaseScore)
	fmt.Fprintf(&b, "| Chaos coverage index | 35%% | %.1f |\n", report.Score.CCIScore)
	fmt.Fprintf(&b, "| Safety compliance | 25%% | %.1f |\n", report.Score.SafetyScore)
	fmt.Fprintf(&b, "| **Final** | | **%.1f (%s)** |\n\n", report.Score.FinalScore, report.Score.Grade)

	b.WriteString("## Chaos Dimension Coverage\n\n")
	b.WriteString("| Dimension | Executed | Passed | Pass Rate |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, c := range report.Coverage {
		fmt.Fprintf(&b, "| %s | %d | %d | %.1f%% |\n", c.Dimension, c.Executed, c.Passed, c.PassRate())
	}
	b.WriteString("\n")

	b.WriteString("## Findings\n\n")
	for i, f := range report.Findings {
		fmt.Fprintf(&b, "%d. **[%s] %s** — %s\n", i+1, f.Severity, f.Title, f.Description)
	}
	b.WriteString("\n")

	b.WriteString("## Recommendations\n\n")
	for _, r := range report.Recommendations {
		fmt.Fprintf(&b, "- **[%s]** %s\n", r.Priority, r.Text)
	}

	return b.String()
}
