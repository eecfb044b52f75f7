package domain

import (
	"reflect"
	"testing"
	"time"
)

func TestNewLegalDisclaimer_CopiesStatements(t *testing.T) {
	d := NewLegalDisclaimer()
	if !reflect.DeepEqual(d.Statements, LegalDisclaimerStatements) {
		t.Fatal("disclaimer must carry the fixed statements")
	}
	d.Statements[0] = "mutated"
	if LegalDisclaimerStatements[0] == "mutated" {
		t.Fatal("mutating a disclaimer must not touch the canonical statements")
	}
}

func TestReport_Expired(t *testing.T) {
	expiry := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	report := VerificationReport{ExpiresAt: expiry}

	if report.Expired(expiry.Add(-time.Hour)) {
		t.Fatal("report is current before expiry")
	}
	if report.Expired(expiry) {
		t.Fatal("report is current at its expiry instant")
	}
	if !report.Expired(expiry.Add(time.Nanosecond)) {
		t.Fatal("report is expired after its expiry instant")
	}
}
