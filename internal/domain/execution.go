package domain

import "time"

type ExecutionMode string

const (
	ModeReadOnly ExecutionMode = "READONLY"
	ModeMock     ExecutionMode = "MOCK"
	ModeDryRun   ExecutionMode = "DRY_RUN"
)

type SafetyViolationKind string

const (
	ViolationUnsafeMethod   SafetyViolationKind = "UNSAFE_METHOD"
	ViolationRateLimitAbuse SafetyViolationKind = "RATE_LIMIT_ABUSE"
	ViolationTenantKilled   SafetyViolationKind = "TENANT_KILLED"
	ViolationPolicyDenied   SafetyViolationKind = "POLICY_DENIED"
)

// SafetyViolation is recorded data, never a thrown error: a batch always
// completes and the violation rate feeds the score.
type SafetyViolation struct {
	Kind    SafetyViolationKind `json:"kind"`
	Message string              `json:"message"`
}

// ExecutionResult carries structural metadata only. Response bodies are
// never retained.
type ExecutionResult struct {
	TestID           string            `json:"test_id"`
	EndpointID       string            `json:"endpoint_id"`
	Method           HTTPMethod        `json:"method"`
	StatusCode       *int              `json:"status_code,omitempty"`
	Latency          time.Duration     `json:"latency_ns"`
	Passed           bool              `json:"passed"`
	Blocked          bool              `json:"blocked"`
	Mode             ExecutionMode     `json:"mode"`
	SafetyViolations []SafetyViolation `json:"safety_violations,omitempty"`
	ResponseSize     int64             `json:"response_size,omitempty"`
	ContentType      string            `json:"content_type,omitempty"`
	Error            string            `json:"error,omitempty"`
}

// ExecutionBatch aggregates one tenant run. All counters are derived by
// scanning Results; nothing is mutated independently.
type ExecutionBatch struct {
	BatchID   string            `json:"batch_id"`
	TenantID  string            `json:"tenant_id"`
	SuiteID   string            `json:"suite_id"`
	Mode      ExecutionMode     `json:"mode"`
	Results   []ExecutionResult `json:"results"`
	StartedAt time.Time         `json:"started_at"`
	EndedAt   time.Time         `json:"ended_at"`
}

func (b ExecutionBatch) TotalCount() int {
	return len(b.Results)
}

func (b ExecutionBatch) PassedCount() int {
	n := 0
	for _, r := range b.Results {
		if r.Passed {
			n++
		}
	}
	return n
}

func (b ExecutionBatch) FailedCount() int {
	n := 0
	for _, r := range b.Results {
		if !r.Passed {
			n++
		}
	}
	return n
}

func (b ExecutionBatch) BlockedCount() int {
	n := 0
	for _, r := range b.Results {
		if r.Blocked {
			n++
		}
	}
	return n
}

// Iterate exposes the ordered results to score/report consumers.
func (b ExecutionBatch) Iterate() []ExecutionResult {
	return b.Results
}

func (b ExecutionBatch) TotalViolations() int {
	n := 0
	for _, r := range b.Results {
		n += len(r.SafetyViolations)
	}
	return n
}
