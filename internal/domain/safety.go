package domain

// SafetyInput is what the optional policy bundle sees before a dispatch.
type SafetyInput struct {
	TenantID   string        `json:"tenant_id"`
	EndpointID string        `json:"endpoint_id"`
	Method     HTTPMethod    `json:"method"`
	Mode       ExecutionMode `json:"mode"`
}

type SafetyDeny struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type SafetyResult struct {
	Allow bool         `json:"allow"`
	Deny  []SafetyDeny `json:"deny,omitempty"`
}

type SafetyEvaluation struct {
	BundleID   string       `json:"bundle_id,omitempty"`
	BundleHash string       `json:"bundle_hash"`
	Result     SafetyResult `json:"result"`
}
