// internal/models/dispatch.go
package models

// DispatchSummary is the operational record written once per invocation.
type DispatchSummary struct {
	InvocationID  string   `json:"invocationId"`
	IncidentID    string   `json:"incidentId"`
	Status        string   `json:"status"`
	TargetCount   int      `json:"targetCount"`
	SuccessCount  int      `json:"successCount"`
	FailureCount  int      `json:"failureCount"`
	PrunedCount   int      `json:"prunedCount"`
	CleanupFailed bool     `json:"cleanupFailed"`
	FailureCodes  []string `json:"failureCodes,omitempty"`
	CompletedAt   string   `json:"completedAt"`
}
