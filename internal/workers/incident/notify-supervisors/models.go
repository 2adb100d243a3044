// internal/workers/incident/notify-supervisors/models.go
package notifysupervisors

import (
	"strings"

	"incident-notifier/internal/models"
)

// Input is the job variable set for one newly created incident.
type Input struct {
	IncidentID   string `json:"incidentId"`
	TeamName     string `json:"teamName,omitempty"`
	Area         string `json:"area,omitempty"`
	TeamID       string `json:"teamId,omitempty"`
	ReporterName string `json:"reporterName,omitempty"`
}

// Record returns the incident snapshot with surrounding whitespace removed.
func (in Input) Record() models.IncidentRecord {
	return models.IncidentRecord{
		ID:           strings.TrimSpace(in.IncidentID),
		TeamName:     strings.TrimSpace(in.TeamName),
		Area:         strings.TrimSpace(in.Area),
		TeamID:       strings.TrimSpace(in.TeamID),
		ReporterName: strings.TrimSpace(in.ReporterName),
	}
}

type Output struct {
	InvocationID  string `json:"invocationId"`
	IncidentID    string `json:"incidentId"`
	Status        string `json:"status"` // "sent", "no_recipients", "no_valid_tokens", "duplicate"
	TargetCount   int    `json:"targetCount"`
	SuccessCount  int    `json:"successCount"`
	FailureCount  int    `json:"failureCount"`
	PrunedCount   int    `json:"prunedCount"`
	CleanupFailed bool   `json:"cleanupFailed"`
}

// Statuses
const (
	StatusSent          = "sent"
	StatusNoRecipients  = "no_recipients"
	StatusNoValidTokens = "no_valid_tokens"
	StatusDuplicate     = "duplicate"
)

// Result is what one pipeline run produced.
type Result struct {
	Status        string
	TargetCount   int
	SuccessCount  int
	FailureCount  int
	PrunedCount   int
	CleanupFailed bool
	FailureCodes  []string
}
