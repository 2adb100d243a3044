// internal/models/incident.go
package models

// RoleSupervisor is the only directory role eligible for incident notifications.
const RoleSupervisor = "supervisor"

// MinTokenLength is the length a registration token must exceed to be targeted.
// Shorter values are placeholders left behind by clients, never real tokens.
const MinTokenLength = 20

// IncidentRecord is the snapshot of an incident at creation time.
type IncidentRecord struct {
	ID           string `json:"incidentId"`
	TeamName     string `json:"teamName,omitempty"`
	Area         string `json:"area,omitempty"`
	TeamID       string `json:"teamId,omitempty"`
	ReporterName string `json:"reporterName,omitempty"`
}

// Recipient is a directory entry for a supervisory user.
type Recipient struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	Token  string `json:"fcmToken,omitempty"` // empty when absent
}

// HasValidToken reports whether the recipient's token can be targeted.
func (r Recipient) HasValidToken() bool {
	return IsPlausibleToken(r.Token)
}

// IsPlausibleToken rejects empty and obviously malformed registration tokens.
func IsPlausibleToken(token string) bool {
	return len(token) > MinTokenLength
}

// TokenClear identifies one registration token to remove from one directory record.
// The token is carried so the clear only applies if the stored value still matches.
type TokenClear struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}
