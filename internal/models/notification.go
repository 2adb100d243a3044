// internal/models/notification.go
package models

import "time"

// NotificationTypeNewIncident is the routing type clients receive in the data map.
const NotificationTypeNewIncident = "new_incident"

// Data map keys read by the mobile client.
const (
	DataKeyType         = "type"
	DataKeyIncidentID   = "incidentId"
	DataKeyTeamID       = "teamId"
	DataKeyReporterName = "reporterName"
)

// Priority is the Android delivery priority.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Visibility controls how the notification shows on a locked Android screen.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
	VisibilitySecret  Visibility = "secret"
)

// DeliveryProfile holds the platform delivery directives attached to every payload.
type DeliveryProfile struct {
	Priority   Priority
	TTL        time.Duration
	ChannelID  string
	Sound      string
	Visibility Visibility
	Icon       string
	APNsSound  string
}

// DefaultDeliveryProfile is the fixed profile for new-incident notifications.
// The channel id must match the channel the mobile app registers.
var DefaultDeliveryProfile = DeliveryProfile{
	Priority:   PriorityHigh,
	TTL:        time.Hour,
	ChannelID:  "incidencias_channel",
	Sound:      "default",
	Visibility: VisibilityPublic,
	Icon:       "ic_notification",
	APNsSound:  "default",
}

// APNsAlert is the alert block shown on iOS devices.
type APNsAlert struct {
	Title string
	Body  string
}

// NotificationPayload is one multicast message addressed to every target token.
type NotificationPayload struct {
	Targets   []string
	Title     string
	Body      string
	Data      map[string]string
	APNsAlert APNsAlert
	Delivery  DeliveryProfile
}

// FailureClass separates tokens that will never work again from retryable failures.
type FailureClass string

const (
	FailureNone      FailureClass = ""
	FailurePermanent FailureClass = "permanent"
	FailureTransient FailureClass = "transient"
)

// Gateway error codes reported per token.
const (
	ErrorCodeUnregistered     = "registration-token-not-registered"
	ErrorCodeInvalidArgument  = "invalid-argument"
	ErrorCodeSenderIDMismatch = "mismatched-credential"
	ErrorCodeQuotaExceeded    = "message-rate-exceeded"
	ErrorCodeUnavailable      = "server-unavailable"
	ErrorCodeInternal         = "internal-error"
	ErrorCodeThirdPartyAuth   = "third-party-auth-error"
	ErrorCodeUnknown          = "unknown-error"
)

// invalid-argument is not listed: FCM also reports it for request-level problems
// such as an oversized message, which would fail every token in the batch.
var permanentErrorCodes = map[string]bool{
	ErrorCodeUnregistered:     true,
	ErrorCodeSenderIDMismatch: true,
}

// ClassifyErrorCode maps a gateway error code to its failure class.
// Anything not known to be permanent is treated as transient.
func ClassifyErrorCode(code string) FailureClass {
	if permanentErrorCodes[code] {
		return FailurePermanent
	}
	return FailureTransient
}

// DeliveryOutcome is the gateway result for the target at the same index.
type DeliveryOutcome struct {
	Success   bool
	MessageID string
	ErrorCode string
}

// Class returns the failure class of the outcome, FailureNone on success.
func (o DeliveryOutcome) Class() FailureClass {
	if o.Success {
		return FailureNone
	}
	return ClassifyErrorCode(o.ErrorCode)
}

// BatchResult is the gateway response for one multicast send.
type BatchResult struct {
	SuccessCount int
	FailureCount int
	Outcomes     []DeliveryOutcome
}
