// internal/workers/incident/notify-supervisors/composer.go
package notifysupervisors

import (
	"fmt"
	"unicode/utf8"

	"incident-notifier/internal/models"
)

const (
	notificationTitle = "🆕 Nueva incidencia reportada"
	missingField      = "—"
	anonymousReporter = "Anonymous"

	// maxFieldRunes bounds each free-text field so the composed message stays
	// well under the 4KB FCM payload limit.
	maxFieldRunes = 100
	ellipsis      = "…"
)

// Compose builds the multicast payload for incident. It has no side effects and
// returns identical content for identical input.
func Compose(incident models.IncidentRecord, tokens []string) models.NotificationPayload {
	team := truncate(orPlaceholder(incident.TeamName), maxFieldRunes)
	area := truncate(orPlaceholder(incident.Area), maxFieldRunes)

	reporter := truncate(incident.ReporterName, maxFieldRunes)
	if reporter == "" {
		reporter = anonymousReporter
	}

	targets := make([]string, len(tokens))
	copy(targets, tokens)

	return models.NotificationPayload{
		Targets: targets,
		Title:   notificationTitle,
		Body:    fmt.Sprintf("Equipo: %s (%s)", team, area),
		Data: map[string]string{
			models.DataKeyType:         models.NotificationTypeNewIncident,
			models.DataKeyIncidentID:   incident.ID,
			models.DataKeyTeamID:       incident.TeamID,
			models.DataKeyReporterName: reporter,
		},
		APNsAlert: models.APNsAlert{
			Title: notificationTitle,
			Body:  fmt.Sprintf("Equipo: %s", team),
		},
		Delivery: models.DefaultDeliveryProfile,
	}
}

func orPlaceholder(v string) string {
	if v == "" {
		return missingField
	}
	return v
}

// truncate shortens v to at most limit runes, marking the cut with an ellipsis.
func truncate(v string, limit int) string {
	if utf8.RuneCountInString(v) <= limit {
		return v
	}
	runes := []rune(v)
	return string(runes[:limit-1]) + ellipsis
}
