// internal/workers/incident/notify-supervisors/janitor.go
package notifysupervisors

import (
	"context"
	"fmt"

	"incident-notifier/internal/models"
)

// TokenCleaner is the write side of the supervisor directory.
type TokenCleaner interface {
	ClearTokens(ctx context.Context, clears []models.TokenClear) (int64, error)
}

// Janitor removes tokens the gateway reported as permanently invalid.
type Janitor struct {
	cleaner TokenCleaner
}

func NewJanitor(cleaner TokenCleaner) *Janitor {
	return &Janitor{cleaner: cleaner}
}

// CleanupReport describes one janitor pass.
type CleanupReport struct {
	Pruned       int
	RowsAffected int64
	Transient    int
	FailureCodes []string
}

// Clean clears the tokens of targeted recipients whose aligned outcome is a
// permanent failure, using at most one write. Cleared recipients are updated in
// place so a second pass over the same outcomes issues no write.
//
// A sender mismatch reported for every token of a multi-token batch points at
// the service credentials rather than the devices and prunes nothing.
func (j *Janitor) Clean(ctx context.Context, targeted []models.Recipient, outcomes []models.DeliveryOutcome) (CleanupReport, error) {
	var report CleanupReport
	if len(targeted) != len(outcomes) {
		return report, fmt.Errorf("%d outcomes for %d recipients", len(outcomes), len(targeted))
	}

	credentialMismatch := len(outcomes) > 1 && allFailedWith(outcomes, models.ErrorCodeSenderIDMismatch)

	var (
		clears  []models.TokenClear
		indexes []int
	)
	for i, o := range outcomes {
		class := o.Class()
		if credentialMismatch {
			class = models.FailureTransient
		}

		switch class {
		case models.FailureNone:
			continue
		case models.FailureTransient:
			report.Transient++
			report.FailureCodes = append(report.FailureCodes, o.ErrorCode)
			continue
		}
		report.FailureCodes = append(report.FailureCodes, o.ErrorCode)

		if targeted[i].Token == "" {
			continue
		}
		clears = append(clears, models.TokenClear{UserID: targeted[i].UserID, Token: targeted[i].Token})
		indexes = append(indexes, i)
	}

	if len(clears) == 0 {
		return report, nil
	}

	affected, err := j.cleaner.ClearTokens(ctx, clears)
	if err != nil {
		return report, err
	}

	for _, i := range indexes {
		targeted[i].Token = ""
	}
	report.Pruned = len(clears)
	report.RowsAffected = affected
	return report, nil
}

func allFailedWith(outcomes []models.DeliveryOutcome, code string) bool {
	for _, o := range outcomes {
		if o.Success || o.ErrorCode != code {
			return false
		}
	}
	return true
}
