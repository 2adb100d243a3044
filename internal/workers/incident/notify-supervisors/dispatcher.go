// internal/workers/incident/notify-supervisors/dispatcher.go
package notifysupervisors

import (
	"context"
	"errors"
	"fmt"

	"incident-notifier/internal/common/push"
	"incident-notifier/internal/models"
)

// Gateway sends one payload to all of its targets in a single call.
type Gateway interface {
	SendMulticast(ctx context.Context, payload models.NotificationPayload) (models.BatchResult, error)
}

// Dispatcher performs the one outbound send of an invocation.
type Dispatcher struct {
	gateway Gateway
}

func NewDispatcher(gateway Gateway) *Dispatcher {
	return &Dispatcher{gateway: gateway}
}

// Dispatch sends payload and returns one outcome per target. Partial failures
// are not errors; only a send that could not complete is.
func (d *Dispatcher) Dispatch(ctx context.Context, payload models.NotificationPayload) (models.BatchResult, error) {
	if len(payload.Targets) > push.MaxMulticastTargets {
		return models.BatchResult{}, fmt.Errorf("%w: %d targets, limit %d",
			ErrBatchTooLarge, len(payload.Targets), push.MaxMulticastTargets)
	}

	result, err := d.gateway.SendMulticast(ctx, payload)
	if err != nil {
		if errors.Is(err, push.ErrBatchTooLarge) {
			return models.BatchResult{}, fmt.Errorf("%w: %v", ErrBatchTooLarge, err)
		}
		return models.BatchResult{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if len(result.Outcomes) != len(payload.Targets) {
		return models.BatchResult{}, fmt.Errorf("%w: %d outcomes for %d targets",
			ErrTransport, len(result.Outcomes), len(payload.Targets))
	}

	return result, nil
}
