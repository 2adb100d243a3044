// internal/workers/incident/notify-supervisors/janitor_test.go
package notifysupervisors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"incident-notifier/internal/models"
)

func TestJanitor_Clean(t *testing.T) {
	tests := []struct {
		name          string
		outcomes      []models.DeliveryOutcome
		wantClears    []models.TokenClear
		wantWrites    int
		wantPruned    int
		wantTransient int
	}{
		{
			name:       "all succeeded issues no write",
			outcomes:   []models.DeliveryOutcome{ok(), ok(), ok()},
			wantWrites: 0,
		},
		{
			name:       "only permanent failures are cleared",
			outcomes:   []models.DeliveryOutcome{ok(), failed(models.ErrorCodeUnregistered), failed(models.ErrorCodeSenderIDMismatch)},
			wantClears: []models.TokenClear{{UserID: "sup-2", Token: tokB}, {UserID: "sup-3", Token: tokC}},
			wantWrites: 1,
			wantPruned: 2,
		},
		{
			name: "invalid argument keeps tokens",
			outcomes: []models.DeliveryOutcome{
				failed(models.ErrorCodeInvalidArgument),
				failed(models.ErrorCodeInvalidArgument),
				failed(models.ErrorCodeInvalidArgument),
			},
			wantWrites:    0,
			wantTransient: 3,
		},
		{
			name: "sender mismatch on every token keeps tokens",
			outcomes: []models.DeliveryOutcome{
				failed(models.ErrorCodeSenderIDMismatch),
				failed(models.ErrorCodeSenderIDMismatch),
				failed(models.ErrorCodeSenderIDMismatch),
			},
			wantWrites:    0,
			wantTransient: 3,
		},
		{
			name: "transient failures keep their tokens",
			outcomes: []models.DeliveryOutcome{
				failed(models.ErrorCodeQuotaExceeded),
				failed(models.ErrorCodeUnavailable),
				failed(models.ErrorCodeInternal),
			},
			wantWrites:    0,
			wantTransient: 3,
		},
		{
			name:          "unknown code is transient",
			outcomes:      []models.DeliveryOutcome{failed(models.ErrorCodeUnknown), ok(), failed(models.ErrorCodeSenderIDMismatch)},
			wantClears:    []models.TokenClear{{UserID: "sup-3", Token: tokC}},
			wantWrites:    1,
			wantPruned:    1,
			wantTransient: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &MockStore{}
			targeted := []models.Recipient{supervisor("sup-1", tokA), supervisor("sup-2", tokB), supervisor("sup-3", tokC)}

			report, err := NewJanitor(store).Clean(context.Background(), targeted, tt.outcomes)
			require.NoError(t, err)

			assert.Equal(t, tt.wantWrites, store.clearCalls)
			if tt.wantWrites > 0 {
				assert.Equal(t, tt.wantClears, store.cleared[0])
			}
			assert.Equal(t, tt.wantPruned, report.Pruned)
			assert.Equal(t, tt.wantTransient, report.Transient)
		})
	}
}

func TestJanitor_RerunIssuesNoWrite(t *testing.T) {
	store := &MockStore{}
	janitor := NewJanitor(store)
	targeted := []models.Recipient{supervisor("sup-1", tokA), supervisor("sup-2", tokB)}
	outcomes := []models.DeliveryOutcome{ok(), failed(models.ErrorCodeUnregistered)}

	first, err := janitor.Clean(context.Background(), targeted, outcomes)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Pruned)
	assert.Equal(t, "", targeted[1].Token)
	assert.Equal(t, tokA, targeted[0].Token)

	second, err := janitor.Clean(context.Background(), targeted, outcomes)
	require.NoError(t, err)
	assert.Zero(t, second.Pruned)
	assert.Equal(t, 1, store.clearCalls)
}

func TestJanitor_WriteFailureKeepsTokensInMemory(t *testing.T) {
	store := &MockStore{ClearFunc: func(ctx context.Context, clears []models.TokenClear) (int64, error) {
		return 0, errors.New("deadlock detected")
	}}
	targeted := []models.Recipient{supervisor("sup-1", tokA)}

	report, err := NewJanitor(store).Clean(context.Background(), targeted, []models.DeliveryOutcome{failed(models.ErrorCodeUnregistered)})
	require.Error(t, err)
	assert.Zero(t, report.Pruned)
	assert.Equal(t, []string{models.ErrorCodeUnregistered}, report.FailureCodes)
	assert.Equal(t, tokA, targeted[0].Token)
}

func TestJanitor_MisalignedOutcomes(t *testing.T) {
	store := &MockStore{}
	_, err := NewJanitor(store).Clean(context.Background(),
		[]models.Recipient{supervisor("sup-1", tokA)},
		[]models.DeliveryOutcome{ok(), failed(models.ErrorCodeUnregistered)})
	require.Error(t, err)
	assert.Zero(t, store.clearCalls)
}
