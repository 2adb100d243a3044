// internal/workers/incident/notify-supervisors/fakes_test.go
package notifysupervisors

import (
	"context"
	"sync"
	"testing"
	"time"

	"incident-notifier/internal/common/logger"
	"incident-notifier/internal/models"
)

// ==========================
// Mock Implementations
// ==========================

type MockStore struct {
	mu         sync.Mutex
	ListFunc   func(ctx context.Context) ([]models.Recipient, error)
	ClearFunc  func(ctx context.Context, clears []models.TokenClear) (int64, error)
	listCalls  int
	clearCalls int
	cleared    [][]models.TokenClear
}

func (m *MockStore) ListSupervisors(ctx context.Context) ([]models.Recipient, error) {
	m.mu.Lock()
	m.listCalls++
	m.mu.Unlock()
	if m.ListFunc == nil {
		return nil, nil
	}
	return m.ListFunc(ctx)
}

func (m *MockStore) ClearTokens(ctx context.Context, clears []models.TokenClear) (int64, error) {
	m.mu.Lock()
	m.clearCalls++
	m.cleared = append(m.cleared, clears)
	m.mu.Unlock()
	if m.ClearFunc == nil {
		return int64(len(clears)), nil
	}
	return m.ClearFunc(ctx, clears)
}

// directoryState is an in-memory users table that honours the guarded clear.
type directoryState struct {
	users []models.Recipient
}

func (d *directoryState) store() *MockStore {
	return &MockStore{
		ListFunc: func(ctx context.Context) ([]models.Recipient, error) {
			out := make([]models.Recipient, 0, len(d.users))
			for _, u := range d.users {
				if u.Role == models.RoleSupervisor {
					out = append(out, u)
				}
			}
			return out, nil
		},
		ClearFunc: func(ctx context.Context, clears []models.TokenClear) (int64, error) {
			var n int64
			for _, c := range clears {
				for i := range d.users {
					if d.users[i].UserID == c.UserID && d.users[i].Token == c.Token {
						d.users[i].Token = ""
						n++
					}
				}
			}
			return n, nil
		},
	}
}

func (d *directoryState) token(userID string) string {
	for _, u := range d.users {
		if u.UserID == userID {
			return u.Token
		}
	}
	return ""
}

type MockGateway struct {
	SendFunc func(ctx context.Context, payload models.NotificationPayload) (models.BatchResult, error)
	calls    int
	payloads []models.NotificationPayload
}

func (m *MockGateway) SendMulticast(ctx context.Context, payload models.NotificationPayload) (models.BatchResult, error) {
	m.calls++
	m.payloads = append(m.payloads, payload)
	if m.SendFunc == nil {
		return allSucceeded(len(payload.Targets)), nil
	}
	return m.SendFunc(ctx, payload)
}

type MockGuard struct {
	ClaimFunc    func(ctx context.Context, incidentID, owner string) (bool, error)
	ConfirmFunc  func(ctx context.Context, incidentID, owner string) error
	ReleaseFunc  func(ctx context.Context, incidentID, owner string) error
	claimCalls   int
	confirmCalls int
	releaseCalls int
}

func (m *MockGuard) Claim(ctx context.Context, incidentID, owner string) (bool, error) {
	m.claimCalls++
	if m.ClaimFunc == nil {
		return true, nil
	}
	return m.ClaimFunc(ctx, incidentID, owner)
}

func (m *MockGuard) Confirm(ctx context.Context, incidentID, owner string) error {
	m.confirmCalls++
	if m.ConfirmFunc == nil {
		return nil
	}
	return m.ConfirmFunc(ctx, incidentID, owner)
}

func (m *MockGuard) Release(ctx context.Context, incidentID, owner string) error {
	m.releaseCalls++
	if m.ReleaseFunc == nil {
		return nil
	}
	return m.ReleaseFunc(ctx, incidentID, owner)
}

type MockAuditSink struct {
	RecordFunc func(ctx context.Context, summary models.DispatchSummary) error
	summaries  []models.DispatchSummary
}

func (m *MockAuditSink) Record(ctx context.Context, summary models.DispatchSummary) error {
	m.summaries = append(m.summaries, summary)
	if m.RecordFunc == nil {
		return nil
	}
	return m.RecordFunc(ctx, summary)
}

// ==========================
// Test Helper Functions
// ==========================

const (
	tokA = "tokA-ZmNtLXJlZ2lzdHJhdGlvbi10b2tlbi1h"
	tokB = "tokB-ZmNtLXJlZ2lzdHJhdGlvbi10b2tlbi1i"
	tokC = "tokC-ZmNtLXJlZ2lzdHJhdGlvbi10b2tlbi1j"
)

func createTestConfig() *Config {
	return &Config{
		Timeout:         10 * time.Second,
		ReadTimeout:     time.Second,
		DispatchTimeout: time.Second,
		CleanupTimeout:  time.Second,
		AuditTimeout:    time.Second,
	}
}

func supervisor(id, token string) models.Recipient {
	return models.Recipient{UserID: id, Role: models.RoleSupervisor, Token: token}
}

func allSucceeded(n int) models.BatchResult {
	res := models.BatchResult{SuccessCount: n, Outcomes: make([]models.DeliveryOutcome, n)}
	for i := range res.Outcomes {
		res.Outcomes[i] = models.DeliveryOutcome{Success: true, MessageID: "msg"}
	}
	return res
}

func batchOf(outcomes ...models.DeliveryOutcome) models.BatchResult {
	res := models.BatchResult{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Success {
			res.SuccessCount++
		} else {
			res.FailureCount++
		}
	}
	return res
}

func ok() models.DeliveryOutcome {
	return models.DeliveryOutcome{Success: true, MessageID: "msg"}
}

func failed(code string) models.DeliveryOutcome {
	return models.DeliveryOutcome{ErrorCode: code}
}

func newTestLogger(t *testing.T) logger.Logger {
	return logger.NewTestLogger(t)
}
