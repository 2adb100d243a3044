package push

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"incident-notifier/internal/models"
)

type fakeSender struct {
	calls    int
	messages []*messaging.MulticastMessage
	resp     *messaging.BatchResponse
	err      error
}

func (f *fakeSender) SendEachForMulticast(_ context.Context, m *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	f.calls++
	f.messages = append(f.messages, m)
	return f.resp, f.err
}

var (
	errUnregistered = errors.New("unregistered")
	errQuota        = errors.New("quota")
)

// classifyByText stands in for the FCM error helpers, which only recognise
// errors produced inside the Firebase SDK.
func classifyByText(err error) string {
	switch {
	case errors.Is(err, errUnregistered):
		return models.ErrorCodeUnregistered
	case errors.Is(err, errQuota):
		return models.ErrorCodeQuotaExceeded
	default:
		return models.ErrorCodeUnknown
	}
}

func testPayload(targets ...string) models.NotificationPayload {
	return models.NotificationPayload{
		Targets: targets,
		Title:   "🆕 Nueva incidencia reportada",
		Body:    "Equipo: Parks (North)",
		Data: map[string]string{
			models.DataKeyType:         models.NotificationTypeNewIncident,
			models.DataKeyIncidentID:   "abc123",
			models.DataKeyTeamID:       "",
			models.DataKeyReporterName: "Anonymous",
		},
		APNsAlert: models.APNsAlert{Title: "🆕 Nueva incidencia reportada", Body: "Equipo: Parks"},
		Delivery:  models.DefaultDeliveryProfile,
	}
}

func TestSendMulticast_OneCallAlignedOutcomes(t *testing.T) {
	sender := &fakeSender{resp: &messaging.BatchResponse{
		SuccessCount: 1,
		FailureCount: 2,
		Responses: []*messaging.SendResponse{
			{Success: true, MessageID: "projects/p/messages/1"},
			{Error: errUnregistered},
			{Error: errQuota},
		},
	}}
	gw := NewGateway(sender, classifyByText)

	result, err := gw.SendMulticast(context.Background(), testPayload("t1", "t2", "t3"))
	require.NoError(t, err)

	assert.Equal(t, 1, sender.calls)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 2, result.FailureCount)
	require.Len(t, result.Outcomes, 3)
	assert.Equal(t, models.DeliveryOutcome{Success: true, MessageID: "projects/p/messages/1"}, result.Outcomes[0])
	assert.Equal(t, models.ErrorCodeUnregistered, result.Outcomes[1].ErrorCode)
	assert.Equal(t, models.FailurePermanent, result.Outcomes[1].Class())
	assert.Equal(t, models.ErrorCodeQuotaExceeded, result.Outcomes[2].ErrorCode)
	assert.Equal(t, models.FailureTransient, result.Outcomes[2].Class())
}

func TestSendMulticast_TransportFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("oauth2: cannot fetch token")}
	gw := NewGateway(sender, classifyByText)

	result, err := gw.SendMulticast(context.Background(), testPayload("t1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multicast send")
	assert.Empty(t, result.Outcomes)
	assert.Equal(t, 1, sender.calls)
}

func TestSendMulticast_Limits(t *testing.T) {
	sender := &fakeSender{}
	gw := NewGateway(sender, classifyByText)

	_, err := gw.SendMulticast(context.Background(), testPayload())
	assert.ErrorIs(t, err, ErrNoTargets)

	targets := make([]string, MaxMulticastTargets+1)
	for i := range targets {
		targets[i] = strings.Repeat("x", 30)
	}
	_, err = gw.SendMulticast(context.Background(), testPayload(targets...))
	assert.ErrorIs(t, err, ErrBatchTooLarge)
	assert.Zero(t, sender.calls)
}

func TestSendMulticast_MisalignedResponse(t *testing.T) {
	sender := &fakeSender{resp: &messaging.BatchResponse{
		SuccessCount: 1,
		Responses:    []*messaging.SendResponse{{Success: true}},
	}}
	gw := NewGateway(sender, classifyByText)

	_, err := gw.SendMulticast(context.Background(), testPayload("t1", "t2"))
	assert.ErrorIs(t, err, ErrMisalignedResponse)
}

func TestBuildMessage(t *testing.T) {
	msg := BuildMessage(testPayload("t1", "t2"))

	assert.Equal(t, []string{"t1", "t2"}, msg.Tokens)
	assert.Equal(t, "abc123", msg.Data[models.DataKeyIncidentID])
	assert.Equal(t, "🆕 Nueva incidencia reportada", msg.Notification.Title)
	assert.Equal(t, "Equipo: Parks (North)", msg.Notification.Body)

	require.NotNil(t, msg.Android)
	assert.Equal(t, "high", msg.Android.Priority)
	require.NotNil(t, msg.Android.TTL)
	assert.Equal(t, time.Hour, *msg.Android.TTL)
	assert.Equal(t, "incidencias_channel", msg.Android.Notification.ChannelID)
	assert.Equal(t, "default", msg.Android.Notification.Sound)
	assert.Equal(t, "ic_notification", msg.Android.Notification.Icon)
	assert.Equal(t, messaging.VisibilityPublic, msg.Android.Notification.Visibility)

	require.NotNil(t, msg.APNS)
	assert.Equal(t, "10", msg.APNS.Headers["apns-priority"])
	assert.Equal(t, "Equipo: Parks", msg.APNS.Payload.Aps.Alert.Body)
	assert.Equal(t, "default", msg.APNS.Payload.Aps.Sound)
}

func TestErrorCode_PlainErrorIsUnknown(t *testing.T) {
	assert.Equal(t, models.ErrorCodeUnknown, ErrorCode(errors.New("boom")))
	assert.Equal(t, models.ErrorCodeUnknown, ErrorCode(nil))
	assert.Equal(t, models.FailureTransient, models.ClassifyErrorCode(ErrorCode(errors.New("boom"))))
}
