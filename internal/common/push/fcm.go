// Package push sends multicast notifications through Firebase Cloud Messaging.
package push

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"incident-notifier/internal/common/config"
	"incident-notifier/internal/models"
)

// MaxMulticastTargets is the largest token list FCM accepts in one multicast request.
const MaxMulticastTargets = 500

var (
	// ErrBatchTooLarge is returned before any send when the payload exceeds MaxMulticastTargets.
	ErrBatchTooLarge = errors.New("multicast target count exceeds gateway limit")
	// ErrNoTargets is returned for a payload with no tokens.
	ErrNoTargets = errors.New("multicast payload has no targets")
	// ErrMisalignedResponse means the gateway returned a different number of
	// per-token responses than tokens sent.
	ErrMisalignedResponse = errors.New("gateway response not aligned with targets")
)

type multicastSender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// ErrorClassifier maps a per-token send error to a gateway error code.
type ErrorClassifier func(err error) string

// FCMGateway delivers one payload to all of its targets with a single multicast call.
type FCMGateway struct {
	sender   multicastSender
	classify ErrorClassifier
}

// NewFCMGateway initializes a Firebase app and its messaging client.
// An empty credentials file falls back to application default credentials.
// Extra client options are applied after the configured credentials.
func NewFCMGateway(ctx context.Context, cfg config.PushConfig, extra ...option.ClientOption) (*FCMGateway, error) {
	var opts []option.ClientOption
	if cfg.Firebase.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Firebase.CredentialsFile))
	}
	opts = append(opts, extra...)

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.Firebase.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging client: %w", err)
	}

	return NewGateway(client, ErrorCode), nil
}

// NewGateway builds a gateway over any multicast sender. A nil classifier uses ErrorCode.
func NewGateway(sender multicastSender, classify ErrorClassifier) *FCMGateway {
	if classify == nil {
		classify = ErrorCode
	}
	return &FCMGateway{sender: sender, classify: classify}
}

// SendMulticast performs exactly one batched send and returns one outcome per target,
// in target order. A returned error means the call itself did not complete.
func (g *FCMGateway) SendMulticast(ctx context.Context, payload models.NotificationPayload) (models.BatchResult, error) {
	n := len(payload.Targets)
	if n == 0 {
		return models.BatchResult{}, ErrNoTargets
	}
	if n > MaxMulticastTargets {
		return models.BatchResult{}, fmt.Errorf("%w: %d targets, limit %d", ErrBatchTooLarge, n, MaxMulticastTargets)
	}

	resp, err := g.sender.SendEachForMulticast(ctx, BuildMessage(payload))
	if err != nil {
		return models.BatchResult{}, fmt.Errorf("multicast send: %w", err)
	}
	if resp == nil || len(resp.Responses) != n {
		got := 0
		if resp != nil {
			got = len(resp.Responses)
		}
		return models.BatchResult{}, fmt.Errorf("%w: sent %d, got %d", ErrMisalignedResponse, n, got)
	}

	result := models.BatchResult{
		SuccessCount: resp.SuccessCount,
		FailureCount: resp.FailureCount,
		Outcomes:     make([]models.DeliveryOutcome, n),
	}
	for i, r := range resp.Responses {
		if r == nil {
			result.Outcomes[i] = models.DeliveryOutcome{ErrorCode: models.ErrorCodeUnknown}
			continue
		}
		if r.Success {
			result.Outcomes[i] = models.DeliveryOutcome{Success: true, MessageID: r.MessageID}
			continue
		}
		result.Outcomes[i] = models.DeliveryOutcome{ErrorCode: g.classify(r.Error)}
	}

	return result, nil
}

// BuildMessage maps a payload onto an FCM multicast message.
func BuildMessage(payload models.NotificationPayload) *messaging.MulticastMessage {
	d := payload.Delivery
	ttl := d.TTL

	return &messaging.MulticastMessage{
		Tokens: payload.Targets,
		Data:   payload.Data,
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Android: &messaging.AndroidConfig{
			Priority: string(d.Priority),
			TTL:      &ttl,
			Notification: &messaging.AndroidNotification{
				ChannelID:  d.ChannelID,
				Sound:      d.Sound,
				Icon:       d.Icon,
				Visibility: androidVisibility(d.Visibility),
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": apnsPriority(d.Priority)},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: payload.APNsAlert.Title,
						Body:  payload.APNsAlert.Body,
					},
					Sound: d.APNsSound,
				},
			},
		},
	}
}

func androidVisibility(v models.Visibility) messaging.AndroidNotificationVisibility {
	switch v {
	case models.VisibilityPublic:
		return messaging.VisibilityPublic
	case models.VisibilitySecret:
		return messaging.VisibilitySecret
	default:
		return messaging.VisibilityPrivate
	}
}

func apnsPriority(p models.Priority) string {
	if p == models.PriorityHigh {
		return "10"
	}
	return "5"
}

// ErrorCode returns the gateway error code for a per-token FCM error.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return models.ErrorCodeUnknown
	case messaging.IsUnregistered(err):
		return models.ErrorCodeUnregistered
	case messaging.IsInvalidArgument(err):
		return models.ErrorCodeInvalidArgument
	case messaging.IsSenderIDMismatch(err):
		return models.ErrorCodeSenderIDMismatch
	case messaging.IsQuotaExceeded(err):
		return models.ErrorCodeQuotaExceeded
	case messaging.IsUnavailable(err):
		return models.ErrorCodeUnavailable
	case messaging.IsInternal(err):
		return models.ErrorCodeInternal
	case messaging.IsThirdPartyAuthError(err):
		return models.ErrorCodeThirdPartyAuth
	default:
		return models.ErrorCodeUnknown
	}
}
