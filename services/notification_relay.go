package services

import (
	"context"

	apperrors "github.com/pronova-xy/checkout-service/common/errors"
	awspkg "github.com/pronova-xy/checkout-service/pkg/aws"
	"github.com/pronova-xy/checkout-service/sender"
	"go.uber.org/zap"
)

// Notifier delivers a purchase message. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, webhookURL, message string)
}

// NotificationRelay forwards messages to a chat webhook at most once.
// Failures are logged and counted, never returned.
type NotificationRelay struct {
	sender  sender.ChatSender
	metrics MetricsRecorder
	logger  *zap.Logger
}

func NewNotificationRelay(chat sender.ChatSender, metrics MetricsRecorder, logger *zap.Logger) *NotificationRelay {
	return &NotificationRelay{sender: chat, metrics: metrics, logger: logger}
}

func (r *NotificationRelay) Notify(ctx context.Context, webhookURL, message string) {
	res, err := r.sender.SendMessage(ctx, webhookURL, message)
	if err != nil {
		relayErr := apperrors.RelayError("chat notification failed", err)
		r.logger.Error(relayErr.Message,
			zap.String("kind", string(relayErr.Kind)),
			zap.Int("upstream_status", res.StatusCode),
			zap.Error(err),
		)
		recordCount(r.metrics, awspkg.MetricRelayFailed)
		return
	}

	r.logger.Info("Chat notification sent", zap.Int("upstream_status", res.StatusCode))
	recordCount(r.metrics, awspkg.MetricPurchaseNotified)
}
