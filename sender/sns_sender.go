package sender

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pronova-xy/checkout-service/models"
	awspkg "github.com/pronova-xy/checkout-service/pkg/aws"
)

// PurchaseEventSender publishes completed purchases to an SNS topic for
// downstream consumers.
type PurchaseEventSender struct {
	publisher awspkg.SNSPublisher
	topicArn  string
}

func NewPurchaseEventSender(publisher awspkg.SNSPublisher, topicArn string) *PurchaseEventSender {
	return &PurchaseEventSender{publisher: publisher, topicArn: topicArn}
}

func (s *PurchaseEventSender) SendPurchase(ctx context.Context, event models.PurchaseEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode purchase event: %w", err)
	}
	return s.publisher.Publish(ctx, s.topicArn, payload, map[string]string{"event_type": event.Type})
}
