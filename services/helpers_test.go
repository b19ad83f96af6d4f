package services_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/webhook"
)

const testWebhookSecret = "whsec_test_secret"

// signPayload builds a Stripe-Signature header for payload.
func signPayload(t *testing.T, secret string, payload []byte) string {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

func checkoutCompletedPayload(amountTotal int64) []byte {
	return []byte(fmt.Sprintf(`{
  "id": "evt_test_completed",
  "object": "event",
  "api_version": %q,
  "type": "checkout.session.completed",
  "data": {
    "object": {
      "id": "cs_test_1",
      "object": "checkout.session",
      "amount_total": %d,
      "currency": "usd"
    }
  }
}`, stripe.APIVersion, amountTotal))
}

func eventPayload(eventType string) []byte {
	return []byte(fmt.Sprintf(`{
  "id": "evt_test_other",
  "object": "event",
  "api_version": %q,
  "type": %q,
  "data": {"object": {"id": "pi_test_1", "object": "payment_intent"}}
}`, stripe.APIVersion, eventType))
}
