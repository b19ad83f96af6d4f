package models

import "time"

const (
	EventCheckoutSessionCompleted = "checkout.session.completed"

	PurchaseCompleted = "purchase_completed"
)

// PurchaseEvent is published to SNS after a completed checkout.
type PurchaseEvent struct {
	Type        string    `json:"type"`
	SessionID   string    `json:"session_id"`
	AmountTotal int64     `json:"amount_total"` // smallest currency unit
	Currency    string    `json:"currency"`
	Timestamp   time.Time `json:"timestamp"` // UTC event time
}

type WebhookAck struct {
	Received bool `json:"received"`
}
