package sender

import (
	"context"
	"time"
)

type SendResult struct {
	StatusCode int
	SentAt     time.Time
}

// ChatSender posts a text message to a chat webhook URL.
type ChatSender interface {
	SendMessage(ctx context.Context, webhookURL, message string) (SendResult, error)
}
