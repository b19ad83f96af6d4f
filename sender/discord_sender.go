package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DiscordSender posts {"content": message} to a Discord-compatible incoming
// webhook. Any 2xx status counts as delivered.
type DiscordSender struct {
	httpClient *http.Client
}

func NewDiscordSender(timeout time.Duration) *DiscordSender {
	return &DiscordSender{httpClient: &http.Client{Timeout: timeout}}
}

type discordMessage struct {
	Content string `json:"content"`
}

func (d *DiscordSender) SendMessage(ctx context.Context, webhookURL, message string) (SendResult, error) {
	if webhookURL == "" {
		return SendResult{}, fmt.Errorf("webhook url not configured")
	}

	body, err := json.Marshal(discordMessage{Content: message})
	if err != nil {
		return SendResult{}, fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return SendResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return SendResult{}, fmt.Errorf("chat webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return SendResult{StatusCode: resp.StatusCode}, fmt.Errorf("chat webhook error %s: %s", resp.Status, string(respBody))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	return SendResult{StatusCode: resp.StatusCode, SentAt: time.Now()}, nil
}
