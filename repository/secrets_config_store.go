package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pronova-xy/checkout-service/models"
	awspkg "github.com/pronova-xy/checkout-service/pkg/aws"
)

// SecretsConfigStore reads the configuration documents as JSON secrets named
// <prefix>/<doc id> from AWS Secrets Manager.
type SecretsConfigStore struct {
	secrets           *awspkg.SecretsClient
	paymentName       string
	webhookSecretName string
}

func NewSecretsConfigStore(secrets *awspkg.SecretsClient, prefix, paymentDocID, webhookSecretDocID string) *SecretsConfigStore {
	return &SecretsConfigStore{
		secrets:           secrets,
		paymentName:       prefix + "/" + paymentDocID,
		webhookSecretName: prefix + "/" + webhookSecretDocID,
	}
}

func (s *SecretsConfigStore) GetPaymentConfig(ctx context.Context) (*models.PaymentConfig, error) {
	raw, err := s.secrets.GetSecret(ctx, s.paymentName)
	if err != nil {
		return nil, translateSecretErr(err)
	}

	var doc models.PaymentConfig
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("decode secret %s: %w", s.paymentName, err)
	}
	if doc.StripeKey == "" {
		return nil, fmt.Errorf("secret %s has no stripe_key: %w", s.paymentName, ErrNotFound)
	}
	return &doc, nil
}

// GetWebhookSecret bypasses the secrets cache so a rotated secret is picked
// up on the next webhook.
func (s *SecretsConfigStore) GetWebhookSecret(ctx context.Context) (string, error) {
	raw, err := s.secrets.RefreshSecret(ctx, s.webhookSecretName)
	if err != nil {
		return "", translateSecretErr(err)
	}

	var doc models.WebhookSecretDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return "", fmt.Errorf("decode secret %s: %w", s.webhookSecretName, err)
	}
	if doc.StripeWebhookSecret == "" {
		return "", fmt.Errorf("secret %s has no stripe_webhook_secret: %w", s.webhookSecretName, ErrNotFound)
	}
	return doc.StripeWebhookSecret, nil
}

func translateSecretErr(err error) error {
	if errors.Is(err, awspkg.ErrSecretNotFound) {
		return fmt.Errorf("%v: %w", err, ErrNotFound)
	}
	return err
}
