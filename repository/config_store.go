package repository

import (
	"context"
	"errors"

	"github.com/pronova-xy/checkout-service/models"
)

// ErrNotFound is returned when a configuration document is absent or lacks
// its required attribute.
var ErrNotFound = errors.New("config document not found")

// ConfigStore reads the payment settings and webhook signing secret from the
// remote configuration store. Implementations never cache the signing secret.
type ConfigStore interface {
	GetPaymentConfig(ctx context.Context) (*models.PaymentConfig, error)
	GetWebhookSecret(ctx context.Context) (string, error)
}
