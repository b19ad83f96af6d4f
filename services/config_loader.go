package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	apperrors "github.com/pronova-xy/checkout-service/common/errors"
	"github.com/pronova-xy/checkout-service/models"
	"github.com/pronova-xy/checkout-service/repository"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ConfigLoader reads settings from the remote configuration store. The
// payment config is read once per loader; the webhook signing secret is read
// on every call so rotation needs no restart.
type ConfigLoader struct {
	store repository.ConfigStore

	once sync.Once
	cfg  *models.PaymentConfig
	err  error
}

func NewConfigLoader(store repository.ConfigStore) *ConfigLoader {
	return &ConfigLoader{store: store}
}

// LoadPaymentConfig returns the payment config, fetching it on first use.
// The outcome of the first call, value or error, is returned to every caller.
func (l *ConfigLoader) LoadPaymentConfig(ctx context.Context) (*models.PaymentConfig, error) {
	l.once.Do(func() {
		l.cfg, l.err = l.fetchPaymentConfig(ctx)
	})
	return l.cfg, l.err
}

func (l *ConfigLoader) fetchPaymentConfig(ctx context.Context) (*models.PaymentConfig, error) {
	cfg, err := l.store.GetPaymentConfig(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.ConfigMissing(err)
	}
	if err != nil {
		return nil, fmt.Errorf("load payment config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid payment config: %w", err)
	}
	return cfg, nil
}

func (l *ConfigLoader) WebhookSecret(ctx context.Context) (string, error) {
	secret, err := l.store.GetWebhookSecret(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return "", apperrors.SecretMissing(err)
	}
	if err != nil {
		return "", apperrors.Internal(fmt.Errorf("read webhook secret: %w", err))
	}
	return secret, nil
}
