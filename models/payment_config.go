package models

// PaymentConfig holds the settings read from the remote configuration store
// at startup. It is never mutated after loading.
type PaymentConfig struct {
	StripeKey              string `json:"stripe_key" dynamodbav:"stripe_key" validate:"required"`
	NotificationWebhookURL string `json:"discord_webhook" dynamodbav:"discord_webhook" validate:"omitempty,url"`
}

// WebhookSecretDocument is the store document holding the webhook signing secret.
type WebhookSecretDocument struct {
	StripeWebhookSecret string `json:"stripe_webhook_secret" dynamodbav:"stripe_webhook_secret"`
}
