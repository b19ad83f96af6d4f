package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreBackendDynamoDB       = "dynamodb"
	StoreBackendSecretsManager = "secretsmanager"
)

type Config struct {
	Port              string
	Env               string
	StorefrontBaseURL string

	// Remote configuration store
	StoreBackend       string
	ConfigTable        string
	PaymentDocID       string
	WebhookSecretDocID string
	SecretsPrefix      string

	AWSRegion          string
	AWSEndpoint        string // LocalStack edge URL when set
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	PurchaseSNSTopicARN string // optional purchase event fan-out

	RelayTimeout                   time.Duration
	ShutdownTimeout                time.Duration
	StripeIgnoreAPIVersionMismatch bool

	CloudWatchEnabled   bool
	CloudWatchNamespace string
	CloudWatchLogGroup  string
}

// LoadConfig reads process configuration from the environment. A .env file in
// the working directory is loaded first when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8087"),
		Env:                 getEnv("APP_ENV", "development"),
		StorefrontBaseURL:   strings.TrimSuffix(getEnv("STOREFRONT_BASE_URL", "http://localhost:3000"), "/"),
		StoreBackend:        strings.ToLower(getEnv("CONFIG_STORE_BACKEND", StoreBackendDynamoDB)),
		ConfigTable:         getEnv("CONFIG_TABLE", "config"),
		PaymentDocID:        getEnv("PAYMENT_DOC_ID", "payment"),
		WebhookSecretDocID:  getEnv("WEBHOOK_SECRET_DOC_ID", "webhookSecret"),
		SecretsPrefix:       getEnv("SECRETS_PREFIX", "checkout"),
		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSEndpoint:         os.Getenv("AWS_ENDPOINT"),
		AWSAccessKeyID:      os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey:  os.Getenv("AWS_SECRET_ACCESS_KEY"),
		PurchaseSNSTopicARN: os.Getenv("PURCHASE_SNS_TOPIC_ARN"),
		CloudWatchNamespace: getEnv("CLOUDWATCH_NAMESPACE", "ECommerce"),
		CloudWatchLogGroup:  getEnv("CLOUDWATCH_LOG_GROUP", "/ecommerce/services"),
	}

	var err error
	if cfg.RelayTimeout, err = getEnvDuration("RELAY_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.StripeIgnoreAPIVersionMismatch, err = getEnvBool("STRIPE_IGNORE_API_VERSION_MISMATCH", false); err != nil {
		return nil, err
	}
	if cfg.CloudWatchEnabled, err = getEnvBool("CLOUDWATCH_ENABLED", false); err != nil {
		return nil, err
	}

	switch cfg.StoreBackend {
	case StoreBackendDynamoDB, StoreBackendSecretsManager:
	default:
		return nil, fmt.Errorf("unsupported CONFIG_STORE_BACKEND %q", cfg.StoreBackend)
	}

	return cfg, nil
}

// IsProduction reports whether the service runs with production logging.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
