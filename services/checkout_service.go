package services

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strings"

	apperrors "github.com/pronova-xy/checkout-service/common/errors"
	"github.com/pronova-xy/checkout-service/models"
	awspkg "github.com/pronova-xy/checkout-service/pkg/aws"
	"go.uber.org/zap"
)

// maxUnitAmountMinor is Stripe's largest accepted USD unit amount ($999,999.99).
const maxUnitAmountMinor = 99999999

type CheckoutService struct {
	provider CheckoutProvider
	baseURL  string
	metrics  MetricsRecorder
	logger   *zap.Logger
}

func NewCheckoutService(provider CheckoutProvider, storefrontBaseURL string, metrics MetricsRecorder, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		provider: provider,
		baseURL:  strings.TrimSuffix(storefrontBaseURL, "/"),
		metrics:  metrics,
		logger:   logger,
	}
}

func (s *CheckoutService) SuccessURL() string {
	return s.baseURL + "/success?session_id={CHECKOUT_SESSION_ID}"
}

func (s *CheckoutService) CancelURL() string {
	return s.baseURL + "/cancel"
}

// CreateCheckoutSession validates the raw cartItems value and asks the
// provider for a hosted session. Provider failures are not retried.
func (s *CheckoutService) CreateCheckoutSession(ctx context.Context, cartItems json.RawMessage) (*models.CheckoutSession, error) {
	items, err := BuildLineItems(cartItems)
	if err != nil {
		return nil, err
	}

	sess, err := s.provider.CreateCheckoutSession(ctx, items, s.SuccessURL(), s.CancelURL())
	if err != nil {
		recordCount(s.metrics, awspkg.MetricCheckoutFailed)
		return nil, apperrors.ProviderError(providerMessage(err), err)
	}

	s.logger.Info("Checkout session created",
		zap.String("session_id", sess.ID),
		zap.Int("line_items", len(items)),
	)
	recordCount(s.metrics, awspkg.MetricCheckoutSessionsCreated)
	return sess, nil
}

// BuildLineItems decodes the cart and converts every entry to a LineItem.
// A missing, non-array or empty cart is EmptyCart; the first bad entry is
// reported as InvalidItem.
func BuildLineItems(cartItems json.RawMessage) ([]models.LineItem, error) {
	trimmed := bytes.TrimSpace(cartItems)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, apperrors.EmptyCart()
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(trimmed, &entries); err != nil || len(entries) == 0 {
		return nil, apperrors.EmptyCart()
	}

	items := make([]models.LineItem, 0, len(entries))
	for i, entry := range entries {
		item, err := toLineItem(i, entry)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func toLineItem(index int, entry json.RawMessage) (models.LineItem, error) {
	var ci models.CartItem
	if err := json.Unmarshal(entry, &ci); err != nil {
		return models.LineItem{}, apperrors.InvalidItem("cart item %d is malformed", index)
	}

	if ci.Name == nil || strings.TrimSpace(*ci.Name) == "" {
		return models.LineItem{}, apperrors.InvalidItem("cart item %d has no name", index)
	}
	if ci.Price == nil || *ci.Price <= 0 {
		return models.LineItem{}, apperrors.InvalidItem("cart item %d must have a positive price", index)
	}

	amount := ToMinorUnits(*ci.Price)
	if amount <= 0 || amount > maxUnitAmountMinor {
		return models.LineItem{}, apperrors.InvalidItem("cart item %d price is out of range", index)
	}

	quantity := int64(1)
	if ci.Quantity != nil && *ci.Quantity != 0 {
		quantity = *ci.Quantity
	}
	if quantity < 0 {
		return models.LineItem{}, apperrors.InvalidItem("cart item %d must have a positive quantity", index)
	}

	return models.LineItem{
		Currency:        models.Currency,
		ProductName:     strings.TrimSpace(*ci.Name),
		UnitAmountMinor: amount,
		Quantity:        quantity,
	}, nil
}

// ToMinorUnits converts a major-unit price to cents, rounding half away from
// zero so 19.99 becomes 1999 despite 19.99*100 being 1998.9999999999998.
func ToMinorUnits(price float64) int64 {
	if price > maxUnitAmountMinor {
		return math.MaxInt64
	}
	return int64(math.Round(price * 100))
}
