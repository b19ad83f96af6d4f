package services

import (
	"context"
	"errors"

	"github.com/pronova-xy/checkout-service/models"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"
	"github.com/stripe/stripe-go/v80/webhook"
)

// CheckoutProvider creates hosted checkout sessions.
type CheckoutProvider interface {
	CreateCheckoutSession(ctx context.Context, items []models.LineItem, successURL, cancelURL string) (*models.CheckoutSession, error)
}

// EventVerifier authenticates a webhook payload and decodes it into an event.
type EventVerifier interface {
	ConstructEvent(payload []byte, sigHeader, secret string) (stripe.Event, error)
}

type StripeService struct {
	api                      *client.API
	ignoreAPIVersionMismatch bool
}

// NewStripeService builds a client bound to secretKey. No global stripe.Key
// is set, so several services with different keys can coexist.
func NewStripeService(secretKey string, ignoreAPIVersionMismatch bool) *StripeService {
	return &StripeService{
		api:                      client.New(secretKey, nil),
		ignoreAPIVersionMismatch: ignoreAPIVersionMismatch,
	}
}

func (s *StripeService) CreateCheckoutSession(ctx context.Context, items []models.LineItem, successURL, cancelURL string) (*models.CheckoutSession, error) {
	params := BuildCheckoutSessionParams(items, successURL, cancelURL)
	params.Context = ctx

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, err
	}
	return &models.CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// ConstructEvent verifies the Stripe-Signature header over the exact payload
// bytes with the default 5 minute timestamp tolerance.
func (s *StripeService) ConstructEvent(payload []byte, sigHeader, secret string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, sigHeader, secret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: s.ignoreAPIVersionMismatch,
	})
}

// BuildCheckoutSessionParams maps line items to a one-time card payment session.
func BuildCheckoutSessionParams(items []models.LineItem, successURL, cancelURL string) *stripe.CheckoutSessionParams {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items))
	for _, item := range items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(item.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.ProductName),
				},
				UnitAmount: stripe.Int64(item.UnitAmountMinor),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	return &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(successURL),
		CancelURL:          stripe.String(cancelURL),
	}
}

// providerMessage extracts the human readable message of a Stripe API error.
func providerMessage(err error) string {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return stripeErr.Msg
	}
	return err.Error()
}
