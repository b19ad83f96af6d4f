package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	apperrors "github.com/pronova-xy/checkout-service/common/errors"
	"github.com/pronova-xy/checkout-service/models"
	awspkg "github.com/pronova-xy/checkout-service/pkg/aws"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
)

// SecretSource returns the current webhook signing secret.
type SecretSource interface {
	WebhookSecret(ctx context.Context) (string, error)
}

// PurchasePublisher fans a completed purchase out to other consumers.
type PurchasePublisher interface {
	SendPurchase(ctx context.Context, event models.PurchaseEvent) error
}

// MaxPayloadBytes caps the webhook body read for signature verification.
const MaxPayloadBytes = 64 << 10

type WebhookService struct {
	secrets   SecretSource
	verifier  EventVerifier
	notifier  Notifier
	notifyURL string
	purchases PurchasePublisher // nil disables the fan-out
	metrics   MetricsRecorder
	logger    *zap.Logger

	inflight sync.WaitGroup
}

func NewWebhookService(
	secrets SecretSource,
	verifier EventVerifier,
	notifier Notifier,
	paymentCfg *models.PaymentConfig,
	purchases PurchasePublisher,
	metrics MetricsRecorder,
	logger *zap.Logger,
) *WebhookService {
	return &WebhookService{
		secrets:   secrets,
		verifier:  verifier,
		notifier:  notifier,
		notifyURL: paymentCfg.NotificationWebhookURL,
		purchases: purchases,
		metrics:   metrics,
		logger:    logger,
	}
}

// HandleEvent authenticates the body against the current signing secret and
// dispatches it. The secret is looked up before the body is read. Once the
// signature is valid the result is always nil and delivery of a completed
// purchase continues in the background; see Drain.
func (s *WebhookService) HandleEvent(ctx context.Context, body io.Reader, sigHeader string) error {
	secret, err := s.secrets.WebhookSecret(ctx)
	if err != nil {
		recordCount(s.metrics, awspkg.MetricWebhooksRejected)
		return err
	}

	payload, err := readPayload(body)
	if err != nil {
		s.logger.Warn("Stripe webhook body rejected", zap.Error(err))
		recordCount(s.metrics, awspkg.MetricWebhooksRejected)
		return apperrors.InvalidSignature(err)
	}

	event, err := s.verifier.ConstructEvent(payload, sigHeader, secret)
	if err != nil {
		s.logger.Warn("Stripe webhook signature verification failed", zap.Error(err))
		recordCount(s.metrics, awspkg.MetricWebhooksRejected)
		return apperrors.InvalidSignature(err)
	}

	s.logger.Info("Processing Stripe webhook",
		zap.String("event_type", string(event.Type)),
		zap.String("event_id", event.ID),
	)

	switch event.Type {
	case models.EventCheckoutSessionCompleted:
		// Detached from the request: the handler acks before delivery ends.
		dispatchCtx := context.WithoutCancel(ctx)
		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			s.handleCheckoutCompleted(dispatchCtx, event)
		}()
	default:
		s.logger.Info("Unhandled webhook event type", zap.String("event_type", string(event.Type)))
	}
	return nil
}

// Drain blocks until every background delivery started by HandleEvent has
// finished, or ctx is done.
func (s *WebhookService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func readPayload(body io.Reader) ([]byte, error) {
	if body == nil {
		return nil, fmt.Errorf("empty webhook body")
	}
	payload, err := io.ReadAll(io.LimitReader(body, MaxPayloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read webhook body: %w", err)
	}
	if len(payload) > MaxPayloadBytes {
		return nil, fmt.Errorf("webhook body exceeds %d bytes", MaxPayloadBytes)
	}
	return payload, nil
}

func (s *WebhookService) handleCheckoutCompleted(ctx context.Context, event stripe.Event) {
	if event.Data == nil {
		s.logger.Error("Checkout session event has no data", zap.String("event_id", event.ID))
		return
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		s.logger.Error("Failed to unmarshal checkout session", zap.String("event_id", event.ID), zap.Error(err))
		return
	}

	s.notifier.Notify(ctx, s.notifyURL, FormatPurchaseMessage(sess.AmountTotal))

	if s.purchases == nil {
		return
	}
	err := s.purchases.SendPurchase(ctx, models.PurchaseEvent{
		Type:        models.PurchaseCompleted,
		SessionID:   sess.ID,
		AmountTotal: sess.AmountTotal,
		Currency:    string(sess.Currency),
		Timestamp:   time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("Failed to publish purchase event", zap.String("session_id", sess.ID), zap.Error(err))
	}
}

// FormatPurchaseMessage renders amountTotal (cents) with two decimals using
// integer arithmetic only.
func FormatPurchaseMessage(amountTotal int64) string {
	sign := ""
	if amountTotal < 0 {
		sign = "-"
		amountTotal = -amountTotal
	}
	return fmt.Sprintf("New purchase! Amount: $%s%d.%02d", sign, amountTotal/100, amountTotal%100)
}
