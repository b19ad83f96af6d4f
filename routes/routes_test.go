package routes_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/pronova-xy/checkout-service/common/errors"
	"github.com/pronova-xy/checkout-service/common/middleware"
	"github.com/pronova-xy/checkout-service/controllers"
	"github.com/pronova-xy/checkout-service/models"
	"github.com/pronova-xy/checkout-service/repository"
	"github.com/pronova-xy/checkout-service/routes"
	"github.com/pronova-xy/checkout-service/sender"
	"github.com/pronova-xy/checkout-service/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/webhook"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const webhookSecret = "whsec_routes_test"

type memoryStore struct {
	payment *models.PaymentConfig
	secret  string
}

func (m *memoryStore) GetPaymentConfig(context.Context) (*models.PaymentConfig, error) {
	if m.payment == nil {
		return nil, repository.ErrNotFound
	}
	return m.payment, nil
}

func (m *memoryStore) GetWebhookSecret(context.Context) (string, error) {
	if m.secret == "" {
		return "", repository.ErrNotFound
	}
	return m.secret, nil
}

type capturedNotifier struct {
	messages []string
}

func (c *capturedNotifier) Notify(_ context.Context, _, message string) {
	c.messages = append(c.messages, message)
}

type stubProvider struct{}

func (stubProvider) CreateCheckoutSession(context.Context, []models.LineItem, string, string) (*models.CheckoutSession, error) {
	return &models.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}, nil
}

func newRouter(t *testing.T, store *memoryStore, notifier services.Notifier) (*gin.Engine, *services.WebhookService) {
	t.Helper()
	logger := zap.NewNop()

	loader := services.NewConfigLoader(store)
	paymentCfg, err := loader.LoadPaymentConfig(context.Background())
	require.NoError(t, err)

	stripeSvc := services.NewStripeService(paymentCfg.StripeKey, false)
	checkoutSvc := services.NewCheckoutService(stubProvider{}, "http://localhost:3000", nil, logger)
	webhookSvc := services.NewWebhookService(loader, stripeSvc, notifier, paymentCfg, nil, nil, logger)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.CORSMiddleware(), apperrors.ErrorMiddleware(logger))
	routes.RegisterRoutes(r, "checkout-service",
		controllers.NewCheckoutController(checkoutSvc),
		controllers.NewWebhookController(webhookSvc),
	)
	return r, webhookSvc
}

func drain(t *testing.T, svc *services.WebhookService) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Drain(ctx))
}

func completedEvent(amount int64) []byte {
	return []byte(fmt.Sprintf(`{"id":"evt_1","object":"event","api_version":%q,"type":"checkout.session.completed","data":{"object":{"id":"cs_test_1","object":"checkout.session","amount_total":%d}}}`,
		stripe.APIVersion, amount))
}

func sign(payload []byte, secret string) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	}).Header
}

func TestRoutes_WebhookEndToEnd(t *testing.T) {
	notifier := &capturedNotifier{}
	store := &memoryStore{
		payment: &models.PaymentConfig{StripeKey: "sk_test_dummy", NotificationWebhookURL: "https://discord.example/api/webhooks/1/x"},
		secret:  webhookSecret,
	}
	r, svc := newRouter(t, store, notifier)

	payload := completedEvent(4500)
	req, _ := http.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", sign(payload, webhookSecret))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	drain(t, svc)
	assert.Equal(t, []string{"New purchase! Amount: $45.00"}, notifier.messages)
}

func TestRoutes_WebhookRejections(t *testing.T) {
	payload := completedEvent(4500)

	t.Run("bad signature", func(t *testing.T) {
		notifier := &capturedNotifier{}
		r, svc := newRouter(t, &memoryStore{payment: &models.PaymentConfig{StripeKey: "sk_test_dummy"}, secret: webhookSecret}, notifier)

		req, _ := http.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
		req.Header.Set("Stripe-Signature", sign(payload, "whsec_wrong"))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Webhook error", w.Body.String())
		drain(t, svc)
		assert.Empty(t, notifier.messages)
	})

	t.Run("secret missing", func(t *testing.T) {
		notifier := &capturedNotifier{}
		r, _ := newRouter(t, &memoryStore{payment: &models.PaymentConfig{StripeKey: "sk_test_dummy"}}, notifier)

		req, _ := http.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
		req.Header.Set("Stripe-Signature", sign(payload, webhookSecret))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Webhook secret missing", w.Body.String())
		assert.Empty(t, notifier.messages)
	})

	t.Run("secret missing with oversized body", func(t *testing.T) {
		r, _ := newRouter(t, &memoryStore{payment: &models.PaymentConfig{StripeKey: "sk_test_dummy"}}, &capturedNotifier{})

		oversized := bytes.Repeat([]byte("x"), services.MaxPayloadBytes+1)
		req, _ := http.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(oversized))
		req.Header.Set("Stripe-Signature", "t=1,v1=abc")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Webhook secret missing", w.Body.String())
	})
}

func TestRoutes_WebhookAckSurvivesChatFailure(t *testing.T) {
	var hits atomic.Int32
	chat := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer chat.Close()

	relay := services.NewNotificationRelay(sender.NewDiscordSender(time.Second), nil, zap.NewNop())
	store := &memoryStore{
		payment: &models.PaymentConfig{StripeKey: "sk_test_dummy", NotificationWebhookURL: chat.URL},
		secret:  webhookSecret,
	}
	r, svc := newRouter(t, store, relay)

	payload := completedEvent(4500)
	req, _ := http.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", sign(payload, webhookSecret))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
	drain(t, svc)
	assert.Equal(t, int32(1), hits.Load())
}

func TestRoutes_Checkout(t *testing.T) {
	r, _ := newRouter(t, &memoryStore{payment: &models.PaymentConfig{StripeKey: "sk_test_dummy"}}, &capturedNotifier{})

	body := []byte(`{"cartItems":[{"name":"Shirt","price":19.99,"quantity":2}]}`)
	req, _ := http.NewRequest(http.MethodPost, "/create-checkout-session", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"url":"https://checkout.stripe.com/c/pay/cs_test_1"}`, w.Body.String())

	req, _ = http.NewRequest(http.MethodPost, "/create-checkout-session", bytes.NewReader([]byte(`{"cartItems":[]}`)))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Cart empty or invalid"}`, w.Body.String())
}

func TestRoutes_Health(t *testing.T) {
	r, _ := newRouter(t, &memoryStore{payment: &models.PaymentConfig{StripeKey: "sk_test_dummy"}}, &capturedNotifier{})

	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"OK","service":"checkout-service"}`, w.Body.String())
}
