package controllers

import (
	"context"
	"io"
	"net/http"

	"github.com/pronova-xy/checkout-service/models"

	"github.com/gin-gonic/gin"
)

const StripeSignatureHeader = "Stripe-Signature"

// EventHandler is implemented by services.WebhookService.
type EventHandler interface {
	HandleEvent(ctx context.Context, body io.Reader, sigHeader string) error
}

type WebhookController struct {
	events EventHandler
}

func NewWebhookController(events EventHandler) *WebhookController {
	return &WebhookController{events: events}
}

// StripeWebhook handles POST /webhook. The body is passed on unread; any
// re-encoding would break the signature.
func (wc *WebhookController) StripeWebhook(c *gin.Context) {
	if err := wc.events.HandleEvent(c.Request.Context(), c.Request.Body, c.GetHeader(StripeSignatureHeader)); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.WebhookAck{Received: true})
}
