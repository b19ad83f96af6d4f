package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	apperrors "github.com/pronova-xy/checkout-service/common/errors"
	"github.com/pronova-xy/checkout-service/models"

	"github.com/gin-gonic/gin"
)

// CheckoutCreator is implemented by services.CheckoutService.
type CheckoutCreator interface {
	CreateCheckoutSession(ctx context.Context, cartItems json.RawMessage) (*models.CheckoutSession, error)
}

type CheckoutController struct {
	checkout CheckoutCreator
}

func NewCheckoutController(checkout CheckoutCreator) *CheckoutController {
	return &CheckoutController{checkout: checkout}
}

type createCheckoutSessionRequest struct {
	// Kept raw so the service can tell "missing" from "not an array".
	CartItems json.RawMessage `json:"cartItems"`
}

// CreateCheckoutSession handles POST /create-checkout-session.
func (cc *CheckoutController) CreateCheckoutSession(c *gin.Context) {
	var req createCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.EmptyCart())
		return
	}

	sess, err := cc.checkout.CreateCheckoutSession(c.Request.Context(), req.CartItems)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.CheckoutResponse{URL: sess.URL})
}
