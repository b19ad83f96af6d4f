package routes

import (
	"github.com/pronova-xy/checkout-service/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, serviceName string, cc *controllers.CheckoutController, wc *controllers.WebhookController) {
	r.GET("/health", controllers.Health(serviceName))

	r.POST("/create-checkout-session", cc.CreateCheckoutSession)

	// Stripe webhook (authenticated by signature, not by caller)
	r.POST("/webhook", wc.StripeWebhook)
}
