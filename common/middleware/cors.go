package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware allows any origin. Preflight requests are answered with 204
// and never reach a handler.
func CORSMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Stripe-Signature", RequestIDHeader},
		ExposeHeaders:   []string{RequestIDHeader},
		MaxAge:          24 * time.Hour,
	})
}
