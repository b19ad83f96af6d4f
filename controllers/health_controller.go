package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health reports liveness only; it does not touch the configuration store.
func Health(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": serviceName})
	}
}
