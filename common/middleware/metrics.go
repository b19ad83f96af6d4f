package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	awspkg "github.com/pronova-xy/checkout-service/pkg/aws"
)

const metricsTimeout = 5 * time.Second

// MetricsMiddleware publishes per-request CloudWatch metrics once the
// response is written. Publishing happens off the request goroutine.
func MetricsMiddleware(metricsClient *awspkg.MetricsClient, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !metricsClient.IsEnabled() {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		status := c.Writer.Status()
		// Route templates keep the Path dimension bounded.
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		dims := map[string]string{
			"Service": serviceName,
			"Method":  c.Request.Method,
			"Path":    route,
			"Status":  StatusCodeToRange(status),
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), metricsTimeout)
			defer cancel()
			for _, name := range requestMetricNames(status) {
				_ = metricsClient.RecordCount(ctx, name, dims)
			}
			_ = metricsClient.RecordLatency(ctx, awspkg.MetricHTTPLatency, elapsed, dims)
		}()
	}
}

// requestMetricNames lists the counters a response with status increments.
func requestMetricNames(status int) []string {
	switch {
	case status >= 500:
		return []string{awspkg.MetricHTTPRequests, awspkg.MetricHTTPErrors, awspkg.MetricHTTP5xx}
	case status >= 400:
		return []string{awspkg.MetricHTTPRequests, awspkg.MetricHTTPErrors, awspkg.MetricHTTP4xx}
	default:
		return []string{awspkg.MetricHTTPRequests}
	}
}

// StatusCodeToRange maps a status code to its class, e.g. 404 to "4xx".
func StatusCodeToRange(statusCode int) string {
	if statusCode < 200 || statusCode > 599 {
		return "unknown"
	}
	return string(rune('0'+statusCode/100)) + "xx"
}
