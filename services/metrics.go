package services

import (
	"context"
	"time"
)

const serviceName = "checkout-service"

// MetricsRecorder is satisfied by the CloudWatch metrics client.
type MetricsRecorder interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
}

// recordCount ships a counter in the background so request latency never
// depends on CloudWatch.
func recordCount(m MetricsRecorder, metricName string) {
	if m == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = m.RecordCount(ctx, metricName, map[string]string{"Service": serviceName})
	}()
}
