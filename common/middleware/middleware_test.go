package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/gin-gonic/gin"
	"github.com/pronova-xy/checkout-service/common/middleware"
	awspkg "github.com/pronova-xy/checkout-service/pkg/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID_Generated(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestID())
	var seen string
	r.GET("/ping", func(c *gin.Context) {
		seen = c.GetString(middleware.RequestIDKey)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	assert.NotEmpty(t, seen)
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
}

func TestRequestID_Echoed(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(middleware.CORSMiddleware())
	called := false
	r.POST("/create-checkout-session", func(c *gin.Context) { called = true })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodOptions, "/create-checkout-session", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.False(t, called)
}

func TestCORSMiddleware_SimpleRequest(t *testing.T) {
	r := gin.New()
	r.Use(middleware.CORSMiddleware())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://anything.test")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLogger_LevelByStatus(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.RequestLogger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/ok", "/bad", "/boom"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		r.ServeHTTP(w, req)
	}

	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 3)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, zap.ErrorLevel, entries[2].Level)
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])
	assert.Equal(t, "/boom", entries[2].ContextMap()["path"])
}

func TestRequestLogger_QuietPaths(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	r := gin.New()
	r.Use(middleware.RequestLogger(zap.New(core), "/health"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	assert.Zero(t, logs.Len())
}

type recordingCloudWatch struct {
	mu    sync.Mutex
	names []string
}

func (f *recordingCloudWatch) PutMetricData(_ context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range in.MetricData {
		f.names = append(f.names, *d.MetricName)
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func (f *recordingCloudWatch) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.names...)
}

func TestMetricsMiddleware_RecordsErrorCounters(t *testing.T) {
	fake := &recordingCloudWatch{}
	metrics := awspkg.NewMetricsClientWithAPI(fake, "Test", true)

	r := gin.New()
	r.Use(middleware.MetricsMiddleware(metrics, "checkout-service"))
	r.POST("/webhook", func(c *gin.Context) { c.String(http.StatusBadRequest, "Webhook error") })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/webhook", nil)
	r.ServeHTTP(w, req)

	assert.Eventually(t, func() bool { return len(fake.recorded()) == 4 }, time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []string{
		awspkg.MetricHTTPRequests,
		awspkg.MetricHTTPLatency,
		awspkg.MetricHTTPErrors,
		awspkg.MetricHTTP4xx,
	}, fake.recorded())
}

func TestMetricsMiddleware_NilClientPassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(middleware.MetricsMiddleware(nil, "checkout-service"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatusCodeToRange(t *testing.T) {
	cases := map[int]string{200: "2xx", 204: "2xx", 302: "3xx", 400: "4xx", 404: "4xx", 502: "5xx", 100: "unknown"}
	for code, want := range cases {
		assert.Equal(t, want, middleware.StatusCodeToRange(code), "status %d", code)
	}
}
