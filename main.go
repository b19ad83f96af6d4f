package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	apperrors "github.com/pronova-xy/checkout-service/common/errors"
	"github.com/pronova-xy/checkout-service/common/logger"
	"github.com/pronova-xy/checkout-service/common/middleware"
	"github.com/pronova-xy/checkout-service/config"
	"github.com/pronova-xy/checkout-service/controllers"
	awspkg "github.com/pronova-xy/checkout-service/pkg/aws"
	"github.com/pronova-xy/checkout-service/repository"
	"github.com/pronova-xy/checkout-service/routes"
	"github.com/pronova-xy/checkout-service/sender"
	"github.com/pronova-xy/checkout-service/services"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "checkout-service"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("[CheckoutService] Failed to load config: ", err)
	}

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelBoot()

	awsCfg, err := awspkg.LoadAWSConfig(bootCtx, awspkg.Options{
		Region:          cfg.AWSRegion,
		Endpoint:        cfg.AWSEndpoint,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	})
	if err != nil {
		log.Fatal("[CheckoutService] Failed to load AWS config: ", err)
	}

	var cwWriter io.Writer
	if cfg.CloudWatchEnabled {
		cwLogs, err := awspkg.NewCloudWatchLogsClient(bootCtx, awsCfg, cfg.CloudWatchLogGroup, serviceName)
		if err != nil {
			log.Println("[CheckoutService] CloudWatch logs disabled (non-fatal):", err)
		} else {
			cwWriter = cwLogs
		}
	}

	zlog, err := logger.New(cfg.IsProduction(), cwWriter)
	if err != nil {
		log.Fatal("[CheckoutService] Failed to initialize logger: ", err)
	}
	defer zlog.Sync()

	metricsClient := awspkg.NewMetricsClient(awsCfg, cfg.CloudWatchNamespace, cfg.CloudWatchEnabled)

	store, err := newConfigStore(cfg, awsCfg)
	if err != nil {
		zlog.Fatal("Failed to build configuration store", zap.Error(err))
	}

	// Payment config must be in place before the first request is accepted.
	loader := services.NewConfigLoader(store)
	paymentCfg, err := loader.LoadPaymentConfig(bootCtx)
	if err != nil {
		zlog.Fatal("Failed to load payment config",
			zap.String("backend", cfg.StoreBackend),
			zap.Bool("config_missing", errors.Is(err, apperrors.ErrConfigMissing)),
			zap.Error(err),
		)
	}
	cancelBoot()

	stripeSvc := services.NewStripeService(paymentCfg.StripeKey, cfg.StripeIgnoreAPIVersionMismatch)
	relay := services.NewNotificationRelay(sender.NewDiscordSender(cfg.RelayTimeout), metricsClient, zlog)

	var purchases services.PurchasePublisher
	if cfg.PurchaseSNSTopicARN != "" {
		purchases = sender.NewPurchaseEventSender(awspkg.NewSNSClient(awsCfg), cfg.PurchaseSNSTopicARN)
		zlog.Info("Purchase event fan-out enabled", zap.String("topic_arn", cfg.PurchaseSNSTopicARN))
	}

	checkoutSvc := services.NewCheckoutService(stripeSvc, cfg.StorefrontBaseURL, metricsClient, zlog)
	webhookSvc := services.NewWebhookService(loader, stripeSvc, relay, paymentCfg, purchases, metricsClient, zlog)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(zlog, "/health"))
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.MetricsMiddleware(metricsClient, serviceName))
	r.Use(apperrors.ErrorMiddleware(zlog))

	routes.RegisterRoutes(r, serviceName,
		controllers.NewCheckoutController(checkoutSvc),
		controllers.NewWebhookController(webhookSvc),
	)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		zlog.Info("Checkout Service started",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.String("config_backend", cfg.StoreBackend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("Server forced to shutdown", zap.Error(err))
	}
	// Handlers are done; let purchase notifications already acknowledged finish.
	if err := webhookSvc.Drain(ctx); err != nil {
		zlog.Error("Pending purchase notifications dropped", zap.Error(err))
		return
	}
	zlog.Info("Server exited cleanly")
}

func newConfigStore(cfg *config.Config, awsCfg sdkaws.Config) (repository.ConfigStore, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendDynamoDB:
		return repository.NewDynamoConfigStore(
			awspkg.NewDynamoDBClient(awsCfg),
			cfg.ConfigTable,
			cfg.PaymentDocID,
			cfg.WebhookSecretDocID,
		), nil
	case config.StoreBackendSecretsManager:
		return repository.NewSecretsConfigStore(
			awspkg.NewSecretsClient(awsCfg),
			cfg.SecretsPrefix,
			cfg.PaymentDocID,
			cfg.WebhookSecretDocID,
		), nil
	default:
		return nil, fmt.Errorf("unknown config store backend %q", cfg.StoreBackend)
	}
}
