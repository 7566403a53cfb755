package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/marisca-pt/marisca-backend/api/routes"
	checkoutsvc "github.com/marisca-pt/marisca-backend/internal/checkout"
	"github.com/marisca-pt/marisca-backend/internal/notifications"
	"github.com/marisca-pt/marisca-backend/internal/orders"
	"github.com/marisca-pt/marisca-backend/internal/products"
	"github.com/marisca-pt/marisca-backend/internal/users"
	stripewebhook "github.com/marisca-pt/marisca-backend/internal/webhooks/stripe"
	"github.com/marisca-pt/marisca-backend/pkg/config"
	"github.com/marisca-pt/marisca-backend/pkg/db"
	"github.com/marisca-pt/marisca-backend/pkg/logger"
	"github.com/marisca-pt/marisca-backend/pkg/mailer"
	"github.com/marisca-pt/marisca-backend/pkg/metrics"
	"github.com/marisca-pt/marisca-backend/pkg/migrate"
	"github.com/marisca-pt/marisca-backend/pkg/ratelimit"
	"github.com/marisca-pt/marisca-backend/pkg/redis"
	"github.com/marisca-pt/marisca-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	mailClient, err := mailer.New(cfg.Sendgrid)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap mailer", err)
		os.Exit(1)
	}

	paymentMetrics := metrics.NewPaymentMetrics()

	ordersRepo := orders.NewRepository(dbClient.DB())
	productsRepo := products.NewRepository(dbClient.DB())
	usersRepo := users.NewRepository(dbClient.DB())

	notifier, err := notifications.NewService(notifications.ServiceParams{
		Mailer:  mailClient,
		Users:   usersRepo,
		Logger:  logg,
		Metrics: paymentMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		OrdersRepo:        ordersRepo,
		StripeClient:      checkoutsvc.NewStripeClient(stripeClient),
		TransactionRunner: dbClient,
		AppConfig:         cfg.App,
		CheckoutConfig:    cfg.Checkout,
		Logger:            logg,
		Metrics:           paymentMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		OrdersRepo:   ordersRepo,
		ProductsRepo: productsRepo,
		Notifier:     notifier,
		Logger:       logg,
		Metrics:      paymentMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Stripe.EventDedupTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	checkoutLimiter, err := ratelimit.NewFixedWindow(redisClient, "checkout", cfg.RateLimit.CheckoutIPLimit, cfg.RateLimit.CheckoutWindow)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout limiter", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:          cfg,
			Logger:          logg,
			DBPinger:        dbClient,
			RedisClient:     redisClient,
			CheckoutLimiter: checkoutLimiter,
			CheckoutService: checkoutService,
			OrdersRepo:      ordersRepo,
			ProductsRepo:    productsRepo,
			StripeClient:    stripeClient,
			WebhookService:  webhookService,
			WebhookGuard:    webhookGuard,
			Metrics:         paymentMetrics,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
