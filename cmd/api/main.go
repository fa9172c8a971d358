package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/thriftdrop-backend/api"
	"github.com/angelmondragon/thriftdrop-backend/api/routes"
	"github.com/angelmondragon/thriftdrop-backend/internal/auth"
	"github.com/angelmondragon/thriftdrop-backend/internal/deliveries"
	"github.com/angelmondragon/thriftdrop-backend/internal/notifications"
	"github.com/angelmondragon/thriftdrop-backend/internal/orders"
	"github.com/angelmondragon/thriftdrop-backend/internal/products"
	"github.com/angelmondragon/thriftdrop-backend/internal/webhookevents"
	"github.com/angelmondragon/thriftdrop-backend/internal/webhooks"
	"github.com/angelmondragon/thriftdrop-backend/pkg/auth/session"
	"github.com/angelmondragon/thriftdrop-backend/pkg/config"
	"github.com/angelmondragon/thriftdrop-backend/pkg/db"
	"github.com/angelmondragon/thriftdrop-backend/pkg/logger"
	"github.com/angelmondragon/thriftdrop-backend/pkg/metrics"
	"github.com/angelmondragon/thriftdrop-backend/pkg/migrate"
	"github.com/angelmondragon/thriftdrop-backend/pkg/outbox"
	"github.com/angelmondragon/thriftdrop-backend/pkg/redis"
	"github.com/angelmondragon/thriftdrop-backend/pkg/security"
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
	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	bootCtx := context.Background()

	dbClient, err := db.New(bootCtx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(bootCtx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(bootCtx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	webhookMetrics := metrics.NewWebhookMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	gdb := dbClient.DB()
	outboxService := outbox.NewService(outbox.NewRepository(gdb), logg)
	orderRepo := orders.NewRepository(gdb)
	productRepo := products.NewRepository(gdb)
	deliveryRepo := deliveries.NewRepository(gdb)
	notificationRepo := notifications.NewRepository(gdb)
	eventRepo := webhookevents.NewRepository(gdb)

	authService, err := auth.NewService(auth.ServiceParams{
		Admins:         auth.NewRepository(gdb),
		SessionManager: sessionManager,
		Hasher:         security.NewHasher(cfg.Password),
		JWTConfig:      cfg.JWT,
		Logger:         logg,
	})
	if err != nil {
		return err
	}
	orderService, err := orders.NewService(orders.ServiceParams{
		Repository: orderRepo,
		TxRunner:   dbClient,
		Outbox:     outboxService,
		Logger:     logg,
	})
	if err != nil {
		return err
	}
	productService, err := products.NewService(products.ServiceParams{
		Repository: productRepo,
		TxRunner:   dbClient,
		Outbox:     outboxService,
		Logger:     logg,
	})
	if err != nil {
		return err
	}
	deliveryService, err := deliveries.NewService(deliveries.ServiceParams{
		Repository:    deliveryRepo,
		Notifications: notificationRepo,
		TxRunner:      dbClient,
		Outbox:        outboxService,
		Logger:        logg,
	})
	if err != nil {
		return err
	}
	notificationService, err := notifications.NewService(notificationRepo)
	if err != nil {
		return err
	}
	webhookService, err := webhooks.NewService(webhooks.ServiceParams{
		Events:        eventRepo,
		Orders:        orderRepo,
		Products:      productRepo,
		Deliveries:    deliveryRepo,
		Notifications: notificationRepo,
		Outbox:        outboxService,
		TxRunner:      dbClient,
		Metrics:       webhookMetrics,
		Logger:        logg,
	})
	if err != nil {
		return err
	}

	deps := routes.Dependencies{
		Config:        cfg,
		Logger:        logg,
		Gatherer:      registry,
		HTTPMetrics:   httpMetrics,
		DB:            dbClient,
		Redis:         redisClient,
		Sessions:      sessionManager,
		Auth:          authService,
		Orders:        orderService,
		Deliveries:    deliveryService,
		Products:      productService,
		Notifications: notificationService,
		WebhookEvents: eventRepo,
		Webhooks:      webhookService,
	}
	if cfg.Webhooks.GuardEnabled {
		guard, err := webhooks.NewGuard(redisClient, cfg.Webhooks.GuardTTL)
		if err != nil {
			return err
		}
		deps.WebhookGuard = guard
	}
	if !cfg.Webhooks.SignatureRequired() {
		logg.Warn(bootCtx, "payment webhook signature verification disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.App.Port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := api.NewServer(addr, routes.NewRouter(deps))
	if err := api.Serve(ctx, server, logg); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logg.Info(ctx, "api server stopped")
	return nil
}
