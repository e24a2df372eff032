package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/veloura/storefront/api/routes"
	"github.com/veloura/storefront/internal/authrelay"
	"github.com/veloura/storefront/internal/catalog"
	"github.com/veloura/storefront/internal/customers"
	"github.com/veloura/storefront/internal/payments"
	"github.com/veloura/storefront/internal/relay"
	"github.com/veloura/storefront/pkg/config"
	"github.com/veloura/storefront/pkg/logger"
	"github.com/veloura/storefront/pkg/metrics"
	"github.com/veloura/storefront/pkg/redis"
	"github.com/veloura/storefront/pkg/stripe"
	"github.com/veloura/storefront/pkg/upstream"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "gateway"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "gateway",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	upstreamClient, err := upstream.NewClient(cfg.Upstream)
	if err != nil {
		logg.Error(context.Background(), "failed to build upstream client", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured, auth rate limiting disabled")
	}

	relayMetrics := metrics.NewRelayMetrics(prometheus.DefaultRegisterer)
	relayService, err := relay.NewService(upstreamClient, cfg.Upstream.StorePrefix, relayMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build relay", err)
		os.Exit(1)
	}

	authRelay, err := authrelay.NewService(upstreamClient, cfg.Upstream.AuthPrefix, cfg.Upstream.AdminPrefix)
	if err != nil {
		logg.Error(context.Background(), "failed to build auth relay", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(upstreamClient, cfg.Upstream.AdminPrefix)
	if err != nil {
		logg.Error(context.Background(), "failed to build catalog service", err)
		os.Exit(1)
	}

	customerService, err := customers.NewService(upstreamClient, cfg.Upstream.AdminPrefix)
	if err != nil {
		logg.Error(context.Background(), "failed to build customer service", err)
		os.Exit(1)
	}

	var paymentService payments.Service
	if cfg.Stripe.APIKey != "" {
		stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap stripe", err)
			os.Exit(1)
		}
		paymentService, err = payments.NewService(payments.NewIntentAPI(stripeClient), stripeClient.Currency())
		if err != nil {
			logg.Error(context.Background(), "failed to build payment service", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "stripe not configured, online payments disabled")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"upstream": upstreamClient.Host(),
	})
	logg.Info(ctx, "starting storefront gateway")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:    cfg,
			Logger:    logg,
			Redis:     redisClient,
			Relay:     relayService,
			AuthRelay: authRelay,
			Catalog:   catalogService,
			Customers: customerService,
			Payments:  paymentService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "gateway stopped unexpectedly", err)
		os.Exit(1)
	}
}
