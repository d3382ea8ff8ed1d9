package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/gtclicks/settlement-service/api/routes"
	"github.com/gtclicks/settlement-service/internal/ledger"
	"github.com/gtclicks/settlement-service/internal/orders"
	"github.com/gtclicks/settlement-service/internal/settlement"
	webhookguard "github.com/gtclicks/settlement-service/internal/webhooks"
	"github.com/gtclicks/settlement-service/internal/webhooks/mercadopago"
	stripewebhook "github.com/gtclicks/settlement-service/internal/webhooks/stripe"
	"github.com/gtclicks/settlement-service/internal/withdrawals"
	"github.com/gtclicks/settlement-service/pkg/config"
	"github.com/gtclicks/settlement-service/pkg/db"
	"github.com/gtclicks/settlement-service/pkg/logger"
	"github.com/gtclicks/settlement-service/pkg/metrics"
	"github.com/gtclicks/settlement-service/pkg/migrate"
	"github.com/gtclicks/settlement-service/pkg/outbox"
	"github.com/gtclicks/settlement-service/pkg/redis"
	"github.com/gtclicks/settlement-service/pkg/stripe"
)

const webhookDedupTTL = 72 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})

	var dbClient *db.Client
	if cfg.Flags.UseSQLite {
		dbClient, err = db.NewSQLite(fmt.Sprintf("file:settlement_%s?mode=memory&cache=shared", uuid.NewString()))
	} else {
		dbClient, err = db.New(context.Background(), cfg.DB, logg)
	}
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		if cfg.IsProduction() {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		logg.Warn(context.Background(), "redis unavailable, webhook dedup and replay protection degraded")
		redisClient = nil
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	}

	ledgerRepo := ledger.NewRepository(dbClient.DB())
	ledgerSvc, err := ledger.NewService(ledgerRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersSvc, err := orders.NewService(ordersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	settlementSvc, err := settlement.NewService(
		settlement.NewRepository(dbClient.DB()),
		ordersRepo,
		ledgerSvc,
		outboxSvc,
		dbClient,
		logg,
		decimal.NewFromFloat(cfg.Flags.DefaultFeePercent),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement service", err)
		os.Exit(1)
	}

	withdrawalsSvc, err := withdrawals.NewService(
		withdrawals.NewRepository(dbClient.DB()),
		ledgerSvc,
		outboxSvc,
		dbClient,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create withdrawals service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	settlementMetrics := metrics.NewSettlementMetrics(registry)

	deps := routes.Deps{
		Config:      cfg,
		Logger:      logg,
		DB:          dbClient,
		Redis:       redisClient,
		Ledger:      ledgerSvc,
		Withdrawals: withdrawalsSvc,
		Orders:      ordersSvc,
		Metrics:     settlementMetrics,
		Registry:    registry,
	}

	// Providers are mounted only when both their credentials and redis (for
	// delivery dedup) are available.
	if cfg.Stripe.APIKey != "" && cfg.Stripe.WebhookSecret != "" && redisClient != nil {
		stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create stripe client", err)
			os.Exit(1)
		}
		stripeSvc, err := stripewebhook.NewService(settlementSvc)
		if err != nil {
			logg.Error(context.Background(), "failed to create stripe webhook service", err)
			os.Exit(1)
		}
		stripeGuard, err := webhookguard.NewIdempotencyGuard(redisClient, webhookDedupTTL, "stripe")
		if err != nil {
			logg.Error(context.Background(), "failed to create stripe idempotency guard", err)
			os.Exit(1)
		}
		deps.StripeClient = stripeClient
		deps.StripeWebhook = stripeSvc
		deps.StripeGuard = stripeGuard
	} else {
		logg.Warn(context.Background(), "stripe webhook disabled: missing credentials or redis")
	}

	if cfg.MercadoPago.AccessToken != "" && cfg.MercadoPago.WebhookSecret != "" && redisClient != nil {
		mpClient, err := mercadopago.NewClient(cfg.MercadoPago)
		if err != nil {
			logg.Error(context.Background(), "failed to create mercado pago client", err)
			os.Exit(1)
		}
		mpSvc, err := mercadopago.NewService(settlementSvc, mpClient)
		if err != nil {
			logg.Error(context.Background(), "failed to create mercado pago webhook service", err)
			os.Exit(1)
		}
		mpGuard, err := webhookguard.NewIdempotencyGuard(redisClient, webhookDedupTTL, "mercadopago")
		if err != nil {
			logg.Error(context.Background(), "failed to create mercado pago idempotency guard", err)
			os.Exit(1)
		}
		deps.MercadoPago = mpSvc
		deps.MercadoPagoGuard = mpGuard
	} else {
		logg.Warn(context.Background(), "mercado pago webhook disabled: missing credentials or redis")
	}

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      routes.NewRouter(deps),
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server shut down gracefully")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	}
}
