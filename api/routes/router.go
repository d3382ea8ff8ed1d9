package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gtclicks/settlement-service/api/controllers"
	webhookcontrollers "github.com/gtclicks/settlement-service/api/controllers/webhooks"
	"github.com/gtclicks/settlement-service/api/middleware"
	"github.com/gtclicks/settlement-service/internal/ledger"
	"github.com/gtclicks/settlement-service/internal/orders"
	webhookguard "github.com/gtclicks/settlement-service/internal/webhooks"
	"github.com/gtclicks/settlement-service/internal/webhooks/mercadopago"
	stripewebhook "github.com/gtclicks/settlement-service/internal/webhooks/stripe"
	"github.com/gtclicks/settlement-service/internal/withdrawals"
	"github.com/gtclicks/settlement-service/pkg/config"
	"github.com/gtclicks/settlement-service/pkg/db"
	"github.com/gtclicks/settlement-service/pkg/enums"
	"github.com/gtclicks/settlement-service/pkg/logger"
	"github.com/gtclicks/settlement-service/pkg/metrics"
	"github.com/gtclicks/settlement-service/pkg/redis"
	"github.com/gtclicks/settlement-service/pkg/stripe"
)

// Deps carries everything the HTTP surface needs. Webhook routes are mounted
// only when their provider is configured; admin routes require the admin role.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger

	DB    db.Pinger
	Redis *redis.Client

	Ledger      ledger.Service
	Withdrawals withdrawals.Service
	Orders      orders.Service

	StripeClient     *stripe.Client
	StripeWebhook    *stripewebhook.Service
	StripeGuard      *webhookguard.IdempotencyGuard
	MercadoPago      *mercadopago.Service
	MercadoPagoGuard *webhookguard.IdempotencyGuard

	Metrics  *metrics.SettlementMetrics
	Registry *prometheus.Registry
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	var redisPinger redis.Pinger
	if deps.Redis != nil {
		redisPinger = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, redisPinger))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		if deps.StripeWebhook != nil {
			r.Post("/stripe", webhookcontrollers.StripeWebhook(deps.StripeWebhook, deps.StripeClient, deps.StripeGuard, deps.Metrics, logg))
		}
		if deps.MercadoPago != nil {
			r.Post("/mercadopago", webhookcontrollers.MercadoPagoWebhook(deps.MercadoPago, cfg.MercadoPago, deps.MercadoPagoGuard, deps.Metrics, logg))
		}
	})

	// A typed nil would defeat the middleware's missing-store check.
	var idempotencyStore redis.IdempotencyStore
	if deps.Redis != nil {
		idempotencyStore = deps.Redis
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/v1", func(r chi.Router) {
			r.Get("/balance", controllers.BalanceFetch(deps.Ledger, logg))
			r.Get("/ledger", controllers.LedgerEntryList(deps.Ledger, logg))

			r.Route("/withdrawals", func(r chi.Router) {
				r.Post("/", controllers.WithdrawalCreate(deps.Withdrawals, logg))
				r.Get("/", controllers.WithdrawalList(deps.Withdrawals, logg))
				r.Get("/{withdrawalId}", controllers.WithdrawalDetail(deps.Withdrawals, logg))
			})
		})

		r.Route("/admin/v1", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.RoleAdmin, logg))

			r.Route("/withdrawals", func(r chi.Router) {
				r.Get("/", controllers.AdminWithdrawalList(deps.Withdrawals, logg))
				r.Post("/{withdrawalId}/approve", controllers.AdminWithdrawalApprove(deps.Withdrawals, deps.Metrics, logg))
				r.Post("/{withdrawalId}/reject", controllers.AdminWithdrawalReject(deps.Withdrawals, deps.Metrics, logg))
				r.Post("/{withdrawalId}/pay", controllers.AdminWithdrawalPay(deps.Withdrawals, deps.Metrics, logg))
			})

			r.Get("/orders/{orderId}", controllers.AdminOrderDetail(deps.Orders, logg))
		})
	})

	return r
}
