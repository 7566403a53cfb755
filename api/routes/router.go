package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marisca-pt/marisca-backend/api/controllers"
	webhookcontrollers "github.com/marisca-pt/marisca-backend/api/controllers/webhooks"
	"github.com/marisca-pt/marisca-backend/api/middleware"
	checkoutsvc "github.com/marisca-pt/marisca-backend/internal/checkout"
	"github.com/marisca-pt/marisca-backend/internal/orders"
	"github.com/marisca-pt/marisca-backend/internal/products"
	stripewebhook "github.com/marisca-pt/marisca-backend/internal/webhooks/stripe"
	"github.com/marisca-pt/marisca-backend/pkg/config"
	"github.com/marisca-pt/marisca-backend/pkg/db"
	"github.com/marisca-pt/marisca-backend/pkg/logger"
	"github.com/marisca-pt/marisca-backend/pkg/metrics"
	"github.com/marisca-pt/marisca-backend/pkg/ratelimit"
	"github.com/marisca-pt/marisca-backend/pkg/redis"
	"github.com/marisca-pt/marisca-backend/pkg/stripe"
)

// RouterParams collects everything the HTTP surface depends on.
type RouterParams struct {
	Config          *config.Config
	Logger          *logger.Logger
	DBPinger        db.Pinger
	RedisClient     *redis.Client
	CheckoutLimiter ratelimit.Limiter
	CheckoutService checkoutsvc.Service
	OrdersRepo      orders.Repository
	ProductsRepo    products.Repository
	StripeClient    *stripe.Client
	WebhookService  *stripewebhook.Service
	WebhookGuard    *stripewebhook.IdempotencyGuard
	Metrics         *metrics.PaymentMetrics
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, params.DBPinger, params.RedisClient))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(params.WebhookService, params.StripeClient, params.WebhookGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ListProducts(params.ProductsRepo, logg))
		r.Get("/products/{productID}", controllers.GetProduct(params.ProductsRepo, logg))
		r.Get("/orders/session/{sessionID}", controllers.GetOrderBySession(params.OrdersRepo, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))
			r.Use(middleware.RateLimitByIP(params.CheckoutLimiter, logg))
			r.Use(middleware.Idempotency(params.RedisClient, cfg.Checkout.IdempotencyTTL, logg))
			r.Post("/checkout", controllers.Checkout(params.CheckoutService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(cfg.Admin, logg))
		r.Get("/orders", controllers.AdminListOrders(params.OrdersRepo, logg))
		r.Get("/orders/{orderID}", controllers.AdminGetOrder(params.OrdersRepo, logg))
	})

	return r
}
