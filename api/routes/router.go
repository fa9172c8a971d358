package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/thriftdrop-backend/api/controllers"
	webhookcontrollers "github.com/angelmondragon/thriftdrop-backend/api/controllers/webhooks"
	"github.com/angelmondragon/thriftdrop-backend/api/middleware"
	"github.com/angelmondragon/thriftdrop-backend/internal/auth"
	"github.com/angelmondragon/thriftdrop-backend/internal/deliveries"
	"github.com/angelmondragon/thriftdrop-backend/internal/notifications"
	"github.com/angelmondragon/thriftdrop-backend/internal/orders"
	"github.com/angelmondragon/thriftdrop-backend/internal/products"
	"github.com/angelmondragon/thriftdrop-backend/internal/webhookevents"
	"github.com/angelmondragon/thriftdrop-backend/pkg/auth/session"
	"github.com/angelmondragon/thriftdrop-backend/pkg/config"
	"github.com/angelmondragon/thriftdrop-backend/pkg/db/models"
	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
	"github.com/angelmondragon/thriftdrop-backend/pkg/logger"
	"github.com/angelmondragon/thriftdrop-backend/pkg/metrics"
)

type webhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

type webhookEventLister interface {
	List(ctx context.Context, params webhookevents.ListParams) ([]models.WebhookEvent, error)
}

// Dependencies is everything the router mounts. Nil services answer 500 on
// their routes; a nil WebhookGuard disables the Redis fast path.
type Dependencies struct {
	Config      *config.Config
	Logger      *logger.Logger
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics

	DB    controllers.Pinger
	Redis controllers.Pinger

	Sessions      session.AccessSessionChecker
	Auth          auth.Service
	Orders        orders.Service
	Deliveries    deliveries.Service
	Products      products.Service
	Notifications notifications.Service
	WebhookEvents webhookEventLister

	Webhooks     webhookcontrollers.PaymentDispatcher
	WebhookGuard webhookGuard
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readinessChecks(deps)))
	})

	if cfg.FeatureFlags.Metrics && deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/payments", webhookcontrollers.PaymentWebhook(deps.Webhooks, deps.WebhookGuard, cfg.Webhooks.Secret, logg))
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/auth/login", controllers.AdminAuthLogin(deps.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

			r.Post("/auth/logout", controllers.AdminAuthLogout(deps.Auth, logg))

			r.Get("/notifications", controllers.ListNotifications(deps.Notifications, logg))
			r.Post("/notifications/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
			r.Post("/notifications/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.AdminRoleOwner, enums.AdminRoleAdmin))
				r.Patch("/orders/{orderId}/status", controllers.AdminUpdateOrderStatus(deps.Orders, logg))
				r.Patch("/products/{productId}/status", controllers.AdminUpdateProductStatus(deps.Products, logg))
				r.Get("/webhook-events", controllers.ListWebhookEvents(deps.WebhookEvents, logg))
			})

			r.Patch("/deliveries/{deliveryId}/status", controllers.AdminUpdateDeliveryStatus(deps.Deliveries, logg))
		})
	})

	return r
}

func readinessChecks(deps Dependencies) map[string]controllers.Pinger {
	checks := map[string]controllers.Pinger{}
	if deps.DB != nil {
		checks["database"] = deps.DB
	}
	if deps.Redis != nil {
		checks["redis"] = deps.Redis
	}
	return checks
}
