package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/wedplan-backend/api/controllers"
	webhookcontrollers "github.com/angelmondragon/wedplan-backend/api/controllers/webhooks"
	"github.com/angelmondragon/wedplan-backend/api/middleware"
	"github.com/angelmondragon/wedplan-backend/pkg/config"
	"github.com/angelmondragon/wedplan-backend/pkg/enums"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
	"github.com/angelmondragon/wedplan-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs. Nil services make their
// routes answer INTERNAL_ERROR instead of panicking.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	Pingers     map[string]controllers.Pinger
	Idempotency redis.IdempotencyStore
	Gatherer    prometheus.Gatherer

	Billing  controllers.BillingService
	Checkout controllers.CheckoutService
	Confirm  controllers.ConfirmService

	StripeWebhook  webhookcontrollers.StripeWebhookService
	StripeVerifier webhookcontrollers.StripeVerifier
	StripeGuard    webhookcontrollers.StripeWebhookGuard
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, d.Pingers, logg))
	})

	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(d.StripeWebhook, d.StripeVerifier, d.StripeGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Idempotency(d.Idempotency, logg))

			r.Post("/billing/quote", controllers.BillingQuote(d.Billing, logg))
			r.Post("/bookings", controllers.CreateBooking(d.Checkout, logg))
			r.Post("/bookings/{bookingId}/confirm", controllers.ConfirmBooking(d.Confirm, logg))
			r.Get("/bookings/{bookingId}/billing", controllers.BookingBilling(d.Billing, logg))
		})

		// staff routes authenticate before the idempotency layer so a
		// rejected token is never stored as the replay response
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.With(
				middleware.RequireRole(logg, enums.StaffRoleOperator, enums.StaffRoleSupport),
			).Get("/bookings/{bookingId}/billing/snapshots", controllers.BookingSnapshots(d.Billing, logg))

			r.With(
				middleware.RequireRole(logg, enums.StaffRoleOperator),
				middleware.Idempotency(d.Idempotency, logg),
			).Post("/bookings/{bookingId}/billing/recompute", controllers.BookingRecompute(d.Billing, logg))
		})
	})

	return r
}
