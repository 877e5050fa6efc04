package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/designstudio/internal/checkout"
	"github.com/utafrali/designstudio/pkg/health"
	"github.com/utafrali/designstudio/pkg/middleware"
)

const serviceName = "storefront"

// RouterConfig collects what the storefront routes are served from.
type RouterConfig struct {
	Carts    *CartHandler
	Checkout *checkout.Service
	Orders   OrderLookup
	Session  SessionConfig
	CORS     middleware.CORSConfig
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(cfg RouterConfig, healthHandler *health.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	checkoutHandler := NewCheckoutHandler(cfg.Checkout, cfg.Carts, cfg.Orders, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.CORS))
		r.Use(ContentTypeJSON)
		r.Use(Session(cfg.Session))
		// After Session so request logs carry the profile and scope.
		r.Use(middleware.RequestLogger(logger))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cfg.Carts.GetCart)
			r.Delete("/", cfg.Carts.ClearCart)
			r.Post("/migrate", cfg.Carts.MigrateCart)

			r.Post("/items", cfg.Carts.AddItem)
			r.Put("/items/{itemId}", cfg.Carts.UpdateItem)
			r.Delete("/items/{itemId}", cfg.Carts.RemoveItem)
		})

		r.Delete("/account/cart", cfg.Carts.DeleteAccountCart)

		r.Post("/checkout", checkoutHandler.PlaceOrder)
		r.Get("/orders/local", checkoutHandler.LocalOrders)
		r.Get("/orders/current", checkoutHandler.CurrentOrder)
		r.Get("/orders/{orderId}", checkoutHandler.GetOrder)
	})

	return r
}
