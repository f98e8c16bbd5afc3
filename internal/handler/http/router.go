package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lifestyle/storefront/internal/catalog"
	"github.com/lifestyle/storefront/internal/service"
	"github.com/lifestyle/storefront/pkg/health"
	"github.com/lifestyle/storefront/pkg/middleware"
)

// serviceName labels metrics and spans emitted by the router.
const serviceName = "storefront"

// defaultCatalogMaxAge is the Cache-Control max-age for catalog reads, in seconds.
const defaultCatalogMaxAge = 60

// Services groups the application services served over HTTP.
type Services struct {
	Wishlist *service.WishlistService
	Cart     *service.CartService
	Checkout *service.CheckoutService
	Catalog  *catalog.Catalog
}

// RouterOptions tunes the cross-cutting middleware.
type RouterOptions struct {
	CORS          middleware.CORSConfig
	PprofCIDRs    []string
	CatalogMaxAge int

	// RateLimiter throttles session-scoped requests per client IP; nil disables it.
	RateLimiter *middleware.RateLimiter
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	svcs Services,
	sessions SessionProvider,
	healthHandler *health.Handler,
	logger *slog.Logger,
	opts RouterOptions,
) http.Handler {
	if opts.CatalogMaxAge <= 0 {
		opts.CatalogMaxAge = defaultCatalogMaxAge
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(opts.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, opts.PprofCIDRs, logger)

	productHandler := NewProductHandler(svcs.Catalog, logger)
	wishlistHandler := NewWishlistHandler(svcs.Wishlist, logger)
	cartHandler := NewCartHandler(svcs.Cart, logger)
	checkoutHandler := NewCheckoutHandler(svcs.Checkout, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Route("/products", func(r chi.Router) {
			r.Use(middleware.CacheControl(opts.CatalogMaxAge))

			r.Get("/", productHandler.ListProducts)
			r.Get("/collections", productHandler.ListCollections)
			r.Get("/filters", productHandler.GetFilters)
			r.Get("/{id}", productHandler.GetProduct)
		})

		// Session-scoped endpoints
		r.Group(func(r chi.Router) {
			if opts.RateLimiter != nil {
				r.Use(middleware.RateLimit(opts.RateLimiter, logger))
			}
			r.Use(middleware.NoStore)
			r.Use(SessionFromHeader(sessions, logger))

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", wishlistHandler.GetWishlist)
				r.Delete("/", wishlistHandler.ClearWishlist)

				r.Post("/items", wishlistHandler.AddItem)
				r.Post("/toggle", wishlistHandler.Toggle)
				r.Get("/items/{productId}", wishlistHandler.IsLiked)
				r.Delete("/items/{productId}", wishlistHandler.RemoveItem)
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)

				r.Get("/contains", cartHandler.Contains)
				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{key}", cartHandler.UpdateItemQuantity)
				r.Delete("/items/{key}", cartHandler.RemoveItem)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/summary", checkoutHandler.GetSummary)
				r.Post("/orders", checkoutHandler.PlaceOrder)
			})
		})
	})

	return r
}
