package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/veloura/storefront/api/controllers"
	"github.com/veloura/storefront/api/middleware"
	"github.com/veloura/storefront/internal/authrelay"
	"github.com/veloura/storefront/internal/catalog"
	"github.com/veloura/storefront/internal/customers"
	"github.com/veloura/storefront/internal/payments"
	"github.com/veloura/storefront/internal/relay"
	"github.com/veloura/storefront/pkg/config"
	"github.com/veloura/storefront/pkg/logger"
	"github.com/veloura/storefront/pkg/redis"
)

// Deps carries everything the router wires into handlers. Optional services
// may be nil; their routes respond 500 rather than panicking.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	Redis     *redis.Client
	Relay     *relay.Service
	AuthRelay authrelay.Service
	Catalog   catalog.Service
	Customers customers.Service
	Payments  payments.Service
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(d.Logger),
		middleware.RequestID(d.Logger),
		middleware.Logging(d.Logger),
		middleware.CORS(d.Config.CORS.AllowedOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		d.Config.AuthRateLimit.LoginWindow,
		d.Config.AuthRateLimit.LoginIPLimit,
		d.Config.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		d.Config.AuthRateLimit.RegisterWindow,
		d.Config.AuthRateLimit.RegisterIPLimit,
		d.Config.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(d.Config))
		r.Get("/ready", controllers.HealthReady(d.Config, pingerOrNil(d.Redis)))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, limiterOrNil(d.Redis), d.Logger)).
			Post("/login", controllers.Login(d.AuthRelay, d.Logger))
		r.With(middleware.AuthRateLimit(registerPolicy, limiterOrNil(d.Redis), d.Logger)).
			Post("/register", controllers.Register(d.AuthRelay, d.Logger))
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(d.Catalog, d.Logger))
		r.Get("/{id}", controllers.GetProduct(d.Catalog, d.Logger))
	})

	r.Route("/user", func(r chi.Router) {
		r.Get("/profile", controllers.GetProfile(d.Customers, d.Logger))
		r.Post("/profile", controllers.UpdateProfile(d.Customers, d.Logger))
		r.Get("/orders", controllers.ListOrders(d.Customers, d.Logger))
		r.Get("/order/{id}", controllers.GetOrder(d.Customers, d.Logger))
	})

	r.Route("/payment", func(r chi.Router) {
		r.Post("/intent", controllers.CreatePaymentIntent(d.Payments, d.Logger))
		r.Get("/intent/{id}", controllers.GetPaymentIntent(d.Payments, d.Logger))
	})

	// Everything under /store is the transparent credential relay: cart reads
	// and writes, checkout placement, nonce rotation.
	r.Handle("/store/*", controllers.StoreRelay(d.Relay, d.Logger))

	return r
}

// A typed nil *redis.Client must not reach the handlers as a non-nil
// interface, hence the explicit guards.
func pingerOrNil(c *redis.Client) redis.Pinger {
	if c == nil {
		return nil
	}
	return c
}

func limiterOrNil(c *redis.Client) redis.RateLimiter {
	if c == nil {
		return nil
	}
	return c
}
