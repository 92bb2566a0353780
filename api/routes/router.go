package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oakline/oakline-backend/api/controllers"
	"github.com/oakline/oakline-backend/api/middleware"
	"github.com/oakline/oakline-backend/internal/address"
	"github.com/oakline/oakline-backend/internal/auth"
	"github.com/oakline/oakline-backend/internal/cart"
	"github.com/oakline/oakline-backend/internal/catalog"
	"github.com/oakline/oakline-backend/internal/orders"
	"github.com/oakline/oakline-backend/internal/otp"
	"github.com/oakline/oakline-backend/internal/reviews"
	"github.com/oakline/oakline-backend/internal/wishlist"
	"github.com/oakline/oakline-backend/pkg/auth/session"
	"github.com/oakline/oakline-backend/pkg/config"
	"github.com/oakline/oakline-backend/pkg/db"
	"github.com/oakline/oakline-backend/pkg/logger"
	"github.com/oakline/oakline-backend/pkg/metrics"
	"github.com/oakline/oakline-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *redis.Client
	SessionManager *session.Manager
	Metrics        *metrics.HTTPMetrics
	Registry       *prometheus.Registry

	Auth     auth.Service
	OTP      otp.Service
	Catalog  catalog.Service
	Cart     cart.Service
	Wishlist wishlist.Service
	Address  address.Service
	Orders   orders.Service
	Reviews  reviews.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.Metrics),
	)
	r.Use(middleware.CORS())

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)
	otpPolicy := middleware.NewAuthRateLimitPolicy(
		"otp",
		cfg.AuthRateLimit.OTPWindow,
		cfg.AuthRateLimit.OTPIPLimit,
		cfg.AuthRateLimit.OTPEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		// Public storefront surface.
		r.Get("/products", controllers.ProductList(deps.Catalog, logg))
		r.Get("/product/{productId}", controllers.ProductDetail(deps.Catalog, logg))
		r.Get("/autocomplete", controllers.ProductAutocomplete(deps.Catalog, logg))
		r.Get("/categories", controllers.CategoryList(deps.Catalog, logg))
		r.Get("/reviews", controllers.ReviewList(deps.Reviews, logg))

		r.With(middleware.AuthRateLimit(otpPolicy, deps.Redis, logg)).
			Post("/send_otp", controllers.OTPSend(deps.OTP, cfg.Brevo, logg))
		r.Post("/verify_otp", controllers.OTPVerify(deps.OTP, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).
			Post("/register", controllers.Register(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/login", controllers.Login(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(otpPolicy, deps.Redis, logg)).
			Post("/reset_password", controllers.ResetPassword(deps.Auth, logg))
		r.Post("/reset_password_confirm", controllers.ResetPasswordConfirm(deps.Auth, logg))

		// Authenticated surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.SessionManager, logg))

			r.Post("/logout", controllers.Logout(deps.Auth, logg))
			r.Get("/me", controllers.Me(deps.Auth, logg))
			r.Put("/me", controllers.MeUpdate(deps.Auth, logg))
			r.Post("/update-password", controllers.UpdatePassword(deps.Auth, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartView(deps.Cart, logg))
				r.Get("/count", controllers.CartCount(deps.Cart, logg))
				r.Post("/", controllers.CartAddItem(deps.Cart, logg))
				r.Put("/", controllers.CartSetQuantity(deps.Cart, logg))
				r.Delete("/{itemId}", controllers.CartRemoveItem(deps.Cart, logg))
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.WishlistList(deps.Wishlist, logg))
				r.Put("/", controllers.WishlistAddItem(deps.Wishlist, logg))
				r.Delete("/{entryId}", controllers.WishlistRemoveItem(deps.Wishlist, logg))
			})

			r.Route("/addressbook", func(r chi.Router) {
				r.Get("/", controllers.AddressList(deps.Address, logg))
				r.Post("/", controllers.AddressCreate(deps.Address, logg))
				r.Get("/{addressId}", controllers.AddressDetail(deps.Address, logg))
				r.Put("/{addressId}", controllers.AddressUpdate(deps.Address, logg))
				r.Delete("/{addressId}", controllers.AddressDelete(deps.Address, logg))
			})

			r.Get("/orders", controllers.OrderList(deps.Orders, logg))
			r.Post("/orders", controllers.OrderCreate(deps.Orders, logg))
			r.Get("/order/{orderId}", controllers.OrderDetail(deps.Orders, logg))
			r.Get("/order/{orderId}/items", controllers.OrderItems(deps.Orders, logg))

			r.Post("/reviews", controllers.ReviewCreate(deps.Reviews, logg))

			// Catalog ingestion, staff only.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireStaff(logg))
				r.Post("/upload/products", controllers.ProductCreate(deps.Catalog, logg))
				r.Post("/upload/image", controllers.ProductAddImage(deps.Catalog, logg))
			})
		})
	})

	return r
}
