package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/oakline/oakline-backend/api/routes"
	"github.com/oakline/oakline-backend/internal/address"
	"github.com/oakline/oakline-backend/internal/auth"
	"github.com/oakline/oakline-backend/internal/cart"
	"github.com/oakline/oakline-backend/internal/catalog"
	"github.com/oakline/oakline-backend/internal/orders"
	"github.com/oakline/oakline-backend/internal/otp"
	"github.com/oakline/oakline-backend/internal/reviews"
	"github.com/oakline/oakline-backend/internal/users"
	"github.com/oakline/oakline-backend/internal/wishlist"
	"github.com/oakline/oakline-backend/pkg/auth/session"
	"github.com/oakline/oakline-backend/pkg/config"
	"github.com/oakline/oakline-backend/pkg/db"
	"github.com/oakline/oakline-backend/pkg/logger"
	"github.com/oakline/oakline-backend/pkg/mailer"
	"github.com/oakline/oakline-backend/pkg/metrics"
	"github.com/oakline/oakline-backend/pkg/migrate"
	"github.com/oakline/oakline-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	sender, err := mailer.NewBrevo(cfg.Brevo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create mail sender", err)
		os.Exit(1)
	}

	gdb := dbClient.DB()
	usersRepo := users.NewRepository(gdb)
	cartRepo := cart.NewRepository(gdb)
	catalogRepo := catalog.NewRepository(gdb)

	otpService, err := otp.NewService(otp.ServiceParams{
		Repo:   otp.NewRepository(gdb),
		Sender: sender,
		Config: cfg.OTP,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create otp service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.ServiceParams{Repo: catalogRepo})
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.ServiceParams{Repo: cartRepo})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	wishlistService, err := wishlist.NewService(wishlist.ServiceParams{
		Repo:        wishlist.NewRepository(gdb),
		CatalogRepo: catalogRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wishlist service", err)
		os.Exit(1)
	}

	addressService, err := address.NewService(address.ServiceParams{
		Repo: address.NewRepository(gdb),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create address service", err)
		os.Exit(1)
	}

	reviewsService, err := reviews.NewService(reviews.ServiceParams{
		Repo:        reviews.NewRepository(gdb),
		CatalogRepo: catalogRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reviews service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:   orders.NewRepository(gdb),
		Config: cfg.Orders,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		DB:             gdb,
		UserRepo:       usersRepo,
		CartRepo:       cartRepo,
		OTP:            otpService,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		BrevoConfig:    cfg.Brevo,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:         cfg,
			Logger:         logg,
			DB:             dbClient,
			Redis:          redisClient,
			SessionManager: sessionManager,
			Metrics:        httpMetrics,
			Registry:       registry,
			Auth:           authService,
			OTP:            otpService,
			Catalog:        catalogService,
			Cart:           cartService,
			Wishlist:       wishlistService,
			Address:        addressService,
			Orders:         ordersService,
			Reviews:        reviewsService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
