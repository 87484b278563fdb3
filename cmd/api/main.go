package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/georgemunganga/shopcart-backend/internal/modules/analytics"
	"github.com/georgemunganga/shopcart-backend/internal/modules/auth"
	"github.com/georgemunganga/shopcart-backend/internal/modules/cart"
	"github.com/georgemunganga/shopcart-backend/internal/modules/catalog"
	"github.com/georgemunganga/shopcart-backend/internal/modules/order"
	"github.com/georgemunganga/shopcart-backend/internal/modules/review"
	"github.com/georgemunganga/shopcart-backend/internal/modules/store"
	"github.com/georgemunganga/shopcart-backend/internal/modules/user"
	"github.com/georgemunganga/shopcart-backend/internal/pricing"
	"github.com/georgemunganga/shopcart-backend/internal/security"
	"github.com/georgemunganga/shopcart-backend/pkg/logging"
	"github.com/georgemunganga/shopcart-backend/pkg/shutdown"
)

func main() {
	logger := logging.New()

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using process environment")
	}

	db, err := sql.Open("postgres", os.Getenv("DATABASE_URL"))
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("failed to reach database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}
	tokens := security.NewManager(secret)
	rates := pricingFromEnv()

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)

	// ── Identity ────────────────────────────────────────────
	userRepo := user.NewPostgresRepository(db)
	userService := user.NewService(userRepo)
	user.NewHandler(userService, tokens).RegisterRoutes(router)

	authService := auth.NewService(userRepo, tokens)
	auth.NewHandler(authService, tokens, logger).RegisterRoutes(router)

	// ── Catalog ─────────────────────────────────────────────
	catalogRepo := catalog.NewPostgresRepository(db)
	catalogService := catalog.NewService(catalogRepo)
	catalog.NewHandler(catalogService, tokens).RegisterRoutes(router)

	// ── Cart & Orders ───────────────────────────────────────
	cartRepo := cart.NewPostgresRepository(db)
	cartService := cart.NewService(cartRepo, catalogService, rates)
	cart.NewHandler(cartService, tokens).RegisterRoutes(router)

	orderRepo := order.NewPostgresRepository(db)
	orderService := order.NewService(orderRepo, userRepo, catalogService, cartService, rates, logger)
	order.NewHandler(orderService, tokens).RegisterRoutes(router)

	// ── Reviews ─────────────────────────────────────────────
	reviewRepo := review.NewPostgresRepository(db)
	reviewService := review.NewService(reviewRepo, catalogService)
	review.NewHandler(reviewService, tokens).RegisterRoutes(router)

	// ── Stores ──────────────────────────────────────────────
	storeRepo := store.NewPostgresRepository(db)
	storeService := store.NewService(storeRepo)
	store.NewHandler(storeService, tokens).RegisterRoutes(router)

	// ── Analytics ───────────────────────────────────────────
	analyticsRepo := analytics.NewPostgresRepository(db)
	analytics.NewHandler(analyticsRepo, tokens).RegisterRoutes(router)

	// ── Start server ────────────────────────────────────────
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	go func() {
		logger.Info("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server stopped", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

// pricingFromEnv reads the tax and shipping rates, falling back to the
// standard defaults when unset.
func pricingFromEnv() pricing.Pricing {
	p := pricing.Default()
	if v, err := strconv.ParseFloat(os.Getenv("TAX_RATE"), 64); err == nil {
		p.TaxRate = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("FREE_SHIPPING_THRESHOLD"), 64); err == nil {
		p.FreeShippingThreshold = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("SHIPPING_FLAT_FEE"), 64); err == nil {
		p.FlatShippingFee = v
	}
	return p
}
