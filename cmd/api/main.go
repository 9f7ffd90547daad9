package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/bupechanda/shopline-backend/internal/config"
	"github.com/bupechanda/shopline-backend/internal/modules/auth"
	"github.com/bupechanda/shopline-backend/internal/modules/cart"
	"github.com/bupechanda/shopline-backend/internal/modules/catalog"
	"github.com/bupechanda/shopline-backend/internal/modules/coupon"
	"github.com/bupechanda/shopline-backend/internal/modules/order"
	"github.com/bupechanda/shopline-backend/internal/modules/payment"
	"github.com/bupechanda/shopline-backend/internal/modules/review"
	"github.com/bupechanda/shopline-backend/internal/modules/user"
	"github.com/bupechanda/shopline-backend/internal/modules/wishlist"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if cfg.App.Env == "development" {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	// ── Infrastructure ────────────────────────────────────────────────────────
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		slog.Error("database is unreachable", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("redis is unreachable", "error", err)
		os.Exit(1)
	}

	// ── Modules ───────────────────────────────────────────────────────────────
	userRepo := user.NewPostgresRepository(db)
	userService := user.NewService(userRepo)
	authService := auth.NewService(userRepo, cfg.JWT.Secret)

	catalogRepo := catalog.NewPostgresRepository(db)
	catalogService := catalog.NewService(catalogRepo)

	cartService := cart.NewService(cart.NewRedisStore(rdb))
	couponService := coupon.NewService(coupon.NewPostgresRepository(db))

	orderService := order.NewService(order.NewPostgresRepository(db), cartService, couponService)

	gateways := payment.Registry{
		payment.ProviderStripe: payment.NewStripeGateway(payment.StripeConfig{
			SecretKey:     cfg.Payments.Stripe.SecretKey,
			WebhookSecret: cfg.Payments.Stripe.WebhookSecret,
			Mode:          cfg.Payments.Stripe.Mode,
		}),
		payment.ProviderPayPal: payment.NewPayPalGateway(payment.PayPalConfig{
			ClientID:     cfg.Payments.PayPal.ClientID,
			ClientSecret: cfg.Payments.PayPal.ClientSecret,
			WebhookID:    cfg.Payments.PayPal.WebhookID,
			Mode:         cfg.Payments.PayPal.Mode,
		}),
		payment.ProviderCreditCard: payment.NewCreditCardGateway(),
		payment.ProviderBankTransfer: payment.NewBankTransferGateway(payment.BankTransferConfig{
			WebhookSecret: cfg.Payments.BankTransfer.WebhookSecret,
		}),
	}
	paymentService := payment.NewService(payment.NewPostgresRepository(db), gateways, orderService)

	reviewService := review.NewService(review.NewPostgresRepository(db), catalogRepo)
	wishlistService := wishlist.NewService(wishlist.NewRedisStore(rdb), catalogRepo)

	// ── Router ────────────────────────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	requireAuth := auth.RequireAuth(cfg.JWT.Secret)

	user.NewHandler(userService).RegisterRoutes(r)
	auth.NewHandler(authService).RegisterRoutes(r)
	catalog.NewHandler(catalogService).RegisterRoutes(r)
	coupon.NewHandler(couponService).RegisterRoutes(r)
	cart.NewHandler(cartService).RegisterRoutes(r, requireAuth)
	order.NewHandler(orderService).RegisterRoutes(r, requireAuth)
	payment.NewHandler(paymentService).RegisterRoutes(r, requireAuth)
	review.NewHandler(reviewService).RegisterRoutes(r, requireAuth)
	wishlist.NewHandler(wishlistService).RegisterRoutes(r, requireAuth)

	addr := ":" + cfg.App.Port
	slog.Info("server starting", "addr", addr, "env", cfg.App.Env)
	if err := http.ListenAndServe(addr, r); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
