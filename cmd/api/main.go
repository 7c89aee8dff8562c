package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/lavka/lavka-api/internal/config"
	"github.com/lavka/lavka-api/internal/domain/admin"
	"github.com/lavka/lavka-api/internal/domain/auth"
	"github.com/lavka/lavka-api/internal/domain/bonus"
	"github.com/lavka/lavka-api/internal/domain/cart"
	"github.com/lavka/lavka-api/internal/domain/order"
	"github.com/lavka/lavka-api/internal/domain/product"
	"github.com/lavka/lavka-api/internal/domain/user"
	"github.com/lavka/lavka-api/internal/middleware"
	"github.com/lavka/lavka-api/internal/pkg/database"
	"github.com/lavka/lavka-api/internal/pkg/email"
	"github.com/lavka/lavka-api/internal/pkg/jwt"
	"github.com/lavka/lavka-api/internal/pkg/logger"
	pkgresponse "github.com/lavka/lavka-api/internal/pkg/response"
	"github.com/lavka/lavka-api/internal/pkg/storage"
	"github.com/lavka/lavka-api/internal/pkg/yookassa"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Lavka API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	imageStore, err := storage.NewS3Storage(storage.S3Config{
		Endpoint:  cfg.StorageEndpoint,
		AccessKey: cfg.StorageAccessKey,
		SecretKey: cfg.StorageSecretKey,
		Bucket:    cfg.StorageBucket,
		Region:    cfg.StorageRegion,
		PublicURL: cfg.StoragePublicURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create object storage client")
	}

	payments := yookassa.NewClient(yookassa.Config{
		ShopID:    cfg.YooKassaShopID,
		SecretKey: cfg.YooKassaSecretKey,
	})

	mailer := email.NewSendGridClient(email.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.EmailFrom,
		FromName:  cfg.EmailFromName,
	})

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)

	// ---------- Admin order feed ----------
	feed := order.NewFeed()
	go feed.Run()
	defer feed.Shutdown()

	// ---------- Services ----------
	bonusService := bonus.NewService(db)
	authService := auth.NewService(userRepo, jwtService, redis, bonusService, cfg.ReferralBonus)
	userService := user.NewServiceWithRepository(userRepo)
	productService := product.NewService(db)
	cartService := cart.NewService(db)
	orderService := order.NewService(db, payments, feed)
	adminService := admin.NewService(db)

	// ---------- Handlers ----------
	authHandler := auth.NewHandler(authService, mailer)
	userHandler := user.NewHandler(userService)
	productHandler := product.NewHandler(productService, adminService)
	imageHandler := product.NewImageHandler(productService, imageStore, redis, adminService)
	cartHandler := cart.NewHandler(cartService)
	orderHandler := order.NewHandler(orderService, cfg.YooKassaReturnURL, adminService)
	bonusHandler := bonus.NewHandler(bonusService)
	adminHandler := admin.NewHandler(adminService, userRepo, bonusService)

	authMiddleware := middleware.Auth(jwtService)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	// Admin order feed over WebSocket. Browsers cannot set headers on the
	// upgrade request, so the token arrives as a query parameter.
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		authMiddleware(middleware.RequireAdmin(http.HandlerFunc(feed.ServeWS))).ServeHTTP(w, r)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", authHandler.Routes(authMiddleware))
		r.Mount("/products", product.Routes(productHandler))
		r.Mount("/cart", cart.Routes(cartHandler, authMiddleware))
		r.Mount("/orders", order.Routes(orderHandler, authMiddleware))
		r.Mount("/bonuses", bonusHandler.Routes(authMiddleware))
		r.Mount("/profile", user.Routes(userHandler, authMiddleware,
			func(r chi.Router) { r.Get("/orders", orderHandler.List) },
			func(r chi.Router) { r.Get("/bonuses", bonusHandler.Get) },
		))

		r.Route("/admin", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RequireAdmin)

			r.Mount("/products", product.AdminRoutes(productHandler, imageHandler))
			r.Mount("/orders", order.AdminRoutes(orderHandler))
			r.Mount("/", admin.Routes(adminHandler))
		})
	})

	// Payment provider callbacks are authenticated by payment id lookup,
	// not by bearer token.
	r.Post("/webhooks/yookassa", orderHandler.Webhook)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
