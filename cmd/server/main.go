// Package main runs the retreat marketplace admin API with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/heilen-retreats/backend/config"
	"github.com/heilen-retreats/backend/internal/audit"
	"github.com/heilen-retreats/backend/internal/auth"
	"github.com/heilen-retreats/backend/internal/bookings"
	"github.com/heilen-retreats/backend/internal/businesses"
	"github.com/heilen-retreats/backend/internal/discounts"
	"github.com/heilen-retreats/backend/internal/middleware"
	"github.com/heilen-retreats/backend/internal/publication"
	"github.com/heilen-retreats/backend/internal/retreats"
	"github.com/heilen-retreats/backend/internal/stats"
	"github.com/heilen-retreats/backend/internal/users"
	"github.com/heilen-retreats/backend/pkg/database"
	"github.com/heilen-retreats/backend/pkg/queue"
	"github.com/heilen-retreats/backend/pkg/redis"
	"github.com/heilen-retreats/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	auditQueue := queue.NewQueue(rdb.Client, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Retreats ("services" to the console)
	retreatRepo := retreats.NewRepository(pool)
	retreatHandler := retreats.NewHandler(retreatRepo)

	// Publication review workflow
	publicationRepo := publication.NewRepository(pool)
	registry := publication.NewRegistry(publicationRepo, auditQueue, logger)
	publicationHandler := publication.NewHandler(registry)

	// Discount codes
	discountRepo := discounts.NewRepository(pool)
	ledger := discounts.NewLedger(discountRepo, auditQueue, logger)
	discountHandler := discounts.NewHandler(ledger)

	// Users
	userRepo := users.NewRepository(pool)
	userHandler := users.NewHandler(userRepo)

	// Businesses
	businessRepo := businesses.NewRepository(pool)
	businessHandler := businesses.NewHandler(businessRepo)

	// Bookings (redemption path for discount codes)
	bookingRepo := bookings.NewRepository(pool)
	bookingHandler := bookings.NewHandler(bookingRepo, retreatRepo, ledger, logger)

	// Audit trail (events are written by cmd/worker)
	auditRepo := audit.NewRepository(pool)
	auditHandler := audit.NewHandler(auditRepo)

	// Dashboard stats
	statsHandler := stats.NewHandler(pool, rdb.Client, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Business API (JWT required): submit a retreat for review
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.POST("/services/:id/publish-requests", middleware.RequireRole("business", "admin"), publicationHandler.Submit)
	}

	// Admin console API
	admin := router.Group("/admin")
	admin.Use(middleware.JWT(jwtService), middleware.RequireRole("admin"))
	{
		// Users
		admin.GET("/users", userHandler.List)
		admin.GET("/users/:id", userHandler.GetByID)
		admin.PUT("/users/:id/subscription", userHandler.UpdateSubscription)

		// Businesses
		admin.GET("/businesses", businessHandler.List)
		admin.GET("/businesses/:id", businessHandler.GetByID)

		// Services (retreats)
		admin.GET("/services", retreatHandler.List)
		admin.GET("/service/:id", retreatHandler.GetDetail)

		// Publication review
		admin.GET("/publish-requests", publicationHandler.List)
		admin.PUT("/publish-requests/:id/approve", publicationHandler.Approve)
		admin.PUT("/publish-requests/:id/reject", publicationHandler.Reject)
		admin.PUT("/publishing-response/:id", publicationHandler.SetStatus)

		// Discount codes
		admin.POST("/discount-codes", discountHandler.Create)
		admin.GET("/discount-codes", discountHandler.List)
		admin.GET("/discount-codes/:id", discountHandler.GetByID)
		admin.PUT("/discount-codes/:id", discountHandler.Update)
		admin.DELETE("/discount-codes/:id", discountHandler.Delete)
		admin.PATCH("/discount-codes/:id/toggle", discountHandler.Toggle)
		admin.GET("/discount-codes/:id/validity", discountHandler.Validity)
		admin.POST("/discount-codes/:id/uses", discountHandler.RecordUse)

		// Bookings
		admin.GET("/bookings", bookingHandler.List)
		admin.POST("/bookings", bookingHandler.Create)

		// Audit trail
		admin.GET("/audit-events", auditHandler.List)

		// Dashboard
		admin.GET("/stats", statsHandler.Get)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
