package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chetan-01-source/Crowdera-ecommerce/internal/bootstrap"
	"github.com/chetan-01-source/Crowdera-ecommerce/internal/domain"
	"github.com/chetan-01-source/Crowdera-ecommerce/internal/handler"
	"github.com/chetan-01-source/Crowdera-ecommerce/internal/middleware"
	"github.com/chetan-01-source/Crowdera-ecommerce/internal/repository"
	"github.com/chetan-01-source/Crowdera-ecommerce/internal/service"
	"github.com/chetan-01-source/Crowdera-ecommerce/internal/token"
	"github.com/chetan-01-source/Crowdera-ecommerce/pkg/config"
	"github.com/chetan-01-source/Crowdera-ecommerce/pkg/database"
	"github.com/chetan-01-source/Crowdera-ecommerce/pkg/logger"
	"github.com/chetan-01-source/Crowdera-ecommerce/pkg/redis"
	"github.com/chetan-01-source/Crowdera-ecommerce/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(&logger.Config{
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting Auth Service...")

	ctx := context.Background()

	// Initialize OpenTelemetry
	telemetryCfg := &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}
	if _, err := telemetry.Init(ctx, telemetryCfg); err != nil {
		appLog.Warn(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	} else if telemetryCfg.Enabled {
		appLog.Info(fmt.Sprintf("Telemetry initialized (collector: %s)", telemetryCfg.CollectorAddr))
	}
	defer telemetry.Shutdown(ctx)

	// Initialize database connection
	dbCfg := &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   1 * time.Second,
		EnableTracing:   cfg.OTel.Enabled,
	}
	db, err := database.NewPostgres(ctx, dbCfg)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Database connection failed: %v", err))
	}
	defer db.Close()
	appLog.Info(fmt.Sprintf("Database connected (pool: min=%d, max=%d)", dbCfg.MinConns, dbCfg.MaxConns))

	// Initialize Redis (rate limiting)
	redisClient, err := redis.NewClient(ctx, &redis.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		MaxRetries:   3,
	})
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Redis connection failed: %v", err))
	}
	defer redisClient.Close()
	appLog.Info(fmt.Sprintf("Redis connected (%s)", cfg.Redis.Addr()))

	// Wire repositories and services
	userRepo := repository.NewPostgresUserRepository(db.Pool())

	tokens, err := token.NewManager(token.Config{
		Secret:          cfg.JWT.Secret,
		AccessTokenTTL:  cfg.JWT.AccessTokenTTL,
		RefreshTokenTTL: cfg.JWT.RefreshTokenTTL,
		Issuer:          cfg.JWT.Issuer,
	})
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Token manager init failed: %v", err))
	}

	authService := service.NewAuthService(userRepo, tokens, &service.AuthServiceConfig{
		BcryptCost:   12,
		SessionLimit: cfg.JWT.SessionLimit,
	})

	// Seed the default admin account before accepting traffic
	if err := bootstrap.EnsureDefaultAdmin(ctx, userRepo, &cfg.Admin, 12); err != nil {
		appLog.Fatal(fmt.Sprintf("Admin bootstrap failed: %v", err))
	}

	authHandler := handler.NewAuthHandler(authService)
	adminHandler := handler.NewAdminHandler(authService)
	healthHandler := handler.NewHealthHandler(db, redisClient, cfg.App.Version)

	// Setup Gin
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	if cfg.OTel.Enabled {
		router.Use(telemetry.TracingMiddleware(cfg.App.Name))
	}

	// Health check endpoints (never rate limited)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	v1 := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		v1.Use(middleware.APIRateLimit(redisClient.Client(), cfg.RateLimit.APIMax, cfg.RateLimit.Window))
	}
	{
		auth := v1.Group("/auth")
		{
			// Public endpoints; credential-bearing ones get the tighter limit
			public := auth.Group("")
			if cfg.RateLimit.Enabled {
				public.Use(middleware.LoginRateLimit(redisClient.Client(), cfg.RateLimit.LoginMax, cfg.RateLimit.Window))
			}
			public.POST("/register", authHandler.Register)
			public.POST("/login", authHandler.Login)

			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", authHandler.Logout)

			// Protected endpoints (require authentication)
			protected := auth.Group("")
			protected.Use(middleware.RequireAuth(authService))
			{
				protected.GET("/me", authHandler.Me)
				protected.PUT("/me", authHandler.UpdateMe)
				protected.POST("/logout-all", authHandler.LogoutAll)
			}
		}

		// Admin user management
		admin := v1.Group("/admin")
		admin.Use(middleware.RequireAuth(authService))
		admin.Use(middleware.RequireRole(domain.RoleAdmin))
		{
			admin.GET("/users", adminHandler.ListUsers)
			admin.GET("/users/:id", adminHandler.GetUser)
			admin.DELETE("/users/:id", adminHandler.DeleteUser)
		}
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
	}

	// Start server in goroutine
	go func() {
		appLog.Info(fmt.Sprintf("Auth Service listening on %s", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal(fmt.Sprintf("Failed to start server: %v", err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	appLog.Info("Server exited gracefully")
}
