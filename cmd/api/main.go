package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"bookswap/internal/config"
	"bookswap/internal/database"
	"bookswap/internal/domain/auth"
	"bookswap/internal/domain/catalog"
	"bookswap/internal/domain/exchange"
	"bookswap/internal/domain/message"
	"bookswap/internal/domain/notification"
	"bookswap/internal/middleware"
	jwtsvc "bookswap/internal/pkg/jwt"
	"bookswap/internal/realtime"
)

// @title			BookSwap API
// @version			1.0
// @description		Peer-to-peer book exchange: list books, request swaps, chat once a swap is accepted, and follow it all live over a websocket change feed.
// @BasePath		/api/v1
// @securityDefinitions.apikey	BearerAuth
// @in				header
// @name			Authorization
// @description		Type "Bearer" followed by a space and the JWT access token.
func main() {
	_ = godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load("")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.JWT.Secret == "" {
		if cfg.App.Mode == gin.ReleaseMode {
			slog.Error("JWT_SECRET must be set in release mode")
			os.Exit(1)
		}
		cfg.JWT.Secret = "bookswap-dev-secret"
		slog.Warn("JWT_SECRET is empty, using insecure dev secret")
	}

	gin.SetMode(cfg.App.Mode)

	db, err := database.Connect(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Refresh sessions live in Redis when one is configured, otherwise in
	// process memory (single node, dies with the process).
	var sessions auth.SessionStore
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			slog.Error("failed to connect to redis", "addr", cfg.Redis.Addr, "error", err)
			os.Exit(1)
		}
		sessions = auth.NewRedisSessionStore(rdb)
		slog.Info("sessions backed by redis", "addr", cfg.Redis.Addr)
	} else {
		sessions = auth.NewMemorySessionStore()
		slog.Info("sessions backed by process memory")
	}

	// Change events fan out over NATS when configured, so every API node
	// sees every commit. Without NATS the feed still works on a single node.
	var bus realtime.Bus
	if cfg.NATS.URL != "" {
		nb, err := realtime.NewNATSBus(cfg.NATS.URL)
		if err != nil {
			slog.Error("failed to connect to nats", "url", cfg.NATS.URL, "error", err)
			os.Exit(1)
		}
		bus = nb
		slog.Info("change events fan out over nats", "url", cfg.NATS.URL)
	} else {
		bus = realtime.NewInProcBus()
		slog.Info("change events fan out in process")
	}

	hub := realtime.NewHub()
	if err := hub.Start(bus); err != nil {
		slog.Error("failed to start change feed hub", "error", err)
		os.Exit(1)
	}

	jwtService := jwtsvc.New(cfg.JWT.Secret, cfg.JWT.AccessExpire)

	userRepo := auth.NewUserRepository(db)
	bookRepo := catalog.NewRepository(db)
	requestRepo := exchange.NewRepository(db)
	messageRepo := message.NewRepository(db)
	notificationRepo := notification.NewRepository(db)

	notificationService := notification.NewService(notificationRepo, bus)
	authService := auth.NewService(userRepo, jwtService, sessions, notificationService, cfg.JWT.RefreshExpire)
	catalogService := catalog.NewService(bookRepo)
	exchangeService := exchange.NewService(db, requestRepo, bookRepo, userRepo, notificationService, bus)
	messageService := message.NewService(db, messageRepo, requestRepo, userRepo, notificationService, bus)

	cookieSecure := cfg.App.Mode == gin.ReleaseMode
	authHandler := auth.NewHandler(authService, cookieSecure, "/api/v1/auth")
	catalogHandler := catalog.NewHandler(catalogService)
	exchangeHandler := exchange.NewHandler(exchangeService)
	messageHandler := message.NewHandler(messageService)
	notificationHandler := notification.NewHandler(notificationService)
	wsHandler := realtime.NewWSHandler(hub, jwtService)

	r := gin.New()
	r.Use(middleware.Recovery(), middleware.RequestLogger(), middleware.CORS())

	public := r.Group("/api/v1")
	// Browsing works anonymously but hides the caller's own shelf when a
	// valid token is present.
	browse := r.Group("/api/v1", middleware.OptionalJWT(jwtService))
	protected := r.Group("/api/v1", middleware.JWTAuth(jwtService))

	auth.RegisterRoutes(public, protected, authHandler)
	catalog.RegisterRoutes(browse, protected, catalogHandler)
	exchange.RegisterRoutes(protected, exchangeHandler)
	message.RegisterRoutes(protected, messageHandler)
	notification.RegisterRoutes(protected, notificationHandler)
	realtime.RegisterRoutes(r, wsHandler)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":      status,
			"connections": hub.ConnectionCount(),
		})
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cleanupService := notification.NewCleanupService(notificationRepo)
	stopCleanup := cleanupService.Schedule(ctx, notification.CleanupConfig{
		RetentionDays: cfg.Notifications.RetentionDays,
		Interval:      24 * time.Hour,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: r,
	}

	go func() {
		slog.Info("server listening", "app", cfg.App.Name, "port", cfg.App.Port, "mode", cfg.App.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	close(stopCleanup)
	hub.Stop()
	bus.Close()

	slog.Info("server stopped")
}
