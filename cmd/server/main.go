package main

// @title           Realtime Threads API
// @version         1.0
// @description     Threads, direct messages and realtime notifications
// @host            localhost:8080
// @BasePath        /api/v1
// @schemes         http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the identity provider token.

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"realtime-threads/internal/adapters/kafka"
	"realtime-threads/internal/adapters/storage"
	"realtime-threads/internal/api/routes"
	"realtime-threads/internal/config"
	"realtime-threads/internal/database"
	"realtime-threads/internal/repository"
	"realtime-threads/internal/service"
	"realtime-threads/internal/websocket"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	config.SetupLogger(cfg.Log)
	slog.Info("Starting realtime threads server")

	// Initialize Redis connection
	redisClient, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// Initialize PostgreSQL connection
	db, err := database.NewPostgresConnection(cfg.Database.URI)
	if err != nil {
		slog.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Failed to get database instance", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	imageStore, err := storage.NewMinIOClient(context.Background(), cfg.Storage)
	if err != nil {
		slog.Error("Failed to connect to MinIO", "error", err)
		os.Exit(1)
	}

	// Activity stream is optional
	var activity websocket.ActivitySink
	if cfg.Kafka.Enabled() {
		producer, err := kafka.InitKafkaProducer(cfg.Kafka.Brokers, "realtime-threads")
		if err != nil {
			slog.Error("Failed to create Kafka producer, activity stream disabled", "error", err)
		} else {
			publisher := kafka.NewActivityPublisher(producer, cfg.Kafka.ActivityTopic)
			defer publisher.Close()
			activity = publisher
			slog.Info("Activity stream enabled", "topic", cfg.Kafka.ActivityTopic)
		}
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := websocket.NewMetrics(registry)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	chatRepo := repository.NewChatRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	threadRepo := repository.NewThreadRepository(db)

	identity := service.NewIdentityService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.Issuer)

	// Initialize WebSocket hub
	hub := websocket.NewHub(websocket.Options{
		Identity:       identity,
		Messages:       chatRepo,
		Notifications:  notificationRepo,
		Activity:       activity,
		Metrics:        metrics,
		Realtime:       cfg.Realtime,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	// Initialize router with all dependencies
	router := routes.NewRouter(routes.Dependencies{
		Hub:             hub,
		Identity:        identity,
		Users:           service.NewUserService(userRepo),
		Chat:            service.NewChatService(userRepo, chatRepo),
		Notifications:   service.NewNotificationService(notificationRepo),
		Threads:         service.NewThreadService(threadRepo, hub.Notifier()),
		RateLimiter:     service.NewRateLimitService(redisClient.GetClient()),
		Uploader:        imageStore,
		MetricsGatherer: registry,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		HealthCheck: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := sqlDB.PingContext(ctx); err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		},
	})
	router.SetupRoutes()

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	// Websocket connections are hijacked, so they are closed separately
	if err := hub.Shutdown(ctx); err != nil {
		slog.Error("WebSocket hub forced to shutdown", "error", err)
	}

	slog.Info("Server stopped")
}
