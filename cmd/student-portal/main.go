package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/terra-clan/student-portal/internal/api"
	"github.com/terra-clan/student-portal/internal/config"
	"github.com/terra-clan/student-portal/internal/gateway"
	"github.com/terra-clan/student-portal/internal/monitor"
	"github.com/terra-clan/student-portal/internal/services"
	"github.com/terra-clan/student-portal/internal/storage"
	"github.com/terra-clan/student-portal/internal/widgets"
	"github.com/terra-clan/student-portal/pkg/client"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting student-portal",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"questions_base_url", cfg.Questions.BaseURL,
		"gateway", cfg.Gateway.Enabled,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	registry := services.NewRegistry()
	var critical []string

	// Widget data: PostgreSQL when configured, YAML/sample data otherwise
	var repo storage.Repository
	if cfg.Database.DSN != "" {
		slog.Info("running database migrations", "dir", cfg.Database.MigrationsDir)
		if err := storage.MigrateFromDSN(initCtx, cfg.Database.DSN, cfg.Database.MigrationsDir); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		pgRepo, err := storage.NewPostgresRepository(initCtx, storage.PostgresConfig{
			DSN:          cfg.Database.DSN,
			MaxOpenConns: int32(cfg.Database.MaxOpenConns),
			MaxIdleConns: int32(cfg.Database.MaxIdleConns),
		})
		if err != nil {
			slog.Error("failed to create database repository", "error", err)
			os.Exit(1)
		}
		slog.Info("database connected successfully")

		registry.Register("postgres", services.NewPingChecker("database", pgRepo.Ping))
		critical = append(critical, "postgres")
		repo = pgRepo
	} else {
		loader := widgets.NewLoader()
		if cfg.Widgets.Dir != "" {
			if err := loader.LoadFromDir(cfg.Widgets.Dir); err != nil {
				slog.Warn("failed to load widgets from dir", "dir", cfg.Widgets.Dir, "error", err)
			}
		}
		repo = loader
	}

	// Notification read state: Redis when configured, memory otherwise
	var tracker storage.ReadTracker
	if cfg.Redis.Address != "" {
		redisTracker, err := storage.NewRedisReadTracker(initCtx, storage.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		registry.Register("redis", services.NewPingChecker("cache", redisTracker.Ping))
		critical = append(critical, "redis")
		tracker = redisTracker
	} else {
		tracker = storage.NewMemoryReadTracker()
	}

	// Development gateway
	var gw *gateway.Gateway
	if cfg.Gateway.Enabled {
		gw, err = gateway.New(cfg.Gateway.Routes)
		if err != nil {
			slog.Error("failed to create gateway", "error", err)
			os.Exit(1)
		}
		for prefix, target := range gw.Targets() {
			registry.Register("upstream:"+prefix, services.NewHTTPChecker(target, 5*time.Second))
		}
	}

	levels := client.NewClient(cfg.Questions.BaseURL, client.WithTimeout(15*time.Second))

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start health prober
	prober := monitor.NewProber(registry, cfg.Health.Interval)
	prober.Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, api.Dependencies{
		Repository:     repo,
		ReadTracker:    tracker,
		QuestionLevels: levels,
		Gateway:        gw,
		Prober:         prober,
		StreamInterval: cfg.Widgets.StreamInterval,
		Critical:       critical,
	})
	httpServer := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     server.Router(),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: it would cut the notification stream
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if err := tracker.Close(); err != nil {
		slog.Error("read tracker close error", "error", err)
	}
	if err := repo.Close(); err != nil {
		slog.Error("repository close error", "error", err)
	}

	slog.Info("student-portal stopped")
}
