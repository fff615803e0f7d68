package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/therealutkarshpriyadarshi/edlkit/internal/cache"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/config"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/database"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/ingest"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/logging"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/metrics"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/monitoring"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/queue"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/storage"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/tracing"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/webhook"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger = logger.WithField("service", "worker")

	_, closer, err := tracing.InitTracer(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName + "-worker",
		AgentHost:   cfg.Tracing.AgentHost,
		AgentPort:   cfg.Tracing.AgentPort,
	})
	if err != nil {
		logger.FatalWithErr("Failed to initialize tracing", err)
	}
	defer closer.Close()

	opts, err := cfg.Parser.Options()
	if err != nil {
		logger.FatalWithErr("Invalid parser configuration", err)
	}

	// Initialize database
	db, err := database.New(cfg.Database)
	if err != nil {
		logger.FatalWithErr("Failed to connect to database", err)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		logger.FatalWithErr("Failed to migrate database", err)
	}

	repo := database.NewRepository(db)

	// Initialize storage
	stor, err := storage.New(cfg.Storage)
	if err != nil {
		logger.FatalWithErr("Failed to initialize storage", err)
	}

	// Initialize queue
	q, err := queue.New(cfg.Queue, logger)
	if err != nil {
		logger.FatalWithErr("Failed to connect to queue", err)
	}
	defer q.Close()

	// Without Redis every job parses from scratch and no ingest lock is taken
	var sessionCache ingest.Cache
	redisCache, err := cache.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, running without cache")
	} else {
		defer redisCache.Close()
		sessionCache = redisCache
	}

	var notifier ingest.Notifier
	if hooks := webhook.NewService(cfg.Webhook, logger); hooks.Enabled() {
		notifier = hooks
	}

	service := ingest.NewService(ingest.Config{
		Options:         opts,
		DefaultEncoding: cfg.Parser.DefaultEncoding,
		MaxSize:         cfg.Server.MaxUploadSize,
		SessionTTL:      cfg.Redis.SessionTTL,
		LockTTL:         cfg.Redis.LockTTL,
	}, stor, repo, sessionCache, nil, notifier, logger)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutting down worker gracefully...")
		cancel()
	}()

	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics.Port)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.ErrorWithErr("Metrics server stopped", err)
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	monitor := monitoring.NewMonitor(repo, q, service.InFlight, logger)
	monitor.Start(ctx)

	// Start consuming jobs
	logger.Infof("Worker started with %d consumers, waiting for exports...", cfg.Queue.Workers)
	if err := q.ConsumeIngestJobs(ctx, cfg.Queue.Workers, service.Process); err != nil {
		logger.FatalWithErr("Failed to consume jobs", err)
	}

	// Wait for shutdown
	<-ctx.Done()
	logger.Info("Worker stopped")
}
