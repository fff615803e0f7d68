package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/therealutkarshpriyadarshi/edlkit/internal/cache"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/config"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/database"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/ingest"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/logging"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/middleware"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/monitoring"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/queue"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/storage"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/tracing"
)

// routerOptions selects the middleware wrapped around the API routes. Nil
// fields are skipped.
type routerOptions struct {
	auth         *middleware.Authenticator
	limiter      *middleware.RateLimiter
	quota        middleware.QuotaChecker
	uploadLimit  int64
	uploadWindow time.Duration
}

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
	logger = logger.WithField("service", "api")

	_, closer, err := tracing.InitTracer(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName + "-api",
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	routes := routerOptions{}

	// The cache is optional: without it every parse goes to the parser
	var sessionCache ingest.Cache
	redisCache, err := cache.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, running without cache")
	} else {
		defer redisCache.Close()
		sessionCache = redisCache
		routes.quota = redisCache
		routes.uploadLimit = cfg.RateLimit.UploadLimit
		routes.uploadWindow = cfg.RateLimit.UploadWindow
	}

	service := ingest.NewService(ingest.Config{
		Options:         opts,
		DefaultEncoding: cfg.Parser.DefaultEncoding,
		MaxSize:         cfg.Server.MaxUploadSize,
		SessionTTL:      cfg.Redis.SessionTTL,
		LockTTL:         cfg.Redis.LockTTL,
	}, stor, repo, sessionCache, q, nil, logger)

	monitor := monitoring.NewMonitor(repo, q, nil, logger)
	monitor.Start(ctx)

	if cfg.Auth.Enabled {
		routes.auth = middleware.NewAuthenticator(cfg.Auth.JWTSecret)
		logger.Info("JWT authentication enabled")
	}

	if cfg.RateLimit.Enabled {
		routes.limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		go routes.limiter.Cleanup(ctx, time.Minute)
	}

	api := &API{
		sessions:  service,
		health:    db,
		status:    monitor,
		maxUpload: cfg.Server.MaxUploadSize,
		logger:    logger,
	}

	gin.SetMode(gin.ReleaseMode)
	router := setupRouter(api, routes)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithErr("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithErr("Server forced to shutdown", err)
	}

	logger.Info("Server stopped")
}

func setupRouter(api *API, opts routerOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(api.logger))

	// Health check and metrics
	router.GET("/health", api.healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	if opts.limiter != nil {
		v1.Use(middleware.RateLimit(opts.limiter))
	}

	var mutating []gin.HandlerFunc
	if opts.auth != nil {
		mutating = append(mutating, opts.auth.JWTAuth())
	}

	upload := mutating
	if opts.quota != nil {
		upload = append(upload[:len(upload):len(upload)], middleware.UploadQuota(opts.quota, opts.uploadLimit, opts.uploadWindow))
	}

	{
		// Sessions
		v1.POST("/sessions", append(upload, api.uploadSession)...)
		v1.GET("/sessions", api.listSessions)
		v1.GET("/sessions/:id", api.getSession)
		v1.GET("/sessions/:id/tracks", api.getSessionTracks)
		v1.GET("/sessions/:id/markers", api.getSessionMarkers)
		v1.DELETE("/sessions/:id", append(mutating, api.deleteSession)...)

		// Stateless tools
		v1.POST("/parse", api.parseExport)
		v1.POST("/timecode/convert", api.convertTimecode)

		v1.GET("/status", api.systemStatus)
	}

	return router
}
