package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/veladigital/libro-api/internal/config"
	"github.com/veladigital/libro-api/internal/domain"
	"github.com/veladigital/libro-api/internal/handler"
	"github.com/veladigital/libro-api/internal/infra/cache"
	"github.com/veladigital/libro-api/internal/infra/observability"
	"github.com/veladigital/libro-api/internal/infra/resilience"
	"github.com/veladigital/libro-api/internal/infra/supabase"
	"github.com/veladigital/libro-api/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.String("storage_bucket", cfg.StorageBucket),
		zap.Duration("signed_url_ttl", cfg.SignedURLTTL),
	)

	if cfg.SupabaseURL == "" || cfg.SupabaseServiceKey == "" {
		logger.Fatal("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(context.Background(), "libro-api", cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	listCache := cache.New[[]domain.Transaction](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("supabase")
	uploads := resilience.NewBulkhead(cfg.MaxConcurrency)

	// --- Supabase client ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	supabaseClient := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		cfg.StorageBucket,
		cb,
		resilienceCfg,
		uploads,
		logger,
	)
	logger.Info("using Supabase as data backend", zap.String("supabase_url", cfg.SupabaseURL))

	// --- Services ---
	txSvc := service.NewTransactionsService(supabaseClient, supabaseClient, listCache, cfg.SignedURLTTL, metrics, logger)
	recurringSvc := service.NewRecurringService(supabaseClient, supabaseClient, supabaseClient, cfg.SignedURLTTL, metrics, logger)
	cashflowSvc := service.NewCashFlowService(supabaseClient, logger)
	exportSvc := service.NewExportService(supabaseClient, supabaseClient, cashflowSvc, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(txSvc, recurringSvc, cashflowSvc, exportSvc, metrics, cfg.SupabaseJWTSecret, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
