package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/spend-analysis-go/internal/config"
	"github.com/boddenberg/spend-analysis-go/internal/handler"
	"github.com/boddenberg/spend-analysis-go/internal/infra/cache"
	"github.com/boddenberg/spend-analysis-go/internal/infra/chart"
	"github.com/boddenberg/spend-analysis-go/internal/infra/export"
	"github.com/boddenberg/spend-analysis-go/internal/infra/observability"
	"github.com/boddenberg/spend-analysis-go/internal/infra/resilience"
	"github.com/boddenberg/spend-analysis-go/internal/infra/speech"
	"github.com/boddenberg/spend-analysis-go/internal/service"

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

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("charts_enabled", cfg.ChartsEnabled),
		zap.Int("chart_tail_days", cfg.ChartTailDays),
		zap.String("transcriber_backend", cfg.TranscriberBackend),
		zap.Bool("transcriber_fallback", cfg.TranscriberFallbackText != ""),
		zap.Int("transcribe_concurrency", cfg.TranscribeConcurrency),
		zap.Duration("transcript_cache_ttl", cfg.TranscriptCacheTTL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, observability.ServiceName)
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	transcriptCache := cache.New[string](cfg.TranscriptCacheTTL)
	defer transcriptCache.Close()

	// --- Speech model (loaded on first upload) ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	loader, err := speech.NewLoader(cfg, httpClient)
	if err != nil {
		logger.Fatal("failed to configure transcriber", zap.Error(err))
	}
	model := speech.NewLazyModel(cfg.TranscriberBackend, loader, logger, metrics)

	// --- Services ---
	analysisSvc := service.NewAnalysisService(
		chart.NewRenderer(800, 400),
		export.NewXLSXExporter(),
		cfg.ChartTailDays,
		cfg.ChartsEnabled,
		metrics,
		logger,
	)
	voiceSvc := service.NewVoiceService(
		model,
		transcriptCache,
		resilience.NewBulkhead(cfg.TranscribeConcurrency),
		cfg.AudioTempDir,
		metrics,
		logger,
	)

	// --- Router ---
	router := handler.NewRouter(analysisSvc, voiceSvc, metrics, handler.Limits{
		MaxBodyBytes:   cfg.MaxBodyBytes,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.HTTPTimeout + 30*time.Second,
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
